package expr

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokNumber
	tokString
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokDot
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func (t token) String() string {
	if t.kind == tokEOF {
		return "end of expression"
	}
	return fmt.Sprintf("%q", t.text)
}

// twoCharOps must be checked before single-character operators.
var twoCharOps = []string{"==", "!=", "<=", ">=", "&&", "||"}

func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		r, size := utf8.DecodeRuneInString(src[i:])
		switch {
		case unicode.IsSpace(r):
			i += size
		case r == '(':
			toks = append(toks, token{tokLParen, "(", i})
			i++
		case r == ')':
			toks = append(toks, token{tokRParen, ")", i})
			i++
		case r == '.' && (afterPath(toks) || !(i+1 < len(src) && isDigit(src[i+1]))):
			toks = append(toks, token{tokDot, ".", i})
			i++
		case r == '"' || r == '\'':
			s, n, err := lexString(src[i:], byte(r))
			if err != nil {
				return nil, &SyntaxError{Pos: i, Msg: err.Error()}
			}
			toks = append(toks, token{tokString, s, i})
			i += n
		case (r >= '0' && r <= '9') || r == '.':
			start := i
			// A segment of a dotted path such as items.0.name is an integer.
			inPath := len(toks) > 0 && toks[len(toks)-1].kind == tokDot
			for i < len(src) && (isDigit(src[i]) || (src[i] == '.' && !inPath)) {
				i++
			}
			toks = append(toks, token{tokNumber, src[start:i], start})
		case r == '_' || r == '$' || unicode.IsLetter(r):
			start := i
			for i < len(src) {
				r, size := utf8.DecodeRuneInString(src[i:])
				if r != '_' && r != '$' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
					break
				}
				i += size
			}
			toks = append(toks, token{tokIdent, src[start:i], start})
		default:
			op := ""
			for _, candidate := range twoCharOps {
				if strings.HasPrefix(src[i:], candidate) {
					op = candidate
					break
				}
			}
			if op == "" && strings.ContainsRune("!<>+-", r) {
				op = string(r)
			}
			if op == "" {
				return nil, &SyntaxError{Pos: i, Msg: fmt.Sprintf("unexpected character %q", r)}
			}
			toks = append(toks, token{tokOp, op, i})
			i += len(op)
		}
	}
	return append(toks, token{tokEOF, "", len(src)}), nil
}

// lexString reads a quoted string starting at s[0] and returns its value and
// the number of bytes consumed. Only \\ and an escaped quote are recognised.
func lexString(s string, quote byte) (string, int, error) {
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		switch c := s[i]; {
		case c == quote:
			return b.String(), i + 1, nil
		case c == '\\' && i+1 < len(s):
			i++
			b.WriteByte(s[i])
		default:
			b.WriteByte(c)
		}
	}
	return "", 0, fmt.Errorf("unterminated string")
}

// afterPath reports whether a '.' at this point continues a dotted path.
func afterPath(toks []token) bool {
	if len(toks) == 0 {
		return false
	}
	k := toks[len(toks)-1].kind
	return k == tokIdent || (k == tokNumber && len(toks) > 1 && toks[len(toks)-2].kind == tokDot)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
