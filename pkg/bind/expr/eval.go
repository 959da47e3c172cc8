package expr

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Expr is a parsed expression.
type Expr interface {
	// Eval evaluates the expression against scope. Numbers are float64.
	Eval(scope Scope) (any, error)
	String() string
}

// Scope resolves the first segment of a variable path.
type Scope interface {
	Lookup(name string) (any, bool)
}

// Vars is a Scope backed by a map.
type Vars map[string]any

// Lookup implements Scope.
func (v Vars) Lookup(name string) (any, bool) {
	val, ok := v[name]
	return val, ok
}

// UndefinedError reports a variable path the scope cannot resolve.
type UndefinedError struct {
	Name string
}

func (e *UndefinedError) Error() string {
	return fmt.Sprintf("undefined variable %q", e.Name)
}

// TypeError reports an operator applied to values it does not support.
type TypeError struct {
	Op          string
	Left, Right any
}

func (e *TypeError) Error() string {
	if e.Op == "unary -" {
		return fmt.Sprintf("cannot negate %T", e.Right)
	}
	return fmt.Sprintf("cannot apply %q to %T and %T", e.Op, e.Left, e.Right)
}

// EvalBool evaluates e and reports its truthiness.
func EvalBool(e Expr, scope Scope) (bool, error) {
	v, err := e.Eval(scope)
	if err != nil {
		return false, err
	}
	return Truthy(v), nil
}

// Truthy reports whether v counts as true in a condition. false, nil, zero
// numbers, empty strings and empty collections are false.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	}
	if f, ok := toNumber(v); ok {
		return f != 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

type literal struct{ v any }

func (l literal) Eval(Scope) (any, error) { return l.v, nil }

func (l literal) String() string {
	switch v := l.v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return fmt.Sprint(l.v)
}

type variable struct{ path []string }

func (v variable) Eval(scope Scope) (any, error) {
	if scope == nil {
		return nil, &UndefinedError{Name: v.String()}
	}
	root, ok := scope.Lookup(v.path[0])
	if !ok {
		return nil, &UndefinedError{Name: v.path[0]}
	}
	val, ok := Resolve(root, v.path[1:])
	if !ok {
		return nil, &UndefinedError{Name: v.String()}
	}
	return val, nil
}

type unary struct {
	op string
	x  Expr
}

func (u *unary) Eval(scope Scope) (any, error) {
	v, err := u.x.Eval(scope)
	if err != nil {
		return nil, err
	}
	if u.op == "!" {
		return !Truthy(v), nil
	}
	f, ok := toNumber(v)
	if !ok {
		return nil, &TypeError{Op: "unary -", Right: v}
	}
	return -f, nil
}

func (u *unary) String() string { return u.op + u.x.String() }

type binary struct {
	op          string
	left, right Expr
}

func (b *binary) String() string {
	return "(" + b.left.String() + " " + b.op + " " + b.right.String() + ")"
}

func (b *binary) Eval(scope Scope) (any, error) {
	l, err := b.left.Eval(scope)
	if err != nil {
		return nil, err
	}
	switch b.op {
	case "&&":
		if !Truthy(l) {
			return false, nil
		}
		r, err := b.right.Eval(scope)
		if err != nil {
			return nil, err
		}
		return Truthy(r), nil
	case "||":
		if Truthy(l) {
			return true, nil
		}
		r, err := b.right.Eval(scope)
		if err != nil {
			return nil, err
		}
		return Truthy(r), nil
	}

	r, err := b.right.Eval(scope)
	if err != nil {
		return nil, err
	}
	switch b.op {
	case "==":
		return equal(l, r), nil
	case "!=":
		return !equal(l, r), nil
	case "<", "<=", ">", ">=":
		c, ok := compare(l, r)
		if !ok {
			return nil, &TypeError{Op: b.op, Left: l, Right: r}
		}
		switch b.op {
		case "<":
			return c < 0, nil
		case "<=":
			return c <= 0, nil
		case ">":
			return c > 0, nil
		default:
			return c >= 0, nil
		}
	case "+":
		if ls, ok := l.(string); ok {
			if rs, ok := r.(string); ok {
				return ls + rs, nil
			}
		}
		fallthrough
	case "-":
		lf, lok := toNumber(l)
		rf, rok := toNumber(r)
		if !lok || !rok {
			return nil, &TypeError{Op: b.op, Left: l, Right: r}
		}
		if b.op == "+" {
			return lf + rf, nil
		}
		return lf - rf, nil
	}
	return nil, fmt.Errorf("unknown operator %q", b.op)
}

func equal(l, r any) bool {
	if l == nil || r == nil {
		return l == nil && r == nil
	}
	if lf, ok := toNumber(l); ok {
		rf, ok := toNumber(r)
		return ok && lf == rf
	}
	lv, rv := reflect.ValueOf(l), reflect.ValueOf(r)
	if lv.Type() != rv.Type() || !lv.Comparable() {
		return false
	}
	return lv.Equal(rv)
}

func compare(l, r any) (int, bool) {
	if lf, ok := toNumber(l); ok {
		rf, ok := toNumber(r)
		if !ok {
			return 0, false
		}
		switch {
		case lf < rf:
			return -1, true
		case lf > rf:
			return 1, true
		}
		return 0, true
	}
	ls, lok := l.(string)
	rs, rok := r.(string)
	if !lok || !rok {
		return 0, false
	}
	return strings.Compare(ls, rs), true
}

func toNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
