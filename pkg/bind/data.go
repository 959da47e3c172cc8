package bind

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vango-dev/vtree/pkg/bind/expr"
)

// Data is the per-render data context.
type Data map[string]any

// Merge returns a new context with the keys of each update applied over base
// in order. Neither input is modified.
func Merge(base Data, updates ...Data) Data {
	out := make(Data, len(base))
	for k, v := range base {
		out[k] = v
	}
	for _, u := range updates {
		for k, v := range u {
			out[k] = v
		}
	}
	return out
}

// scope chains iteration variables over the render data.
type scope struct {
	vars   map[string]any
	parent *scope
}

func newScope(data Data) *scope {
	return &scope{vars: data}
}

func (s *scope) child(vars map[string]any) *scope {
	return &scope{vars: vars, parent: s}
}

// Lookup implements expr.Scope.
func (s *scope) Lookup(name string) (any, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// resolve looks up a dotted path.
func (s *scope) resolve(path string) (any, bool) {
	parts := strings.Split(path, ".")
	root, ok := s.Lookup(parts[0])
	if !ok {
		return nil, false
	}
	return expr.Resolve(root, parts[1:])
}

// Stringify formats a data value for interpolation. nil becomes the empty
// string and floats use the shortest exact representation.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case fmt.Stringer:
		return x.String()
	case error:
		return x.Error()
	}
	return fmt.Sprint(v)
}
