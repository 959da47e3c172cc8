package expr

import (
	"reflect"
	"strconv"
	"strings"
)

// Resolve walks path through nested maps, structs, slices and pointers
// starting at root. Struct fields match exported names case-insensitively;
// slice segments are decimal indexes. The segment "length" yields the length
// of a slice, array, map or string that has no such key.
func Resolve(root any, path []string) (any, bool) {
	v := root
	for _, seg := range path {
		next, ok := step(v, seg)
		if !ok {
			return nil, false
		}
		v = next
	}
	return v, true
}

func step(v any, seg string) (any, bool) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			if mv := rv.MapIndex(reflect.ValueOf(seg).Convert(rv.Type().Key())); mv.IsValid() {
				return mv.Interface(), true
			}
		}
	case reflect.Struct:
		t := rv.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.IsExported() && strings.EqualFold(f.Name, seg) {
				return rv.Field(i).Interface(), true
			}
		}
	case reflect.Slice, reflect.Array:
		if idx, err := strconv.Atoi(seg); err == nil {
			if idx >= 0 && idx < rv.Len() {
				return rv.Index(idx).Interface(), true
			}
			return nil, false
		}
	case reflect.String:
	default:
		return nil, false
	}

	if seg == "length" {
		switch rv.Kind() {
		case reflect.Slice, reflect.Array, reflect.Map:
			return rv.Len(), true
		case reflect.String:
			return len([]rune(rv.String())), true
		}
	}
	return nil, false
}
