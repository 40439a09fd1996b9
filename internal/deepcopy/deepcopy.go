// Package deepcopy provides the normalization, cloning, and equality helpers
// shared by the form state record and the in-memory store. Record trees are
// JSON-shaped by construction (map[string]any, []any, string, float64, bool,
// nil); Normalize is the funnel that enforces that shape on every value
// entering a record.
package deepcopy

import (
	"encoding/json"
	"reflect"
)

// Normalize round-trips value through JSON so that trees built from typed
// structs, ints, or json.Number all collapse into the same shapes. Values
// that cannot be marshalled (channels, funcs, NaN) are returned unchanged.
func Normalize(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return v
	case bool:
		return v
	case float64:
		return v
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return value
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return value
	}
	return out
}

// NormalizeMap normalizes value and coerces the result to an object tree.
// Anything that does not normalize to an object yields an empty map.
func NormalizeMap(value any) map[string]any {
	if value == nil {
		return map[string]any{}
	}
	if m, ok := Normalize(value).(map[string]any); ok && m != nil {
		return m
	}
	return map[string]any{}
}

// Clone deep-copies value. JSON-shaped trees take the cheap recursive path;
// everything else (structs, pointers, typed maps) goes through reflection.
func Clone[T any](value T) T {
	out, ok := cloneAny(any(value)).(T)
	if !ok {
		var zero T
		return zero
	}
	return out
}

// CloneMap deep-copies an object tree, never returning nil.
func CloneMap(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for key, value := range src {
		out[key] = cloneAny(value)
	}
	return out
}

// Equal reports deep equality between two values.
func Equal(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

func cloneAny(value any) any {
	switch typed := value.(type) {
	case nil:
		return nil
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for k, v := range typed {
			clone[k] = cloneAny(v)
		}
		return clone
	case []any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = cloneAny(v)
		}
		return clone
	case string, bool, float64, int, int64, float32:
		return typed
	default:
		cloned := cloneReflect(reflect.ValueOf(value))
		if !cloned.IsValid() {
			return value
		}
		return cloned.Interface()
	}
}

func cloneReflect(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.New(v.Type().Elem())
		clone.Elem().Set(cloneReflect(v.Elem()))
		return clone
	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		elem := cloneReflect(v.Elem())
		if !elem.IsValid() {
			return reflect.Zero(v.Type())
		}
		return elem.Convert(v.Type())
	case reflect.Struct:
		clone := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			field := clone.Field(i)
			if !field.CanSet() {
				continue
			}
			field.Set(cloneReflect(v.Field(i)))
		}
		return clone
	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			clone.SetMapIndex(iter.Key(), cloneReflect(iter.Value()))
		}
		return clone
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(cloneReflect(v.Index(i)))
		}
		return clone
	case reflect.Array:
		clone := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(cloneReflect(v.Index(i)))
		}
		return clone
	default:
		return reflect.ValueOf(v.Interface())
	}
}
