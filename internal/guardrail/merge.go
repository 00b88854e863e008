package guardrail

import (
	"reflect"
	"strings"

	"github.com/thoas/go-funk"
)

// IsEmpty reports whether v carries no information: nil, a blank string,
// an empty sequence or an empty map. Numbers and booleans are never
// empty.
func IsEmpty(v any) bool {
	switch val := normalize(v).(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	default:
		return false
	}
}

// MergeValue merges incoming into existing and reports whether the
// result differs from existing.
//
//   - nil incoming clears the value.
//   - An empty incoming value never replaces existing.
//   - Sequences are unioned: existing order first, new entries appended,
//     duplicates dropped.
//   - Maps are merged shallowly; an incoming key wins only when its value
//     is not empty.
//   - Anything else is replaced.
func MergeValue(existing, incoming any) (any, bool) {
	ex := normalize(existing)
	if incoming == nil {
		return nil, ex != nil
	}

	in := normalize(incoming)
	if IsEmpty(in) {
		return ex, false
	}

	var merged any
	switch inVal := in.(type) {
	case []any:
		exVal, ok := ex.([]any)
		if !ok && ex != nil {
			merged = inVal
			break
		}
		merged = union(exVal, inVal)
	case map[string]any:
		exVal, ok := ex.(map[string]any)
		if !ok && ex != nil {
			merged = inVal
			break
		}
		merged = shallowMerge(exVal, inVal)
	default:
		merged = inVal
	}

	return merged, !Equal(merged, ex)
}

// FillIfEmpty only ever writes into an empty value. It is used for
// fields that may be inferred but must never overwrite what is there.
func FillIfEmpty(existing, incoming any) (any, bool) {
	ex := normalize(existing)
	if !IsEmpty(ex) {
		return ex, false
	}
	in := normalize(incoming)
	if IsEmpty(in) {
		return ex, false
	}
	return in, true
}

// Equal compares two JSON-shaped values after normalization, so an int
// and the float64 decoded from JSON compare equal.
func Equal(a, b any) bool {
	return reflect.DeepEqual(normalize(a), normalize(b))
}

func union(existing, incoming []any) []any {
	out := make([]any, 0, len(existing)+len(incoming))
	for _, v := range existing {
		if !funk.Contains(out, v) {
			out = append(out, v)
		}
	}
	for _, v := range incoming {
		if !funk.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func shallowMerge(existing, incoming map[string]any) map[string]any {
	out := make(map[string]any, len(existing)+len(incoming))
	for k, v := range existing {
		out[k] = v
	}
	for k, v := range incoming {
		if IsEmpty(v) {
			continue
		}
		out[k] = v
	}
	return out
}

// normalize converts Go values into the shapes encoding/json produces:
// []any, map[string]any, float64, string, bool and nil.
func normalize(v any) any {
	if v == nil {
		return nil
	}
	switch val := v.(type) {
	case string, bool, float64:
		return val
	case []any:
		out := make([]any, len(val))
		for i := range val {
			out[i] = normalize(val[i])
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k := range val {
			out[k] = normalize(val[k])
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return normalize(rv.Elem().Interface())
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return []any{}
		}
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = normalize(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = normalize(iter.Value().Interface())
		}
		return out
	}
	return v
}
