package migrate

import (
	"math"
	"sort"
)

// Document is a decoded config document in its generic JSON shape
// (map[string]any / []any / string / float64 / bool / nil).
type Document = map[string]any

// VersionKey is the top-level field that carries the schema version.
const VersionKey = "configVersion"

// Clone returns a deep copy of doc.
func Clone(doc Document) Document {
	if doc == nil {
		return nil
	}
	return cloneValue(doc).(map[string]any)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	default:
		return v
	}
}

// version reads configVersion. ok is false when the value is present but not
// a whole number.
func version(doc Document) (v int, ok bool) {
	raw, present := doc[VersionKey]
	if !present || raw == nil {
		return 1, true
	}
	var f float64
	switch n := raw.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		return n, true
	case int64:
		return int(n), true
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok && m != nil
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// stringList returns the string members of a JSON array, skipping anything else.
func stringList(v any) []string {
	var out []string
	for _, item := range asSlice(v) {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// objects returns the object members of a JSON array, skipping nulls and scalars.
func objects(v any) []map[string]any {
	var out []map[string]any
	for _, item := range asSlice(v) {
		if m, ok := asMap(item); ok {
			out = append(out, m)
		}
	}
	return out
}

// ensureSlice returns doc[key] as a slice, installing an empty one when the
// field is missing or mistyped.
func ensureSlice(doc Document, key string) []any {
	s, ok := doc[key].([]any)
	if !ok || s == nil {
		s = []any{}
		doc[key] = s
	}
	return s
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
