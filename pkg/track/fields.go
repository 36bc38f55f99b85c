package track

import (
	"encoding/json"
	"strconv"
)

// Fields is a loosely typed property bag. Values usually come straight out of
// a JSON decode, so the accessors coerce across the types json produces.
type Fields map[string]any

// Str returns the value at key rendered as a string. Empty strings and
// missing keys both report absent.
func (f Fields) Str(key string) (string, bool) {
	v, ok := f[key]
	if !ok || v == nil {
		return "", false
	}
	switch s := v.(type) {
	case string:
		if s == "" {
			return "", false
		}
		return s, true
	case float64:
		return formatNum(s), true
	case int:
		return strconv.Itoa(s), true
	case int64:
		return strconv.FormatInt(s, 10), true
	case bool:
		return strconv.FormatBool(s), true
	case json.Number:
		return s.String(), true
	}
	return "", false
}

// Num returns the value at key as a float64, parsing numeric strings.
func (f Fields) Num(key string) (float64, bool) {
	v, ok := f[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		parsed, err := n.Float64()
		return parsed, err == nil
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		return parsed, err == nil
	}
	return 0, false
}

// Int returns the value at key truncated to an int.
func (f Fields) Int(key string) (int, bool) {
	n, ok := f.Num(key)
	if !ok {
		return 0, false
	}
	return int(n), true
}

// Bool returns the value at key as a boolean, accepting the string and
// numeric spellings producers use.
func (f Fields) Bool(key string) (bool, bool) {
	v, ok := f[key]
	if !ok || v == nil {
		return false, false
	}
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(b)
		return parsed, err == nil
	case float64:
		return b != 0, true
	case int:
		return b != 0, true
	}
	return false, false
}

// Sub returns the nested object at key.
func (f Fields) Sub(key string) (Fields, bool) {
	v, ok := f[key]
	if !ok || v == nil {
		return nil, false
	}
	switch m := v.(type) {
	case map[string]any:
		return Fields(m), true
	case Fields:
		return m, true
	}
	return nil, false
}

// List returns the slice of objects at key, skipping non-object entries.
func (f Fields) List(key string) []Fields {
	v, ok := f[key]
	if !ok {
		return nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]Fields, 0, len(raw))
	for _, entry := range raw {
		switch m := entry.(type) {
		case map[string]any:
			out = append(out, Fields(m))
		case Fields:
			out = append(out, m)
		}
	}
	return out
}

// formatNum renders a float the way JSON would: no exponent for typical
// values, no trailing zeros.
func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
