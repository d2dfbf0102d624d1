package pricing

import (
	"encoding/json"
	"strconv"
	"strings"
)

// InputSet maps field keys to raw submitted values. Values are assumed to be
// decoded JSON primitives: float64, string, bool, or []any for multi-select.
type InputSet map[string]any

// has reports whether the input carries a usable value for the key. Empty
// strings and empty arrays count as absent.
func (in InputSet) has(key string) bool {
	v, ok := in[key]
	if !ok || v == nil {
		return false
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t) != ""
	case []any:
		return len(t) > 0
	case []string:
		return len(t) > 0
	}
	return true
}

// toNumber coerces a raw input value to float64. Booleans are deliberately
// excluded so numeric comparisons fail closed on them.
func toNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

// toList coerces a raw input value to a slice of values.
func toList(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

// normalizeScalar renders a scalar value as a canonical comparison string so
// that 10, 10.0 and "10" compare equal.
func normalizeScalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case bool:
		if t {
			return "true"
		}
		return "false"
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return strconv.FormatFloat(f, 'g', -1, 64)
		}
		return t
	default:
		if f, ok := toNumber(v); ok {
			return strconv.FormatFloat(f, 'g', -1, 64)
		}
		return ""
	}
}

// isTruthy reports whether a raw input value selects a boolean option.
func isTruthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		return s == "true" || s == "1" || s == "yes" || s == "on"
	default:
		if f, ok := toNumber(v); ok {
			return f != 0
		}
	}
	return false
}
