// Package params converts semi-structured MediaWiki request parameters into
// the wire format the Action API expects: arrays join with "|", booleans are
// presence flags ("1" when true, omitted when false), numbers become decimal
// strings. The conversions are pure and never fail.
package params

import (
	"fmt"
	"net/url"
	"strconv"
)

// Value converts a single parameter value to its wire string. The second
// return is false when the value must be omitted entirely (nil, false, or a
// nil-ish slice of nothing).
func Value(item any) (string, bool) {
	switch v := item.(type) {
	case nil:
		return "", false
	case bool:
		if v {
			return "1", true
		}
		return "", false
	case string:
		return v, true
	case []string:
		return joinPipe(v), true
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := Value(item); ok {
				parts = append(parts, s)
			}
		}
		return joinPipe(parts), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case fmt.Stringer:
		return v.String(), true
	default:
		return fmt.Sprint(v), true
	}
}

func joinPipe(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "|"
		}
		out += p
	}
	return out
}

// Normalize converts a whole parameter map into url.Values, dropping values
// that Value reports as absent. The result is safe to form-encode or append
// to a query string.
func Normalize(in map[string]any) url.Values {
	out := url.Values{}
	for key, raw := range in {
		if s, ok := Value(raw); ok {
			out.Set(key, s)
		}
	}
	return out
}

// Merge overlays src onto dst, later maps winning on key conflicts. nil maps
// are skipped. The originals are never mutated.
func Merge(maps ...map[string]any) map[string]any {
	out := map[string]any{}
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}
