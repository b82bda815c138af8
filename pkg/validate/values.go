package validate

import (
	"cmp"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/keeper/pkg/types"
)

// Format renders a canonical value as text. The result parses back to the
// same value with Parse.
func Format(t types.FieldType, v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case []string:
		return strings.Join(val, ", ")
	}
	if f, ok := ToFloat(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}

// Compare orders two canonical values of type t. Missing values sort first.
// Text compares case-insensitively, falling back to byte order on ties.
func Compare(t types.FieldType, a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	switch t {
	case types.TypeInteger, types.TypeDuration, types.TypeDecimal:
		fa, _ := ToFloat(a)
		fb, _ := ToFloat(b)
		return cmp.Compare(fa, fb)
	case types.TypeText:
		sa, sb := Format(t, a), Format(t, b)
		if c := strings.Compare(strings.ToLower(sa), strings.ToLower(sb)); c != 0 {
			return c
		}
		return strings.Compare(sa, sb)
	}
	// Canonical dates, times and datetimes sort lexically.
	return strings.Compare(Format(t, a), Format(t, b))
}

// Equal reports whether the canonical value v matches raw input for f. Text
// matches case-insensitively; a list matches when any item does.
func Equal(f types.Field, v any, raw string) (bool, error) {
	raw = strings.TrimSpace(raw)
	switch f.Type {
	case types.TypeText:
		s, _ := v.(string)
		return strings.EqualFold(s, raw), nil
	case types.TypeList:
		items, _ := v.([]string)
		for _, item := range items {
			if strings.EqualFold(item, raw) {
				return true, nil
			}
		}
		return false, nil
	}
	want, err := convert(f, raw)
	if err != nil {
		return false, err
	}
	return v != nil && Compare(f.Type, v, want) == 0, nil
}

// ToFloat converts a numeric canonical value to float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
