package validate

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mesh-intelligence/keeper/pkg/types"
)

// Canonical layouts.
const (
	DateLayout     = "2006-01-02"
	TimeLayout     = "15:04"
	DateTimeLayout = time.RFC3339
)

// Accepted input layouts, tried in order.
var (
	dateInputs     = []string{"02/01/2006", DateLayout}
	timeInputs     = []string{TimeLayout, "15:04:05"}
	dateTimeInputs = []string{
		"02/01/2006 15:04:05",
		"02/01/2006 15:04",
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02T15:04",
	}
)

// Validator parses and checks field values. The zero value is not usable;
// construct with New.
type Validator struct {
	now func() time.Time
}

// Option configures a Validator.
type Option func(*Validator)

// WithClock sets the clock used to resolve "now" and "today" defaults.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) { v.now = now }
}

// New returns a Validator using the system clock unless overridden.
func New(opts ...Option) *Validator {
	v := &Validator{now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Parse converts raw input for f to its canonical value and applies the
// field's rules. Empty input takes the field default; with no default it is
// rejected for required fields and yields nil for optional ones.
func (v *Validator) Parse(f types.Field, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if f.Default == "" {
			if f.Required {
				return nil, missing(f)
			}
			return nil, nil
		}
		raw = v.resolveDefault(f)
	}
	val, err := convert(f, raw)
	if err != nil {
		return nil, err
	}
	if err := check(f, raw, val); err != nil {
		return nil, err
	}
	return val, nil
}

// Coerce converts a decoded value (for example a JSON number or array) to
// the canonical value for f and applies the field's rules.
func (v *Validator) Coerce(f types.Field, value any) (any, error) {
	if value == nil {
		if f.Required {
			return nil, missing(f)
		}
		return nil, nil
	}
	if s, ok := value.(string); ok {
		return v.Parse(f, s)
	}

	var (
		val any
		ok  bool
	)
	switch f.Type {
	case types.TypeText:
		val, ok = value.(string)
	case types.TypeInteger, types.TypeDuration:
		val, ok = toInt64(value)
	case types.TypeDecimal:
		var fl float64
		fl, ok = ToFloat(value)
		ok = ok && !math.IsNaN(fl) && !math.IsInf(fl, 0)
		val = fl
	case types.TypeList:
		val, ok = toList(value)
	}
	if !ok {
		return nil, typeError(f, fmt.Sprint(value))
	}
	if err := check(f, fmt.Sprint(value), val); err != nil {
		return nil, err
	}
	return val, nil
}

// Record validates a full candidate record given as raw strings. Fields not
// declared by the schema are rejected.
func (v *Validator) Record(s types.Schema, raw map[string]string) (map[string]any, error) {
	return v.Merge(s, nil, raw)
}

// Merge applies raw updates on top of current and validates every field of
// the result. Fields absent from raw keep their current value; a field given
// as empty is cleared (or reset to its default).
func (v *Validator) Merge(s types.Schema, current map[string]any, raw map[string]string) (map[string]any, error) {
	if err := unknownFields(s, keysOf(raw)); err != nil {
		return nil, err
	}
	out := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		in, given := raw[f.Name]
		if !given && current != nil {
			val, err := v.Coerce(f, current[f.Name])
			if err != nil {
				return nil, err
			}
			if val != nil {
				out[f.Name] = val
			}
			continue
		}
		val, err := v.Parse(f, in)
		if err != nil {
			return nil, err
		}
		if val != nil {
			out[f.Name] = val
		}
	}
	return out, nil
}

// Values re-validates already typed values, such as those read from a
// snapshot, and returns them in canonical form.
func (v *Validator) Values(s types.Schema, values map[string]any) (map[string]any, error) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	if err := unknownFields(s, names); err != nil {
		return nil, err
	}
	out := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		val, err := v.Coerce(f, values[f.Name])
		if err != nil {
			return nil, err
		}
		if val != nil {
			out[f.Name] = val
		}
	}
	return out, nil
}

// resolveDefault expands the now and today defaults. All of them are taken
// in UTC, the zone datetimes are stored in.
func (v *Validator) resolveDefault(f types.Field) string {
	now := v.now().UTC()
	switch {
	case f.Default == types.DefaultNow && f.Type == types.TypeDateTime:
		return now.Format(DateTimeLayout)
	case f.Default == types.DefaultNow && f.Type == types.TypeTime:
		return now.Format(TimeLayout)
	case (f.Default == types.DefaultToday || f.Default == types.DefaultNow) && f.Type == types.TypeDate:
		return now.Format(DateLayout)
	}
	return f.Default
}

// convert parses raw into the canonical value for f.Type without applying
// rules.
func convert(f types.Field, raw string) (any, error) {
	switch f.Type {
	case types.TypeText:
		return raw, nil
	case types.TypeInteger:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, typeError(f, raw)
		}
		return n, nil
	case types.TypeDecimal:
		fl, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(fl) || math.IsInf(fl, 0) {
			return nil, typeError(f, raw)
		}
		return fl, nil
	case types.TypeDate:
		t, ok := parseLayouts(raw, dateInputs)
		if !ok {
			return nil, typeError(f, raw)
		}
		return t.Format(DateLayout), nil
	case types.TypeTime:
		t, ok := parseLayouts(raw, timeInputs)
		if !ok {
			return nil, typeError(f, raw)
		}
		return t.Format(TimeLayout), nil
	case types.TypeDateTime:
		t, ok := parseLayouts(raw, dateTimeInputs)
		if !ok {
			return nil, typeError(f, raw)
		}
		return t.UTC().Format(DateTimeLayout), nil
	case types.TypeDuration:
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return n, nil
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, typeError(f, raw)
		}
		return int64(d / time.Minute), nil
	case types.TypeList:
		return splitList(raw), nil
	}
	return nil, &types.ValidationError{
		Field:  f.Name,
		Value:  raw,
		Rule:   "type",
		Reason: fmt.Sprintf("unsupported field type %q", f.Type),
		Err:    types.ErrInvalidSchema,
	}
}

func check(f types.Field, raw string, val any) error {
	for _, rule := range f.Rules {
		if err := rule.Check(val); err != nil {
			return &types.ValidationError{
				Field:  f.Name,
				Value:  raw,
				Rule:   rule.Name(),
				Reason: err.Error(),
			}
		}
	}
	return nil
}

func parseLayouts(raw string, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func splitList(raw string) []string {
	items := []string{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}

func toList(v any) ([]string, bool) {
	switch l := v.(type) {
	case []string:
		out := make([]string, len(l))
		copy(out, l)
		return out, true
	case []any:
		out := make([]string, 0, len(l))
		for _, item := range l {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

func unknownFields(s types.Schema, names []string) error {
	sort.Strings(names)
	for _, name := range names {
		if _, ok := s.Field(name); !ok {
			return &types.ValidationError{
				Field:  name,
				Rule:   "schema",
				Reason: fmt.Sprintf("unknown field for %s", s.Kind),
				Err:    types.ErrUnknownField,
			}
		}
	}
	return nil
}

func keysOf(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func missing(f types.Field) error {
	return &types.ValidationError{
		Field:  f.Name,
		Rule:   "required",
		Reason: "is required",
		Err:    types.ErrMissingField,
	}
}

var typeReasons = map[types.FieldType]string{
	types.TypeInteger:  "must be an integer",
	types.TypeDecimal:  "must be a number",
	types.TypeDate:     "must be a date (dd/mm/yyyy or yyyy-mm-dd)",
	types.TypeTime:     "must be a time (hh:mm)",
	types.TypeDateTime: "must be a date and time (dd/mm/yyyy hh:mm)",
	types.TypeDuration: "must be minutes or a duration like 1h30m",
	types.TypeList:     "must be a list",
	types.TypeText:     "must be text",
}

func typeError(f types.Field, raw string) error {
	return &types.ValidationError{
		Field:  f.Name,
		Value:  raw,
		Rule:   "type",
		Reason: typeReasons[f.Type],
	}
}
