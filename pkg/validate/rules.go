package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mesh-intelligence/keeper/pkg/types"
)

var (
	digitsPattern = regexp.MustCompile(`^\d+$`)
	emailPattern  = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
)

// ruleFunc adapts a named check function to types.Rule.
type ruleFunc struct {
	name  string
	check func(v any) error
}

func (r ruleFunc) Name() string { return r.name }

func (r ruleFunc) Check(v any) error { return r.check(v) }

// eachString applies check to a string value or to every item of a list.
func eachString(v any, check func(s string) error) error {
	switch val := v.(type) {
	case string:
		return check(val)
	case []string:
		for _, item := range val {
			if err := check(item); err != nil {
				return fmt.Errorf("item %q: %w", item, err)
			}
		}
		return nil
	default:
		return check(fmt.Sprint(val))
	}
}

// NonEmpty rejects blank strings and empty lists.
func NonEmpty() types.Rule {
	return ruleFunc{name: "non_empty", check: func(v any) error {
		switch val := v.(type) {
		case string:
			if strings.TrimSpace(val) == "" {
				return errors.New("must not be empty")
			}
		case []string:
			if len(val) == 0 {
				return errors.New("must list at least one item")
			}
		}
		return nil
	}}
}

// Pattern requires the whole value to match expr. hint describes the
// expected format in the rejection reason. Pattern panics on a bad
// expression; use CompilePattern for expressions read at runtime.
func Pattern(expr, hint string) types.Rule {
	r, err := CompilePattern(expr, hint)
	if err != nil {
		panic(err)
	}
	return r
}

// CompilePattern is Pattern for expressions that may be invalid. The
// expression is anchored if it is not already.
func CompilePattern(expr, hint string) (types.Rule, error) {
	anchored := "^(?:" + strings.TrimSuffix(strings.TrimPrefix(expr, "^"), "$") + ")$"
	re, err := regexp.Compile(anchored)
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", expr, err)
	}
	if hint == "" {
		hint = "must match " + expr
	}
	return ruleFunc{name: "pattern", check: func(v any) error {
		return eachString(v, func(s string) error {
			if !re.MatchString(s) {
				return errors.New(hint)
			}
			return nil
		})
	}}, nil
}

// Length bounds the number of characters. A max of zero means no upper bound.
func Length(min, max int) types.Rule {
	return ruleFunc{name: "length", check: func(v any) error {
		return eachString(v, func(s string) error {
			n := utf8.RuneCountInString(s)
			switch {
			case max > 0 && min == max && n != min:
				return fmt.Errorf("must be exactly %d characters", min)
			case n < min:
				if max > 0 {
					return fmt.Errorf("must be %d-%d characters", min, max)
				}
				return fmt.Errorf("must be at least %d characters", min)
			case max > 0 && n > max:
				return fmt.Errorf("must be %d-%d characters", min, max)
			}
			return nil
		})
	}}
}

// IntRange requires an integer value within [min, max].
func IntRange(min, max int64) types.Rule {
	return ruleFunc{name: "range", check: func(v any) error {
		n, ok := v.(int64)
		if !ok {
			return fmt.Errorf("must be an integer")
		}
		if n < min || n > max {
			return fmt.Errorf("must be in [%d,%d]", min, max)
		}
		return nil
	}}
}

// DecimalRange requires a numeric value within [min, max].
func DecimalRange(min, max float64) types.Rule {
	return ruleFunc{name: "range", check: func(v any) error {
		f, ok := ToFloat(v)
		if !ok {
			return fmt.Errorf("must be a number")
		}
		if f < min || f > max {
			return fmt.Errorf("must be in [%g,%g]", min, max)
		}
		return nil
	}}
}

// Min requires a numeric value of at least min.
func Min(min float64) types.Rule {
	return ruleFunc{name: "min", check: func(v any) error {
		f, ok := ToFloat(v)
		if !ok {
			return fmt.Errorf("must be a number")
		}
		if f < min {
			return fmt.Errorf("must be at least %g", min)
		}
		return nil
	}}
}

// Positive requires a numeric value greater than zero.
func Positive() types.Rule {
	return ruleFunc{name: "positive", check: func(v any) error {
		f, ok := ToFloat(v)
		if !ok {
			return fmt.Errorf("must be a number")
		}
		if f <= 0 {
			return errors.New("must be positive")
		}
		return nil
	}}
}

// OneOf restricts a value to a fixed set.
func OneOf(values ...string) types.Rule {
	allowed := make(map[string]bool, len(values))
	for _, v := range values {
		allowed[v] = true
	}
	reason := "must be one of " + strings.Join(values, ", ")
	return ruleFunc{name: "one_of", check: func(v any) error {
		return eachString(v, func(s string) error {
			if !allowed[s] {
				return errors.New(reason)
			}
			return nil
		})
	}}
}

// Digits requires one or more decimal digits and nothing else.
func Digits() types.Rule {
	return ruleFunc{name: "digits", check: func(v any) error {
		return eachString(v, func(s string) error {
			if !digitsPattern.MatchString(s) {
				return errors.New("must contain only digits")
			}
			return nil
		})
	}}
}

// Email requires a plausible e-mail address.
func Email() types.Rule {
	return ruleFunc{name: "email", check: func(v any) error {
		return eachString(v, func(s string) error {
			if !emailPattern.MatchString(s) {
				return errors.New("must be a valid e-mail address")
			}
			return nil
		})
	}}
}

// YearNotAfter requires an integer year no later than the year reported by
// now.
func YearNotAfter(now func() time.Time) types.Rule {
	return ruleFunc{name: "max_year", check: func(v any) error {
		n, ok := v.(int64)
		if !ok {
			return fmt.Errorf("must be an integer")
		}
		if year := int64(now().Year()); n > year {
			return fmt.Errorf("must not be after %d", year)
		}
		return nil
	}}
}
