package form

import (
	"fmt"
	"reflect"
	"regexp"

	"github.com/vango-dev/atomrx/pkg/lens"
)

// Rule checks a single field value. It returns a message when the value
// is invalid and "" otherwise.
type Rule func(value any) string

// Required rejects zero values and empty strings, slices and maps.
func Required(msg string) Rule {
	if msg == "" {
		msg = "This field is required"
	}
	return func(value any) string {
		if isEmpty(value) {
			return msg
		}
		return ""
	}
}

// MinLength requires a string of at least n characters. Empty strings
// are left to Required.
func MinLength(n int, msg string) Rule {
	if msg == "" {
		msg = fmt.Sprintf("Must be at least %d characters", n)
	}
	return func(value any) string {
		s, _ := value.(string)
		if s != "" && len([]rune(s)) < n {
			return msg
		}
		return ""
	}
}

// MaxLength allows a string of at most n characters.
func MaxLength(n int, msg string) Rule {
	if msg == "" {
		msg = fmt.Sprintf("Must be at most %d characters", n)
	}
	return func(value any) string {
		s, _ := value.(string)
		if len([]rune(s)) > n {
			return msg
		}
		return ""
	}
}

// Pattern requires a string matching pattern. It panics if pattern does
// not compile.
func Pattern(pattern string, msg string) Rule {
	re := regexp.MustCompile(pattern)
	if msg == "" {
		msg = "Invalid format"
	}
	return func(value any) string {
		s, _ := value.(string)
		if s != "" && !re.MatchString(s) {
			return msg
		}
		return ""
	}
}

// Custom adapts an error-returning check.
func Custom(fn func(value any) error) Rule {
	return func(value any) string {
		if err := fn(value); err != nil {
			return err.Error()
		}
		return ""
	}
}

// Rules validates fields of T by Go or JSON name. The first failing rule
// of each field is reported. It panics if T has no such field, see lens.Key.
func Rules[T any](fields map[string][]Rule) Validate[T] {
	type check struct {
		get   func(T) any
		rules []Rule
	}
	checks := make(map[string]check, len(fields))
	for name, rules := range fields {
		checks[name] = check{get: lens.Key[T, any](name).Get, rules: rules}
	}

	return Sync(func(value T) Result {
		var res Result
		for name, c := range checks {
			v := c.get(value)
			for _, rule := range c.rules {
				if msg := rule(v); msg != "" {
					res.set([]string{name}, Failure(msg))
					break
				}
			}
		}
		if len(res.Children) == 0 {
			return Success()
		}
		res.Status = StatusError
		res.Error = fmt.Sprintf("%d field(s) are invalid", len(res.Children))
		return res
	})
}

func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return v.IsNil()
	default:
		return v.IsZero()
	}
}
