package form

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	atomerrors "github.com/vango-dev/atomrx/internal/errors"
)

// NewValidator returns a validator that reports fields by their JSON
// names, so results line up with Bind on JSON names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validator adapts struct validation with v into a Validate. Field
// errors become children of the result, nested by namespace; slice
// elements are keyed by index.
func Validator[T any](v *validator.Validate) Validate[T] {
	return Sync(func(value T) Result {
		return fromError(v.Struct(value))
	})
}

// VarValidator validates a single value against a validator tag, such
// as "required,email".
func VarValidator[T any](v *validator.Validate, tag string) Validate[T] {
	return Sync(func(value T) Result {
		return fromError(v.Var(value, tag))
	})
}

func fromError(err error) Result {
	if err == nil {
		return Success()
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return Failure(atomerrors.New(atomerrors.CodeValidatorSetup).Wrap(err).Error())
	}

	res := Result{Status: StatusError, Error: fieldErrs.Error()}
	for _, fe := range fieldErrs {
		path := namespacePath(fe.Namespace())
		if len(path) == 0 {
			// Var validation has no namespace.
			res.Type = fe.Tag()
			res.Error = fe.Error()
			continue
		}
		res.set(path, Result{
			Status: StatusError,
			Error:  fe.Error(),
			Type:   fe.Tag(),
		})
	}
	return res
}

// namespacePath splits "Form.items[1].name" into ["items", "1", "name"],
// dropping the top-level struct name.
func namespacePath(ns string) []string {
	if ns == "" {
		return nil
	}
	parts := strings.Split(ns, ".")
	var path []string
	for _, p := range parts[1:] {
		for {
			open := strings.IndexByte(p, '[')
			if open < 0 {
				break
			}
			if open > 0 {
				path = append(path, p[:open])
			}
			end := strings.IndexByte(p[open:], ']')
			if end < 0 {
				break
			}
			path = append(path, p[open+1:open+end])
			p = p[open+end+1:]
		}
		if p != "" {
			path = append(path, p)
		}
	}
	return path
}
