package validation

import (
	"fmt"
	"sort"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
)

// ValidationError reports local precondition failures. It blocks the
// action before any network call is attempted.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	sort.Strings(parts)
	return "validation failed: " + strings.Join(parts, "; ")
}

// Check runs struct validation and converts failures into a
// ValidationError. A nil return means the value passed.
func Check(v *validatorv10.Validate, s interface{}) *ValidationError {
	if err := v.Struct(s); err != nil {
		return &ValidationError{Fields: errorsToMap(err)}
	}
	return nil
}

func errorsToMap(err error) map[string]string {
	out := map[string]string{}
	if ve, ok := err.(validatorv10.ValidationErrors); ok {
		for _, fe := range ve {
			out[fe.Field()] = fmt.Sprintf("failed on the '%s' rule", fe.Tag())
		}
	} else {
		out["error"] = err.Error()
	}
	return out
}
