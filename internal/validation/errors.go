// Package validation checks profile sections, recommendation updates and
// request payloads, reporting every problem found at once.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Errors is a list of human-readable validation problems
type Errors []string

func (e Errors) Error() string {
	return strings.Join(e, "; ")
}

// Err returns e as an error, or nil when there are no problems
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// IsValidationError reports whether err carries validation problems
func IsValidationError(err error) bool {
	var errs Errors
	if errors.As(err, &errs) {
		return true
	}
	var ve validator.ValidationErrors
	return errors.As(err, &ve)
}

// FromError converts a validator error into Errors. Other errors become a
// single message; nil yields nil.
func FromError(err error) Errors {
	if err == nil {
		return nil
	}
	var errs Errors
	if errors.As(err, &errs) {
		return errs
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return Errors{err.Error()}
	}

	out := make(Errors, 0, len(ve))
	for _, fe := range ve {
		out = append(out, describeFieldError(fieldName(fe), fe))
	}
	return out
}

func fieldName(fe validator.FieldError) string {
	name := fe.Field()
	if name == "" {
		return "value"
	}
	return strings.ToLower(name)
}

func describeFieldError(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte", "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
