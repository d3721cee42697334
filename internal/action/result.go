package action

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Result is returned by every mutation.
type Result struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	ID      uint64            `json:"id,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// OK returns a successful result for the entity id.
func OK(id uint64, message string) Result {
	return Result{Success: true, ID: id, Message: message}
}

// Fail returns a failed result with a user facing message.
func Fail(message string) Result {
	return Result{Success: false, Message: message}
}

// Failf is Fail with formatting.
func Failf(format string, args ...any) Result {
	return Fail(fmt.Sprintf(format, args...))
}

// Invalid converts a validation error into a failed result with field errors.
func Invalid(err error) Result {
	res := Fail("Please correct the highlighted errors")

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		res.Message = "Invalid input"

		return res
	}

	res.Errors = make(map[string]string, len(verrs))
	for _, fe := range verrs {
		res.Errors[fe.Field()] = fieldMessage(fe)
	}

	return res
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of " + fe.Param()
	case tagSlug:
		return "may only contain lowercase letters, digits and dashes"
	case tagPermission:
		return "is not a known permission"
	default:
		return "is invalid"
	}
}

// FieldError returns a failed result for a single field.
func FieldError(field, problem string) Result {
	return Result{
		Success: false,
		Message: "Please correct the highlighted errors",
		Errors:  map[string]string{field: problem},
	}
}
