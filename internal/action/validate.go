package action

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/auth"
)

const (
	tagSlug       = "slug"
	tagPermission = "permission"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// NewValidator returns a validator reporting JSON field names and
// knowing the slug and permission tags.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}

		return name
	})

	// both registrations only fail on an empty tag name
	_ = v.RegisterValidation(tagSlug, func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})

	_ = v.RegisterValidation(tagPermission, func(fl validator.FieldLevel) bool {
		return auth.IsKnown(fl.Field().String())
	})

	return v
}
