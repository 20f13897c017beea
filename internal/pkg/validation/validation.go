// Package validation wraps go-playground/validator and converts its failures
// into errs.ValidationError keyed by JSON field name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/Leopold1975/microblog/internal/microblog/domain/errs"
	"github.com/go-playground/validator/v10"
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}

		return name
	})

	// registration only fails on an empty tag or nil func
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRe.MatchString(fl.Field().String())
	})

	return &Validator{v: v}
}

// RegisterStructRule adds a struct-level rule for the type of example.
func (v *Validator) RegisterStructRule(fn validator.StructLevelFunc, example interface{}) {
	v.v.RegisterStructValidation(fn, example)
}

func (v *Validator) Validate(s interface{}) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}

	return nil
}

func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("validate error: %w", err)
	}

	fields := make(map[string]string, len(validationErrs))
	for _, e := range validationErrs {
		fields[e.Field()] = friendlyMessage(e)
	}

	return &errs.ValidationError{Fields: fields}
}

func friendlyMessage(e validator.FieldError) string { //nolint:cyclop
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s items", e.Param())
		}

		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at most %s items", e.Param())
		}

		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "uuid":
		return "must be a valid UUID"
	case "oneof":
		return "must be one of: " + e.Param()
	case "username":
		return "must contain only Latin letters, digits, underscores, and hyphens"
	case "totaltags":
		return "total number of tags (tagIds + tagNames) must not exceed " + e.Param()
	default:
		return "is invalid"
	}
}
