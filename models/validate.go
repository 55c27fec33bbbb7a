package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	if err := RegisterValidations(v); err != nil {
		panic(err)
	}
	return v
}

// RegisterValidations installs the custom tags used by the models on v and
// makes it report fields by their JSON names. The gin binding engine must be
// given the same setup before binding models.
func RegisterValidations(v *validator.Validate) error {
	v.RegisterTagNameFunc(jsonFieldName)
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		return err
	}
	if err := v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return IssueCategory(fl.Field().String()).Valid()
	}); err != nil {
		return err
	}
	return v.RegisterValidation("issuestatus", func(fl validator.FieldLevel) bool {
		return IssueStatus(fl.Field().String()).Valid()
	})
}

func jsonFieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}

// Validate runs the struct rules on i and reports the first failure as a
// *ValidationError.
func Validate(i any) error {
	return AsValidationError(validate.Struct(i))
}

// AsValidationError converts validator output into a *ValidationError. Other
// errors are wrapped as ErrInvalidInput; nil stays nil.
func AsValidationError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ValidationError{
			Field:   fieldPath(fe),
			Message: validationMessage(fe),
		}
	}
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}

// fieldPath drops the top-level struct name from the namespace so nested
// fields read as "location.lat".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "must not be empty"
	case "latitude":
		return "must be a finite number between -90 and 90"
	case "longitude":
		return "must be a finite number between -180 and 180"
	case "category":
		return "must be one of Road, Garbage, Light, Water, Other"
	case "issuestatus":
		return "must be one of Reported, In Progress, Resolved"
	case "unique":
		return "must not contain duplicates"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "url":
		return "must be a valid URL"
	}
	return fmt.Sprintf("failed on '%s' validation", fe.Tag())
}
