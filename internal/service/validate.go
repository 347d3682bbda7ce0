package service

import (
	"errors"
	"html"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

// taskValidate is shared by every task operation. Field names in errors are
// taken from json tags.
var taskValidate *validator.Validate

// messageSanitizer is the strict policy task messages must already satisfy.
var messageSanitizer = bluemonday.StrictPolicy()

func init() {
	taskValidate = validator.New(validator.WithRequiredStructEnabled())
	taskValidate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := taskValidate.RegisterValidation("enum", validateEnum); err != nil {
		panic("registering enum validation: " + err.Error())
	}
}

// validateEnum accepts values whose type reports membership through Valid().
func validateEnum(fl validator.FieldLevel) bool {
	v, ok := fl.Field().Interface().(interface{ Valid() bool })
	return ok && v.Valid()
}

// normalizeMessage trims a task message. Messages are stored verbatim as
// plain text, so input the strict policy would rewrite (tags, entities) is
// rejected instead of altered.
func normalizeMessage(s string) (string, error) {
	s = strings.TrimSpace(s)
	if messageSanitizer.Sanitize(s) != html.EscapeString(s) {
		return "", newValidationError(ErrInvalidValue, "message", "must be plain text without markup")
	}
	return s, nil
}

// validationError converts validator failures into a *ValidationError.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &ValidationError{Err: ErrInvalidValue, Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		field := fe.Field()
		out.Fields[field] = fieldMessage(fe)
		if field == "project_name" {
			out.Err = ErrEmptyProjectName
		}
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "enum":
		return "is not an allowed value"
	case "gte":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}
