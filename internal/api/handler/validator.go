package handler

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/itroad/users-service/internal/core/domain"
)

var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

// echoValidator wraps go-playground/validator so Echo can call c.Validate(req).
type echoValidator struct {
	v *validator.Validate
}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
// Besides the built-in tags it understands "role" and "phone".
func NewValidator() *echoValidator {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	_ = v.RegisterValidation("role", validRole)
	_ = v.RegisterValidation("phone", validPhone)
	return &echoValidator{v: v}
}

// Validate satisfies the echo.Validator interface. Field failures are
// reported as a *domain.ValidationError keyed by JSON field name.
func (ev *echoValidator) Validate(i any) error {
	if err := ev.v.Struct(i); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			fields := make(map[string]string, len(ve))
			for _, fe := range ve {
				fields[fe.Field()] = fieldError(fe)
			}
			return &domain.ValidationError{Fields: fields}
		}
		return err
	}
	return nil
}

// fieldError converts a single ValidationError into a human-readable message.
func fieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "url":
		return field + " must be a valid URL"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "role":
		return field + " must be one of Admin, Adherant"
	case "phone":
		return field + " must be a valid phone number"
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return f.Name
	}
	return name
}

func validRole(fl validator.FieldLevel) bool {
	_, ok := domain.ParseRole(fl.Field().String())
	return ok
}

// validPhone accepts blank values so a present-but-empty phone clears it.
func validPhone(fl validator.FieldLevel) bool {
	v := strings.TrimSpace(fl.Field().String())
	return v == "" || phonePattern.MatchString(v)
}
