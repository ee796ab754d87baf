package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"marketplace-backend/internal/pkg/apperr"

	"github.com/go-playground/validator/v10"
)

var (
	emailRe    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	objectIDRe = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)
	zipCodeRe  = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			name = f.Tag.Get("form")
		}
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
		return IsObjectID(fl.Field().String())
	})
	_ = v.RegisterValidation("zipcode", func(fl validator.FieldLevel) bool {
		return IsZipCode(fl.Field().String())
	})
	_ = v.RegisterValidation("looseemail", func(fl validator.FieldLevel) bool {
		return IsValidEmail(fl.Field().String())
	})
	return v
}

func IsValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// IsObjectID reports whether s is a 24-character hex document id.
func IsObjectID(s string) bool {
	return objectIDRe.MatchString(s)
}

func IsZipCode(s string) bool {
	return zipCodeRe.MatchString(strings.TrimSpace(s))
}

// Struct validates v by its `validate` tags and returns the failures in
// field order, or nil when v is valid.
func Struct(v interface{}) []apperr.FieldError {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []apperr.FieldError{{Field: "body", Message: err.Error()}}
	}
	out := make([]apperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, apperr.FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

// Check is Struct wrapped as an error suitable for response.FromError.
func Check(v interface{}) error {
	if details := Struct(v); len(details) > 0 {
		return apperr.Validation(details)
	}
	return nil
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if fe.Kind() == reflect.String && fe.Param() == "1" {
			return fmt.Sprintf("%s cannot be empty", field)
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or more", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be %s or less", field, fe.Param())
	case "email", "looseemail":
		return "Please enter a valid email address"
	case "objectid":
		return fmt.Sprintf("%s is not a valid id", field)
	case "zipcode":
		return "Please enter a valid zip code"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	}
	return fmt.Sprintf("%s is invalid", field)
}
