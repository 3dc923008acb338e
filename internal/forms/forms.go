// ABOUTME: Client-side form validation ahead of API calls
// ABOUTME: Turns validator/v10 struct tag failures into validation APIErrors keyed by JSON field

package forms

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/markalston/wishlist-cli/internal/client"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// Validate checks v against its validate tags. It returns nil or a *client.APIError
// of KindValidation whose Fields map JSON field names to messages.
func Validate(v any) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &client.APIError{Kind: client.KindValidation, Message: "invalid input", Err: err}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; seen {
			continue
		}
		fields[fe.Field()] = message(fe)
	}
	return &client.APIError{
		Kind:    client.KindValidation,
		Message: "please correct the highlighted fields",
		Fields:  fields,
	}
}

// FieldError returns the message for a single field of a validation error, if any
func FieldError(err error, field string) string {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return ""
	}
	return apiErr.Fields[field]
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "eqfield":
		return "does not match"
	case "nefield":
		return "must differ from the current value"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "is invalid"
	}
}

// Var checks a single value against a validate tag and returns the field message,
// or "" when the value passes
func Var(value any, tag string) string {
	err := instance().Var(value, tag)
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return message(verrs[0])
	}
	return "is invalid"
}
