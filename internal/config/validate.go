package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// canonicalNames translates normalized key names back to the spellings used
// in the config file format.
var canonicalNames = map[string]string{
	"api_key":     "API_KEY",
	"eventid":     "eventID",
	"eventsource": "eventSource",
}

// validateConfig checks struct-level well-formedness and translates the
// first failure into a ValidationError carrying the canonical key name.
func validateConfig(cfg *Config, path string) error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("koanf"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &ValidationError{
				Path:    path,
				Field:   canonicalKey(fe.Field()),
				Message: validationMessage(fe),
			}
		}
		return &ValidationError{Path: path, Message: err.Error()}
	}

	if len(cfg.Recipients) == 0 {
		return &ValidationError{
			Path:    path,
			Field:   "to",
			Message: "must list at least one recipient address",
		}
	}
	for _, r := range cfg.Recipients {
		if !strings.Contains(r, "@") {
			return &ValidationError{
				Path:    path,
				Field:   "to",
				Message: fmt.Sprintf("recipient %q is not an address", r),
			}
		}
	}

	return nil
}

func canonicalKey(field string) string {
	if canonical, ok := canonicalNames[field]; ok {
		return canonical
	}
	return field
}

// validationMessage renders a validator failure as a short operator-facing
// message.
func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "url":
		return "must be a valid URL"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
