// Package validation configures the go-playground validator shared by the lead
// and event domains and turns its errors into caller-facing messages.
package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"leadpipe/pkg/logger"
	"leadpipe/pkg/normalizer"
)

const (
	TagBRPhone   = "br_phone"
	TagLeadEmail = "lead_email"
	TagSHA256Hex = "sha256hex"
	TagEventID   = "event_id"
	TagEventName = "event_name"
)

var (
	reEventID   = regexp.MustCompile(`^[A-Za-z0-9_.:-]{1,128}$`)
	reEventName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{0,99}$`)
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(v.Messages(), "; "))
}

// Messages returns one "<field> <message>" entry per error.
func (v ValidationErrors) Messages() []string {
	messages := make([]string, 0, len(v))
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return messages
}

// New returns a validator with the custom lead tags registered. Field names in
// errors follow the json tags.
func New(log *logger.Logger) *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	validations := map[string]validator.Func{
		TagBRPhone:   validatePhone,
		TagLeadEmail: validateEmail,
		TagSHA256Hex: validateSHA256Hex,
		TagEventID:   validateEventID,
		TagEventName: validateEventName,
	}
	for tag, fn := range validations {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatal("Failed to register validator", "tag", tag, "error", err)
		}
	}

	return v
}

func validatePhone(fl validator.FieldLevel) bool {
	return normalizer.IsValidPhone(fl.Field().String())
}

func validateEmail(fl validator.FieldLevel) bool {
	return normalizer.IsValidEmail(fl.Field().String())
}

func validateSHA256Hex(fl validator.FieldLevel) bool {
	return normalizer.IsSHA256Hex(fl.Field().String())
}

func validateEventID(fl validator.FieldLevel) bool {
	return IsValidEventID(fl.Field().String())
}

func validateEventName(fl validator.FieldLevel) bool {
	return reEventName.MatchString(fl.Field().String())
}

// IsValidEventID reports whether id may be used as a client supplied event id.
func IsValidEventID(id string) bool {
	return reEventID.MatchString(id)
}

// Translate converts validator errors into ValidationErrors. field overrides
// the reported field name when it is not empty.
func Translate(errs validator.ValidationErrors, field string) ValidationErrors {
	var out ValidationErrors
	for _, fe := range errs {
		name := field
		if name == "" {
			name = fieldPath(fe)
		}
		out = append(out, ValidationError{Field: name, Message: message(fe)})
	}
	return out
}

// fieldPath drops the root struct name: "NormalizedEvent.user_data.ph[0]"
// becomes "user_data.ph[0]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, found := strings.Cut(ns, "."); found {
		return rest
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "url":
		return "must be a valid URL"
	case TagSHA256Hex:
		return "must be a valid SHA-256 hash"
	case TagBRPhone:
		return fmt.Sprintf("must be a valid phone number with %d to %d digits", normalizer.MinPhoneDigits, normalizer.MaxPhoneDigits)
	case TagLeadEmail:
		return "must be a valid email address"
	case TagEventID:
		return "must be 1 to 128 letters, digits or one of _ . : -"
	case TagEventName:
		return "must start with a letter and contain only letters, digits or underscores"
	default:
		return fmt.Sprintf("failed the '%s' check", fe.Tag())
	}
}
