package validator

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"leadpipe/pkg/logger"
	"leadpipe/pkg/model"
	"leadpipe/pkg/validation"
)

type ContactValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewContactValidator(log *logger.Logger) *ContactValidator {
	return &ContactValidator{
		validate: validation.New(log),
		logger:   log,
	}
}

// ValidateContact checks the raw form fields before any of them is trusted.
// Optional fields are only checked when present: null, "", false and 0 count
// as absent.
func (v *ContactValidator) ValidateContact(raw map[string]any) (*model.ContactRecord, error) {
	var errs validation.ValidationErrors
	contact := &model.ContactRecord{}

	phone, ok := raw[model.FieldPhone].(string)
	phone = strings.TrimSpace(phone)
	switch {
	case !ok || phone == "":
		errs = append(errs, validation.ValidationError{
			Field:   model.FieldPhone,
			Message: "is required and must be a string",
		})
	default:
		errs = append(errs, v.checkVar(phone, validation.TagBRPhone, model.FieldPhone)...)
		contact.Phone = phone
	}

	if email, present := presentValue(raw, model.FieldEmail); present {
		s, isString := email.(string)
		if !isString {
			errs = append(errs, validation.ValidationError{
				Field:   model.FieldEmail,
				Message: "must be a valid email address",
			})
		} else if s = strings.TrimSpace(s); s != "" {
			errs = append(errs, v.checkVar(s, validation.TagLeadEmail, model.FieldEmail)...)
			contact.Email = s
		}
	}

	textFields := []struct {
		name string
		dst  *string
	}{
		{model.FieldCity, &contact.City},
		{model.FieldMessage, &contact.Message},
	}
	for _, field := range textFields {
		value, present := presentValue(raw, field.name)
		if !present {
			continue
		}
		s, isString := value.(string)
		if !isString {
			errs = append(errs, validation.ValidationError{Field: field.name, Message: "must be a string"})
			continue
		}
		*field.dst = s
	}

	if id, present := presentValue(raw, model.FieldEventID); present {
		s, isString := id.(string)
		if !isString {
			errs = append(errs, validation.ValidationError{Field: model.FieldEventID, Message: "must be a string"})
		} else {
			errs = append(errs, v.checkVar(s, validation.TagEventID, model.FieldEventID)...)
			contact.EventID = s
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return contact, nil
}

// ValidateEventID checks an event id taken from outside the body, such as the
// Idempotency-Key header.
func (v *ContactValidator) ValidateEventID(id, field string) error {
	if errs := v.checkVar(id, validation.TagEventID, field); len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateEvent checks the invariants of an assembled event.
func (v *ContactValidator) ValidateEvent(event *model.NormalizedEvent) error {
	if err := v.validate.Struct(event); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return validation.Translate(validationErrs, "")
		}
		return err
	}
	return nil
}

func (v *ContactValidator) checkVar(value, tag, field string) validation.ValidationErrors {
	err := v.validate.Var(value, tag)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return validation.Translate(validationErrs, field)
	}
	return validation.ValidationErrors{{Field: field, Message: err.Error()}}
}

func presentValue(raw map[string]any, field string) (any, bool) {
	value, ok := raw[field]
	if !ok {
		return nil, false
	}
	switch t := value.(type) {
	case nil:
		return nil, false
	case string:
		return t, t != ""
	case bool:
		return t, t
	case float64:
		return t, t != 0
	default:
		return t, true
	}
}
