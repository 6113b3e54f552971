package validator

import (
	"errors"
	"maps"
	"slices"

	"github.com/go-playground/validator/v10"

	"leadpipe/pkg/logger"
	"leadpipe/pkg/model"
	"leadpipe/pkg/validation"
)

type EventValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewEventValidator(log *logger.Logger) *EventValidator {
	return &EventValidator{
		validate: validation.New(log),
		logger:   log,
	}
}

// ValidateTrackRequest checks a browser event as reported by the page.
func (v *EventValidator) ValidateTrackRequest(req *model.TrackRequest) error {
	if err := v.validate.Struct(req); err != nil {
		return v.translate(err, "")
	}
	return v.validateCustomData(req.CustomData)
}

// ValidateEventID checks an id supplied out of band, such as the
// Idempotency-Key header. field names the source in the error.
func (v *EventValidator) ValidateEventID(id, field string) error {
	if err := v.validate.Var(id, validation.TagEventID); err != nil {
		return v.translate(err, field)
	}
	return nil
}

// ValidateEvent checks the invariants of an assembled event.
func (v *EventValidator) ValidateEvent(event *model.NormalizedEvent) error {
	if err := v.validate.Struct(event); err != nil {
		return v.translate(err, "")
	}
	return nil
}

// custom_data values are forwarded as-is, so only scalars are accepted.
func (v *EventValidator) validateCustomData(data map[string]any) error {
	var errs validation.ValidationErrors
	for _, key := range slices.Sorted(maps.Keys(data)) {
		switch data[key].(type) {
		case nil, string, bool, float64:
		default:
			errs = append(errs, validation.ValidationError{
				Field:   "custom_data." + key,
				Message: "must be a string, number or boolean",
			})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *EventValidator) translate(err error, field string) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return validation.Translate(validationErrs, field)
	}
	return err
}
