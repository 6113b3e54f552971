package errors

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeDuplicate       = "DUPLICATE_EVENT"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeInternal        = "INTERNAL_ERROR"
	CodeTooManyRequests = "TOO_MANY_REQUESTS"
	CodeUnavailable     = "SERVICE_UNAVAILABLE"
	CodeUnsupportedType = "UNSUPPORTED_MEDIA_TYPE"
	CodeTimeout         = "REQUEST_TIMEOUT"
)

const (
	DetailErrors  = "errors"
	DetailEventID = "event_id"
)

type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	return e.HTTPStatus
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

// FieldMessages returns the field-level messages attached to a validation error.
func (e *AppError) FieldMessages() []string {
	if e.Details == nil {
		return nil
	}
	messages, _ := e.Details[DetailErrors].([]string)
	return messages
}

// EventID returns the event id attached to a duplicate error.
func (e *AppError) EventID() string {
	if e.Details == nil {
		return ""
	}
	id, _ := e.Details[DetailEventID].(string)
	return id
}

// Validation reports malformed or missing fields. Each entry of fieldErrors is
// returned to the caller verbatim.
func Validation(message string, fieldErrors []string) *AppError {
	return New(CodeValidation, message, http.StatusBadRequest).
		WithDetails(map[string]any{DetailErrors: fieldErrors})
}

// Duplicate reports an event id that was already dispatched within the dedup window.
func Duplicate(eventID string) *AppError {
	return New(CodeDuplicate, "Duplicate event", http.StatusConflict).
		WithDetails(map[string]any{DetailEventID: eventID})
}

// InvalidInput covers request bodies that cannot be parsed at all.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidInput,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

func TooManyRequests(message string) *AppError {
	return &AppError{
		Code:       CodeTooManyRequests,
		Message:    message,
		HTTPStatus: http.StatusTooManyRequests,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func Unavailable(service string) *AppError {
	return &AppError{
		Code:       CodeUnavailable,
		Message:    fmt.Sprintf("%s is temporarily unavailable", service),
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

// AsAppError returns the first AppError in err's chain, or an internal error
// wrapping err.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}
