package http

import (
	"encoding/json"
	"net/http"

	apperrors "leadpipe/pkg/errors"
)

// Response is the envelope returned by every public endpoint.
type Response struct {
	Success bool     `json:"success"`
	EventID string   `json:"event_id,omitempty"`
	Message string   `json:"message,omitempty"`
	Error   string   `json:"error,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError renders err as a failed Response. Errors that are not AppErrors are
// reported as a generic internal error so causes never leak to the caller.
func WriteError(w http.ResponseWriter, err error) error {
	appErr := apperrors.AsAppError(err)

	resp := Response{
		Success: false,
		Error:   appErr.Message,
		Errors:  appErr.FieldMessages(),
		EventID: appErr.EventID(),
	}

	return WriteJSON(w, appErr.StatusCode(), resp)
}

func WriteSuccess(w http.ResponseWriter, eventID, message string) error {
	return WriteJSON(w, http.StatusOK, Response{
		Success: true,
		EventID: eventID,
		Message: message,
	})
}

func WriteAccepted(w http.ResponseWriter, eventID string) error {
	return WriteJSON(w, http.StatusAccepted, Response{
		Success: true,
		EventID: eventID,
	})
}
