package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"leadpipe/internal/events/service"
	httputil "leadpipe/pkg/http"
	"leadpipe/pkg/logger"
	"leadpipe/pkg/model"
)

type EventHandler struct {
	tracker *service.Tracker
	log     *logger.Logger
}

func NewEventHandler(tracker *service.Tracker, log *logger.Logger) *EventHandler {
	return &EventHandler{
		tracker: tracker,
		log:     log,
	}
}

func (h *EventHandler) Track(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.TrackRequest
	if err := httputil.Decode(r, &req); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Track", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	eventID, err := h.tracker.Track(r.Context(), &req, httputil.Meta(r))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Track", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteAccepted(w, eventID); err != nil {
		h.log.Error("failed to write accepted response", "handler", "Track", "operation", "WriteAccepted", "error", err)
	}
}

func (h *EventHandler) Stats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.WriteJSON(w, http.StatusOK, h.tracker.Stats(r.Context())); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Stats", "operation", "WriteJSON", "error", err)
	}
}

func (h *EventHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/events", h.Track)
	router.GET("/api/v1/events/stats", h.Stats)
}
