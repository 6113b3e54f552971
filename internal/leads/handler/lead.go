package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"leadpipe/internal/leads/service"
	httputil "leadpipe/pkg/http"
	"leadpipe/pkg/logger"
)

const MessageReceived = "Dados recebidos com sucesso"

type LeadHandler struct {
	service service.LeadService
	log     *logger.Logger
}

func NewLeadHandler(service service.LeadService, log *logger.Logger) *LeadHandler {
	return &LeadHandler{
		service: service,
		log:     log,
	}
}

func (h *LeadHandler) Submit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	raw, err := httputil.DecodeObject(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Submit", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	eventID, err := h.service.Submit(r.Context(), raw, httputil.Meta(r))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Submit", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, eventID, MessageReceived); err != nil {
		h.log.Error("failed to write success response", "handler", "Submit", "operation", "WriteSuccess", "error", err)
	}
}

func (h *LeadHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/contact", h.Submit)
}
