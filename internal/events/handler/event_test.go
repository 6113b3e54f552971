package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"

	"leadpipe/internal/delivery"
	"leadpipe/internal/events/service"
	"leadpipe/internal/events/validator"
	"leadpipe/pkg/dedup"
	httputil "leadpipe/pkg/http"
	"leadpipe/pkg/logger"
	"leadpipe/pkg/model"
)

type nopDispatcher struct{}

func (nopDispatcher) Dispatch(context.Context, *model.Payload) {}
func (nopDispatcher) Metrics() delivery.MetricsSnapshot        { return delivery.MetricsSnapshot{} }

func newTestRouter() *httprouter.Router {
	log := logger.Discard()
	tracker := service.NewTracker(
		validator.NewEventValidator(log),
		dedup.NewMemoryStore(100, time.Hour),
		nopDispatcher{},
		service.TrackerOptions{
			QueueCapacity:    10,
			DefaultClientIP:  "127.0.0.1",
			DefaultUserAgent: "unknown",
		},
		log,
	)
	router := httprouter.New()
	NewEventHandler(tracker, log).RegisterRoutes(router)
	return router
}

func post(router http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestTrack(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		expectStatus int
	}{
		{name: "accepted", body: `{"event_name":"PageView","event_id":"pv-1"}`, expectStatus: http.StatusAccepted},
		{name: "missing name", body: `{"event_id":"pv-2"}`, expectStatus: http.StatusBadRequest},
		{name: "wrong type", body: `{"event_name":42}`, expectStatus: http.StatusBadRequest},
		{name: "malformed", body: `{`, expectStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(newTestRouter(), tt.body)
			if rec.Code != tt.expectStatus {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.expectStatus, rec.Body.String())
			}
		})
	}
}

func TestTrack_DuplicateAndStats(t *testing.T) {
	router := newTestRouter()
	body := `{"event_name":"Lead","event_id":"lead-1"}`

	rec := post(router, body)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("first status = %d", rec.Code)
	}
	var resp httputil.Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.EventID != "lead-1" {
		t.Errorf("response = %+v", resp)
	}

	if rec := post(router, body); rec.Code != http.StatusConflict {
		t.Errorf("second status = %d, want %d", rec.Code, http.StatusConflict)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events/stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d", rec.Code)
	}
	var stats map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats["queued"] != 1.0 || stats["seen"] != 1.0 {
		t.Errorf("stats = %v", stats)
	}
	if _, ok := stats["delivered"]; !ok {
		t.Errorf("stats missing delivery counters: %v", stats)
	}
}
