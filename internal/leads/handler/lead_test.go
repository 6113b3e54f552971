package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"

	"leadpipe/internal/leads/service"
	"leadpipe/internal/leads/validator"
	"leadpipe/pkg/dedup"
	httputil "leadpipe/pkg/http"
	"leadpipe/pkg/logger"
	"leadpipe/pkg/model"
	"leadpipe/pkg/normalizer"
)

type recordingEmitter struct {
	mu       sync.Mutex
	payloads []*model.Payload
}

func (e *recordingEmitter) Dispatch(_ context.Context, payload *model.Payload) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.payloads = append(e.payloads, payload)
}

func (e *recordingEmitter) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.payloads)
}

func newTestRouter(emitter service.Emitter) *httprouter.Router {
	log := logger.Discard()
	svc := service.NewLeadService(
		validator.NewContactValidator(log),
		dedup.NewMemoryStore(100, time.Hour),
		emitter,
		service.Options{
			EventName:        "Contact",
			DefaultMessage:   "Quero saber mais sobre empréstimo",
			DefaultCity:      "Não informada",
			Channel:          "whatsapp",
			WhatsAppText:     "Quero saber mais sobre empréstimo",
			DefaultClientIP:  "127.0.0.1",
			DefaultUserAgent: "unknown",
		},
		log,
	)

	router := httprouter.New()
	NewLeadHandler(svc, log).RegisterRoutes(router)
	NewHealthHandler(nil, log).RegisterRoutes(router)
	return router
}

func postContact(router http.Handler, body string) (*httptest.ResponseRecorder, httputil.Response) {
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", "198.51.100.4, 10.0.0.1")
	req.Header.Set("User-Agent", "HandlerTest/1.0")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp httputil.Response
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	return rec, resp
}

func TestSubmit_AcceptsContact(t *testing.T) {
	emitter := &recordingEmitter{}
	router := newTestRouter(emitter)

	rec, resp := postContact(router, `{"telefone_cliente":"31999998888","email_cliente":"TEST@EXAMPLE.com","cidade":"betim"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !resp.Success || resp.Message != MessageReceived {
		t.Errorf("response = %+v", resp)
	}
	if !strings.HasPrefix(resp.EventID, "5531999998888_") {
		t.Errorf("event_id = %q", resp.EventID)
	}

	if emitter.count() != 1 {
		t.Fatalf("dispatched %d payloads, want 1", emitter.count())
	}
	event := emitter.payloads[0].Data[0]
	if event.CustomData[model.CustomCity] != "BETIM" {
		t.Errorf("cidade = %v", event.CustomData[model.CustomCity])
	}
	if got := event.UserData.PhoneHashes[0]; got != normalizer.Hash("5531999998888") {
		t.Errorf("ph[0] = %s", got)
	}
	if got := event.UserData.EmailHashes[0]; got != normalizer.Hash("test@example.com") {
		t.Errorf("em[0] = %s", got)
	}
	if event.UserData.ClientIPAddress != "198.51.100.4" || event.UserData.ClientUserAgent != "HandlerTest/1.0" {
		t.Errorf("user_data = %+v", event.UserData)
	}
}

func TestSubmit_Errors(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		expectStatus int
		expectField  string
	}{
		{
			name:         "missing phone",
			body:         `{"email_cliente":"a@b.com"}`,
			expectStatus: http.StatusBadRequest,
			expectField:  "telefone_cliente",
		},
		{
			name:         "invalid email",
			body:         `{"telefone_cliente":"31999998888","email_cliente":"nope"}`,
			expectStatus: http.StatusBadRequest,
			expectField:  "email_cliente",
		},
		{
			name:         "malformed json",
			body:         `{"telefone_cliente":`,
			expectStatus: http.StatusBadRequest,
		},
		{
			name:         "array body",
			body:         `[1,2,3]`,
			expectStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emitter := &recordingEmitter{}
			router := newTestRouter(emitter)

			rec, resp := postContact(router, tt.body)

			if rec.Code != tt.expectStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.expectStatus)
			}
			if resp.Success || resp.Error == "" {
				t.Errorf("response = %+v", resp)
			}
			if tt.expectField != "" {
				found := false
				for _, msg := range resp.Errors {
					if strings.Contains(msg, tt.expectField) {
						found = true
					}
				}
				if !found {
					t.Errorf("errors %v do not mention %s", resp.Errors, tt.expectField)
				}
			}
			if emitter.count() != 0 {
				t.Errorf("rejected request dispatched %d payloads", emitter.count())
			}
		})
	}
}

func TestSubmit_DuplicateEventID(t *testing.T) {
	emitter := &recordingEmitter{}
	router := newTestRouter(emitter)
	body := `{"telefone_cliente":"31999998888","event_id":"lead-42"}`

	rec, _ := postContact(router, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("first status = %d", rec.Code)
	}

	rec, resp := postContact(router, body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second status = %d, want %d", rec.Code, http.StatusConflict)
	}
	if resp.EventID != "lead-42" {
		t.Errorf("event_id = %q, want lead-42", resp.EventID)
	}
	if emitter.count() != 1 {
		t.Errorf("dispatched %d payloads, want 1", emitter.count())
	}
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestReady(t *testing.T) {
	tests := []struct {
		name         string
		db           Pinger
		expectStatus int
	}{
		{name: "no database", db: nil, expectStatus: http.StatusOK},
		{name: "database up", db: stubPinger{}, expectStatus: http.StatusOK},
		{name: "database down", db: stubPinger{err: errors.New("timeout")}, expectStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := httprouter.New()
			NewHealthHandler(tt.db, logger.Discard()).RegisterRoutes(router)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			if rec.Code != tt.expectStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.expectStatus)
			}
			if tt.expectStatus != http.StatusServiceUnavailable {
				return
			}
			var resp httputil.Response
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Success || resp.Error != "database is temporarily unavailable" {
				t.Errorf("response = %+v", resp)
			}
		})
	}
}
