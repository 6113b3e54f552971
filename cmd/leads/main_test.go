package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"leadpipe/pkg/config"
	"leadpipe/pkg/model"
)

type webhookRecorder struct {
	mu       sync.Mutex
	payloads []model.Payload
}

func (r *webhookRecorder) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var p model.Payload
		if err := json.NewDecoder(req.Body).Decode(&p); err != nil {
			t.Errorf("decode webhook body: %v", err)
		}
		r.mu.Lock()
		r.payloads = append(r.payloads, p)
		r.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}
}

func (r *webhookRecorder) eventIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for _, p := range r.payloads {
		for _, e := range p.Data {
			ids = append(ids, e.EventID)
		}
	}
	return ids
}

func testConfig(t *testing.T, leadURL, eventURL string) *config.Config {
	t.Helper()
	t.Setenv(config.EnvWebhookURL, leadURL)
	t.Setenv(config.EnvN8NWebhookURL, "")
	t.Setenv(config.EnvEventsWebhookURL, eventURL)
	t.Setenv(config.EnvDedupBackend, config.DedupBackendMemory)
	t.Setenv("KAFKA_BROKERS", "")

	cfg, err := config.FromEnv("leads-test")
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	return cfg
}

func drain(t *testing.T, c *components) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c.tracker.Flush(ctx)
	if err := c.leadDispatcher.Wait(ctx); err != nil {
		t.Fatalf("lead dispatcher Wait() error = %v", err)
	}
	if err := c.eventDispatcher.Wait(ctx); err != nil {
		t.Fatalf("event dispatcher Wait() error = %v", err)
	}
}

func TestComponents_PixelEventAndLeadShareID(t *testing.T) {
	leadHook, eventHook := &webhookRecorder{}, &webhookRecorder{}
	leadSrv := httptest.NewServer(leadHook.handler(t))
	defer leadSrv.Close()
	eventSrv := httptest.NewServer(eventHook.handler(t))
	defer eventSrv.Close()

	c := buildComponents(testConfig(t, leadSrv.URL, eventSrv.URL))
	defer c.closeDedup(context.Background())
	ctx := context.Background()

	const sharedID = "pixel-abc-1"
	if _, err := c.tracker.Track(ctx, &model.TrackRequest{EventName: "Contact", EventID: sharedID}, model.RequestMeta{}); err != nil {
		t.Fatalf("Track() error = %v", err)
	}

	id, err := c.leads.Submit(ctx, map[string]any{
		model.FieldPhone:   "31999998888",
		model.FieldEventID: sharedID,
	}, model.RequestMeta{})
	if err != nil {
		t.Fatalf("Submit() with an id already used by a tracked event error = %v", err)
	}
	if id != sharedID {
		t.Errorf("Submit() id = %q, want %q", id, sharedID)
	}

	if _, err := c.leads.Submit(ctx, map[string]any{
		model.FieldPhone:   "31999998888",
		model.FieldEventID: sharedID,
	}, model.RequestMeta{}); err == nil {
		t.Error("second Submit() with the same id should be rejected as duplicate")
	}

	drain(t, c)

	if got := leadHook.eventIDs(); len(got) != 1 || got[0] != sharedID {
		t.Errorf("lead webhook received %v, want [%s]", got, sharedID)
	}
	if got := eventHook.eventIDs(); len(got) != 1 || got[0] != sharedID {
		t.Errorf("event webhook received %v, want [%s]", got, sharedID)
	}
}

func TestComponents_EventsWebhookOptional(t *testing.T) {
	leadHook := &webhookRecorder{}
	leadSrv := httptest.NewServer(leadHook.handler(t))
	defer leadSrv.Close()

	c := buildComponents(testConfig(t, leadSrv.URL, ""))
	defer c.closeDedup(context.Background())
	ctx := context.Background()

	if _, err := c.tracker.Track(ctx, &model.TrackRequest{EventName: "PageView", EventID: "pv-1"}, model.RequestMeta{}); err != nil {
		t.Fatalf("Track() error = %v", err)
	}
	if _, err := c.leads.Submit(ctx, map[string]any{model.FieldPhone: "31999998888", model.FieldEventID: "lead-1"}, model.RequestMeta{}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	drain(t, c)

	if got := leadHook.eventIDs(); len(got) != 1 || got[0] != "lead-1" {
		t.Errorf("lead webhook received %v, want only [lead-1]", got)
	}
}
