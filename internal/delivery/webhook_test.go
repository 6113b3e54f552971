package delivery

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"leadpipe/pkg/logger"
	"leadpipe/pkg/model"
)

func testPayload(ids ...string) *model.Payload {
	events := make([]model.NormalizedEvent, 0, len(ids))
	for _, id := range ids {
		events = append(events, model.NormalizedEvent{
			EventID:      id,
			EventName:    "Contact",
			EventTime:    1700000000,
			ActionSource: model.ActionSourceChat,
			UserData: model.UserData{
				ClientIPAddress: "127.0.0.1",
				ClientUserAgent: "Mozilla/5.0",
			},
			CustomData: map[string]any{model.CustomCity: "BETIM"},
		})
	}
	return model.NewPayload(events...)
}

func TestWebhookSender_Send(t *testing.T) {
	var (
		gotBody      []byte
		gotSignature string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSignature = r.Header.Get(HeaderSignature)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewWebhookSender(srv.URL, "s3cret", time.Second, logger.Discard())
	if err := s.Send(context.Background(), testPayload("evt-1")); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	var decoded model.Payload
	if err := json.Unmarshal(gotBody, &decoded); err != nil {
		t.Fatalf("webhook received invalid JSON: %v", err)
	}
	if len(decoded.Data) != 1 || decoded.Data[0].EventID != "evt-1" {
		t.Errorf("decoded payload = %+v", decoded)
	}
	if decoded.Data[0].CustomData[model.CustomCity] != "BETIM" {
		t.Errorf("cidade = %v", decoded.Data[0].CustomData[model.CustomCity])
	}
	if gotSignature != Sign(gotBody, "s3cret") {
		t.Errorf("signature %q does not verify", gotSignature)
	}
}

func TestWebhookSender_NoSecretNoSignature(t *testing.T) {
	var gotSignature string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get(HeaderSignature)
	}))
	defer srv.Close()

	s := NewWebhookSender(srv.URL, "", time.Second, logger.Discard())
	if err := s.Send(context.Background(), testPayload("evt-1")); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if gotSignature != "" {
		t.Errorf("signature header = %q, want none", gotSignature)
	}
}

func TestWebhookSender_EmptyURL(t *testing.T) {
	s := NewWebhookSender("", "", time.Second, logger.Discard())
	if err := s.Send(context.Background(), testPayload("evt-1")); err != nil {
		t.Errorf("Send() with no URL error = %v, want nil", err)
	}
}

func TestWebhookSender_Errors(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		wantTemporary bool
	}{
		{"bad request", http.StatusBadRequest, false},
		{"rate limited", http.StatusTooManyRequests, true},
		{"server error", http.StatusBadGateway, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("nope"))
			}))
			defer srv.Close()

			err := NewWebhookSender(srv.URL, "", time.Second, logger.Discard()).
				Send(context.Background(), testPayload("evt-1"))

			var de *DeliveryError
			if !errors.As(err, &de) {
				t.Fatalf("Send() error = %v, want *DeliveryError", err)
			}
			if de.StatusCode != tt.status || de.Body != "nope" {
				t.Errorf("DeliveryError = %+v", de)
			}
			if IsRetryable(err) != tt.wantTemporary {
				t.Errorf("IsRetryable() = %v, want %v", IsRetryable(err), tt.wantTemporary)
			}
		})
	}
}

func TestWebhookSender_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := NewWebhookSender(url, "", time.Second, logger.Discard()).Send(context.Background(), testPayload("evt-1"))
	if err == nil || !IsRetryable(err) {
		t.Errorf("Send() error = %v, want retryable error", err)
	}
}

func TestSign(t *testing.T) {
	body := []byte(`{"data":[]}`)

	mac := hmac.New(sha256.New, []byte("key"))
	mac.Write(body)
	want := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	if got := Sign(body, "key"); got != want {
		t.Errorf("Sign() = %q, want %q", got, want)
	}
	if Sign(body, "other") == want {
		t.Error("Sign() ignored the secret")
	}
	if Sign([]byte(`{}`), "key") == want {
		t.Error("Sign() ignored the body")
	}
}
