package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"leadpipe/pkg/client"
	"leadpipe/pkg/logger"
	"leadpipe/pkg/model"
)

const maxErrorBody = 512

// WebhookSender POSTs payloads as JSON to the automation webhook.
type WebhookSender struct {
	url    string
	secret string
	http   *client.HttpClient
	log    *logger.Logger
}

func NewWebhookSender(url, secret string, timeout time.Duration, log *logger.Logger) *WebhookSender {
	return &WebhookSender{
		url:    url,
		secret: secret,
		http:   client.NewHttpClient(timeout),
		log:    log,
	}
}

func (s *WebhookSender) Name() string {
	return "webhook"
}

// Send delivers payload. With no URL configured the payload is dropped and a
// warning is logged instead.
func (s *WebhookSender) Send(ctx context.Context, payload *model.Payload) error {
	if s.url == "" {
		s.log.Warn("Webhook URL not configured, skipping delivery", "event_ids", payload.EventIDs())
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return &DeliveryError{Sender: s.Name(), Err: fmt.Errorf("failed to encode payload: %w", err)}
	}

	var headers map[string]string
	if s.secret != "" {
		headers = map[string]string{HeaderSignature: Sign(body, s.secret)}
	}

	resp, err := s.http.POSTRaw(ctx, s.url, body, headers)
	if err != nil {
		return &DeliveryError{Sender: s.Name(), Err: err, Temporary: true}
	}

	if !resp.IsSuccess() {
		return &DeliveryError{
			Sender:     s.Name(),
			StatusCode: resp.StatusCode,
			Body:       truncate(string(resp.Body), maxErrorBody),
			Temporary:  resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests,
		}
	}

	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
