package kafka

import (
	"errors"
	"testing"
	"time"
)

func TestMessageBuilder(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	msg, err := NewMessage().
		WithKey("evt-1").
		WithValue(map[string]string{"event_name": "Contact"}).
		WithEventID("evt-1").
		WithEventType("Contact").
		WithSource("leads").
		WithCorrelationID("").
		WithTimestamp(ts).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if msg.Key != "evt-1" || msg.GetEventID() != "evt-1" {
		t.Errorf("key/event id = %q/%q", msg.Key, msg.GetEventID())
	}
	if msg.GetEventType() != "Contact" {
		t.Errorf("GetEventType() = %q", msg.GetEventType())
	}
	if _, ok := msg.Headers[HeaderCorrelationID]; ok {
		t.Error("empty correlation id should not set a header")
	}
	if got := msg.Headers[HeaderTimestamp]; got != "2024-01-02T03:04:05Z" {
		t.Errorf("timestamp header = %q", got)
	}

	if string(msg.Value) != `{"event_name":"Contact"}` {
		t.Errorf("value = %s", msg.Value)
	}
	if !msg.Timestamp.Equal(ts) {
		t.Errorf("timestamp = %s, want %s", msg.Timestamp, ts)
	}
}

func TestMessageBuilder_GeneratesEventID(t *testing.T) {
	msg, err := NewMessage().WithKey("k").WithValue(struct{}{}).Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if msg.GetEventID() == "" {
		t.Error("Build() should generate an event id")
	}
}

func TestMessageBuilder_EncodeError(t *testing.T) {
	_, err := NewMessage().WithKey("k").WithValue(make(chan int)).Build()
	if !errors.Is(err, ErrInvalidMessage) {
		t.Errorf("Build() error = %v, want ErrInvalidMessage", err)
	}
}
