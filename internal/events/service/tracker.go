package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"leadpipe/internal/delivery"
	"leadpipe/internal/events/validator"
	"leadpipe/pkg/dedup"
	apperrors "leadpipe/pkg/errors"
	httputil "leadpipe/pkg/http"
	"leadpipe/pkg/logger"
	"leadpipe/pkg/model"
	"leadpipe/pkg/queue"
	"leadpipe/pkg/sanitizer"
	"leadpipe/pkg/validation"
)

// Dispatcher delivers batched payloads and reports delivery counters.
type Dispatcher interface {
	Dispatch(ctx context.Context, payload *model.Payload)
	Metrics() delivery.MetricsSnapshot
}

type TrackerOptions struct {
	QueueCapacity    int
	FlushInterval    time.Duration
	DefaultClientIP  string
	DefaultUserAgent string

	Now       func() time.Time
	NewSuffix func() string
}

type Stats struct {
	Queued   int    `json:"queued"`
	Capacity int    `json:"capacity"`
	Dropped  uint64 `json:"dropped"`
	Seen     int    `json:"seen"`
	delivery.MetricsSnapshot
}

// Tracker accepts browser conversion events, suppresses duplicates and
// forwards them in batches.
type Tracker struct {
	validator  *validator.EventValidator
	seen       dedup.Store
	queue      *queue.Buffer[model.NormalizedEvent]
	dispatcher Dispatcher
	opts       TrackerOptions
	log        *logger.Logger
}

func NewTracker(
	validator *validator.EventValidator,
	seen dedup.Store,
	dispatcher Dispatcher,
	opts TrackerOptions,
	log *logger.Logger,
) *Tracker {
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = 5 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewSuffix == nil {
		opts.NewSuffix = func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
		}
	}
	return &Tracker{
		validator:  validator,
		seen:       seen,
		queue:      queue.NewBuffer[model.NormalizedEvent](opts.QueueCapacity),
		dispatcher: dispatcher,
		opts:       opts,
		log:        log,
	}
}

// Track validates req, assigns its id and queues it for the next flush.
func (t *Tracker) Track(ctx context.Context, req *model.TrackRequest, meta model.RequestMeta) (string, error) {
	if err := t.validator.ValidateTrackRequest(req); err != nil {
		return "", t.validationError(err)
	}
	if meta.IdempotencyKey != "" {
		if err := t.validator.ValidateEventID(meta.IdempotencyKey, httputil.HeaderIdempotencyKey); err != nil {
			return "", t.validationError(err)
		}
	}

	now := t.opts.Now()
	eventID := t.eventID(req, meta, now)
	event := t.assemble(req, meta, eventID, now)

	if err := t.validator.ValidateEvent(&event); err != nil {
		return "", t.validationError(err)
	}

	claimed, err := t.seen.Claim(ctx, eventID)
	switch {
	case err != nil:
		t.log.Warn("Dedup store unavailable, accepting event without duplicate check",
			"event_id", eventID,
			"error", err,
		)
	case !claimed:
		t.log.Info("Duplicate event rejected", "event_id", eventID, "event_name", event.EventName)
		return "", apperrors.Duplicate(eventID)
	}

	if dropped, ok := t.queue.Add(event); ok {
		t.log.Warn("Event queue full, dropped oldest event",
			"dropped_event_id", dropped.EventID,
			"capacity", t.queue.Cap(),
		)
	}

	t.log.Debug("Event queued", "event_id", eventID, "event_name", event.EventName)
	return eventID, nil
}

// Flush dispatches every queued event as one payload and returns how many were
// sent.
func (t *Tracker) Flush(ctx context.Context) int {
	events := t.queue.Drain()
	if len(events) == 0 {
		return 0
	}
	t.dispatcher.Dispatch(ctx, model.NewPayload(events...))
	t.log.Debug("Flushed event queue", "count", len(events))
	return len(events)
}

// Run flushes the queue every FlushInterval until ctx is done, then flushes
// once more.
func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.opts.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.Flush(ctx)
		case <-ctx.Done():
			if n := t.Flush(context.WithoutCancel(ctx)); n > 0 {
				t.log.Info("Flushed pending events on shutdown", "count", n)
			}
			return
		}
	}
}

func (t *Tracker) Stats(ctx context.Context) Stats {
	seen, err := t.seen.Len(ctx)
	if err != nil {
		t.log.Warn("Failed to count seen event ids", "error", err)
	}
	return Stats{
		Queued:          t.queue.Len(),
		Capacity:        t.queue.Cap(),
		Dropped:         t.queue.Dropped(),
		Seen:            seen,
		MetricsSnapshot: t.dispatcher.Metrics(),
	}
}

func (t *Tracker) eventID(req *model.TrackRequest, meta model.RequestMeta, now time.Time) string {
	if meta.IdempotencyKey != "" {
		return meta.IdempotencyKey
	}
	if req.EventID != "" {
		return req.EventID
	}
	return fmt.Sprintf("%d_%s_%s", now.Unix(), req.EventName, t.opts.NewSuffix())
}

func (t *Tracker) assemble(req *model.TrackRequest, meta model.RequestMeta, eventID string, now time.Time) model.NormalizedEvent {
	custom := make(map[string]any, len(req.CustomData)+2)
	for k, v := range req.CustomData {
		switch value := v.(type) {
		case nil:
		case string:
			custom[k] = sanitizer.SanitizeText(value)
		default:
			custom[k] = v
		}
	}
	if s, _ := custom[model.CustomPageURL].(string); s == "" {
		pageURL := req.EventSourceURL
		if pageURL == "" {
			pageURL = meta.Referer
		}
		if pageURL != "" {
			custom[model.CustomPageURL] = pageURL
		} else {
			delete(custom, model.CustomPageURL)
		}
	}
	if s, _ := custom[model.CustomTimestamp].(string); s == "" {
		custom[model.CustomTimestamp] = now.UTC().Format(time.RFC3339)
	}

	return model.NormalizedEvent{
		EventID:        eventID,
		EventName:      req.EventName,
		EventTime:      now.Unix(),
		ActionSource:   model.ActionSourceWebsite,
		EventSourceURL: req.EventSourceURL,
		UserData: model.UserData{
			ClientIPAddress: orDefault(meta.ClientIP, t.opts.DefaultClientIP),
			ClientUserAgent: orDefault(meta.UserAgent, t.opts.DefaultUserAgent),
		},
		CustomData: custom,
	}
}

func (t *Tracker) validationError(err error) error {
	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) {
		t.log.Warn("Event validation failed", "errors", verrs.Messages())
		return apperrors.Validation("Invalid event data", verrs.Messages())
	}
	return apperrors.Internal("Failed to validate event", err)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
