package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"leadpipe/internal/leads/validator"
	"leadpipe/pkg/config"
	"leadpipe/pkg/dedup"
	apperrors "leadpipe/pkg/errors"
	httputil "leadpipe/pkg/http"
	"leadpipe/pkg/logger"
	"leadpipe/pkg/model"
	"leadpipe/pkg/normalizer"
	"leadpipe/pkg/sanitizer"
	"leadpipe/pkg/validation"
)

// isoMillis matches the timestamp layout the automation flows already parse.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

type LeadService interface {
	// Submit validates a raw contact form, assembles the lead event and hands
	// it to the emitter. It returns the assigned event id.
	Submit(ctx context.Context, raw map[string]any, meta model.RequestMeta) (string, error)
}

// Emitter delivers assembled payloads without blocking the caller.
type Emitter interface {
	Dispatch(ctx context.Context, payload *model.Payload)
}

type Options struct {
	EventName        string
	DefaultMessage   string
	DefaultCity      string
	Channel          string
	WhatsAppText     string
	DefaultClientIP  string
	DefaultUserAgent string

	// Now and NewSuffix default to the wall clock and a random suffix.
	Now       func() time.Time
	NewSuffix func() string
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		EventName:        cfg.LeadEventName,
		DefaultMessage:   cfg.LeadDefaultMessage,
		DefaultCity:      cfg.LeadDefaultCity,
		Channel:          cfg.LeadChannel,
		WhatsAppText:     cfg.WhatsAppText,
		DefaultClientIP:  cfg.DefaultClientIP,
		DefaultUserAgent: cfg.DefaultUserAgent,
	}
}

// RandomSuffix returns 12 random hex characters.
func RandomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

type leadService struct {
	validator *validator.ContactValidator
	seen      dedup.Store
	emitter   Emitter
	opts      Options
	log       *logger.Logger
}

func NewLeadService(
	validator *validator.ContactValidator,
	seen dedup.Store,
	emitter Emitter,
	opts Options,
	log *logger.Logger,
) LeadService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewSuffix == nil {
		opts.NewSuffix = RandomSuffix
	}
	return &leadService{
		validator: validator,
		seen:      seen,
		emitter:   emitter,
		opts:      opts,
		log:       log,
	}
}

func (s *leadService) Submit(ctx context.Context, raw map[string]any, meta model.RequestMeta) (string, error) {
	contact, err := s.validator.ValidateContact(raw)
	if err != nil {
		return "", s.validationError(err)
	}

	if meta.IdempotencyKey != "" {
		if err := s.validator.ValidateEventID(meta.IdempotencyKey, httputil.HeaderIdempotencyKey); err != nil {
			return "", s.validationError(err)
		}
	}

	s.sanitize(contact)

	now := s.opts.Now()
	normalizedPhone := normalizer.NormalizePhone(contact.Phone)
	eventID := s.eventID(contact, meta, normalizedPhone, now)

	event := s.assemble(contact, meta, normalizedPhone, eventID, now)
	if err := s.validator.ValidateEvent(&event); err != nil {
		s.log.Error("Assembled lead event is invalid",
			"event_id", eventID,
			"error", err,
		)
		return "", apperrors.Internal("Failed to assemble lead event", err)
	}

	claimed, err := s.seen.Claim(ctx, eventID)
	switch {
	case err != nil:
		s.log.Warn("Dedup store unavailable, accepting lead without duplicate check",
			"event_id", eventID,
			"error", err,
		)
	case !claimed:
		s.log.Info("Duplicate lead event rejected", "event_id", eventID)
		return "", apperrors.Duplicate(eventID)
	}

	s.emitter.Dispatch(ctx, model.NewPayload(event))

	s.log.Info("Lead event accepted",
		"event_id", eventID,
		"phone", normalizer.MaskPhone(normalizedPhone),
		"has_email", contact.Email != "",
		"city", event.CustomData[model.CustomCity],
	)

	return eventID, nil
}

func (s *leadService) validationError(err error) error {
	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) {
		s.log.Warn("Contact validation failed", "errors", verrs.Messages())
		return apperrors.Validation("Invalid contact data", verrs.Messages())
	}
	return apperrors.Internal("Failed to validate contact data", err)
}

func (s *leadService) sanitize(contact *model.ContactRecord) {
	contact.Phone = normalizer.Digits(contact.Phone)
	if contact.Email != "" {
		contact.Email = normalizer.NormalizeEmail(contact.Email)
	}
	contact.City = sanitizer.SanitizeCity(contact.City)
	contact.Message = sanitizer.SanitizeMessage(contact.Message)
}

// eventID prefers an id shared with the browser pixel so the ad platform can
// pair both events: the Idempotency-Key header first, then the body field.
func (s *leadService) eventID(contact *model.ContactRecord, meta model.RequestMeta, normalizedPhone string, now time.Time) string {
	if meta.IdempotencyKey != "" {
		return meta.IdempotencyKey
	}
	if contact.EventID != "" {
		return contact.EventID
	}
	return fmt.Sprintf("%s_%d_%s", normalizedPhone, now.Unix(), s.opts.NewSuffix())
}

func (s *leadService) assemble(contact *model.ContactRecord, meta model.RequestMeta, normalizedPhone, eventID string, now time.Time) model.NormalizedEvent {
	entryDate := now.UTC().Format(isoMillis)

	userData := model.UserData{
		PhoneHashes:     []string{normalizer.Hash(normalizedPhone)},
		ClientIPAddress: orDefault(meta.ClientIP, s.opts.DefaultClientIP),
		ClientUserAgent: orDefault(meta.UserAgent, s.opts.DefaultUserAgent),
	}
	if contact.Email != "" {
		userData.EmailHashes = []string{normalizer.Hash(contact.Email)}
	}

	return model.NormalizedEvent{
		EventID:        eventID,
		EventName:      s.opts.EventName,
		EventTime:      now.Unix(),
		ActionSource:   model.ActionSourceChat,
		EventSourceURL: s.whatsAppURL(normalizedPhone),
		UserData:       userData,
		CustomData: map[string]any{
			model.CustomMessage:         orDefault(contact.Message, s.opts.DefaultMessage),
			model.CustomEntryDate:       entryDate,
			model.CustomEntryDateNorm:   entryDate,
			model.CustomChannel:         s.opts.Channel,
			model.CustomCity:            orDefault(contact.City, s.opts.DefaultCity),
			model.CustomQualifiedLead:   true,
			model.CustomNormalizedPhone: normalizedPhone,
		},
	}
}

func (s *leadService) whatsAppURL(normalizedPhone string) string {
	u := "https://wa.me/" + normalizedPhone
	if s.opts.WhatsAppText != "" {
		u += "?text=" + strings.ReplaceAll(url.QueryEscape(s.opts.WhatsAppText), "+", "%20")
	}
	return u
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
