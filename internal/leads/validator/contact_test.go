package validator

import (
	"errors"
	"strings"
	"testing"

	"leadpipe/pkg/logger"
	"leadpipe/pkg/model"
	"leadpipe/pkg/normalizer"
	"leadpipe/pkg/validation"
)

func newValidator() *ContactValidator {
	return NewContactValidator(logger.Discard())
}

func TestValidateContact_Valid(t *testing.T) {
	raw := map[string]any{
		"telefone_cliente": "(31) 99999-8888",
		"email_cliente":    "TEST@EXAMPLE.com",
		"cidade":           " betim ",
		"mensagem":         "Oi",
		"event_id":         "pixel_123",
	}

	contact, err := newValidator().ValidateContact(raw)
	if err != nil {
		t.Fatalf("ValidateContact() error = %v", err)
	}

	want := model.ContactRecord{
		Phone:   "(31) 99999-8888",
		Email:   "TEST@EXAMPLE.com",
		City:    " betim ",
		Message: "Oi",
		EventID: "pixel_123",
	}
	if *contact != want {
		t.Errorf("contact = %+v, want %+v", *contact, want)
	}
}

func TestValidateContact_TrimsPhoneAndEmail(t *testing.T) {
	tests := []struct {
		name      string
		raw       map[string]any
		wantPhone string
		wantEmail string
	}{
		{
			name:      "padded email",
			raw:       map[string]any{"telefone_cliente": "31999998888", "email_cliente": " TEST@EXAMPLE.com "},
			wantPhone: "31999998888",
			wantEmail: "TEST@EXAMPLE.com",
		},
		{
			name:      "padded phone",
			raw:       map[string]any{"telefone_cliente": "  31999998888\n"},
			wantPhone: "31999998888",
		},
		{
			name:      "blank email is absent",
			raw:       map[string]any{"telefone_cliente": "31999998888", "email_cliente": "   "},
			wantPhone: "31999998888",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contact, err := newValidator().ValidateContact(tt.raw)
			if err != nil {
				t.Fatalf("ValidateContact() error = %v", err)
			}
			if contact.Phone != tt.wantPhone || contact.Email != tt.wantEmail {
				t.Errorf("contact = %+v, want phone %q email %q", *contact, tt.wantPhone, tt.wantEmail)
			}
		})
	}
}

func TestValidateContact_Errors(t *testing.T) {
	tests := []struct {
		name      string
		raw       map[string]any
		wantField []string
	}{
		{
			name:      "missing phone",
			raw:       map[string]any{"cidade": "Betim"},
			wantField: []string{model.FieldPhone},
		},
		{
			name:      "blank phone",
			raw:       map[string]any{"telefone_cliente": "   "},
			wantField: []string{model.FieldPhone},
		},
		{
			name:      "phone not a string",
			raw:       map[string]any{"telefone_cliente": 31999998888.0},
			wantField: []string{model.FieldPhone},
		},
		{
			name:      "phone too short",
			raw:       map[string]any{"telefone_cliente": "1234"},
			wantField: []string{model.FieldPhone},
		},
		{
			name:      "invalid email",
			raw:       map[string]any{"telefone_cliente": "31999998888", "email_cliente": "not-an-email"},
			wantField: []string{model.FieldEmail},
		},
		{
			name:      "email not a string",
			raw:       map[string]any{"telefone_cliente": "31999998888", "email_cliente": 42.0},
			wantField: []string{model.FieldEmail},
		},
		{
			name:      "city and message not strings",
			raw:       map[string]any{"telefone_cliente": "31999998888", "cidade": 7.0, "mensagem": true},
			wantField: []string{model.FieldCity, model.FieldMessage},
		},
		{
			name:      "bad event id",
			raw:       map[string]any{"telefone_cliente": "31999998888", "event_id": "has spaces"},
			wantField: []string{model.FieldEventID},
		},
		{
			name:      "everything wrong",
			raw:       map[string]any{"email_cliente": "x", "cidade": []any{"a"}},
			wantField: []string{model.FieldPhone, model.FieldEmail, model.FieldCity},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newValidator().ValidateContact(tt.raw)

			var verrs validation.ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("ValidateContact() error = %v, want ValidationErrors", err)
			}
			if len(verrs) != len(tt.wantField) {
				t.Fatalf("errors = %v, want fields %v", verrs.Messages(), tt.wantField)
			}
			for i, field := range tt.wantField {
				if verrs[i].Field != field {
					t.Errorf("errors[%d].Field = %q, want %q", i, verrs[i].Field, field)
				}
				if !strings.Contains(verrs.Messages()[i], field) {
					t.Errorf("message %q does not mention %q", verrs.Messages()[i], field)
				}
			}
		})
	}
}

func TestValidateContact_FalsyOptionalsAreAbsent(t *testing.T) {
	raw := map[string]any{
		"telefone_cliente": "31999998888",
		"email_cliente":    "",
		"cidade":           nil,
		"mensagem":         false,
		"event_id":         0.0,
	}

	contact, err := newValidator().ValidateContact(raw)
	if err != nil {
		t.Fatalf("ValidateContact() error = %v", err)
	}
	if contact.Email != "" || contact.City != "" || contact.Message != "" || contact.EventID != "" {
		t.Errorf("contact = %+v, want optionals empty", *contact)
	}
}

func TestValidateEvent(t *testing.T) {
	valid := func() *model.NormalizedEvent {
		return &model.NormalizedEvent{
			EventID:        "5531999998888_1700000000_abc",
			EventName:      "Contact",
			EventTime:      1700000000,
			ActionSource:   model.ActionSourceChat,
			EventSourceURL: "https://wa.me/5531999998888?text=oi",
			UserData: model.UserData{
				PhoneHashes:     []string{normalizer.Hash("5531999998888")},
				ClientIPAddress: "127.0.0.1",
				ClientUserAgent: "Mozilla/5.0",
			},
			CustomData: map[string]any{"canal": "whatsapp"},
		}
	}

	if err := newValidator().ValidateEvent(valid()); err != nil {
		t.Fatalf("ValidateEvent() error = %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*model.NormalizedEvent)
		wantMsg string
	}{
		{"bad phone hash", func(e *model.NormalizedEvent) { e.UserData.PhoneHashes = []string{"abc"} }, "user_data.ph[0] must be a valid SHA-256 hash"},
		{"bad email hash", func(e *model.NormalizedEvent) { e.UserData.EmailHashes = []string{"ABC"} }, "user_data.em[0] must be a valid SHA-256 hash"},
		{"missing id", func(e *model.NormalizedEvent) { e.EventID = "" }, "event_id is required"},
		{"zero time", func(e *model.NormalizedEvent) { e.EventTime = 0 }, "event_time must be greater than 0"},
		{"unknown source", func(e *model.NormalizedEvent) { e.ActionSource = "email" }, "action_source must be one of"},
		{"missing custom data", func(e *model.NormalizedEvent) { e.CustomData = nil }, "custom_data is required"},
		{"missing ip", func(e *model.NormalizedEvent) { e.UserData.ClientIPAddress = "" }, "user_data.client_ip_address is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid()
			tt.mutate(e)
			err := newValidator().ValidateEvent(e)
			if err == nil || !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("ValidateEvent() error = %v, want containing %q", err, tt.wantMsg)
			}
		})
	}
}

func TestValidateEventID(t *testing.T) {
	v := newValidator()
	if err := v.ValidateEventID("abc-123", "Idempotency-Key"); err != nil {
		t.Errorf("ValidateEventID() error = %v", err)
	}
	err := v.ValidateEventID("no spaces allowed", "Idempotency-Key")
	if err == nil || !strings.Contains(err.Error(), "Idempotency-Key") {
		t.Errorf("ValidateEventID() error = %v", err)
	}
}
