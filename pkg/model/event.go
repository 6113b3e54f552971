package model

type ActionSource string

const (
	ActionSourceChat    ActionSource = "chat"
	ActionSourceWebsite ActionSource = "website"
)

// Custom data keys sent with lead events.
const (
	CustomMessage         = "mensagem"
	CustomCity            = "cidade"
	CustomChannel         = "canal"
	CustomEntryDate       = "data_entrada"
	CustomEntryDateNorm   = "data_entrada_normalizada"
	CustomQualifiedLead   = "lead_qualificado"
	CustomNormalizedPhone = "telefone_normalizado"
	CustomPageURL         = "page_url"
	CustomTimestamp       = "timestamp"
)

type UserData struct {
	PhoneHashes     []string `json:"ph,omitempty" validate:"omitempty,dive,sha256hex"`
	EmailHashes     []string `json:"em,omitempty" validate:"omitempty,dive,sha256hex"`
	ClientIPAddress string   `json:"client_ip_address" validate:"required"`
	ClientUserAgent string   `json:"client_user_agent" validate:"required"`
}

type NormalizedEvent struct {
	EventID        string         `json:"event_id" validate:"required,max=128"`
	EventName      string         `json:"event_name" validate:"required,max=100"`
	EventTime      int64          `json:"event_time" validate:"gt=0"`
	ActionSource   ActionSource   `json:"action_source" validate:"required,oneof=chat website"`
	EventSourceURL string         `json:"event_source_url,omitempty" validate:"omitempty,url"`
	UserData       UserData       `json:"user_data"`
	CustomData     map[string]any `json:"custom_data" validate:"required"`
}

// Payload is the body POSTed to the automation webhook.
type Payload struct {
	Data []NormalizedEvent `json:"data"`
}

func NewPayload(events ...NormalizedEvent) *Payload {
	return &Payload{Data: events}
}

func (p *Payload) EventIDs() []string {
	ids := make([]string, 0, len(p.Data))
	for _, e := range p.Data {
		ids = append(ids, e.EventID)
	}
	return ids
}

// TrackRequest is a browser conversion event reported by the landing page.
type TrackRequest struct {
	EventName      string         `json:"event_name" validate:"required,max=100,event_name"`
	EventID        string         `json:"event_id,omitempty" validate:"omitempty,event_id"`
	EventSourceURL string         `json:"event_source_url,omitempty" validate:"omitempty,url"`
	CustomData     map[string]any `json:"custom_data,omitempty"`
}
