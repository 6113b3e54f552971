package model

// Raw field names of the landing page contact form.
const (
	FieldPhone   = "telefone_cliente"
	FieldEmail   = "email_cliente"
	FieldMessage = "mensagem"
	FieldCity    = "cidade"
	FieldEventID = "event_id"
)

type ContactRecord struct {
	Phone   string `json:"telefone_cliente"`
	Email   string `json:"email_cliente,omitempty"`
	Message string `json:"mensagem,omitempty"`
	City    string `json:"cidade,omitempty"`
	EventID string `json:"event_id,omitempty"`
}

// RequestMeta carries delivery metadata taken from the inbound HTTP request.
type RequestMeta struct {
	ClientIP       string
	UserAgent      string
	Referer        string
	IdempotencyKey string
}
