package event

import "time"

// NotificationEnvelope is the message published to the notification exchange
// by the API and consumed by the notifier worker. The payload is flattened
// per kind; consumers ignore fields that do not apply to the kind.
type NotificationEnvelope struct {
	Version    int                 `json:"version"`
	Producer   string              `json:"producer"`
	MessageID  string              `json:"message_id"`
	OccurredAt time.Time           `json:"occurred_at"`
	Kind       string              `json:"kind"`
	Recipient  Recipient           `json:"recipient"`
	Payload    NotificationPayload `json:"payload"`
}

type Recipient struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// NotificationPayload is the superset of template fields across kinds.
type NotificationPayload struct {
	// welcome
	DashboardURL string `json:"dashboard_url,omitempty"`
	// verify
	VerificationURL string `json:"verification_url,omitempty"`
	// forgot-password
	ResetURL string `json:"reset_url,omitempty"`
	// otp
	Code          string `json:"code,omitempty"`
	ExpiryMinutes int    `json:"expiry_minutes,omitempty"`
	Action        string `json:"action,omitempty"`
	Purpose       string `json:"purpose,omitempty"`
	IPAddress     string `json:"ip_address,omitempty"`
	// generic
	Title       string            `json:"title,omitempty"`
	Message     string            `json:"message,omitempty"`
	Description string            `json:"description,omitempty"`
	Highlight   string            `json:"highlight,omitempty"`
	ActionText  string            `json:"action_text,omitempty"`
	ActionURL   string            `json:"action_url,omitempty"`
	DataTable   map[string]string `json:"data_table,omitempty"`
	Urgent      bool              `json:"urgent,omitempty"`
	Sender      string            `json:"sender,omitempty"`
}
