package domain

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// WebhookRecord is the last chain notification received for a session.
type WebhookRecord struct {
	EventID     string          `json:"eventId"`
	SessionID   string          `json:"sessionId"`
	Source      string          `json:"source,omitempty"`
	Status      SessionStatus   `json:"status,omitempty"`
	TxSignature string          `json:"txSignature,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	ReceivedAt  int64           `json:"receivedAt"` // Unix milliseconds
}

// NewWebhookRecord stamps a fresh event id.
func NewWebhookRecord(sessionID string, receivedAt int64) *WebhookRecord {
	return &WebhookRecord{
		EventID:    uuid.NewString(),
		SessionID:  sessionID,
		ReceivedAt: receivedAt,
	}
}

// Validate checks the record is well formed.
func (w *WebhookRecord) Validate() error {
	var violations []string
	if _, err := uuid.Parse(w.EventID); err != nil {
		violations = append(violations, "eventId must be a uuid")
	}
	if !IsValidSessionID(w.SessionID) {
		violations = append(violations, "sessionId is malformed")
	}
	if w.Status != "" && !w.Status.Valid() {
		violations = append(violations, "status is unknown")
	}
	if w.ReceivedAt <= 0 {
		violations = append(violations, "receivedAt is required")
	}
	if len(w.Payload) > 0 && !json.Valid(w.Payload) {
		violations = append(violations, "payload is not valid json")
	}
	if len(violations) > 0 {
		return ErrValidation.WithDetails(strings.Join(violations, "; "))
	}
	return nil
}
