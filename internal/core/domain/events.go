package domain

import "time"

type EventType string

const (
	EventDocumentSubmitted EventType = "document.submitted"
	EventDocumentApproved  EventType = "document.approved"
	EventDocumentRejected  EventType = "document.rejected"
)

// DocumentEvent is published after a lifecycle transition has committed.
// Delivery is best effort; the transition itself never depends on it.
type DocumentEvent struct {
	Type       EventType `json:"type"`
	DocumentID string    `json:"document_id"`
	Actor      string    `json:"actor"`
	OccurredAt time.Time `json:"occurred_at"`
}
