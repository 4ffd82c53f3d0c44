package port

import (
	"context"
	"time"
)

// Invoice lifecycle event types.
const (
	EventInvoiceCreated  = "created"
	EventInvoiceApproved = "approved"
	EventInvoiceRejected = "rejected"
	EventInvoiceEdited   = "edited"
	EventInvoiceFlagged  = "flagged"
	EventInvoiceUpdated  = "updated"
	EventInvoiceDeleted  = "deleted"
)

// InvoiceEvent is published after a lifecycle transition.
type InvoiceEvent struct {
	EventType  string                 `json:"event_type"`
	InvoiceID  string                 `json:"invoice_id"`
	Actor      string                 `json:"actor"`
	OccurredAt time.Time              `json:"occurred_at"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
}

// EventPublisher delivers invoice lifecycle events to interested consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event InvoiceEvent) error
	Close()
}
