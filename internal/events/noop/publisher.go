package noop

import (
	"context"

	"github.com/rs/zerolog"

	"invoicedash/internal/port"
)

type noopPublisher struct {
	log zerolog.Logger
}

// NewPublisher creates a no-op EventPublisher that only logs events at debug level.
func NewPublisher(log zerolog.Logger) port.EventPublisher {
	return &noopPublisher{log: log}
}

func (p *noopPublisher) Publish(_ context.Context, event port.InvoiceEvent) error {
	p.log.Debug().
		Str("event_type", event.EventType).
		Str("invoice_id", event.InvoiceID).
		Str("actor", event.Actor).
		Msg("[NOOP EVENT] invoice event")
	return nil
}

func (p *noopPublisher) Close() {}
