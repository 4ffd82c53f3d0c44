package metrics

import (
	"context"

	"invoicedash/internal/port"
)

// CountingPublisher counts every event handed to the wrapped publisher.
type CountingPublisher struct {
	next    port.EventPublisher
	metrics *Metrics
}

var _ port.EventPublisher = (*CountingPublisher)(nil)

func NewCountingPublisher(next port.EventPublisher, m *Metrics) *CountingPublisher {
	return &CountingPublisher{next: next, metrics: m}
}

func (p *CountingPublisher) Publish(ctx context.Context, event port.InvoiceEvent) error {
	err := p.next.Publish(ctx, event)
	p.metrics.recordEvent(event.EventType, err)
	return err
}

func (p *CountingPublisher) Close() {
	p.next.Close()
}
