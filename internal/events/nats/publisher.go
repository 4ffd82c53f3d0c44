// Package nats publishes invoice lifecycle events to NATS core subjects.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"invoicedash/internal/port"
)

// Conn is the subset of *nats.Conn the publisher uses.
type Conn interface {
	Publish(subject string, data []byte) error
	Status() nats.Status
	Close()
}

// Publisher sends each InvoiceEvent as JSON to "<prefix>.<event_type>".
type Publisher struct {
	conn   Conn
	prefix string
	log    zerolog.Logger
}

var (
	_ port.EventPublisher = (*Publisher)(nil)
	_ port.HealthChecker  = (*Publisher)(nil)
)

// Options tunes the connection.
type Options struct {
	Name           string
	ConnectTimeout time.Duration
	ReconnectWait  time.Duration
	MaxReconnects  int
}

// Connect dials NATS at url and returns a publisher for subjects under prefix.
// The connection keeps retrying in the background if the server is not up yet.
func Connect(url, prefix string, opts Options, log zerolog.Logger) (*Publisher, error) {
	if opts.Name == "" {
		opts.Name = "invoicedash"
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 2 * time.Second
	}
	if opts.ReconnectWait <= 0 {
		opts.ReconnectWait = 2 * time.Second
	}
	if opts.MaxReconnects <= 0 {
		opts.MaxReconnects = 60
	}

	log = log.With().Str("component", "events").Logger()
	conn, err := nats.Connect(
		url,
		nats.Name(opts.Name),
		nats.Timeout(opts.ConnectTimeout),
		nats.ReconnectWait(opts.ReconnectWait),
		nats.MaxReconnects(opts.MaxReconnects),
		nats.RetryOnFailedConnect(true),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return NewPublisher(conn, prefix, log), nil
}

// NewPublisher wraps an existing connection.
func NewPublisher(conn Conn, prefix string, log zerolog.Logger) *Publisher {
	return &Publisher{conn: conn, prefix: prefix, log: log}
}

// Subject returns the subject an event type is published on.
func (p *Publisher) Subject(eventType string) string {
	return fmt.Sprintf("%s.%s", p.prefix, eventType)
}

func (p *Publisher) Publish(ctx context.Context, event port.InvoiceEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.EventType, err)
	}

	subject := p.Subject(event.EventType)
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}

	p.log.Debug().
		Str("subject", subject).
		Str("invoice_id", event.InvoiceID).
		Msg("event published")
	return nil
}

func (p *Publisher) Name() string { return "nats" }

// Ping fails unless the connection is established.
func (p *Publisher) Ping(_ context.Context) error {
	if s := p.conn.Status(); s != nats.CONNECTED {
		return fmt.Errorf("nats connection %s", s)
	}
	return nil
}

func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}
