// Package compliance provides a fail-closed audit publisher for lifecycle decisions.
//
// Emit writes synchronously and the caller blocks until the write succeeds.
// If the write fails, an error is returned and the calling operation must fail.
//
// Use for: solicitud_created, solicitud_submitted, solicitud_approved,
// solicitud_rejected, solicitud_canceled, signature_*, account_registered.
package compliance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	audit "apertura/pkg/platform/audit"
)

// Publisher emits compliance events with fail-closed semantics.
type Publisher struct {
	store   audit.Sink
	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time
}

// Option configures the Publisher.
type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		p.now = now
	}
}

func New(store audit.Sink, opts ...Option) *Publisher {
	p := &Publisher{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit synchronously writes a compliance event. The write joins the caller's
// transaction when the store supports it.
func (p *Publisher) Emit(ctx context.Context, event audit.ComplianceEvent) error {
	start := p.now()

	if event.SolicitudID.IsNil() {
		return fmt.Errorf("compliance event requires SolicitudID")
	}
	if event.Action == "" {
		return fmt.Errorf("compliance event requires Action")
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = start
	}

	if err := p.store.Append(ctx, event.ToEvent()); err != nil {
		if p.metrics != nil {
			p.metrics.IncPersistFailures()
		}
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "CRITICAL: compliance audit failed",
				"action", event.Action,
				"solicitud_id", event.SolicitudID,
				"error", err,
			)
		}
		return fmt.Errorf("compliance audit persistence failed: %w", err)
	}

	if p.metrics != nil {
		p.metrics.ObservePersistDuration(p.now().Sub(start).Seconds())
		p.metrics.IncEventsEmitted(event.Action)
	}
	return nil
}
