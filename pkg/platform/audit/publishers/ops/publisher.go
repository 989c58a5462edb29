// Package ops raises operational alerts.
//
// Alerts go to a primary sink (the Kafka alerts topic) guarded by a circuit
// breaker. When the primary fails or the breaker is open, the alert is written
// to the fallback sink instead. Raise never fails the calling operation: an
// alert describes a problem that already happened.
package ops

import (
	"context"
	"log/slog"
	"time"

	audit "apertura/pkg/platform/audit"
	"apertura/pkg/platform/circuit"
)

type Publisher struct {
	primary  audit.Sink
	fallback audit.Sink
	breaker  *circuit.Breaker
	logger   *slog.Logger
	metrics  *Metrics
	now      func() time.Time
}

type Option func(*Publisher)

func WithFallback(sink audit.Sink) Option {
	return func(p *Publisher) {
		p.fallback = sink
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(p *Publisher) {
		p.breaker = b
	}
}

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

func New(primary audit.Sink, opts ...Option) *Publisher {
	p := &Publisher{
		primary: primary,
		breaker: circuit.New("alerts"),
		logger:  slog.New(slog.DiscardHandler),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Raise delivers an alert. It returns true when some sink accepted it.
func (p *Publisher) Raise(ctx context.Context, alert audit.Alert) bool {
	if alert.Timestamp.IsZero() {
		alert.Timestamp = p.now()
	}
	if alert.Severity == "" {
		alert.Severity = audit.SeverityWarning
	}
	if p.metrics != nil {
		p.metrics.IncRaised(alert.Action, string(alert.Severity))
	}
	event := alert.ToEvent()

	if p.primary != nil && p.breaker.Allow() {
		err := p.primary.Append(ctx, event)
		if err == nil {
			if _, change := p.breaker.RecordSuccess(); change.Closed {
				p.logger.InfoContext(ctx, "alert sink recovered", "breaker", p.breaker.Name())
				p.setBreakerGauge(false)
			}
			return true
		}
		_, change := p.breaker.RecordFailure()
		if change.Opened {
			p.logger.WarnContext(ctx, "alert sink circuit opened", "breaker", p.breaker.Name())
			p.setBreakerGauge(true)
		}
		p.logger.ErrorContext(ctx, "failed to publish alert",
			"action", alert.Action,
			"solicitud_id", alert.SolicitudID,
			"error", err,
		)
	}

	if p.fallback != nil {
		err := p.fallback.Append(ctx, event)
		if err == nil {
			if p.metrics != nil {
				p.metrics.IncFallbackDeliveries()
			}
			return true
		}
		p.logger.ErrorContext(ctx, "failed to persist alert in fallback sink",
			"action", alert.Action,
			"solicitud_id", alert.SolicitudID,
			"error", err,
		)
	}

	if p.metrics != nil {
		p.metrics.IncDeliveryFailures()
	}
	p.logger.ErrorContext(ctx, "CRITICAL: operational alert lost",
		"action", alert.Action,
		"solicitud_id", alert.SolicitudID,
		"reason", alert.Reason,
		"severity", alert.Severity,
	)
	return false
}

func (p *Publisher) setBreakerGauge(open bool) {
	if p.metrics != nil {
		p.metrics.SetCircuitBreakerState(open)
	}
}
