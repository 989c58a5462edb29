// Package poller periodically reconciles solicitudes waiting for signatures
// with the signature provider.
package poller

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"apertura/internal/solicitud/metrics"
	"apertura/internal/solicitud/models"
	id "apertura/pkg/domain"
)

// Syncer is the slice of the solicitud service the poller drives.
type Syncer interface {
	PendingSignature(ctx context.Context) ([]id.SolicitudID, error)
	SyncSignatures(ctx context.Context, solicitudID id.SolicitudID) (*models.Solicitud, error)
}

type Poller struct {
	syncer      Syncer
	interval    time.Duration
	concurrency int
	timeout     time.Duration
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

type Option func(*Poller)

func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithConcurrency bounds the number of solicitudes synced at once.
func WithConcurrency(n int) Option {
	return func(p *Poller) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithTimeout bounds a single solicitud sync.
func WithTimeout(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Poller) {
		p.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Poller) {
		p.metrics = m
	}
}

func New(syncer Syncer, opts ...Option) *Poller {
	p := &Poller{
		syncer:      syncer,
		interval:    time.Minute,
		concurrency: 4,
		timeout:     30 * time.Second,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start polls until ctx is cancelled.
func (p *Poller) Start(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := p.RunOnce(ctx); err != nil {
				p.logger.ErrorContext(ctx, "signature poll failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Result counts the outcome of one pass.
type Result struct {
	Pending int
	Synced  int
	Failed  int
}

// RunOnce syncs every pending solicitud. A failing solicitud is logged and
// counted; it never stops the rest of the batch. The error is only set when
// the pending list itself could not be read.
func (p *Poller) RunOnce(ctx context.Context) (Result, error) {
	if p.metrics != nil {
		defer p.metrics.ObservePoll(time.Now())
	}
	ids, err := p.syncer.PendingSignature(ctx)
	if err != nil {
		return Result{}, err
	}

	var synced, failed atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(p.concurrency)
	for _, solicitudID := range ids {
		g.Go(func() error {
			syncCtx, cancel := context.WithTimeout(ctx, p.timeout)
			defer cancel()
			sol, err := p.syncer.SyncSignatures(syncCtx, solicitudID)
			if err != nil {
				failed.Add(1)
				p.logger.WarnContext(ctx, "signature sync failed",
					"solicitud_id", solicitudID,
					"error", err,
				)
				return nil
			}
			synced.Add(1)
			if sol.Estado != models.EstadoPendienteFirma {
				p.logger.InfoContext(ctx, "signature process finished",
					"solicitud_id", solicitudID,
					"estado", sol.Estado,
				)
			}
			return nil
		})
	}
	_ = g.Wait()

	result := Result{Pending: len(ids), Synced: int(synced.Load()), Failed: int(failed.Load())}
	if result.Pending > 0 {
		p.logger.InfoContext(ctx, "signature poll completed",
			"pending", result.Pending,
			"synced", result.Synced,
			"failed", result.Failed,
		)
	}
	return result, nil
}
