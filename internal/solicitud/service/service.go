// Package service orchestrates solicitudes: it runs the ownership validator,
// the signature tracker and the lifecycle state machine against the stored
// aggregate, and talks to the signature provider and the account registry.
//
// Every state change goes through Store.Execute so the check and the mutation
// run under the same per-solicitud lock.
package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"apertura/internal/accountreg"
	"apertura/internal/ownership"
	"apertura/internal/perfil"
	"apertura/internal/signature"
	"apertura/internal/signature/provider"
	"apertura/internal/solicitud/aggregator"
	"apertura/internal/solicitud/metrics"
	"apertura/internal/solicitud/models"
	"apertura/internal/solicitud/summary"
	id "apertura/pkg/domain"
	dErrors "apertura/pkg/domain-errors"
	audit "apertura/pkg/platform/audit"
	"apertura/pkg/platform/sentinel"
	"apertura/pkg/requestcontext"
)

//go:generate mockgen -destination=mocks/service-mocks.go -package=mocks apertura/internal/solicitud/service SignatureProvider,AccountRegistry,AlertPublisher

type Store interface {
	Create(ctx context.Context, sol *models.Solicitud) error
	FindByID(ctx context.Context, solicitudID id.SolicitudID) (*models.Solicitud, error)
	Execute(ctx context.Context, solicitudID id.SolicitudID, validate func(*models.Solicitud) error, apply func(*models.Solicitud)) (*models.Solicitud, error)
	ListIDsByEstado(ctx context.Context, estados ...models.Estado) ([]id.SolicitudID, error)
}

type SummaryStore interface {
	Put(ctx context.Context, sum models.Summary) error
	List(ctx context.Context, filter summary.Filter) ([]models.Summary, error)
}

type SignatureProvider interface {
	Submit(ctx context.Context, req provider.SubmitRequest) (*signature.Document, error)
	Fetch(ctx context.Context, documentID string) (*signature.Document, error)
}

type AccountRegistry interface {
	Register(ctx context.Context, req accountreg.Request) (string, error)
}

type CompliancePublisher interface {
	Emit(ctx context.Context, event audit.ComplianceEvent) error
}

type AlertPublisher interface {
	Raise(ctx context.Context, alert audit.Alert) bool
}

// Transactor runs fn in a unit of work shared by the aggregate write and its
// compliance record.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type noTx struct{}

func (noTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type Service struct {
	store      Store
	summaries  SummaryStore
	aggregator *aggregator.Aggregator
	provider   SignatureProvider
	registry   AccountRegistry
	compliance CompliancePublisher
	alerts     AlertPublisher
	security   audit.Sink
	tx         Transactor
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithSummaryStore(store SummaryStore) Option {
	return func(s *Service) {
		s.summaries = store
	}
}

func WithAccountRegistry(registry AccountRegistry) Option {
	return func(s *Service) {
		s.registry = registry
	}
}

func WithCompliancePublisher(p CompliancePublisher) Option {
	return func(s *Service) {
		s.compliance = p
	}
}

func WithAlertPublisher(p AlertPublisher) Option {
	return func(s *Service) {
		s.alerts = p
	}
}

// WithSecuritySink records denied access attempts.
func WithSecuritySink(sink audit.Sink) Option {
	return func(s *Service) {
		s.security = sink
	}
}

func WithTransactor(tx Transactor) Option {
	return func(s *Service) {
		s.tx = tx
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

func New(store Store, validator *ownership.Validator, signatures SignatureProvider, opts ...Option) *Service {
	s := &Service{
		store:      store,
		aggregator: aggregator.New(validator),
		provider:   signatures,
		tx:         noTx{},
		logger:     slog.New(slog.DiscardHandler),
		tracer:     otel.Tracer("apertura/internal/solicitud/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.summaries == nil {
		s.summaries = summary.NewInMemory()
	}
	return s
}

// CreateCommand opens a new draft for the authenticated user.
type CreateCommand struct {
	Tipo        models.Tipo
	ProductorID string
}

// SolicitudFilter narrows ListSummaries. Applicants only ever see their own.
type SolicitudFilter struct {
	Estado models.Estado
}

// Perfil answers are evaluated before they reach the aggregate.
type PerfilCommand struct {
	Answers []perfil.Answer
}

func (s *Service) startSpan(ctx context.Context, name string, solicitudID id.SolicitudID) (context.Context, trace.Span) {
	ctx, span := s.tracer.Start(ctx, "solicitud."+name)
	if !solicitudID.IsNil() {
		span.SetAttributes(attribute.String("solicitud.id", solicitudID.String()))
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		span.SetAttributes(attribute.String("request.id", requestID))
	}
	return ctx, span
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// load fetches a solicitud and checks the caller may see it.
func (s *Service) load(ctx context.Context, solicitudID id.SolicitudID) (*models.Solicitud, error) {
	sol, err := s.store.FindByID(ctx, solicitudID)
	if err != nil {
		return nil, s.translate(err)
	}
	if err := s.authorize(ctx, sol); err != nil {
		return nil, err
	}
	return sol, nil
}

// authorize lets operators act on every solicitud and applicants on their own.
func (s *Service) authorize(ctx context.Context, sol *models.Solicitud) error {
	if requestcontext.HasRole(ctx, requestcontext.RoleOperador) {
		return nil
	}
	caller := requestcontext.UserID(ctx)
	if !caller.IsNil() && caller == sol.UserID {
		return nil
	}
	s.logger.WarnContext(ctx, "solicitud access denied",
		"solicitud_id", sol.ID,
		"user_id", caller,
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.security != nil {
		if err := s.security.Append(ctx, audit.Event{
			Category:    audit.CategorySecurity,
			Timestamp:   requestcontext.Now(ctx),
			SolicitudID: sol.ID,
			UserID:      caller,
			Action:      string(audit.EventAccessDenied),
			RequestID:   requestcontext.RequestID(ctx),
		}); err != nil {
			s.logger.ErrorContext(ctx, "failed to record access denial", "error", err)
		}
	}
	// Not found rather than forbidden so ids cannot be enumerated.
	return dErrors.New(dErrors.CodeNotFound, "solicitud not found")
}

func (s *Service) requireOperator(ctx context.Context) error {
	if !requestcontext.HasRole(ctx, requestcontext.RoleOperador) {
		return dErrors.New(dErrors.CodeForbidden, "operator role required")
	}
	if requestcontext.UserID(ctx).IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "authenticated operator required")
	}
	return nil
}

// translate maps store facts to domain errors. Typed lifecycle, validation and
// sync errors pass through untouched so the API layer can render them.
func (s *Service) translate(err error) error {
	if err == nil {
		return nil
	}
	var (
		lifecycle  *models.LifecycleError
		concurrent *models.ConcurrentModificationError
		missing    *models.MissingSectionsError
		syncErr    *signature.ProviderSyncError
		verrs      ownership.ValidationErrors
		answers    perfil.AnswerErrors
		domainErr  *dErrors.Error
	)
	switch {
	case errors.As(err, &concurrent):
		if s.metrics != nil {
			s.metrics.IncConcurrentModifications()
		}
		return err
	case errors.As(err, &lifecycle), errors.As(err, &missing), errors.As(err, &syncErr),
		errors.As(err, &verrs), errors.As(err, &answers), errors.As(err, &domainErr):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "solicitud not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "solicitud already exists")
	case errors.Is(err, sentinel.ErrStaleVersion):
		return dErrors.Wrap(err, dErrors.CodeConflict, "solicitud was modified concurrently")
	case errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "operation timed out")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "solicitud operation failed")
}

// project refreshes the read-side summary. A failed projection never fails the
// write that produced it.
func (s *Service) project(ctx context.Context, sol *models.Solicitud) {
	if err := s.summaries.Put(ctx, sol.Summary()); err != nil {
		s.logger.WarnContext(ctx, "failed to refresh solicitud summary",
			"solicitud_id", sol.ID,
			"error", err,
		)
	}
}

func (s *Service) emit(ctx context.Context, sol *models.Solicitud, event audit.AuditEvent, reason string) error {
	if s.compliance == nil {
		return nil
	}
	return s.compliance.Emit(ctx, audit.ComplianceEvent{
		Timestamp:   requestcontext.Now(ctx),
		SolicitudID: sol.ID,
		UserID:      requestcontext.UserID(ctx),
		Subject:     sol.Titulo(),
		Action:      string(event),
		Decision:    string(sol.Estado),
		Reason:      reason,
		RequestID:   requestcontext.RequestID(ctx),
	})
}

func (s *Service) raise(ctx context.Context, solicitudID id.SolicitudID, event audit.AuditEvent, severity audit.Severity, reason string) {
	if s.alerts == nil {
		s.logger.ErrorContext(ctx, "operational alert without publisher",
			"action", event,
			"solicitud_id", solicitudID,
			"reason", reason,
		)
		return
	}
	s.alerts.Raise(ctx, audit.Alert{
		Timestamp:   requestcontext.Now(ctx),
		SolicitudID: solicitudID,
		Action:      string(event),
		Reason:      reason,
		RequestID:   requestcontext.RequestID(ctx),
		Severity:    severity,
	})
}

// transition is one Execute in a unit of work with its compliance record.
// The returned estado is the one before apply ran.
type transition struct {
	name     string
	validate func(*models.Solicitud) error
	apply    func(*models.Solicitud)
	// event picks the compliance event for the result; empty skips it.
	event  func(prev models.Estado, sol *models.Solicitud) (audit.AuditEvent, string)
	system bool // background callers skip the access check
}

func (s *Service) execute(ctx context.Context, solicitudID id.SolicitudID, t transition) (*models.Solicitud, models.Estado, error) {
	// Ownership never changes, so access is checked before the unit of work
	// and a denial is recorded outside any transaction that will roll back.
	if !t.system {
		if _, err := s.load(ctx, solicitudID); err != nil {
			return nil, "", err
		}
	}
	var (
		result *models.Solicitud
		prev   models.Estado
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		sol, err := s.store.Execute(ctx, solicitudID, t.validate,
			func(sol *models.Solicitud) {
				prev = sol.Estado
				t.apply(sol)
			},
		)
		if err != nil {
			return err
		}
		result = sol
		if t.event == nil {
			return nil
		}
		if event, reason := t.event(prev, sol); event != "" {
			return s.emit(ctx, sol, event, reason)
		}
		return nil
	})
	if err != nil {
		return nil, "", s.translate(err)
	}
	if prev != result.Estado {
		if s.metrics != nil {
			s.metrics.IncTransition(string(prev), string(result.Estado))
		}
		s.logger.InfoContext(ctx, "solicitud transitioned",
			"operation", t.name,
			"solicitud_id", result.ID,
			"from", prev,
			"to", result.Estado,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	s.project(ctx, result)
	return result, prev, nil
}

func fixedEvent(event audit.AuditEvent, reason string) func(models.Estado, *models.Solicitud) (audit.AuditEvent, string) {
	return func(models.Estado, *models.Solicitud) (audit.AuditEvent, string) {
		return event, reason
	}
}
