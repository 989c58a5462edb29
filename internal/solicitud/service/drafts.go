package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"apertura/internal/ownership"
	"apertura/internal/perfil"
	"apertura/internal/solicitud/aggregator"
	"apertura/internal/solicitud/models"
	"apertura/internal/solicitud/summary"
	id "apertura/pkg/domain"
	dErrors "apertura/pkg/domain-errors"
	audit "apertura/pkg/platform/audit"
	"apertura/pkg/requestcontext"
)

// Create opens a BORRADOR solicitud owned by the authenticated user.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (sol *models.Solicitud, err error) {
	ctx, span := s.startSpan(ctx, "create", id.SolicitudID{})
	defer func() { endSpan(span, err) }()

	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authenticated user required")
	}
	sol, err = models.NewSolicitud(id.NewSolicitudID(), userID, cmd.Tipo, strings.TrimSpace(cmd.ProductorID), requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Create(ctx, sol); err != nil {
			return err
		}
		return s.emit(ctx, sol, audit.EventSolicitudCreated, "")
	})
	if err != nil {
		return nil, s.translate(err)
	}

	if s.metrics != nil {
		s.metrics.IncCreated(string(sol.Tipo))
	}
	s.logger.InfoContext(ctx, "solicitud created",
		"solicitud_id", sol.ID,
		"tipo", sol.Tipo,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.project(ctx, sol)
	return sol, nil
}

func (s *Service) Get(ctx context.Context, solicitudID id.SolicitudID) (sol *models.Solicitud, err error) {
	ctx, span := s.startSpan(ctx, "get", solicitudID)
	defer func() { endSpan(span, err) }()

	return s.load(ctx, solicitudID)
}

// UpdateTitular replaces the applicant tree of a draft. The tree is stored as
// given; Validate reports its violations.
func (s *Service) UpdateTitular(ctx context.Context, solicitudID id.SolicitudID, root *ownership.Node) (sol *models.Solicitud, err error) {
	ctx, span := s.startSpan(ctx, "update_titular", solicitudID)
	defer func() { endSpan(span, err) }()

	now := requestcontext.Now(ctx)
	sol, _, err = s.execute(ctx, solicitudID, transition{
		name:     "update_titular",
		validate: func(sol *models.Solicitud) error { return sol.CanSetTitular(root) },
		apply:    func(sol *models.Solicitud) { sol.ApplyTitular(root, now) },
	})
	return sol, err
}

// UpdatePerfil scores the questionnaire and stores the resulting profile.
func (s *Service) UpdatePerfil(ctx context.Context, solicitudID id.SolicitudID, cmd PerfilCommand) (sol *models.Solicitud, err error) {
	ctx, span := s.startSpan(ctx, "update_perfil", solicitudID)
	defer func() { endSpan(span, err) }()

	p, err := perfil.Evaluate(cmd.Answers)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	sol, _, err = s.execute(ctx, solicitudID, transition{
		name:     "update_perfil",
		validate: func(sol *models.Solicitud) error { return sol.CanEdit() },
		apply:    func(sol *models.Solicitud) { sol.ApplyPerfil(p, now) },
	})
	return sol, err
}

// AttachDocumento records a reference to an uploaded supporting document.
func (s *Service) AttachDocumento(ctx context.Context, solicitudID id.SolicitudID, doc models.Documento) (sol *models.Solicitud, err error) {
	ctx, span := s.startSpan(ctx, "attach_documento", solicitudID)
	defer func() { endSpan(span, err) }()

	doc.ID = uuid.NewString()
	doc.Nombre = strings.TrimSpace(doc.Nombre)
	doc.URL = strings.TrimSpace(doc.URL)
	now := requestcontext.Now(ctx)
	sol, _, err = s.execute(ctx, solicitudID, transition{
		name:     "attach_documento",
		validate: func(sol *models.Solicitud) error { return sol.CanAttach(doc) },
		apply:    func(sol *models.Solicitud) { sol.ApplyDocumento(doc, now) },
	})
	return sol, err
}

// Validate runs the ownership validator over the stored applicant tree and
// returns either its report or the complete list of violations.
func (s *Service) Validate(ctx context.Context, solicitudID id.SolicitudID) (report *ownership.Report, err error) {
	ctx, span := s.startSpan(ctx, "validate", solicitudID)
	defer func() { endSpan(span, err) }()

	sol, err := s.load(ctx, solicitudID)
	if err != nil {
		return nil, err
	}
	if sol.Titular == nil {
		return nil, &models.MissingSectionsError{Sections: []models.Section{models.SectionTitular}}
	}
	report, err = s.aggregator.Validate(sol)
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncValidationFailures()
		}
		return nil, err
	}
	return report, nil
}

// Capabilities answers which actions the solicitud allows right now.
func (s *Service) Capabilities(ctx context.Context, solicitudID id.SolicitudID) (caps aggregator.Capabilities, err error) {
	ctx, span := s.startSpan(ctx, "capabilities", solicitudID)
	defer func() { endSpan(span, err) }()

	sol, err := s.load(ctx, solicitudID)
	if err != nil {
		return aggregator.Capabilities{}, err
	}
	caps = s.aggregator.Capabilities(sol)
	if !requestcontext.HasRole(ctx, requestcontext.RoleOperador) {
		caps.CanApprove = false
		caps.CanReject = false
	}
	return caps, nil
}

// ListSummaries returns the read-side projection, newest first. Applicants
// only see their own solicitudes.
func (s *Service) ListSummaries(ctx context.Context, filter SolicitudFilter) (out []models.Summary, err error) {
	ctx, span := s.startSpan(ctx, "list_summaries", id.SolicitudID{})
	defer func() { endSpan(span, err) }()

	if filter.Estado != "" && !filter.Estado.IsValid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown estado "+string(filter.Estado))
	}
	f := summary.Filter{Estado: filter.Estado}
	if !requestcontext.HasRole(ctx, requestcontext.RoleOperador) {
		f.UserID = requestcontext.UserID(ctx)
		if f.UserID.IsNil() {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "authenticated user required")
		}
	}
	out, err = s.summaries.List(ctx, f)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list solicitudes")
	}
	return out, nil
}
