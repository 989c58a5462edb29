package service

import (
	"context"

	"apertura/internal/accountreg"
	"apertura/internal/signature"
	"apertura/internal/signature/provider"
	"apertura/internal/solicitud/models"
	id "apertura/pkg/domain"
	dErrors "apertura/pkg/domain-errors"
	audit "apertura/pkg/platform/audit"
	"apertura/pkg/requestcontext"
)

// Submit sends a complete draft for signature: BORRADOR → PENDIENTE_FIRMA.
// The guards run before the provider is called and again under the lock.
func (s *Service) Submit(ctx context.Context, solicitudID id.SolicitudID, expected models.Estado) (sol *models.Solicitud, err error) {
	ctx, span := s.startSpan(ctx, "submit", solicitudID)
	defer func() { endSpan(span, err) }()

	if expected == "" {
		expected = models.EstadoBorrador
	}
	current, err := s.load(ctx, solicitudID)
	if err != nil {
		return nil, err
	}
	if err := s.aggregator.CheckSubmit(current, expected); err != nil {
		s.countValidationFailure(err)
		return nil, s.translate(err)
	}

	firmantes := signature.Firmantes(current.Titular)
	if len(firmantes) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "titular has no signers")
	}
	doc, err := s.provider.Submit(ctx, provider.SubmitRequest{
		ExternalID: current.ID.String(),
		Titulo:     current.Titulo(),
		Firmantes:  firmantes,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "signature provider submit failed",
			"solicitud_id", solicitudID,
			"error", err,
		)
		return nil, s.translate(err)
	}

	now := requestcontext.Now(ctx)
	sol, _, err = s.execute(ctx, solicitudID, transition{
		name: "submit",
		validate: func(sol *models.Solicitud) error {
			return s.aggregator.CheckSubmit(sol, expected)
		},
		apply: func(sol *models.Solicitud) { sol.ApplySubmit(doc, now) },
		event: fixedEvent(audit.EventSolicitudSubmitted, ""),
	})
	if err != nil {
		// The provider already opened a process that nothing references.
		s.logger.WarnContext(ctx, "signature document orphaned by failed submit",
			"solicitud_id", solicitudID,
			"document_id", doc.ID,
			"error", err,
		)
		return nil, err
	}
	return sol, nil
}

// Approve records the operator decision (PENDIENTE_APROBACION → APROBADA) and
// then registers the account. A registration failure never undoes the
// approval: it raises an operational alert and the solicitud stays APROBADA
// without an account number.
func (s *Service) Approve(ctx context.Context, solicitudID id.SolicitudID, expected models.Estado) (sol *models.Solicitud, err error) {
	ctx, span := s.startSpan(ctx, "approve", solicitudID)
	defer func() { endSpan(span, err) }()

	if err := s.requireOperator(ctx); err != nil {
		return nil, err
	}
	if expected == "" {
		expected = models.EstadoPendienteAprobacion
	}
	approver := requestcontext.UserID(ctx)
	now := requestcontext.Now(ctx)

	sol, _, err = s.execute(ctx, solicitudID, transition{
		name:     "approve",
		validate: func(sol *models.Solicitud) error { return sol.CanApprove(expected) },
		apply:    func(sol *models.Solicitud) { sol.ApplyApproval(approver, now) },
		event:    fixedEvent(audit.EventSolicitudApproved, ""),
	})
	if err != nil {
		return nil, err
	}

	return s.registerAccount(ctx, sol), nil
}

// registerAccount returns the solicitud with its account number when the
// registry answered, or unchanged when it did not.
func (s *Service) registerAccount(ctx context.Context, sol *models.Solicitud) *models.Solicitud {
	if s.registry == nil {
		s.accountRegistrationFailed(ctx, sol.ID, "account registry not configured")
		return sol
	}
	req := accountreg.Request{
		SolicitudID: sol.ID.String(),
		Tipo:        string(sol.Tipo),
		Titular:     sol.Titular,
		Perfil:      sol.Perfil,
		ProductorID: sol.ProductorID,
	}
	if sol.AprobadaPor != nil {
		req.AprobadaPor = sol.AprobadaPor.String()
	}
	if sol.AprobadaEn != nil {
		req.AprobadaEn = *sol.AprobadaEn
	}

	numero, err := s.registry.Register(ctx, req)
	if err != nil {
		s.accountRegistrationFailed(ctx, sol.ID, err.Error())
		return sol
	}

	now := requestcontext.Now(ctx)
	updated, _, err := s.execute(ctx, sol.ID, transition{
		name:     "assign_numero_cuenta",
		validate: func(sol *models.Solicitud) error { return sol.CanAssignNumeroCuenta() },
		apply:    func(sol *models.Solicitud) { sol.ApplyNumeroCuenta(numero, now) },
		event:    fixedEvent(audit.EventAccountRegistered, numero),
		system:   true,
	})
	if err != nil {
		s.accountRegistrationFailed(ctx, sol.ID, "account "+numero+" registered but not recorded: "+err.Error())
		return sol
	}
	return updated
}

func (s *Service) accountRegistrationFailed(ctx context.Context, solicitudID id.SolicitudID, reason string) {
	if s.metrics != nil {
		s.metrics.IncAccountRegistrationFailure()
	}
	s.logger.ErrorContext(ctx, "account registration failed after approval",
		"solicitud_id", solicitudID,
		"reason", reason,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.raise(ctx, solicitudID, audit.EventAccountRegistrationFailed, audit.SeverityCritical, reason)
}

// Reject closes the solicitud with a mandatory reason.
func (s *Service) Reject(ctx context.Context, solicitudID id.SolicitudID, expected models.Estado, motivo string) (sol *models.Solicitud, err error) {
	ctx, span := s.startSpan(ctx, "reject", solicitudID)
	defer func() { endSpan(span, err) }()

	if err := s.requireOperator(ctx); err != nil {
		return nil, err
	}
	if expected == "" {
		expected = models.EstadoPendienteAprobacion
	}
	now := requestcontext.Now(ctx)
	sol, _, err = s.execute(ctx, solicitudID, transition{
		name:     "reject",
		validate: func(sol *models.Solicitud) error { return sol.CanReject(expected, motivo) },
		apply:    func(sol *models.Solicitud) { sol.ApplyRejection(motivo, now) },
		event:    fixedEvent(audit.EventSolicitudRejected, motivo),
	})
	return sol, err
}

// Cancel withdraws a solicitud from any non-terminal estado. Without an
// expected estado the current one is taken, so the call only fails on a
// terminal solicitud.
func (s *Service) Cancel(ctx context.Context, solicitudID id.SolicitudID, expected models.Estado, motivo string) (sol *models.Solicitud, err error) {
	ctx, span := s.startSpan(ctx, "cancel", solicitudID)
	defer func() { endSpan(span, err) }()

	now := requestcontext.Now(ctx)
	sol, _, err = s.execute(ctx, solicitudID, transition{
		name: "cancel",
		validate: func(sol *models.Solicitud) error {
			want := expected
			if want == "" {
				want = sol.Estado
			}
			return sol.CanCancel(want)
		},
		apply: func(sol *models.Solicitud) { sol.ApplyCancellation(motivo, now) },
		event: fixedEvent(audit.EventSolicitudCanceled, motivo),
	})
	return sol, err
}

func (s *Service) countValidationFailure(err error) {
	if s.metrics == nil {
		return
	}
	if isValidationErrors(err) {
		s.metrics.IncValidationFailures()
	}
}
