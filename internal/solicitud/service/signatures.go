package service

import (
	"context"
	"errors"
	"time"

	"apertura/internal/ownership"
	"apertura/internal/signature"
	"apertura/internal/solicitud/models"
	id "apertura/pkg/domain"
	audit "apertura/pkg/platform/audit"
	"apertura/pkg/requestcontext"
)

// IngestSignerUpdate folds one provider-reported signer status into the
// solicitud's document. Unknown signers and unmapped statuses are returned as
// ProviderSyncError and raise an operational alert.
func (s *Service) IngestSignerUpdate(ctx context.Context, solicitudID id.SolicitudID, update signature.SignerStatus) (sol *models.Solicitud, err error) {
	ctx, span := s.startSpan(ctx, "ingest_signer_update", solicitudID)
	defer func() { endSpan(span, err) }()

	return s.foldFirma(ctx, solicitudID, "ingest_signer_update", func(doc *signature.Document) (*signature.Document, error) {
		return signature.Ingest(doc, update)
	})
}

// IngestDocumentStatus applies a document-level status reported by the provider.
func (s *Service) IngestDocumentStatus(ctx context.Context, solicitudID id.SolicitudID, estado signature.Estado, motivo string, at time.Time) (sol *models.Solicitud, err error) {
	ctx, span := s.startSpan(ctx, "ingest_document_status", solicitudID)
	defer func() { endSpan(span, err) }()

	return s.foldFirma(ctx, solicitudID, "ingest_document_status", func(doc *signature.Document) (*signature.Document, error) {
		return signature.ApplyDocumentStatus(doc, estado, motivo, at)
	})
}

// SyncSignatures fetches the provider snapshot of the solicitud's document and
// merges it. It is what the poller calls for every PENDIENTE_FIRMA solicitud.
func (s *Service) SyncSignatures(ctx context.Context, solicitudID id.SolicitudID) (sol *models.Solicitud, err error) {
	ctx, span := s.startSpan(ctx, "sync_signatures", solicitudID)
	defer func() { endSpan(span, err) }()
	if s.metrics != nil {
		defer s.metrics.ObserveSync(time.Now())
	}

	current, err := s.store.FindByID(ctx, solicitudID)
	if err != nil {
		return nil, s.translate(err)
	}
	if current.Estado != models.EstadoPendienteFirma {
		return current, nil
	}
	if err := current.CanUpdateFirma(); err != nil {
		s.syncFailed(ctx, solicitudID, err)
		return nil, err
	}
	snapshot, err := s.provider.Fetch(ctx, current.Firma.ID)
	if err != nil {
		s.syncFailed(ctx, solicitudID, err)
		return nil, s.translate(err)
	}
	return s.foldFirma(ctx, solicitudID, "sync_signatures", func(doc *signature.Document) (*signature.Document, error) {
		return signature.Merge(doc, snapshot)
	})
}

// PendingSignature lists the solicitudes waiting for signatures.
func (s *Service) PendingSignature(ctx context.Context) ([]id.SolicitudID, error) {
	ids, err := s.store.ListIDsByEstado(ctx, models.EstadoPendienteFirma)
	if err != nil {
		return nil, s.translate(err)
	}
	return ids, nil
}

// foldFirma runs fold on the stored document under the solicitud lock and
// records the result. The fold runs in validate so a sync fault leaves the
// solicitud untouched.
func (s *Service) foldFirma(ctx context.Context, solicitudID id.SolicitudID, name string, fold func(*signature.Document) (*signature.Document, error)) (*models.Solicitud, error) {
	now := requestcontext.Now(ctx)
	var next *signature.Document
	sol, _, err := s.execute(ctx, solicitudID, transition{
		name: name,
		validate: func(sol *models.Solicitud) error {
			if err := sol.CanUpdateFirma(); err != nil {
				return err
			}
			folded, err := fold(sol.Firma)
			if err != nil {
				return err
			}
			next = folded
			return nil
		},
		apply: func(sol *models.Solicitud) { sol.ApplyFirma(next, now) },
		event: func(prev models.Estado, sol *models.Solicitud) (audit.AuditEvent, string) {
			if prev != models.EstadoPendienteFirma {
				return "", ""
			}
			switch sol.Estado {
			case models.EstadoPendienteAprobacion:
				return audit.EventSignatureCompleted, ""
			case models.EstadoCancelada:
				return audit.EventSignatureCanceled, sol.MotivoCancelacion
			}
			return "", ""
		},
		system: true,
	})
	if err != nil {
		s.syncFailed(ctx, solicitudID, err)
		return nil, err
	}
	return sol, nil
}

func (s *Service) syncFailed(ctx context.Context, solicitudID id.SolicitudID, err error) {
	var syncErr *signature.ProviderSyncError
	if !errors.As(err, &syncErr) {
		return
	}
	if s.metrics != nil {
		s.metrics.IncProviderSyncError(string(syncErr.Kind))
	}
	s.logger.WarnContext(ctx, "signature provider out of sync",
		"solicitud_id", solicitudID,
		"kind", syncErr.Kind,
		"document_id", syncErr.DocumentID,
		"signer_id", syncErr.SignerID,
		"error", err,
	)
	s.raise(ctx, solicitudID, audit.EventProviderSyncFailed, audit.SeverityWarning, err.Error())
}

func isValidationErrors(err error) bool {
	var verrs ownership.ValidationErrors
	return errors.As(err, &verrs)
}
