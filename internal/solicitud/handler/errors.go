package handler

import (
	"context"
	"errors"
	"net/http"

	"apertura/internal/ownership"
	"apertura/internal/perfil"
	"apertura/internal/signature"
	"apertura/internal/solicitud/models"
	dErrors "apertura/pkg/domain-errors"
	"apertura/pkg/platform/httputil"
	request "apertura/pkg/platform/middleware/request"
)

// writeError renders the typed service errors with their details and falls
// back to the domain code for everything else.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		verrs      ownership.ValidationErrors
		answers    perfil.AnswerErrors
		missing    *models.MissingSectionsError
		lifecycle  *models.LifecycleError
		concurrent *models.ConcurrentModificationError
		syncErr    *signature.ProviderSyncError
	)
	switch {
	case errors.As(err, &verrs):
		httputil.WriteErrorWithDetails(w, dErrors.New(dErrors.CodeValidation, "ownership structure is invalid"), verrs)
	case errors.As(err, &answers):
		httputil.WriteErrorWithDetails(w, dErrors.New(dErrors.CodeValidation, "investor profile answers are invalid"), answers)
	case errors.As(err, &missing):
		httputil.WriteErrorWithDetails(w, dErrors.New(dErrors.CodeValidation, "solicitud is missing required sections"), missing.Sections)
	case errors.As(err, &lifecycle):
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidState, lifecycle.Error()))
	case errors.As(err, &concurrent):
		httputil.WriteErrorWithDetails(w,
			dErrors.New(dErrors.CodeConflict, "solicitud was modified concurrently; reload and retry"),
			ConflictDetails{Expected: concurrent.Expected, Actual: concurrent.Actual})
	case errors.As(err, &syncErr):
		h.logger.WarnContext(ctx, "signature provider out of sync",
			"kind", syncErr.Kind,
			"request_id", request.GetRequestID(ctx),
		)
		httputil.WriteErrorWithDetails(w,
			dErrors.New(dErrors.CodeBadGateway, syncErr.Message),
			SyncDetails{Kind: syncErr.Kind, DocumentID: syncErr.DocumentID, SignerID: syncErr.SignerID, Status: syncErr.Status})
	default:
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "solicitud request failed",
				"error", err,
				"request_id", request.GetRequestID(ctx),
			)
		}
		httputil.WriteError(w, err)
	}
}
