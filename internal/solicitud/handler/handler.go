// Package handler exposes the solicitud service over HTTP.
package handler

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"apertura/internal/ownership"
	"apertura/internal/signature"
	"apertura/internal/solicitud/aggregator"
	"apertura/internal/solicitud/models"
	"apertura/internal/solicitud/service"
	id "apertura/pkg/domain"
	dErrors "apertura/pkg/domain-errors"
	"apertura/pkg/platform/httputil"
	"apertura/pkg/platform/middleware/auth"
	request "apertura/pkg/platform/middleware/request"
	"apertura/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/handler-mocks.go -package=mocks Service

// Service is the solicitud use-case surface the handler drives.
type Service interface {
	Create(ctx context.Context, cmd service.CreateCommand) (*models.Solicitud, error)
	Get(ctx context.Context, solicitudID id.SolicitudID) (*models.Solicitud, error)
	ListSummaries(ctx context.Context, filter service.SolicitudFilter) ([]models.Summary, error)
	UpdateTitular(ctx context.Context, solicitudID id.SolicitudID, root *ownership.Node) (*models.Solicitud, error)
	UpdatePerfil(ctx context.Context, solicitudID id.SolicitudID, cmd service.PerfilCommand) (*models.Solicitud, error)
	AttachDocumento(ctx context.Context, solicitudID id.SolicitudID, doc models.Documento) (*models.Solicitud, error)
	Validate(ctx context.Context, solicitudID id.SolicitudID) (*ownership.Report, error)
	Capabilities(ctx context.Context, solicitudID id.SolicitudID) (aggregator.Capabilities, error)
	Submit(ctx context.Context, solicitudID id.SolicitudID, expected models.Estado) (*models.Solicitud, error)
	Approve(ctx context.Context, solicitudID id.SolicitudID, expected models.Estado) (*models.Solicitud, error)
	Reject(ctx context.Context, solicitudID id.SolicitudID, expected models.Estado, motivo string) (*models.Solicitud, error)
	Cancel(ctx context.Context, solicitudID id.SolicitudID, expected models.Estado, motivo string) (*models.Solicitud, error)
	IngestSignerUpdate(ctx context.Context, solicitudID id.SolicitudID, update signature.SignerStatus) (*models.Solicitud, error)
	IngestDocumentStatus(ctx context.Context, solicitudID id.SolicitudID, estado signature.Estado, motivo string, at time.Time) (*models.Solicitud, error)
}

// HeaderWebhookToken carries the shared secret of the signature provider.
const HeaderWebhookToken = "X-Webhook-Token"

type Handler struct {
	logger        *slog.Logger
	service       Service
	jwtValidator  auth.JWTValidator
	webhookSecret string
	timeout       time.Duration
}

type Option func(*Handler)

// WithWebhookSecret sets the token the provider must send on webhooks. Without
// it every webhook is rejected.
func WithWebhookSecret(secret string) Option {
	return func(h *Handler) {
		h.webhookSecret = secret
	}
}

func WithTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.timeout = d
		}
	}
}

func New(svc Service, logger *slog.Logger, jwtValidator auth.JWTValidator, opts ...Option) *Handler {
	h := &Handler{
		logger:       logger,
		service:      svc,
		jwtValidator: jwtValidator,
		timeout:      30 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the solicitud and webhook routes.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(h.timeout))
		r.Use(auth.RequireAuth(h.jwtValidator, h.logger))

		r.Post("/solicitudes", h.handleCreate)
		r.Get("/solicitudes", h.handleList)
		r.Route("/solicitudes/{id}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Put("/titular", h.handleUpdateTitular)
			r.Put("/perfil", h.handleUpdatePerfil)
			r.Post("/documentos", h.handleAttachDocumento)
			r.Post("/validar", h.handleValidate)
			r.Get("/acciones", h.handleCapabilities)
			r.Post("/enviar", h.handleSubmit)
			r.Post("/cancelar", h.handleCancel)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(auth.RoleOperador, h.logger))
				r.Post("/aprobar", h.handleApprove)
				r.Post("/rechazar", h.handleReject)
			})
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(h.timeout))
		r.Use(h.requireWebhookToken)
		r.Post("/firmas/webhook", h.handleWebhook)
	})
}

func (h *Handler) requireWebhookToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(HeaderWebhookToken)
		if h.webhookSecret == "" || subtle.ConstantTimeCompare([]byte(token), []byte(h.webhookSecret)) != 1 {
			h.logger.WarnContext(r.Context(), "rejected signature webhook",
				"request_id", request.GetRequestID(r.Context()),
			)
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid webhook token"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) solicitudID(w http.ResponseWriter, r *http.Request) (id.SolicitudID, bool) {
	solicitudID, err := id.ParseSolicitudID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid solicitud id"))
		return id.SolicitudID{}, false
	}
	return solicitudID, true
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	sol, err := h.service.Create(ctx, service.CreateCommand{Tipo: models.Tipo(req.Tipo), ProductorID: req.ProductorID})
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, sol)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter := service.SolicitudFilter{Estado: models.Estado(r.URL.Query().Get("estado"))}

	summaries, err := h.service.ListSummaries(ctx, filter)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Solicitudes: summaries, Total: len(summaries)})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	solicitudID, ok := h.solicitudID(w, r)
	if !ok {
		return
	}
	sol, err := h.service.Get(ctx, solicitudID)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sol)
}

func (h *Handler) handleUpdateTitular(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	solicitudID, ok := h.solicitudID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[TitularRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	sol, err := h.service.UpdateTitular(ctx, solicitudID, req.Titular)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sol)
}

func (h *Handler) handleUpdatePerfil(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	solicitudID, ok := h.solicitudID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[PerfilRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	sol, err := h.service.UpdatePerfil(ctx, solicitudID, service.PerfilCommand{Answers: req.Respuestas})
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sol)
}

func (h *Handler) handleAttachDocumento(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	solicitudID, ok := h.solicitudID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[DocumentoRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	sol, err := h.service.AttachDocumento(ctx, solicitudID, models.Documento{
		Tipo:   models.TipoDocumento(req.Tipo),
		Nombre: req.Nombre,
		URL:    req.URL,
	})
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, sol)
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	solicitudID, ok := h.solicitudID(w, r)
	if !ok {
		return
	}
	report, err := h.service.Validate(ctx, solicitudID)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ValidationResponse{Valid: true, Report: report})
}

func (h *Handler) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	solicitudID, ok := h.solicitudID(w, r)
	if !ok {
		return
	}
	caps, err := h.service.Capabilities(ctx, solicitudID)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, caps)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(ctx context.Context, solicitudID id.SolicitudID, req *TransitionRequest) (*models.Solicitud, error) {
		return h.service.Submit(ctx, solicitudID, req.expected)
	})
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(ctx context.Context, solicitudID id.SolicitudID, req *TransitionRequest) (*models.Solicitud, error) {
		return h.service.Approve(ctx, solicitudID, req.expected)
	})
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(ctx context.Context, solicitudID id.SolicitudID, req *TransitionRequest) (*models.Solicitud, error) {
		return h.service.Reject(ctx, solicitudID, req.expected, req.Motivo)
	})
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(ctx context.Context, solicitudID id.SolicitudID, req *TransitionRequest) (*models.Solicitud, error) {
		return h.service.Cancel(ctx, solicitudID, req.expected, req.Motivo)
	})
}

// transition decodes the optional transition body and runs fn.
func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(context.Context, id.SolicitudID, *TransitionRequest) (*models.Solicitud, error)) {
	ctx := r.Context()
	solicitudID, ok := h.solicitudID(w, r)
	if !ok {
		return
	}
	req, ok := decodeTransition(w, r, h.logger)
	if !ok {
		return
	}
	sol, err := fn(ctx, solicitudID, req)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sol)
}

func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[WebhookRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	req.stampReceived(requestcontext.Now(ctx))

	var (
		sol *models.Solicitud
		err error
	)
	switch req.Evento {
	case EventoFirmante:
		sol, err = h.service.IngestSignerUpdate(ctx, req.solicitudID, signature.SignerStatus{
			ID:        req.Firmante.ID,
			Email:     req.Firmante.Email,
			URL:       req.Firmante.URL,
			Estado:    signature.Estado(req.Firmante.Estado),
			UpdatedAt: req.Firmante.UpdatedAt,
		})
	case EventoDocumento:
		sol, err = h.service.IngestDocumentStatus(ctx, req.solicitudID, signature.Estado(req.Estado), req.Motivo, req.At)
	}
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, WebhookResponse{
		SolicitudID: sol.ID.String(),
		Estado:      sol.Estado,
		Firma:       sol.SignatureStatus(),
	})
}
