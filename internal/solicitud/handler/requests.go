package handler

import (
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"apertura/internal/ownership"
	"apertura/internal/perfil"
	"apertura/internal/solicitud/models"
	id "apertura/pkg/domain"
	dErrors "apertura/pkg/domain-errors"
	"apertura/pkg/platform/httputil"
	request "apertura/pkg/platform/middleware/request"
)

type CreateRequest struct {
	Tipo        string `json:"tipo"`
	ProductorID string `json:"productor_id,omitempty"`
}

func (r *CreateRequest) Validate() error {
	r.Tipo = strings.ToUpper(strings.TrimSpace(r.Tipo))
	r.ProductorID = strings.TrimSpace(r.ProductorID)
	if r.Tipo == "" {
		return dErrors.New(dErrors.CodeValidation, "tipo is required")
	}
	if !models.Tipo(r.Tipo).IsValid() {
		return dErrors.New(dErrors.CodeValidation, "tipo must be INDIVIDUAL or CORPORATE")
	}
	return nil
}

type TitularRequest struct {
	Titular *ownership.Node `json:"titular"`
}

func (r *TitularRequest) Validate() error {
	if r.Titular == nil {
		return dErrors.New(dErrors.CodeValidation, "titular is required")
	}
	return nil
}

type PerfilRequest struct {
	Respuestas []perfil.Answer `json:"respuestas"`
}

func (r *PerfilRequest) Validate() error {
	if len(r.Respuestas) == 0 {
		return dErrors.New(dErrors.CodeValidation, "respuestas is required")
	}
	return nil
}

type DocumentoRequest struct {
	Tipo   string `json:"tipo"`
	Nombre string `json:"nombre,omitempty"`
	URL    string `json:"url"`
}

func (r *DocumentoRequest) Validate() error {
	r.Tipo = strings.ToUpper(strings.TrimSpace(r.Tipo))
	r.URL = strings.TrimSpace(r.URL)
	if !models.TipoDocumento(r.Tipo).IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unknown document tipo")
	}
	if r.URL == "" {
		return dErrors.New(dErrors.CodeValidation, "url is required")
	}
	return nil
}

// TransitionRequest is the optional body of the lifecycle endpoints. An empty
// estado_esperado lets the service pick the usual prior estado.
type TransitionRequest struct {
	EstadoEsperado string `json:"estado_esperado,omitempty"`
	Motivo         string `json:"motivo,omitempty"`

	expected models.Estado
}

func (r *TransitionRequest) Validate() error {
	r.EstadoEsperado = strings.ToUpper(strings.TrimSpace(r.EstadoEsperado))
	r.Motivo = strings.TrimSpace(r.Motivo)
	if r.EstadoEsperado == "" {
		return nil
	}
	estado, ok := models.ParseEstado(r.EstadoEsperado)
	if !ok {
		return dErrors.New(dErrors.CodeValidation, "unknown estado_esperado "+r.EstadoEsperado)
	}
	r.expected = estado
	return nil
}

// decodeTransition accepts an empty body.
func decodeTransition(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*TransitionRequest, bool) {
	ctx := r.Context()
	if r.Body == nil || r.ContentLength == 0 {
		return &TransitionRequest{}, true
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return nil, false
	}
	if strings.TrimSpace(string(body)) == "" {
		return &TransitionRequest{}, true
	}
	r.Body = io.NopCloser(strings.NewReader(string(body)))
	return httputil.DecodeAndPrepare[TransitionRequest](w, r, logger, ctx, request.GetRequestID(ctx))
}

const (
	EventoFirmante  = "firmante"
	EventoDocumento = "documento"
)

// WebhookSigner is a signer status pushed by the provider.
type WebhookSigner struct {
	ID        string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	URL       string    `json:"url,omitempty"`
	Estado    string    `json:"estado"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WebhookRequest is the provider push. Status strings are forwarded as given;
// unmapped ones are reported by the service as a sync fault.
type WebhookRequest struct {
	Evento      string         `json:"evento"`
	ExternalID  string         `json:"external_id"`
	DocumentoID string         `json:"document_id,omitempty"`
	Firmante    *WebhookSigner `json:"firmante,omitempty"`
	Estado      string         `json:"estado,omitempty"`
	Motivo      string         `json:"motivo,omitempty"`
	At          time.Time      `json:"at"`

	solicitudID id.SolicitudID
}

func (r *WebhookRequest) Validate() error {
	solicitudID, err := id.ParseSolicitudID(strings.TrimSpace(r.ExternalID))
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "external_id must be a solicitud id")
	}
	r.solicitudID = solicitudID

	switch r.Evento {
	case EventoFirmante:
		if r.Firmante == nil || strings.TrimSpace(r.Firmante.ID) == "" {
			return dErrors.New(dErrors.CodeValidation, "firmante.id is required")
		}
	case EventoDocumento:
		if strings.TrimSpace(r.Estado) == "" {
			return dErrors.New(dErrors.CodeValidation, "estado is required")
		}
	default:
		return dErrors.New(dErrors.CodeValidation, "evento must be firmante or documento")
	}
	return nil
}

// stampReceived fills the event times the provider left out with the time the
// webhook was received, so the update can still be ordered against stored ones.
func (r *WebhookRequest) stampReceived(received time.Time) {
	if r.At.IsZero() {
		r.At = received
	}
	if r.Firmante != nil && r.Firmante.UpdatedAt.IsZero() {
		r.Firmante.UpdatedAt = r.At
	}
}
