package handler

import (
	"apertura/internal/ownership"
	"apertura/internal/signature"
	"apertura/internal/solicitud/models"
)

type ListResponse struct {
	Solicitudes []models.Summary `json:"solicitudes"`
	Total       int              `json:"total"`
}

type ValidationResponse struct {
	Valid  bool              `json:"valid"`
	Report *ownership.Report `json:"report,omitempty"`
}

type WebhookResponse struct {
	SolicitudID string                       `json:"solicitud_id"`
	Estado      models.Estado                `json:"estado"`
	Firma       signature.ConsolidatedStatus `json:"firma"`
}

type ConflictDetails struct {
	Expected models.Estado `json:"estado_esperado"`
	Actual   models.Estado `json:"estado_actual"`
}

type SyncDetails struct {
	Kind       signature.SyncErrorKind `json:"kind"`
	DocumentID string                  `json:"document_id,omitempty"`
	SignerID   string                  `json:"signer_id,omitempty"`
	Status     string                  `json:"status,omitempty"`
}
