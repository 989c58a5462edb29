package models

import (
	"time"

	"apertura/internal/signature"
	id "apertura/pkg/domain"
)

// Summary is the read-side projection rendered by listings. Version mirrors
// the aggregate version it was taken from.
type Summary struct {
	ID           id.SolicitudID               `json:"id"`
	UserID       id.UserID                    `json:"user_id"`
	Titulo       string                       `json:"titulo"`
	Tipo         Tipo                         `json:"tipo"`
	Estado       Estado                       `json:"estado"`
	Firma        signature.ConsolidatedStatus `json:"firma"`
	NumeroCuenta string                       `json:"numero_cuenta,omitempty"`
	CreatedAt    time.Time                    `json:"created_at"`
	UpdatedAt    time.Time                    `json:"updated_at"`
	AprobadaEn   *time.Time                   `json:"aprobada_en,omitempty"`
	Version      int                          `json:"version"`
}

func (s *Solicitud) Summary() Summary {
	return Summary{
		ID:           s.ID,
		UserID:       s.UserID,
		Titulo:       s.Titulo(),
		Tipo:         s.Tipo,
		Estado:       s.Estado,
		Firma:        s.SignatureStatus(),
		NumeroCuenta: s.NumeroCuenta,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		AprobadaEn:   s.AprobadaEn,
		Version:      s.Version,
	}
}
