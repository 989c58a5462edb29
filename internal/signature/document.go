// Package signature models the digital-signature documents of a solicitud and
// folds provider-reported signer states into one consolidated status.
package signature

import (
	"time"
)

// Estado is the status the provider reports for a signer or for the document.
type Estado string

const (
	Incompleto Estado = "INCOMPLETO"
	Pendiente  Estado = "PENDIENTE"
	Completo   Estado = "COMPLETO"
	Cancelado  Estado = "CANCELADO"
)

// rank orders estados for tie-breaking updates that carry the same timestamp.
func (e Estado) rank() int {
	switch e {
	case Incompleto:
		return 1
	case Pendiente:
		return 2
	case Completo:
		return 3
	case Cancelado:
		return 4
	}
	return 0
}

func (e Estado) IsValid() bool {
	return e.rank() > 0
}

// ParseEstado maps a provider status string. Unknown values are a sync fault.
func ParseEstado(raw string) (Estado, error) {
	e := Estado(raw)
	if !e.IsValid() {
		return "", &ProviderSyncError{Kind: SyncUnmappedStatus, Status: raw,
			Message: "provider reported status " + quote(raw) + " which has no mapping"}
	}
	return e, nil
}

// SignerStatus is one signer's state on a document.
type SignerStatus struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	URL       string    `json:"url,omitempty"`
	Estado    Estado    `json:"estado"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Document is the signature document issued for a solicitud.
type Document struct {
	ID     string `json:"id"`
	Title  string `json:"titulo"`
	URL    string `json:"url,omitempty"`
	Estado Estado `json:"estado"`
	// MotivoCancelacion is only set when Estado is Cancelado.
	MotivoCancelacion string         `json:"motivo_cancelacion,omitempty"`
	Signers           []SignerStatus `json:"firmantes"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// Clone returns a copy whose signer slice can be modified independently.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	out.Signers = append([]SignerStatus(nil), d.Signers...)
	return &out
}

func (d *Document) signerIndex(signerID string) int {
	for i, s := range d.Signers {
		if s.ID == signerID {
			return i
		}
	}
	return -1
}

// ConsolidatedStatus is the single signature status of a solicitud.
type ConsolidatedStatus string

const (
	NotStarted ConsolidatedStatus = "NOT_STARTED"
	InProgress ConsolidatedStatus = "IN_PROGRESS"
	Canceled   ConsolidatedStatus = "CANCELED"
	Completed  ConsolidatedStatus = "COMPLETED"
)

func quote(s string) string {
	return "\"" + s + "\""
}
