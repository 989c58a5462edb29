// Package aggregator answers which lifecycle actions a solicitud allows right
// now. It runs the ownership validator and the signature reduction read-only
// and never mutates the solicitud.
package aggregator

import (
	"errors"

	"apertura/internal/ownership"
	"apertura/internal/signature"
	"apertura/internal/solicitud/models"
)

// Capabilities is the next-action set of a solicitud.
type Capabilities struct {
	Estado                models.Estado                `json:"estado"`
	Firma                 signature.ConsolidatedStatus `json:"firma"`
	CanEdit               bool                         `json:"can_edit"`
	CanSubmitForSignature bool                         `json:"can_submit_for_signature"`
	CanCompleteSignature  bool                         `json:"can_complete_signature"`
	CanApprove            bool                         `json:"can_approve"`
	CanReject             bool                         `json:"can_reject"`
	CanCancel             bool                         `json:"can_cancel"`
	MissingSections       []models.Section             `json:"missing_sections,omitempty"`
	OwnershipViolations   ownership.ValidationErrors   `json:"ownership_violations,omitempty"`
}

type Aggregator struct {
	validator *ownership.Validator
}

func New(validator *ownership.Validator) *Aggregator {
	return &Aggregator{validator: validator}
}

// Capabilities computes the allowed actions for s at its current estado.
func (a *Aggregator) Capabilities(s *models.Solicitud) Capabilities {
	caps := Capabilities{
		Estado: s.Estado,
		Firma:  s.SignatureStatus(),
	}
	caps.CanEdit = s.CanEdit() == nil
	caps.CanCancel = s.Estado.CanTransitionTo(models.EstadoCancelada)
	caps.CanApprove = s.CanApprove(s.Estado) == nil
	caps.CanReject = s.CheckTransition(s.Estado, models.EstadoRechazada) == nil
	caps.CanCompleteSignature = s.CheckTransition(s.Estado, models.EstadoPendienteAprobacion) == nil &&
		caps.Firma == signature.Completed

	if s.Estado == models.EstadoBorrador {
		caps.MissingSections = s.MissingSections()
		if s.Titular != nil {
			if _, err := a.validator.Validate(s.Titular); err != nil {
				var verrs ownership.ValidationErrors
				if errors.As(err, &verrs) {
					caps.OwnershipViolations = verrs
				}
			}
		}
		caps.CanSubmitForSignature = len(caps.MissingSections) == 0 && len(caps.OwnershipViolations) == 0
	}
	return caps
}

// CheckSubmit is the full BORRADOR → PENDIENTE_FIRMA guard: lifecycle table,
// expected estado, required sections, then the ownership tree. It returns the
// first failing guard; ownership violations come back as the complete list.
func (a *Aggregator) CheckSubmit(s *models.Solicitud, expected models.Estado) error {
	if err := s.CanSubmit(expected); err != nil {
		return err
	}
	if _, err := a.validator.Validate(s.Titular); err != nil {
		return err
	}
	return nil
}

// Validate runs the ownership validator over the current applicant tree.
func (a *Aggregator) Validate(s *models.Solicitud) (*ownership.Report, error) {
	return a.validator.Validate(s.Titular)
}
