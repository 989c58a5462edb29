package models

import (
	"strings"
	"time"

	"apertura/internal/ownership"
	"apertura/internal/perfil"
	"apertura/internal/signature"
	id "apertura/pkg/domain"
	dErrors "apertura/pkg/domain-errors"
)

// Documento is a supporting document attached to a solicitud. The file itself
// lives in external storage; only its reference is kept here.
type Documento struct {
	ID        string        `json:"id"`
	Tipo      TipoDocumento `json:"tipo"`
	Nombre    string        `json:"nombre"`
	URL       string        `json:"url"`
	CargadoEn time.Time     `json:"cargado_en"`
}

// Solicitud is the aggregate root of an account-opening request.
//
// Invariants:
//   - Estado only moves along the lifecycle table (see CanTransitionTo)
//   - Titular, Perfil and Documentos are only editable while in BORRADOR
//   - Titular's kind always matches Tipo
//   - AprobadaPor and AprobadaEn are set exactly when Estado is APROBADA
//   - Version increases by one on every persisted change
//
// Every state-changing method comes as a CanX/ApplyX pair so that stores can
// run the check and the mutation under the same lock.
type Solicitud struct {
	ID          id.SolicitudID `json:"id"`
	UserID      id.UserID      `json:"user_id"`
	AprobadaPor *id.UserID     `json:"aprobada_por,omitempty"`
	ProductorID string         `json:"productor_id,omitempty"`

	Tipo   Tipo   `json:"tipo"`
	Estado Estado `json:"estado"`

	Titular    *ownership.Node     `json:"titular,omitempty"`
	Perfil     *perfil.Perfil      `json:"perfil,omitempty"`
	Documentos []Documento         `json:"documentos"`
	Firma      *signature.Document `json:"firma,omitempty"`

	ProcesoFirmaID    string `json:"proceso_firma_id,omitempty"`
	NumeroCuenta      string `json:"numero_cuenta,omitempty"`
	MotivoRechazo     string `json:"motivo_rechazo,omitempty"`
	MotivoCancelacion string `json:"motivo_cancelacion,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	AprobadaEn *time.Time `json:"aprobada_en,omitempty"`

	Version int `json:"version"`
}

// NewSolicitud creates a draft owned by userID.
func NewSolicitud(solicitudID id.SolicitudID, userID id.UserID, tipo Tipo, productorID string, now time.Time) (*Solicitud, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "solicitud requires a submitting user")
	}
	if !tipo.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "tipo must be INDIVIDUAL or CORPORATE")
	}
	return &Solicitud{
		ID:          solicitudID,
		UserID:      userID,
		ProductorID: strings.TrimSpace(productorID),
		Tipo:        tipo,
		Estado:      EstadoBorrador,
		Documentos:  []Documento{},
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     1,
	}, nil
}

// Clone returns a deep copy safe to hand out of a store.
func (s *Solicitud) Clone() *Solicitud {
	if s == nil {
		return nil
	}
	out := *s
	if s.AprobadaPor != nil {
		approver := *s.AprobadaPor
		out.AprobadaPor = &approver
	}
	if s.AprobadaEn != nil {
		at := *s.AprobadaEn
		out.AprobadaEn = &at
	}
	out.Titular = s.Titular.Clone()
	if s.Perfil != nil {
		p := *s.Perfil
		p.Answers = append([]perfil.Answer(nil), s.Perfil.Answers...)
		out.Perfil = &p
	}
	out.Documentos = append([]Documento{}, s.Documentos...)
	out.Firma = s.Firma.Clone()
	return &out
}

// SignatureStatus reduces the current signature document.
func (s *Solicitud) SignatureStatus() signature.ConsolidatedStatus {
	return signature.Reduce(s.Firma)
}

// Titulo is the display label used by summaries: the applicant name when
// known, the application type otherwise.
func (s *Solicitud) Titulo() string {
	if s.Titular != nil {
		if name := s.Titular.DisplayName(); name != "" {
			return name
		}
	}
	return "Solicitud " + strings.ToLower(string(s.Tipo))
}

// CheckTransition validates expected → to against the lifecycle table and
// then against the stored estado. The order matters: an illegal transition is
// a LifecycleError even when the estado is also stale.
func (s *Solicitud) CheckTransition(expected, to Estado) error {
	if !expected.CanTransitionTo(to) {
		return &LifecycleError{From: expected, To: to}
	}
	if s.Estado != expected {
		return &ConcurrentModificationError{SolicitudID: s.ID, Expected: expected, Actual: s.Estado}
	}
	return nil
}

// CanEdit checks the solicitud is still a draft.
func (s *Solicitud) CanEdit() error {
	if s.Estado != EstadoBorrador {
		return &LifecycleError{From: s.Estado, To: s.Estado, Reason: "sections are only editable in " + string(EstadoBorrador)}
	}
	return nil
}

// CanSetTitular checks the draft can take root as its applicant.
func (s *Solicitud) CanSetTitular(root *ownership.Node) error {
	if err := s.CanEdit(); err != nil {
		return err
	}
	if root == nil {
		return dErrors.New(dErrors.CodeValidation, "titular is required")
	}
	if root.Kind() != s.Tipo.Kind() {
		return dErrors.New(dErrors.CodeValidation, "titular kind "+string(root.Kind())+" does not match solicitud tipo "+string(s.Tipo))
	}
	return nil
}

// ApplyTitular replaces the whole applicant tree. The previous tree and all
// its shareholders are discarded.
func (s *Solicitud) ApplyTitular(root *ownership.Node, now time.Time) {
	s.Titular = root.Clone()
	s.UpdatedAt = now
}

func (s *Solicitud) ApplyPerfil(p *perfil.Perfil, now time.Time) {
	s.Perfil = p
	s.UpdatedAt = now
}

// CanAttach checks a document can be attached to the draft.
func (s *Solicitud) CanAttach(doc Documento) error {
	if err := s.CanEdit(); err != nil {
		return err
	}
	if !doc.Tipo.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unknown document type "+string(doc.Tipo))
	}
	if strings.TrimSpace(doc.URL) == "" {
		return dErrors.New(dErrors.CodeValidation, "document url is required")
	}
	return nil
}

func (s *Solicitud) ApplyDocumento(doc Documento, now time.Time) {
	doc.CargadoEn = now
	s.Documentos = append(s.Documentos, doc)
	s.UpdatedAt = now
}

// MissingSections lists every required section not yet completed.
func (s *Solicitud) MissingSections() []Section {
	var missing []Section
	if s.Titular == nil {
		missing = append(missing, SectionTitular)
	} else if fiscal, ok := s.Titular.Fiscal(); !ok || strings.TrimSpace(fiscal.CUIT) == "" {
		missing = append(missing, SectionFiscal)
	}
	if s.Perfil == nil {
		missing = append(missing, SectionPerfil)
	}
	for _, tipo := range RequiredDocuments(s.Tipo) {
		if !s.hasDocumento(tipo) {
			missing = append(missing, DocumentSection(tipo))
		}
	}
	return missing
}

func (s *Solicitud) hasDocumento(tipo TipoDocumento) bool {
	for _, d := range s.Documentos {
		if d.Tipo == tipo {
			return true
		}
	}
	return false
}

// CanSubmit checks BORRADOR → PENDIENTE_FIRMA apart from ownership validation,
// which needs the configured validator (see aggregator.CheckSubmit).
func (s *Solicitud) CanSubmit(expected Estado) error {
	if err := s.CheckTransition(expected, EstadoPendienteFirma); err != nil {
		return err
	}
	if missing := s.MissingSections(); len(missing) > 0 {
		return &MissingSectionsError{Sections: missing}
	}
	return nil
}

// ApplySubmit records the issued signature document and moves to PENDIENTE_FIRMA.
func (s *Solicitud) ApplySubmit(doc *signature.Document, now time.Time) {
	s.Firma = doc.Clone()
	if doc != nil {
		s.ProcesoFirmaID = doc.ID
	}
	s.Estado = EstadoPendienteFirma
	s.UpdatedAt = now
}

// CanUpdateFirma checks a provider update can be recorded.
func (s *Solicitud) CanUpdateFirma() error {
	if s.Firma == nil {
		return &signature.ProviderSyncError{Kind: signature.SyncNoDocument,
			Message: "solicitud " + s.ID.String() + " has no signature document"}
	}
	return nil
}

// ApplyFirma records the folded signature document and, while waiting for
// signatures, follows its consolidated status: COMPLETED moves to
// PENDIENTE_APROBACION and CANCELED moves to CANCELADA. It returns the estado
// before the update and whether a transition happened.
func (s *Solicitud) ApplyFirma(doc *signature.Document, now time.Time) (Estado, bool) {
	prev := s.Estado
	s.Firma = doc.Clone()
	s.UpdatedAt = now
	if s.Estado != EstadoPendienteFirma {
		return prev, false
	}
	switch signature.Reduce(doc) {
	case signature.Completed:
		s.Estado = EstadoPendienteAprobacion
		return prev, true
	case signature.Canceled:
		s.Estado = EstadoCancelada
		s.MotivoCancelacion = "firma cancelada"
		if doc.MotivoCancelacion != "" {
			s.MotivoCancelacion = "firma cancelada: " + doc.MotivoCancelacion
		}
		return prev, true
	}
	return prev, false
}

func (s *Solicitud) CanApprove(expected Estado) error {
	return s.CheckTransition(expected, EstadoAprobada)
}

// ApplyApproval records the approving operator. The external account number
// is assigned afterwards through ApplyNumeroCuenta.
func (s *Solicitud) ApplyApproval(approver id.UserID, now time.Time) {
	s.Estado = EstadoAprobada
	s.AprobadaPor = &approver
	approvedAt := now
	s.AprobadaEn = &approvedAt
	s.UpdatedAt = now
}

// CanAssignNumeroCuenta checks the solicitud is approved and has no account yet.
func (s *Solicitud) CanAssignNumeroCuenta() error {
	if s.Estado != EstadoAprobada {
		return &LifecycleError{From: s.Estado, To: s.Estado, Reason: "account numbers are only assigned to approved solicitudes"}
	}
	if s.NumeroCuenta != "" {
		return dErrors.New(dErrors.CodeConflict, "account number already assigned")
	}
	return nil
}

func (s *Solicitud) ApplyNumeroCuenta(numero string, now time.Time) {
	s.NumeroCuenta = numero
	s.UpdatedAt = now
}

// CanReject requires a non-blank reason.
func (s *Solicitud) CanReject(expected Estado, motivo string) error {
	if err := s.CheckTransition(expected, EstadoRechazada); err != nil {
		return err
	}
	if strings.TrimSpace(motivo) == "" {
		return dErrors.New(dErrors.CodeValidation, "a rejection reason is required")
	}
	return nil
}

func (s *Solicitud) ApplyRejection(motivo string, now time.Time) {
	s.Estado = EstadoRechazada
	s.MotivoRechazo = strings.TrimSpace(motivo)
	s.UpdatedAt = now
}

func (s *Solicitud) CanCancel(expected Estado) error {
	return s.CheckTransition(expected, EstadoCancelada)
}

func (s *Solicitud) ApplyCancellation(motivo string, now time.Time) {
	s.Estado = EstadoCancelada
	s.MotivoCancelacion = strings.TrimSpace(motivo)
	s.UpdatedAt = now
}
