package models

import "apertura/internal/ownership"

// Estado is the approval lifecycle status of a solicitud.
type Estado string

const (
	EstadoBorrador            Estado = "BORRADOR"
	EstadoPendienteFirma      Estado = "PENDIENTE_FIRMA"
	EstadoPendienteAprobacion Estado = "PENDIENTE_APROBACION"
	EstadoAprobada            Estado = "APROBADA"
	EstadoRechazada           Estado = "RECHAZADA"
	EstadoCancelada           Estado = "CANCELADA"
)

// transitions is the complete lifecycle table. Terminal states have no entry.
var transitions = map[Estado][]Estado{
	EstadoBorrador:            {EstadoPendienteFirma, EstadoCancelada},
	EstadoPendienteFirma:      {EstadoPendienteAprobacion, EstadoCancelada},
	EstadoPendienteAprobacion: {EstadoAprobada, EstadoRechazada, EstadoCancelada},
}

func (e Estado) IsValid() bool {
	switch e {
	case EstadoBorrador, EstadoPendienteFirma, EstadoPendienteAprobacion,
		EstadoAprobada, EstadoRechazada, EstadoCancelada:
		return true
	}
	return false
}

func (e Estado) IsTerminal() bool {
	return e == EstadoAprobada || e == EstadoRechazada || e == EstadoCancelada
}

// CanTransitionTo reports whether the lifecycle table allows e → to.
func (e Estado) CanTransitionTo(to Estado) bool {
	for _, allowed := range transitions[e] {
		if allowed == to {
			return true
		}
	}
	return false
}

func ParseEstado(raw string) (Estado, bool) {
	e := Estado(raw)
	return e, e.IsValid()
}

// Tipo distinguishes individual from corporate applications.
type Tipo string

const (
	TipoIndividual Tipo = "INDIVIDUAL"
	TipoCorporate  Tipo = "CORPORATE"
)

func (t Tipo) IsValid() bool {
	return t == TipoIndividual || t == TipoCorporate
}

// Kind is the ownership node kind the root applicant must have.
func (t Tipo) Kind() ownership.Kind {
	if t == TipoCorporate {
		return ownership.KindCorporate
	}
	return ownership.KindIndividual
}
