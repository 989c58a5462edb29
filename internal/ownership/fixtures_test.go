package ownership

import (
	"github.com/shopspring/decimal"

	id "apertura/pkg/domain"
)

func pct(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newPersona(porcentaje string) *Node {
	return NewIndividual(nil, Individual{
		Principal: DatosPrincipales{
			Nombre:     "Ana",
			Apellido:   "Gómez",
			Email:      "ana@example.com",
			Porcentaje: pct(porcentaje),
		},
		Personal: DatosPersonales{
			TipoDocumento:   "DNI",
			NumeroDocumento: "30111222",
			Nacionalidad:    "AR",
			PaisResidencia:  "AR",
		},
		Fiscal: DatosFiscales{CUIT: "27-30111222-4", CondicionIVA: "CONSUMIDOR_FINAL"},
	})
}

func newEmpresa(porcentaje string, accionistas ...*Node) *Node {
	return NewCorporate(nil, Corporate{
		Principal: DatosPrincipalesJuridica{
			RazonSocial: "Inversiones del Sur SA",
			TipoEmpresa: "SA",
			Email:       "legales@sur.example.com",
			Porcentaje:  pct(porcentaje),
		},
		Fiscal: DatosFiscales{CUIT: "30-71234567-8", CondicionIVA: "RESPONSABLE_INSCRIPTO"},
	}, accionistas...)
}

func withID(n *Node) (*Node, id.AccionistaID) {
	nodeID := id.NewAccionistaID()
	n.ID = &nodeID
	return n, nodeID
}

func withKnownID(n *Node, nodeID id.AccionistaID) *Node {
	n.ID = &nodeID
	return n
}

// corporateChain builds n nested corporate nodes, each owning 100% of the next.
// The innermost one declares its shareholders as unknown.
func corporateChain(n int) *Node {
	innermost := newEmpresa("100")
	innermost.Corporate.AccionistasDesconocidos = true
	current := innermost
	for i := 1; i < n; i++ {
		current = newEmpresa("100", current)
	}
	return current
}
