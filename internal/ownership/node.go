// Package ownership models an applicant and its recursive shareholder structure
// (accionistas) and validates the tree against the structural and declaration
// invariants required before a solicitud can be sent for signature.
//
// Nodes are plain data: construction never validates. Call Validator.Validate
// on the root to obtain either a Report or the complete list of violations.
package ownership

import (
	"strings"

	"github.com/shopspring/decimal"

	id "apertura/pkg/domain"
)

// Kind discriminates the payload carried by a Node.
type Kind string

const (
	KindIndividual Kind = "INDIVIDUAL"
	KindCorporate  Kind = "CORPORATE"
)

// Node is one applicant or shareholder. Exactly one of Individual or Corporate
// is expected to be set, matching Tipo. ID is present only for shareholders that
// were previously persisted (update path).
type Node struct {
	ID         *id.AccionistaID `json:"id,omitempty"`
	Tipo       Kind             `json:"tipo"`
	Individual *Individual      `json:"persona_humana,omitempty"`
	Corporate  *Corporate       `json:"persona_juridica,omitempty"`
}

// Individual is the payload of a natural-person node.
type Individual struct {
	Principal        DatosPrincipales `json:"datos_principales"`
	Personal         DatosPersonales  `json:"datos_personales"`
	Declaraciones    Declaraciones    `json:"declaraciones"`
	CuentasBancarias []CuentaBancaria `json:"cuentas_bancarias,omitempty"`
	Fiscal           DatosFiscales    `json:"datos_fiscales"`
	Domicilio        Domicilio        `json:"domicilio"`
}

// Corporate is the payload of a legal-entity node. Accionistas is the
// recursion point of the tree.
type Corporate struct {
	Principal DatosPrincipalesJuridica `json:"datos_principales"`
	Fiscal    DatosFiscales            `json:"datos_fiscales"`
	Domicilio Domicilio                `json:"domicilio"`
	// AccionistasDesconocidos declares explicitly that ownership is unknown or
	// undisclosed. Without it, an empty Accionistas list is invalid.
	AccionistasDesconocidos bool    `json:"accionistas_desconocidos"`
	Accionistas             []*Node `json:"accionistas,omitempty"`
}

type DatosPrincipales struct {
	Nombre     string          `json:"nombre"`
	Apellido   string          `json:"apellido"`
	Email      string          `json:"email"`
	Telefono   string          `json:"telefono"`
	Porcentaje decimal.Decimal `json:"porcentaje"`
}

type DatosPrincipalesJuridica struct {
	RazonSocial string          `json:"razon_social"`
	TipoEmpresa string          `json:"tipo_empresa"`
	Email       string          `json:"email"`
	Telefono    string          `json:"telefono"`
	Porcentaje  decimal.Decimal `json:"porcentaje"`
}

type DatosPersonales struct {
	TipoDocumento   string   `json:"tipo_documento"`
	NumeroDocumento string   `json:"numero_documento"`
	FechaNacimiento string   `json:"fecha_nacimiento"`
	LugarNacimiento string   `json:"lugar_nacimiento"`
	Nacionalidad    string   `json:"nacionalidad"`
	PaisResidencia  string   `json:"pais_residencia"`
	EstadoCivil     string   `json:"estado_civil"`
	Conyuge         *Conyuge `json:"conyuge,omitempty"`
}

type Conyuge struct {
	Nombre          string `json:"nombre"`
	Apellido        string `json:"apellido"`
	TipoDocumento   string `json:"tipo_documento"`
	NumeroDocumento string `json:"numero_documento"`
	Email           string `json:"email"`
}

// Declaraciones holds the regulatory flag/motive pairs. Each motive is required
// exactly when its flag is set (see DeclarationRules).
type Declaraciones struct {
	EsPep       bool   `json:"es_pep"`
	MotivoPep   string `json:"motivo_pep,omitempty"`
	EsFatca     bool   `json:"es_fatca"`
	MotivoFatca string `json:"motivo_fatca,omitempty"`
	DeclaraUIF  bool   `json:"declara_uif"`
	MotivoUIF   string `json:"motivo_uif,omitempty"`
}

// RequiresKYC reports whether any declaration flag is set.
func (d Declaraciones) RequiresKYC() bool {
	return d.EsPep || d.EsFatca || d.DeclaraUIF
}

type CuentaBancaria struct {
	Banco  string `json:"banco"`
	CBU    string `json:"cbu"`
	Alias  string `json:"alias,omitempty"`
	Moneda string `json:"moneda"`
}

type DatosFiscales struct {
	CUIT                     string `json:"cuit"`
	CondicionIVA             string `json:"condicion_iva"`
	CondicionGanancias       string `json:"condicion_ganancias"`
	ResidenciaFiscalExterior bool   `json:"residencia_fiscal_exterior"`
	PaisResidenciaFiscal     string `json:"pais_residencia_fiscal,omitempty"`
	NIF                      string `json:"nif,omitempty"`
}

type Domicilio struct {
	Calle        string `json:"calle"`
	Numero       string `json:"numero"`
	Piso         string `json:"piso,omitempty"`
	Departamento string `json:"departamento,omitempty"`
	Localidad    string `json:"localidad"`
	Provincia    string `json:"provincia"`
	CodigoPostal string `json:"codigo_postal"`
	Pais         string `json:"pais"`
}

// NewIndividual builds an individual node. A nil nodeID marks a new shareholder.
func NewIndividual(nodeID *id.AccionistaID, data Individual) *Node {
	return &Node{ID: nodeID, Tipo: KindIndividual, Individual: &data}
}

// NewCorporate builds a corporate node with the given shareholders.
func NewCorporate(nodeID *id.AccionistaID, data Corporate, accionistas ...*Node) *Node {
	data.Accionistas = append(data.Accionistas, accionistas...)
	return &Node{ID: nodeID, Tipo: KindCorporate, Corporate: &data}
}

func (n *Node) Kind() Kind {
	return n.Tipo
}

// Children returns the ordered shareholders of a corporate node, nil otherwise.
func (n *Node) Children() []*Node {
	if n.Tipo != KindCorporate || n.Corporate == nil {
		return nil
	}
	return n.Corporate.Accionistas
}

// AddChild appends a shareholder. It is a no-op on individual nodes.
func (n *Node) AddChild(child *Node) {
	if n.Tipo != KindCorporate || n.Corporate == nil {
		return
	}
	n.Corporate.Accionistas = append(n.Corporate.Accionistas, child)
}

// RemoveChild drops the shareholder at index i, preserving order.
func (n *Node) RemoveChild(i int) bool {
	children := n.Children()
	if i < 0 || i >= len(children) {
		return false
	}
	n.Corporate.Accionistas = append(children[:i:i], children[i+1:]...)
	return true
}

func (n *Node) IsLeaf() bool {
	return len(n.Children()) == 0
}

// Depth is the number of levels from n down to its deepest descendant; a leaf
// has depth 1.
func (n *Node) Depth() int {
	deepest := 0
	for _, child := range n.Children() {
		if child == nil {
			continue
		}
		if d := child.Depth(); d > deepest {
			deepest = d
		}
	}
	return deepest + 1
}

// Participation returns the declared ownership percentage of the node.
func (n *Node) Participation() decimal.Decimal {
	switch {
	case n.Tipo == KindIndividual && n.Individual != nil:
		return n.Individual.Principal.Porcentaje
	case n.Tipo == KindCorporate && n.Corporate != nil:
		return n.Corporate.Principal.Porcentaje
	}
	return decimal.Zero
}

// DisplayName is the titular label used by read-side summaries.
func (n *Node) DisplayName() string {
	switch {
	case n.Tipo == KindIndividual && n.Individual != nil:
		p := n.Individual.Principal
		return strings.TrimSpace(strings.TrimSpace(p.Apellido) + ", " + strings.TrimSpace(p.Nombre))
	case n.Tipo == KindCorporate && n.Corporate != nil:
		return strings.TrimSpace(n.Corporate.Principal.RazonSocial)
	}
	return ""
}

// Email returns the contact email of the node.
func (n *Node) Email() string {
	switch {
	case n.Tipo == KindIndividual && n.Individual != nil:
		return n.Individual.Principal.Email
	case n.Tipo == KindCorporate && n.Corporate != nil:
		return n.Corporate.Principal.Email
	}
	return ""
}

// Fiscal returns the fiscal data of either payload.
func (n *Node) Fiscal() (DatosFiscales, bool) {
	switch {
	case n.Tipo == KindIndividual && n.Individual != nil:
		return n.Individual.Fiscal, true
	case n.Tipo == KindCorporate && n.Corporate != nil:
		return n.Corporate.Fiscal, true
	}
	return DatosFiscales{}, false
}

// Clone returns a deep copy of the subtree rooted at n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{Tipo: n.Tipo}
	if n.ID != nil {
		nodeID := *n.ID
		out.ID = &nodeID
	}
	if n.Individual != nil {
		ind := *n.Individual
		ind.CuentasBancarias = append([]CuentaBancaria(nil), n.Individual.CuentasBancarias...)
		if n.Individual.Personal.Conyuge != nil {
			conyuge := *n.Individual.Personal.Conyuge
			ind.Personal.Conyuge = &conyuge
		}
		out.Individual = &ind
	}
	if n.Corporate != nil {
		corp := *n.Corporate
		corp.Accionistas = nil
		for _, child := range n.Corporate.Accionistas {
			corp.Accionistas = append(corp.Accionistas, child.Clone())
		}
		out.Corporate = &corp
	}
	return out
}
