package signature

import (
	"strings"

	"apertura/internal/ownership"
)

type Role string

const (
	RoleTitular       Role = "TITULAR"
	RoleConyuge       Role = "CONYUGE"
	RoleRepresentante Role = "REPRESENTANTE"
)

// Firmante is a party that must sign the solicitud's documents.
type Firmante struct {
	Nombre string `json:"nombre"`
	Email  string `json:"email"`
	Role   Role   `json:"rol"`
}

// Firmantes derives the signer set from the root applicant: an individual
// signs together with a spouse that has an email on file, a corporate entity
// signs through its contact.
func Firmantes(root *ownership.Node) []Firmante {
	if root == nil {
		return nil
	}
	switch {
	case root.Tipo == ownership.KindIndividual && root.Individual != nil:
		out := []Firmante{{Nombre: root.DisplayName(), Email: root.Email(), Role: RoleTitular}}
		if c := root.Individual.Personal.Conyuge; c != nil && strings.TrimSpace(c.Email) != "" {
			out = append(out, Firmante{
				Nombre: strings.TrimSpace(strings.TrimSpace(c.Apellido) + ", " + strings.TrimSpace(c.Nombre)),
				Email:  c.Email,
				Role:   RoleConyuge,
			})
		}
		return out
	case root.Tipo == ownership.KindCorporate && root.Corporate != nil:
		return []Firmante{{Nombre: root.DisplayName(), Email: root.Email(), Role: RoleRepresentante}}
	}
	return nil
}
