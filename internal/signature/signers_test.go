package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"apertura/internal/ownership"
)

func TestFirmantes(t *testing.T) {
	persona := func(conyuge *ownership.Conyuge) *ownership.Node {
		return ownership.NewIndividual(nil, ownership.Individual{
			Principal: ownership.DatosPrincipales{Nombre: "Juan", Apellido: "Pérez", Email: "juan@example.com"},
			Personal:  ownership.DatosPersonales{EstadoCivil: "CASADO", Conyuge: conyuge},
		})
	}

	t.Run("individual without spouse", func(t *testing.T) {
		got := Firmantes(persona(nil))
		assert.Equal(t, []Firmante{{Nombre: "Pérez, Juan", Email: "juan@example.com", Role: RoleTitular}}, got)
	})

	t.Run("spouse with email signs", func(t *testing.T) {
		got := Firmantes(persona(&ownership.Conyuge{Nombre: "Laura", Apellido: "Díaz", Email: "laura@example.com"}))
		assert.Len(t, got, 2)
		assert.Equal(t, Firmante{Nombre: "Díaz, Laura", Email: "laura@example.com", Role: RoleConyuge}, got[1])
	})

	t.Run("spouse without email does not", func(t *testing.T) {
		assert.Len(t, Firmantes(persona(&ownership.Conyuge{Nombre: "Laura", Apellido: "Díaz"})), 1)
	})

	t.Run("corporate signs through its contact", func(t *testing.T) {
		root := ownership.NewCorporate(nil, ownership.Corporate{
			Principal: ownership.DatosPrincipalesJuridica{RazonSocial: "Acme SA", Email: "legales@acme.example.com"},
		})
		assert.Equal(t, []Firmante{{Nombre: "Acme SA", Email: "legales@acme.example.com", Role: RoleRepresentante}}, Firmantes(root))
	})

	t.Run("no applicant", func(t *testing.T) {
		assert.Nil(t, Firmantes(nil))
	})
}
