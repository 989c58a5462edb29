package ownership

import "strings"

// ConditionalRule binds a boolean flag to the free-text companion field it
// makes mandatory. The companion must be non-blank when the flag is set and
// blank otherwise.
type ConditionalRule[T any] struct {
	Flag      string
	Companion string
	IsSet     func(T) bool
	Value     func(T) string
}

// DeclarationRules covers the PEP/FATCA/UIF declarations. New declaration
// types are added as rows here.
var DeclarationRules = []ConditionalRule[Declaraciones]{
	{
		Flag:      "es_pep",
		Companion: "motivo_pep",
		IsSet:     func(d Declaraciones) bool { return d.EsPep },
		Value:     func(d Declaraciones) string { return d.MotivoPep },
	},
	{
		Flag:      "es_fatca",
		Companion: "motivo_fatca",
		IsSet:     func(d Declaraciones) bool { return d.EsFatca },
		Value:     func(d Declaraciones) string { return d.MotivoFatca },
	},
	{
		Flag:      "declara_uif",
		Companion: "motivo_uif",
		IsSet:     func(d Declaraciones) bool { return d.DeclaraUIF },
		Value:     func(d Declaraciones) string { return d.MotivoUIF },
	},
}

// FiscalRules covers foreign tax residency.
var FiscalRules = []ConditionalRule[DatosFiscales]{
	{
		Flag:      "residencia_fiscal_exterior",
		Companion: "pais_residencia_fiscal",
		IsSet:     func(f DatosFiscales) bool { return f.ResidenciaFiscalExterior },
		Value:     func(f DatosFiscales) string { return f.PaisResidenciaFiscal },
	},
	{
		Flag:      "residencia_fiscal_exterior",
		Companion: "nif",
		IsSet:     func(f DatosFiscales) bool { return f.ResidenciaFiscalExterior },
		Value:     func(f DatosFiscales) string { return f.NIF },
	},
}

// evaluateRules applies rules to subject and returns one error per broken rule.
// section prefixes the reported field name ("declaraciones.motivo_pep").
func evaluateRules[T any](subject T, rules []ConditionalRule[T], section string, path Path, nodeID string) []ValidationError {
	var errs []ValidationError
	for _, rule := range rules {
		set := rule.IsSet(subject)
		value := strings.TrimSpace(rule.Value(subject))
		field := section + "." + rule.Companion
		switch {
		case set && value == "":
			errs = append(errs, ValidationError{
				Kind:    ErrMissingField,
				Path:    path,
				Field:   field,
				NodeID:  nodeID,
				Message: rule.Companion + " is required when " + rule.Flag + " is true",
			})
		case !set && value != "":
			errs = append(errs, ValidationError{
				Kind:    ErrUnexpectedField,
				Path:    path,
				Field:   field,
				NodeID:  nodeID,
				Message: rule.Companion + " must be empty when " + rule.Flag + " is false",
			})
		}
	}
	return errs
}
