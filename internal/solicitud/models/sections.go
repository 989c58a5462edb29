package models

// Section names a part of the solicitud that must be completed before it can
// be submitted for signature.
type Section string

const (
	SectionTitular Section = "titular"
	SectionPerfil  Section = "perfil_inversor"
	SectionFiscal  Section = "datos_fiscales"
)

// DocumentSection is the section for an attached document of the given type.
func DocumentSection(tipo TipoDocumento) Section {
	return Section("documento:" + string(tipo))
}

// TipoDocumento classifies an attached supporting document.
type TipoDocumento string

const (
	DocumentoDNIFrente      TipoDocumento = "DNI_FRENTE"
	DocumentoDNIDorso       TipoDocumento = "DNI_DORSO"
	DocumentoEstatuto       TipoDocumento = "ESTATUTO"
	DocumentoConstanciaCUIT TipoDocumento = "CONSTANCIA_CUIT"
	DocumentoPoder          TipoDocumento = "PODER"
	DocumentoOtro           TipoDocumento = "OTRO"
)

func (t TipoDocumento) IsValid() bool {
	switch t {
	case DocumentoDNIFrente, DocumentoDNIDorso, DocumentoEstatuto,
		DocumentoConstanciaCUIT, DocumentoPoder, DocumentoOtro:
		return true
	}
	return false
}

// RequiredDocuments lists the document types each application type must attach.
func RequiredDocuments(tipo Tipo) []TipoDocumento {
	if tipo == TipoCorporate {
		return []TipoDocumento{DocumentoEstatuto, DocumentoConstanciaCUIT}
	}
	return []TipoDocumento{DocumentoDNIFrente, DocumentoDNIDorso}
}
