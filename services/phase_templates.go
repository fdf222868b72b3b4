package services

import "jetlex_app_go/models"

// PhaseTemplate describes one phase a procedure goes through
type PhaseTemplate struct {
	Number       int
	Name         string
	RequiredDocs []string
}

var phaseTemplates = map[string][]PhaseTemplate{
	models.ProcedureCertificacionEmpresa: {
		{
			Number: 1,
			Name:   "Pre-solicitud",
			RequiredDocs: []string{
				"Carta de intención",
				"Estatuto social",
				"Acta de designación de autoridades",
				"Poder del representante legal",
			},
		},
		{
			Number: 2,
			Name:   "Solicitud Formal",
			RequiredDocs: []string{
				"Formulario ANAC completo",
				"Manual de Operaciones (borrador)",
				"Estructura organizacional",
				"CVs del personal clave",
			},
		},
		{
			Number: 3,
			Name:   "Evaluación Documental",
			RequiredDocs: []string{
				"Manual de Operaciones definitivo",
				"Manual de Mantenimiento",
				"Programa de instrucción",
				"Seguros y garantías",
			},
		},
		{
			Number: 4,
			Name:   "Demostración e Inspección",
			RequiredDocs: []string{
				"Demostración de evacuación",
				"Vuelo de demostración",
				"Inspección de instalaciones",
				"Auditoría de procesos",
			},
		},
		{
			Number: 5,
			Name:   "Certificación",
			RequiredDocs: []string{
				"Resolución ANAC",
				"Certificado CESA/CETA",
				"Especificaciones operativas",
			},
		},
	},
}

// TemplateFor returns a copy of the phase template for a procedure type.
// The second result is false when the procedure type has no phases.
func TemplateFor(procedureType string) ([]PhaseTemplate, bool) {
	tpl, ok := phaseTemplates[procedureType]
	if !ok {
		return nil, false
	}
	out := make([]PhaseTemplate, len(tpl))
	for i, p := range tpl {
		out[i] = PhaseTemplate{
			Number:       p.Number,
			Name:         p.Name,
			RequiredDocs: append([]string(nil), p.RequiredDocs...),
		}
	}
	return out, true
}

// SupportsPhases reports whether a procedure type has a phase template
func SupportsPhases(procedureType string) bool {
	_, ok := phaseTemplates[procedureType]
	return ok
}
