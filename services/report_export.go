package services

import (
	"bytes"
	"fmt"
	"jetlex_app_go/models"
	"strings"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const (
	exportCasesSheet  = "Expedientes"
	exportPhasesSheet = "Fases"
	exportDateFormat  = "02/01/2006"
	maxExportRows     = 5000
)

var (
	exportCaseHeaders  = []string{"Número", "Trámite", "Cliente", "CUIT", "Responsable", "Estado", "Urgencia", "Inicio", "Vencimiento", "Progreso %", "Honorarios", "Observaciones"}
	exportPhaseHeaders = []string{"Expediente", "Fase", "Nombre", "Estado", "Docs recibidos", "Docs requeridos", "Progreso %", "Días", "Alerta"}
)

func writeHeaderRow(f *excelize.File, sheet string, headers []string, style int) {
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	f.SetCellStyle(sheet, "A1", last, style)
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) {
	cell, _ := excelize.CoordinatesToCellName(1, row)
	f.SetSheetRow(sheet, cell, &values)
}

// ExportCasesXLSX writes the filtered cases and their phases to a workbook
func ExportCasesXLSX(db *gorm.DB, filters CaseFilters) (*bytes.Buffer, int, error) {
	query := db.Model(&models.Case{}).
		Preload("Client").
		Preload("Assignee").
		Preload("Phases", func(db *gorm.DB) *gorm.DB { return db.Order("numero_fase ASC") })
	query = applyCaseFilters(query, filters)

	var cases []models.Case
	if err := query.Order("numero ASC").Limit(maxExportRows).Find(&cases).Error; err != nil {
		return nil, 0, err
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", exportCasesSheet)
	if _, err := f.NewSheet(exportPhasesSheet); err != nil {
		return nil, 0, fmt.Errorf("failed to create phases sheet: %w", err)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1E3A8A"}},
	})
	writeHeaderRow(f, exportCasesSheet, exportCaseHeaders, headerStyle)
	writeHeaderRow(f, exportPhasesSheet, exportPhaseHeaders, headerStyle)

	phaseRow := 2
	for i, c := range cases {
		var clientName, cuit, assignee, due string
		if c.Client != nil {
			clientName = c.Client.Name
			if c.Client.CUIT != nil {
				cuit = *c.Client.CUIT
			}
		}
		if c.Assignee != nil {
			assignee = c.Assignee.Name
		}
		if c.DueDate != nil {
			due = c.DueDate.Format(exportDateFormat)
		}
		var fees interface{}
		if c.Fees != nil {
			fees = *c.Fees
		}
		writeRow(f, exportCasesSheet, i+2, []interface{}{
			c.Number, ProcedureLabel(c.ProcedureType), clientName, cuit, assignee,
			c.Status, c.Urgency, c.StartDate.Format(exportDateFormat), due, c.Progress, fees, c.Notes,
		})

		for _, p := range c.Phases {
			alert := ""
			if p.AlertActive {
				alert = "SI"
			}
			writeRow(f, exportPhasesSheet, phaseRow, []interface{}{
				c.Number, p.Number, p.Name, p.Status, strings.Join(p.ReceivedDocs, ", "),
				strings.Join(p.RequiredDocs, ", "), p.Progress, p.ElapsedDays, alert,
			})
			phaseRow++
		}
	}
	f.SetColWidth(exportCasesSheet, "A", "L", 18)
	f.SetColWidth(exportPhasesSheet, "A", "I", 18)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to write excel buffer: %w", err)
	}
	return buf, len(cases), nil
}
