package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const clientImportSheet = "Clientes"

// clientImportHeaders are the columns read by ImportClientsXLSX, in order
var clientImportHeaders = []string{"nombre*", "email", "telefono", "tipo", "cuit", "domicilio"}

// ImportRowError describes why one spreadsheet row was not imported
type ImportRowError struct {
	Row     int    `json:"fila"`
	Field   string `json:"campo,omitempty"`
	Message string `json:"mensaje"`
}

// ImportResult contains the summary of the import process
type ImportResult struct {
	TotalProcessed int              `json:"totalProcesados"`
	SuccessCount   int              `json:"creados"`
	FailedCount    int              `json:"fallidos"`
	Errors         []ImportRowError `json:"errores"`
}

// GenerateClientImportTemplate builds the spreadsheet users fill in to bulk load clients
func GenerateClientImportTemplate() (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", clientImportSheet)
	for i, header := range clientImportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(clientImportSheet, cell, header)
	}
	f.SetColWidth(clientImportSheet, "A", "F", 24)

	// Example row
	f.SetCellValue(clientImportSheet, "A2", "Aeroclub Norte")
	f.SetCellValue(clientImportSheet, "B2", "contacto@aeroclubnorte.org.ar")
	f.SetCellValue(clientImportSheet, "C2", "+54 11 4444-5555")
	f.SetCellValue(clientImportSheet, "D2", "aeroclub")
	f.SetCellValue(clientImportSheet, "E2", "30-50001091-2")
	f.SetCellValue(clientImportSheet, "F2", "Ruta 8 km 60, Pilar")

	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellStyle(clientImportSheet, "A1", "F1", headerStyle)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write excel buffer: %w", err)
	}
	return buf, nil
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func optionalCell(row []string, i int) *string {
	v := cellAt(row, i)
	if v == "" {
		return nil
	}
	return &v
}

// ImportClientsXLSX creates one client per spreadsheet row.
// Rows are independent: an invalid row is reported and the rest still load.
func ImportClientsXLSX(db *gorm.DB, file io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, Validation("file", "failed to open excel file")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, Validation("file", "invalid excel format: no sheets")
	}
	sheet := sheets[0]
	if idx, err := f.GetSheetIndex(clientImportSheet); err == nil && idx >= 0 {
		sheet = clientImportSheet
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read clients sheet: %w", err)
	}

	result := &ImportResult{Errors: []ImportRowError{}}
	for i, row := range rows {
		if i == 0 {
			continue // Header
		}
		if strings.Join(row, "") == "" {
			continue
		}
		result.TotalProcessed++

		input := ClientInput{
			Name:    cellAt(row, 0),
			Email:   optionalCell(row, 1),
			Phone:   optionalCell(row, 2),
			Type:    strings.ToLower(cellAt(row, 3)),
			CUIT:    optionalCell(row, 4),
			Address: optionalCell(row, 5),
		}
		if _, err := CreateClient(db, input); err != nil {
			result.FailedCount++
			rowErr := ImportRowError{Row: i + 1, Message: err.Error()}
			var svcErr *Error
			if errors.As(err, &svcErr) {
				rowErr.Field = svcErr.Field
				rowErr.Message = svcErr.Message
			}
			result.Errors = append(result.Errors, rowErr)
			continue
		}
		result.SuccessCount++
	}
	return result, nil
}
