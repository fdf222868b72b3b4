package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"jetlex_app_go/models"
	"jetlex_app_go/templates/reports"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"gorm.io/gorm"
)

// PDFRenderTimeout bounds a single HTML to PDF conversion
const PDFRenderTimeout = 30 * time.Second

var procedureLabels = map[string]string{
	models.ProcedureTransferencia:         "Transferencia de dominio",
	models.ProcedureMatriculacion:         "Matriculación",
	models.ProcedureCertificacionEmpresa:  "Certificación de empresa",
	models.ProcedureImportacion:           "Importación",
	models.ProcedureRenovacionCertificado: "Renovación de certificado",
	models.ProcedureModificacionDatos:     "Modificación de datos",
}

// ProcedureLabel returns the display name of a procedure type
func ProcedureLabel(procedureType string) string {
	if label, ok := procedureLabels[procedureType]; ok {
		return label
	}
	return procedureType
}

// PDFOptions contains options for PDF generation
type PDFOptions struct {
	PageOrientation string // portrait, landscape
	PageSize        string // letter, legal, A4
	MarginTop       int    // points (72 = 1 inch)
	MarginBottom    int
	MarginLeft      int
	MarginRight     int
	// RemoteURL is a DevTools websocket of an already running browser
	RemoteURL string
}

// DefaultPDFOptions returns A4 portrait with 2 cm margins
func DefaultPDFOptions() PDFOptions {
	return PDFOptions{
		PageOrientation: "portrait",
		PageSize:        "A4",
		MarginTop:       57,
		MarginBottom:    57,
		MarginLeft:      57,
		MarginRight:     57,
	}
}

// paperSize returns width and height in inches
func (o PDFOptions) paperSize() (float64, float64) {
	var w, h float64
	switch o.PageSize {
	case "legal":
		w, h = 8.5, 14.0
	case "letter":
		w, h = 8.5, 11.0
	default: // A4
		w, h = 8.27, 11.69
	}
	if o.PageOrientation == "landscape" {
		w, h = h, w
	}
	return w, h
}

// browserContext starts a headless browser or attaches to a remote one
func browserContext(ctx context.Context, options PDFOptions) (context.Context, context.CancelFunc) {
	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if options.RemoteURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(ctx, options.RemoteURL)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.NoSandbox,
			chromedp.DisableGPU,
		)
		// Custom Chrome path (headless-shell in Docker)
		if chromePath := os.Getenv("CHROME_PATH"); chromePath != "" {
			opts = append(opts, chromedp.ExecPath(chromePath))
		}
		allocCtx, allocCancel = chromedp.NewExecAllocator(ctx, opts...)
	}
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	return browserCtx, func() {
		browserCancel()
		allocCancel()
	}
}

// GeneratePDF renders HTML content to PDF using headless Chrome
func GeneratePDF(ctx context.Context, htmlContent string, options PDFOptions) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, PDFRenderTimeout)
	defer cancel()

	browserCtx, browserCancel := browserContext(ctx, options)
	defer browserCancel()

	paperWidth, paperHeight := options.paperSize()

	var pdfBuf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPaperWidth(paperWidth).
				WithPaperHeight(paperHeight).
				WithMarginTop(float64(options.MarginTop) / 72.0).
				WithMarginBottom(float64(options.MarginBottom) / 72.0).
				WithMarginLeft(float64(options.MarginLeft) / 72.0).
				WithMarginRight(float64(options.MarginRight) / 72.0).
				WithPrintBackground(true).
				WithDisplayHeaderFooter(false).
				Do(ctx)
			if err != nil {
				return err
			}
			pdfBuf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, DependencyFailure("pdf renderer", err)
	}
	return pdfBuf, nil
}

// WrapHTMLForPDF wraps a body fragment in a printable document
func WrapHTMLForPDF(content string) string {
	return `<!DOCTYPE html>
<html lang="es">
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, Helvetica, sans-serif; font-size: 10.5pt; color: #111827; }
        h1 { font-size: 18pt; color: #1e3a8a; margin: 0 0 4pt 0; }
        h2 { font-size: 13pt; color: #1e3a8a; margin: 18pt 0 6pt 0; border-bottom: 1px solid #d1d5db; }
        .muted { color: #6b7280; font-size: 9pt; }
        table { width: 100%; border-collapse: collapse; }
        table.data th { text-align: left; width: 30%; padding: 3pt 6pt; color: #374151; }
        table.data td { padding: 3pt 6pt; }
        table.grid th, table.grid td { border: 1px solid #d1d5db; padding: 4pt 6pt; text-align: left; }
        table.grid th { background: #f3f4f6; }
        tr.alert td { background: #fee2e2; }
    </style>
</head>
<body>
` + content + `
</body>
</html>`
}

// CaseSummaryData is the template data of a case summary
type CaseSummaryData struct {
	Case           *models.Case
	ProcedureLabel string
	GeneratedAt    time.Time
}

var caseSummaryTemplate = template.Must(template.ParseFS(reports.FS, "case_summary.html"))

// RenderCaseSummaryHTML renders the printable summary of a fully loaded case
func RenderCaseSummaryHTML(c *models.Case, now time.Time) (string, error) {
	data := CaseSummaryData{
		Case:           c,
		ProcedureLabel: ProcedureLabel(c.ProcedureType),
		GeneratedAt:    now,
	}
	var buf bytes.Buffer
	if err := caseSummaryTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render case summary: %w", err)
	}
	return WrapHTMLForPDF(buf.String()), nil
}

// GenerateCaseSummaryPDF loads a case and prints its summary
func GenerateCaseSummaryPDF(ctx context.Context, db *gorm.DB, caseID string, options PDFOptions, now time.Time) ([]byte, *models.Case, error) {
	c, err := GetCaseByID(db, caseID)
	if err != nil {
		return nil, nil, err
	}
	html, err := RenderCaseSummaryHTML(c, now)
	if err != nil {
		return nil, nil, err
	}
	pdf, err := GeneratePDF(ctx, html, options)
	if err != nil {
		return nil, nil, err
	}
	return pdf, c, nil
}
