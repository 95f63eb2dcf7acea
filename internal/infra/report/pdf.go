package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/bryanwahyu/medvision/internal/domain/diagnosis"
)

const title = "SV-MedVision Pro: AI Diagnostic Report"

// PDF renders diagnostic reports as single-column A4 documents.
type PDF struct{}

func NewPDF() PDF { return PDF{} }

// Render lays out the header block and the sanitized report body. The
// creation date is pinned to at, so equal inputs give equal bytes.
func (PDF) Render(text, focus string, confidence int, at time.Time) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(at)
	pdf.SetModificationDate(at)
	pdf.SetCatalogSort(true)
	pdf.SetTitle(title, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 10, "Date: "+at.Format("2006-01-02 15:04"), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 10, "Diagnostic Focus: "+ToLatin1(focus), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 10, fmt.Sprintf("AI Confidence Score: %d%%", confidence), "", 1, "", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 10, Sanitize(text), "", "", false)

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", diagnosis.ErrRender, err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %w", diagnosis.ErrRender, err)
	}
	return buf.Bytes(), nil
}

// FileName is the download name used by both the shell and the web UI.
func FileName(at time.Time) string {
	return "SV_MedVision_Report_" + at.Format("20060102") + ".pdf"
}
