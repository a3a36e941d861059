package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	coreFontFamily = "Arial"
	utf8FontFamily = "unicode"
	pageWidth      = 277.0
)

// PDFExporter renders datasets into a landscape tabular PDF. Core PDF fonts cannot draw
// Hangul, so a TTF path should be configured for Korean content.
type PDFExporter struct {
	fontPath string
}

// NewPDFExporter constructs a PDF exporter. fontPath may be empty.
func NewPDFExporter(fontPath string) *PDFExporter {
	return &PDFExporter{fontPath: fontPath}
}

// Render creates a PDF document with an optional title and table body. widths, when
// given, are relative column weights.
func (e *PDFExporter) Render(data Dataset, title string, widths ...float64) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.SetAutoPageBreak(true, 15)

	family, boldStyle := coreFontFamily, "B"
	if e.fontPath != "" {
		pdf.AddUTF8Font(utf8FontFamily, "", e.fontPath)
		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("load pdf font %s: %w", e.fontPath, err)
		}
		family, boldStyle = utf8FontFamily, ""
	}
	pdf.AddPage()

	if title != "" {
		pdf.SetFont(family, boldStyle, 14)
		pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	colWidths := columnWidths(len(data.Headers), widths)

	pdf.SetFont(family, boldStyle, 9)
	for i, header := range data.Headers {
		pdf.CellFormat(colWidths[i], 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(family, "", 8)
	for _, row := range data.Rows {
		for i, header := range data.Headers {
			value := truncateToWidth(pdf, row[header], colWidths[i]-2)
			pdf.CellFormat(colWidths[i], 7, value, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func columnWidths(n int, weights []float64) []float64 {
	result := make([]float64, n)
	total := 0.0
	if len(weights) == n {
		for _, w := range weights {
			if w > 0 {
				total += w
			}
		}
	}
	for i := range result {
		if total == 0 {
			result[i] = pageWidth / float64(n)
			continue
		}
		if weights[i] > 0 {
			result[i] = pageWidth * weights[i] / total
		}
	}
	return result
}

func truncateToWidth(pdf *gofpdf.Fpdf, value string, width float64) string {
	if width <= 0 || pdf.GetStringWidth(value) <= width {
		return value
	}
	runes := []rune(value)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + "..."
		if pdf.GetStringWidth(candidate) <= width {
			return candidate
		}
	}
	return ""
}
