package report

import (
	"bytes"
	"github.com/go-pdf/fpdf"
	"github.com/myrjola/dfircase/internal/errors"
	"strings"
)

const (
	pdfMarginLeft = 10.0
	pdfTop        = 10.0
	pdfLineWidth  = 180.0
	pdfLineHeight = 5.0
	pdfPageBottom = 280.0
)

// latin1 replaces characters the core PDF fonts cannot encode.
func latin1(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t':
			return ' '
		case r == '\r':
			return -1
		case r > 0xff:
			return '?'
		}
		return r
	}, s)
}

// layoutPDF writes content one wrapped line at a time in a fixed-width font, starting a new page when the cursor
// passes the bottom of the page.
func layoutPDF(content string) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Courier", "", 10) //nolint:mnd // font size in points
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	y := pdfTop
	for _, line := range pdf.SplitText(latin1(content), pdfLineWidth) {
		if y > pdfPageBottom {
			pdf.AddPage()
			y = pdfTop
		}
		pdf.Text(pdfMarginLeft, y, tr(line))
		y += pdfLineHeight
	}
	return pdf
}

func outputPDF(pdf *fpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "render pdf")
	}
	return buf.Bytes(), nil
}

func encodePDF(content string) ([]byte, error) {
	return outputPDF(layoutPDF(content))
}
