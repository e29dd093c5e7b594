package report

import (
	"fmt"
	"os"
	"path/filepath"

	"imagecert/types"

	"github.com/go-pdf/fpdf"
)

// PDF layout in millimetres
const (
	pdfMargin    = 15.0
	pdfRowHeight = 6.0
	pdfGap       = 4.0
	pdfMaxImageH = 70.0
)

// WritePDF renders a header, then per case a metrics table and a 2×2 grid of
// the reference, candidate, difference and threshold images. Image paths in
// the report are resolved against baseDir.
func WritePDF(path string, report *types.Report, baseDir string) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, pageH := pdf.GetPageSize()
	contentW := pageW - 2*pdfMargin

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(contentW, 10, tr(fmt.Sprintf("%s - Certification Report", report.Submission)), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, pdfRowHeight, report.GeneratedAt.Format("2006-01-02 15:04:05 MST"), "", 1, "L", false, 0, "")
	s := report.Summary
	pdf.CellFormat(contentW, pdfRowHeight,
		fmt.Sprintf("%d cases: %d passed, %d failed, %d errored", s.Total, s.Passed, s.Failed, s.Errored),
		"", 1, "L", false, 0, "")
	pdf.Ln(pdfGap)

	for i := range report.Cases {
		c := &report.Cases[i]
		tableH := float64(len(report.MetricOrder)+2) * pdfRowHeight
		if pdf.GetY()+tableH > pageH-pdfMargin {
			pdf.AddPage()
		}
		writeCaseTable(pdf, tr, c, report.MetricOrder, contentW)
		if !c.Failed() {
			writeImageGrid(pdf, tr, c, baseDir, contentW, pageH)
		}
		pdf.Ln(pdfGap)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	return nil
}

func writeCaseTable(pdf *fpdf.Fpdf, tr func(string) string, c *types.CaseResult, order []string, width float64) {
	pdf.SetFont("Helvetica", "B", 13)
	title := fmt.Sprintf("%s [%s]", c.Name, CaseLabel(c))
	pdf.CellFormat(width, 8, tr(title), "", 1, "L", false, 0, "")

	if c.Failed() {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(200, 0, 0)
		pdf.MultiCell(width, pdfRowHeight, tr(c.Error), "", "L", false)
		pdf.SetTextColor(0, 0, 0)
		return
	}

	col := width / 3
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, h := range []string{"Metric", "Value", "Result"} {
		pdf.CellFormat(col, pdfRowHeight, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, name := range order {
		score, ok := c.Metrics[name]
		if !ok {
			continue
		}
		result := ""
		if passed, judged := c.Passed[name]; judged {
			result = LabelPassed
			if !passed {
				result = LabelFailed
			}
		}
		pdf.CellFormat(col, pdfRowHeight, name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(col, pdfRowHeight, score.String(), "1", 0, "R", false, 0, "")
		if result == LabelFailed {
			pdf.SetTextColor(200, 0, 0)
		}
		pdf.CellFormat(col, pdfRowHeight, result, "1", 0, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(-1)
	}
	pdf.Ln(2)
}

func writeImageGrid(pdf *fpdf.Fpdf, tr func(string) string, c *types.CaseResult, baseDir string, width, pageH float64) {
	cells := []struct {
		label string
		path  string
	}{
		{"Reference", c.Images.Reference},
		{"Candidate", c.Images.Candidate},
		{"Difference", c.Images.Diff},
		{"Threshold", c.Images.Threshold},
	}

	cellW := (width - pdfGap) / 2
	imgW, imgH := cellW, cellW
	if c.Width > 0 && c.Height > 0 {
		imgH = cellW * float64(c.Height) / float64(c.Width)
	}
	if imgH > pdfMaxImageH {
		imgW = imgW * pdfMaxImageH / imgH
		imgH = pdfMaxImageH
	}
	rowH := pdfRowHeight + imgH + pdfGap

	for row := 0; row < 2; row++ {
		if pdf.GetY()+rowH > pageH-pdfMargin {
			pdf.AddPage()
		}
		y := pdf.GetY()
		for col := 0; col < 2; col++ {
			cell := cells[row*2+col]
			x := pdfMargin + float64(col)*(cellW+pdfGap)
			pdf.SetXY(x, y)
			pdf.SetFont("Helvetica", "I", 9)
			pdf.CellFormat(cellW, pdfRowHeight, tr(cell.label), "", 0, "C", false, 0, "")
			if cell.path == "" {
				continue
			}
			pdf.Image(filepath.Join(baseDir, filepath.FromSlash(cell.path)),
				x+(cellW-imgW)/2, y+pdfRowHeight, imgW, imgH, false, "", 0, "")
		}
		pdf.SetXY(pdfMargin, y+rowH)
	}
}
