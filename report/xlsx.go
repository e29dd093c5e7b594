package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"imagecert/types"

	"github.com/xuri/excelize/v2"
)

// Sheet names of the spreadsheet report
const (
	CasesSheet   = "Cases"
	SummarySheet = "Summary"
)

// WriteXLSX writes one row per case and a per-metric summary sheet
func WriteXLSX(path string, report *types.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", CasesSheet); err != nil {
		return fmt.Errorf("cannot rename sheet: %w", err)
	}

	failedStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Color: "C00000", Bold: true}})
	if err != nil {
		return fmt.Errorf("cannot create style: %w", err)
	}

	header := []interface{}{"Case", "Result"}
	for _, name := range report.MetricOrder {
		header = append(header, name)
	}
	header = append(header, "Resized", "Changed pixels", "Reference", "Candidate", "Error")
	if err := writeRow(f, CasesSheet, 1, header); err != nil {
		return err
	}

	for i := range report.Cases {
		c := &report.Cases[i]
		rowIdx := i + 2
		row := []interface{}{c.Name, CaseLabel(c)}
		for _, name := range report.MetricOrder {
			if score, ok := c.Metrics[name]; ok {
				row = append(row, cellValue(score))
			} else {
				row = append(row, "")
			}
		}
		row = append(row, c.Resized, c.ChangedPixels, c.ReferencePath, c.CandidatePath, c.Error)
		if err := writeRow(f, CasesSheet, rowIdx, row); err != nil {
			return err
		}

		for j, name := range report.MetricOrder {
			if passed, judged := c.Passed[name]; judged && !passed {
				cell, _ := excelize.CoordinatesToCellName(j+3, rowIdx)
				if err := f.SetCellStyle(CasesSheet, cell, cell, failedStyle); err != nil {
					return err
				}
			}
		}
		if !c.Pass {
			cell, _ := excelize.CoordinatesToCellName(2, rowIdx)
			if err := f.SetCellStyle(CasesSheet, cell, cell, failedStyle); err != nil {
				return err
			}
		}
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("cannot create summary sheet: %w", err)
	}
	s := report.Summary
	summaryRows := [][]interface{}{
		{"Submission", report.Submission},
		{"Run", report.RunID},
		{"Generated", report.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
		{"Total", s.Total},
		{"Passed", s.Passed},
		{"Failed", s.Failed},
		{"Errored", s.Errored},
		{},
		{"Metric", "Mean", "Median", "Min", "Max", "Threshold"},
	}
	for _, name := range report.MetricOrder {
		m := s.Metrics[name]
		threshold := ""
		if t, ok := report.Thresholds[name]; ok {
			threshold = fmt.Sprintf("%s %g", t.Comparison, t.Value)
		}
		summaryRows = append(summaryRows, []interface{}{
			name, cellValue(m.Mean), cellValue(m.Median), cellValue(m.Min), cellValue(m.Max), threshold,
		})
	}
	for i, row := range summaryRows {
		if err := writeRow(f, SummarySheet, i+1, row); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, rowIdx int, values []interface{}) error {
	for c, v := range values {
		cell, _ := excelize.CoordinatesToCellName(c+1, rowIdx)
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("cannot set %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

// cellValue keeps finite scores numeric and spells out the rest
func cellValue(s types.Score) interface{} {
	v := float64(s)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return s.String()
	}
	return v
}
