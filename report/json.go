package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"imagecert/types"
)

// File names inside the output directory
const (
	JSONFile = "report.json"
	PDFFile  = "report.pdf"
	XLSXFile = "report.xlsx"
)

// WriteJSON serializes the report with indentation
func WriteJSON(path string, report *types.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot encode report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	return nil
}

// ReadJSON loads a report written by WriteJSON
func ReadJSON(path string) (*types.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	var report types.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("cannot decode %s: %w", path, err)
	}
	if report.Version != types.ReportVersion {
		return nil, fmt.Errorf("unsupported report version %d in %s", report.Version, path)
	}
	return &report, nil
}
