package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"imagecert/types"
)

// Outcome labels used in tables
const (
	LabelPass   = "PASS"
	LabelFail   = "FAIL"
	LabelError  = "ERROR"
	LabelPassed = "Passed"
	LabelFailed = "Failed"
)

// CaseLabel returns the overall outcome label of a case
func CaseLabel(c *types.CaseResult) string {
	switch {
	case c.Failed():
		return LabelError
	case c.Pass:
		return LabelPass
	}
	return LabelFail
}

// PrintTable writes one row per case with every metric value. Thresholded
// metrics that failed are marked with an asterisk.
func PrintTable(w io.Writer, report *types.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	header := append([]string{"CASE"}, upper(report.MetricOrder)...)
	header = append(header, "RESULT")
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for i := range report.Cases {
		c := &report.Cases[i]
		row := []string{c.Name}
		for _, name := range report.MetricOrder {
			row = append(row, cell(c, name))
		}
		result := CaseLabel(c)
		if c.Failed() {
			result += ": " + c.Error
		} else if c.Resized {
			result += " (resized)"
		}
		row = append(row, result)
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	s := report.Summary
	fmt.Fprintf(w, "\n%d cases: %d passed, %d failed, %d errored\n", s.Total, s.Passed, s.Failed, s.Errored)
	if len(report.Unmatched) > 0 {
		fmt.Fprintf(w, "%d references without a candidate\n", len(report.Unmatched))
	}
	return nil
}

func cell(c *types.CaseResult, metric string) string {
	score, ok := c.Metrics[metric]
	if !ok {
		return "-"
	}
	text := score.String()
	if passed, judged := c.Passed[metric]; judged && !passed {
		text += "*"
	}
	return text
}

func upper(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = strings.ToUpper(n)
	}
	return out
}
