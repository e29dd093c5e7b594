package evaluation

import (
	"fmt"
	"io"
	"time"

	"imagecert/logging"
	"imagecert/scanner"
	"imagecert/types"
)

// ProgressTracker prints a single updating progress line while cases are evaluated
type ProgressTracker struct {
	out       io.Writer
	total     int
	processed int
	failures  int
	errors    int
	start     time.Time
}

// NewProgressTracker initializes the progress tracker. A nil writer disables output.
func NewProgressTracker(out io.Writer, total int) *ProgressTracker {
	if out == nil {
		out = io.Discard
	}
	return &ProgressTracker{out: out, total: total, start: time.Now()}
}

// Record counts one finished case and refreshes the progress line
func (p *ProgressTracker) Record(result *types.CaseResult) {
	p.processed++
	switch {
	case result.Failed():
		p.errors++
	case !result.Pass:
		p.failures++
	}
	logging.LogCaseEvaluated(result.Name, result.Pass, result.Error)

	if p.errors > 0 {
		fmt.Fprintf(p.out, "\rEvaluating: %d/%d (failures: %d, errors: %d)", p.processed, p.total, p.failures, p.errors)
	} else {
		fmt.Fprintf(p.out, "\rEvaluating: %d/%d (failures: %d)", p.processed, p.total, p.failures)
	}
}

// Counts returns the processed, failed and errored totals
func (p *ProgressTracker) Counts() (processed, failures, errors int) {
	return p.processed, p.failures, p.errors
}

// PrintStartupInfo displays information about the run before starting
func PrintStartupInfo(out io.Writer, discovery *scanner.Discovery, opts Options) {
	if out == nil {
		return
	}
	fmt.Fprintf(out, "Starting evaluation of %s...\n", opts.submissionName())
	fmt.Fprintf(out, "References found: %d, pairs: %d, unmatched: %d, ambiguous: %d\n",
		discovery.References, len(discovery.Pairs), len(discovery.Unmatched), len(discovery.Ambiguous))
	fmt.Fprintf(out, "Metrics: %v\n", opts.Metrics.Enabled())
	if opts.OutputDir != "" {
		fmt.Fprintf(out, "Output directory: %s\n", opts.OutputDir)
	}
}

// PrintCompletionStats displays statistics after the run
func (p *ProgressTracker) PrintCompletionStats() {
	elapsed := time.Since(p.start)
	logging.DebugLog("Evaluation completed in %v. Processed: %d, failures: %d, errors: %d",
		elapsed, p.processed, p.failures, p.errors)

	if p.processed > 0 {
		fmt.Fprintln(p.out)
	}
	fmt.Fprintf(p.out, "Evaluated %d cases in %v.\n", p.processed, elapsed.Round(time.Millisecond))
	if p.errors > 0 {
		fmt.Fprintf(p.out, "Encountered %d errors during evaluation.\n", p.errors)
		fmt.Fprintln(p.out, "Check the report or the log file for details.")
	}
}
