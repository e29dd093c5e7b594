package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"imagecert/types"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Markdown report file names
const (
	MarkdownFile = "report.md"
	HTMLFile     = "report.html"
)

// RenderMarkdown formats the report as Markdown with a summary table and one
// section per case linking its contact sheet
func RenderMarkdown(report *types.Report) []byte {
	var b bytes.Buffer
	title := fmt.Sprintf("%s - Certification Report", report.Submission)
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "Generated %s, run `%s`.\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST"), report.RunID)

	s := report.Summary
	fmt.Fprintf(&b, "**%d cases**: %d passed, %d failed, %d errored.\n\n", s.Total, s.Passed, s.Failed, s.Errored)

	if len(report.Cases) > 0 {
		header := append([]string{"Case"}, report.MetricOrder...)
		header = append(header, "Result")
		writeMarkdownRow(&b, header)
		sep := make([]string, len(header))
		for i := range sep {
			sep[i] = "---"
		}
		writeMarkdownRow(&b, sep)

		for i := range report.Cases {
			c := &report.Cases[i]
			row := []string{c.Name}
			for _, name := range report.MetricOrder {
				row = append(row, cell(c, name))
			}
			row = append(row, CaseLabel(c))
			writeMarkdownRow(&b, row)
		}
		b.WriteString("\n")
	}

	for i := range report.Cases {
		c := &report.Cases[i]
		fmt.Fprintf(&b, "## %s\n\n", c.Name)
		if c.Failed() {
			fmt.Fprintf(&b, "Error: %s\n\n", c.Error)
			continue
		}
		if c.Resized {
			b.WriteString("Candidate was resized to the reference resolution.\n\n")
		}
		if c.Images.Sheet != "" {
			fmt.Fprintf(&b, "![%s](%s)\n\n", c.Name, c.Images.Sheet)
		}
	}

	if len(report.Unmatched) > 0 {
		b.WriteString("## References without a candidate\n\n")
		for _, path := range report.Unmatched {
			fmt.Fprintf(&b, "- `%s`\n", path)
		}
		b.WriteString("\n")
	}
	return b.Bytes()
}

// WriteMarkdown writes report.md and its HTML rendering into dir
func WriteMarkdown(dir string, report *types.Report) error {
	md := RenderMarkdown(report)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, MarkdownFile), md, 0644); err != nil {
		return fmt.Errorf("cannot write %s: %w", MarkdownFile, err)
	}

	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: fmt.Sprintf("%s - Certification Report", report.Submission),
		Flags: html.CommonFlags | html.CompletePage,
	})
	page := markdown.ToHTML(md, p, renderer)
	if err := os.WriteFile(filepath.Join(dir, HTMLFile), page, 0644); err != nil {
		return fmt.Errorf("cannot write %s: %w", HTMLFile, err)
	}
	return nil
}

func writeMarkdownRow(b *bytes.Buffer, cells []string) {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		escaped[i] = strings.ReplaceAll(c, "|", "\\|")
	}
	fmt.Fprintf(b, "| %s |\n", strings.Join(escaped, " | "))
}
