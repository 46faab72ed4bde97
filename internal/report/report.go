// Package report writes the broken-link CSV and renders the run summary.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matheuskafuri/linkcheck/internal/checker"
)

// csvHeader matches what the import command expects to read back.
var csvHeader = []string{"post_title", "post_url", "broken_link", "error_type"}

// WriteCSV writes the broken link records to w with a header row.
func WriteCSV(w io.Writer, records []checker.BrokenLink) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing report header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write([]string{r.PostTitle, r.PostURL, r.Link, r.Reason}); err != nil {
			return fmt.Errorf("writing report row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing report: %w", err)
	}
	return nil
}

// SaveCSV writes the records to a file at path.
func SaveCSV(path string, records []checker.BrokenLink) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report %s: %w", path, err)
	}
	defer f.Close()
	if err := WriteCSV(f, records); err != nil {
		return err
	}
	return f.Close()
}

var (
	summaryTitleStyle = lipgloss.NewStyle().Bold(true).
				Foreground(lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"})
	summaryLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#3D3D3D", Dark: "#ABABAB"})
	summaryGoodStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#25D366"})
	summaryBadStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#D9304E", Dark: "#F25D94"})
)

// Summary renders the end-of-run counter block.
func Summary(s checker.Snapshot) string {
	var b strings.Builder
	b.WriteString(summaryTitleStyle.Render("Summary"))
	b.WriteString("\n")

	row := func(label string, value int) {
		b.WriteString(summaryLabelStyle.Render(fmt.Sprintf("%-28s", label)))
		b.WriteString(fmt.Sprintf("%d\n", value))
	}

	row("Total links checked:", s.LinksChecked)
	row("Links skipped (assumed OK):", s.LinksSkipped)
	row("Links auto-flagged broken:", s.AutoBroken)
	row("Cache hits:", s.CacheHits)
	row("Retries performed:", s.Retries)
	if s.PostsSkipped > 0 {
		row("Posts skipped (history):", s.PostsSkipped)
	}

	b.WriteString(summaryLabelStyle.Render(fmt.Sprintf("%-28s", "Broken links found:")))
	if s.BrokenLinks > 0 {
		b.WriteString(summaryBadStyle.Render(fmt.Sprintf("%d", s.BrokenLinks)))
	} else {
		b.WriteString(summaryGoodStyle.Render("0"))
	}
	b.WriteString("\n")
	return b.String()
}
