// Package observability builds loggers and formats human-readable CLI output.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jonathan/profiler/internal/types"
	"github.com/olekukonko/tablewriter"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted CLI output
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		line = truncate(line, boxWidth-4)
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintProfileState outputs a profile's progress through its sections
func (p *Printer) PrintProfileState(state *types.ProfileState) {
	if state == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Status:    %s\n", state.Status))
	sb.WriteString(fmt.Sprintf("Complete:  %.0f%%\n", state.CompletionRatio*100))
	if state.NextSection != nil {
		sb.WriteString(fmt.Sprintf("Next:      %s\n", *state.NextSection))
	} else {
		sb.WriteString("Next:      (none)\n")
	}
	sb.WriteString("\n")

	writeList(&sb, "Completed", state.SectionsCompleted, maxItemsToShow)
	writeList(&sb, "Remaining", state.SectionsRemaining, maxItemsToShow)

	p.printBox("PROFILE STATE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintQuality outputs the overall score and per-category scores, sorted by name
func (p *Printer) PrintQuality(overall float64, categories map[string]float64) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Overall quality: %.2f\n", overall))
	if len(categories) > 0 {
		sb.WriteString("\n")
	}

	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sb.WriteString(fmt.Sprintf("  %-20s %.2f %s\n", name, categories[name], bar(categories[name], 20)))
	}

	p.printBox("PROFILE QUALITY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintDocumentAnalysis outputs an extraction confidence and its issues
func (p *Printer) PrintDocumentAnalysis(a *types.DocumentAnalysis) {
	if a == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Type:       %s\n", a.DocumentType))
	sb.WriteString(fmt.Sprintf("Confidence: %.2f\n", a.Confidence))
	sb.WriteString(fmt.Sprintf("Sources:    %s\n", strings.Join(a.Sources, ", ")))

	if len(a.Issues) == 0 {
		sb.WriteString("\n✅ No issues found")
	} else {
		sb.WriteString(fmt.Sprintf("\nFound %d issues:\n", len(a.Issues)))
		for _, is := range a.Issues {
			mark := "⚠"
			if is.Severity == types.SeverityError {
				mark = "✖"
			}
			sb.WriteString(fmt.Sprintf("%s %s\n", mark, is.Description))
		}
	}

	p.printBox("DOCUMENT ANALYSIS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSummary outputs a profile summary
func (p *Printer) PrintSummary(s *types.ProfileSummary) {
	if s == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Overall quality: %.2f\n\n", s.OverallQuality))
	writeList(&sb, "Strengths", s.Strengths, maxItemsToShow)
	writeList(&sb, "Areas for improvement", s.AreasForImprovement, maxItemsToShow)
	writeList(&sb, "Unique selling points", s.UniqueSellingPoints, maxItemsToShow)

	p.printBox("PROFILE SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRecommendations renders recommendations as a table
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintRecommendations(recs []types.Recommendation) error {
	if len(recs) == 0 {
		fmt.Fprintln(p.out, "No recommendations.")
		return nil
	}

	table := tablewriter.NewWriter(p.out)
	table.Header("Priority", "Category", "Title", "Confidence", "Status", "Progress")
	for _, r := range recs {
		if err := table.Append([]string{
			fmt.Sprintf("%d", r.Priority),
			string(r.Category),
			truncate(r.Title, 48),
			fmt.Sprintf("%.2f", r.Confidence),
			r.Status,
			fmt.Sprintf("%.0f%%", r.Progress*100),
		}); err != nil {
			return fmt.Errorf("failed to render recommendations: %w", err)
		}
	}
	return table.Render()
}

func writeList(sb *strings.Builder, label string, items []string, limit int) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(label + ":\n")
	for _, item := range items[:min(len(items), limit)] {
		sb.WriteString(fmt.Sprintf("  • %s\n", item))
	}
	if len(items) > limit {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-limit))
	}
	sb.WriteString("\n")
}

// bar draws a score in [0,1] as a fixed-width bar
func bar(score float64, width int) string {
	filled := int(score*float64(width) + 0.5)
	filled = max(0, min(width, filled))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// truncate shortens s to n runes, marking the cut with "..."
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
