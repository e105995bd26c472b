// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonathan/career-path/internal/ingest"
	"github.com/jonathan/career-path/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
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
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintProfile outputs a human-readable summary of an extracted résumé profile.
func (p *Printer) PrintProfile(profile *types.Profile) {
	if profile == nil {
		return
	}

	var sb strings.Builder
	if profile.Degraded() {
		sb.WriteString("Extraction failed:\n")
		sb.WriteString(fmt.Sprintf("  %s\n", profile.Error))
		sb.WriteString(fmt.Sprintf("Raw text: %d characters\n", len([]rune(profile.RawText))))
		p.printBox("RÉSUMÉ PROFILE (DEGRADED)", strings.TrimSuffix(sb.String(), "\n"))
		return
	}

	sb.WriteString(fmt.Sprintf("Name:   %s\n", profile.Name))
	sb.WriteString(fmt.Sprintf("Email:  %s\n", profile.Email))
	sb.WriteString(fmt.Sprintf("Phone:  %s\n", profile.Phone))
	sb.WriteString("\n")

	if len(profile.Skills) > 0 {
		sb.WriteString(fmt.Sprintf("Skills (%d):\n", len(profile.Skills)))
		count := min(len(profile.Skills), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", profile.Skills[i]))
		}
		if len(profile.Skills) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(profile.Skills)-maxItemsToShow))
		}
		sb.WriteString("\n")
	}

	if len(profile.Experience) > 0 {
		sb.WriteString("Experience:\n")
		count := min(len(profile.Experience), 3)
		for i := 0; i < count; i++ {
			exp := profile.Experience[i]
			sb.WriteString(fmt.Sprintf("  • %s", exp.Role))
			if exp.Company != "" {
				sb.WriteString(fmt.Sprintf(" @ %s", exp.Company))
			}
			if exp.Duration != "" {
				sb.WriteString(fmt.Sprintf(" (%s)", exp.Duration))
			}
			sb.WriteString("\n")
		}
		if len(profile.Experience) > 3 {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(profile.Experience)-3))
		}
		sb.WriteString("\n")
	}

	for _, edu := range profile.Education {
		sb.WriteString(fmt.Sprintf("Education: %s, %s", edu.Degree, edu.Institution))
		if edu.Year != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", edu.Year))
		}
		sb.WriteString("\n")
	}

	p.printBox("RÉSUMÉ PROFILE", strings.TrimSpace(sb.String()))
}

// PrintQueryResult outputs the retrieved career documents with their distances.
func (p *Printer) PrintQueryResult(query string, result types.QueryResult) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Query: %s\n\n", query))

	if result.Len() == 0 {
		sb.WriteString("No matching career descriptions.")
		p.printBox("RETRIEVED CONTEXT", sb.String())
		return
	}

	for i, hit := range result.Results {
		role := hit.Metadata[types.MetaRole]
		if role == "" {
			role = hit.ID
		}
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, role))
		sb.WriteString(fmt.Sprintf("    Distance: %.4f\n", hit.Distance))
		if category := hit.Metadata[types.MetaCategory]; category != "" {
			sb.WriteString(fmt.Sprintf("    Category: %s\n", category))
		}
		if i < result.Len()-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("RETRIEVED CONTEXT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintIngestReport outputs the outcome of an ingestion run.
func (p *Printer) PrintIngestReport(report *ingest.Report) {
	if report == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Documents written: %d\n", report.Documents))
	sb.WriteString(fmt.Sprintf("Index size:        %d\n", report.Total))
	sb.WriteString(fmt.Sprintf("Duration:          %s\n", report.Duration.Round(time.Millisecond)))
	if len(report.IDs) > 0 {
		sb.WriteString("\n")
		count := min(len(report.IDs), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", report.IDs[i]))
		}
		if len(report.IDs) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(report.IDs)-maxItemsToShow))
		}
	}

	p.printBox("INGESTION COMPLETE", strings.TrimSuffix(sb.String(), "\n"))
}
