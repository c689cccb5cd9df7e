package console

import (
	"fmt"
	"io"
	"strings"

	"suppcheck/internal/output"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// Print renders the interaction report to the writer in a highly compact format.
func Print(w io.Writer, view output.ReportView) {
	fmt.Fprintf(w, "%s%s %s%s\n", colorCyan, "■", "SUPPCHECK REPORT", colorReset)

	if view.Explanation != "" {
		fmt.Fprintf(w, "%s%s%s\n", colorGray, view.Explanation, colorReset)
	}

	for _, sec := range view.Sections {
		// Empty sections would only add noise
		if len(sec.Lines) == 0 {
			continue
		}

		// Section Header
		fmt.Fprintf(w, "%s%s%s\n", colorCyan, "─ "+sec.Title, colorReset)

		for _, ln := range sec.Lines {
			color := colorForSeverity(ln.Severity)

			// Compact pair label (max 26 chars)
			label := ln.Supplement
			if ln.Drug != "" {
				label = ln.Supplement + " + " + ln.Drug
			}
			if len(label) > 26 {
				label = label[:23] + "..."
			}

			// Trailing detail: the source for findings, the note for the rest
			trail := ln.Source
			if sec.ID == output.SectionSafe || sec.ID == output.SectionUnknown {
				trail = ln.Note
			}
			if len(trail) > 34 {
				trail = trail[:31] + "..."
			}
			if trail != "" {
				trail = fmt.Sprintf(" %s(%s)%s", colorGray, trail, colorReset)
			}

			// Severity Marker
			marker := markerFor(ln.Severity)

			// Dots leader
			dots := strings.Repeat("·", 28-len(label))

			// Format: "  Supplement + Drug........ SEVERITY ✓ (source)"
			fmt.Fprintf(w, "  %s%s %s%s %s%s%s\n",
				label, colorCyan+dots+colorReset, color, ln.Severity, marker, colorReset, trail)
		}
	}

	// Single-line Summary
	verdictColor := colorGreen
	if view.Verdict != "SAFE" {
		verdictColor = colorYellow
	}

	graphStr := ""
	if view.GraphLabel != "" {
		graphStr = " | " + view.GraphLabel
	}
	degradedStr := ""
	if view.Degraded {
		degradedStr = fmt.Sprintf(" | %sdegraded%s", colorGray, colorReset)
	}

	fmt.Fprintf(w, "%s─ Summary%s: %s%s%s | Risk: %d/100 | Confidence: %.0f%%%s%s\n\n",
		colorCyan, colorReset,
		verdictColor, view.Verdict, colorReset,
		view.RiskScore, view.Confidence*100, graphStr, degradedStr)
}

func colorForSeverity(severity string) string {
	switch severity {
	case "HIGH":
		return colorRed
	case "MEDIUM":
		return colorYellow
	case "LOW":
		return colorCyan
	case "SAFE":
		return colorGreen
	default:
		return colorGray
	}
}

func markerFor(severity string) string {
	switch severity {
	case "HIGH":
		return "X"
	case "MEDIUM":
		return "!"
	case "SAFE":
		return "✓"
	case "UNKNOWN":
		return "?"
	default:
		return "·"
	}
}
