package views

import (
	"suppcheck/ui/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

func ColorForSeverity(severity string) lipgloss.Style {
	sStyle := styles.StatusStyle
	switch severity {
	case "HIGH":
		return sStyle.Foreground(styles.SeverityHigh)
	case "MEDIUM":
		return sStyle.Foreground(styles.SeverityMedium)
	case "LOW":
		return sStyle.Foreground(styles.SeverityLow)
	case "SAFE":
		return sStyle.Foreground(styles.SeveritySafe)
	}
	return sStyle.Foreground(styles.SeverityUnknown)
}

func ColorForVerdict(verdict string) lipgloss.Style {
	sStyle := styles.StatusStyle
	if verdict == "SAFE" {
		return sStyle.Foreground(styles.SeveritySafe)
	}
	return sStyle.Foreground(styles.SeverityMedium)
}
