package views

import (
	"fmt"
	"strings"

	"suppcheck/internal/output"
	"suppcheck/ui/tui/state"
	"suppcheck/ui/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

type CheckView struct{}

func (v CheckView) Render(s state.AppState, props ViewProps) string {
	header := MenuHeaderStyle.Width(props.Width).Render("Interaction Check")

	// Input form
	form := styles.CardStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.NewStyle().Bold(true).Render("Current Regimen"),
			"",
			lipgloss.NewStyle().Foreground(styles.Highlight).Render("Supplements (comma-separated)"),
			props.SuppsInput,
			"",
			lipgloss.NewStyle().Foreground(styles.Highlight).Render("Medications (comma-separated)"),
			props.MedsInput,
		),
	)

	// Status line under the form
	status := ""
	switch {
	case props.Checking:
		status = lipgloss.NewStyle().PaddingLeft(2).Render(
			props.SpinnerView + " Checking interactions across graph and fallback sources...")
	case s.Err != nil:
		status = lipgloss.NewStyle().PaddingLeft(2).Foreground(styles.SeverityHigh).
			Render(fmt.Sprintf("Error: %v", s.Err))
	case s.Payload == nil:
		status = lipgloss.NewStyle().PaddingLeft(2).Foreground(styles.Subtle).
			Render("Enter your regimen and press Enter to run a check.")
	}

	body := lipgloss.JoinVertical(lipgloss.Left, form, status)

	if s.Payload != nil && !props.Checking {
		body = lipgloss.JoinVertical(lipgloss.Left, body, renderReport(s.Report))
	}

	controls := lipgloss.NewStyle().Padding(1, 2).Foreground(styles.Subtle).
		Render("[Tab] Switch field • [Enter] Run check • [Esc] Back")

	return lipgloss.JoinVertical(lipgloss.Left, header, body, controls)
}

func renderReport(report output.ReportView) string {
	renderSection := func(sec *output.Section) string {
		content := ""
		for _, ln := range sec.Lines {
			pair := ln.Supplement
			if ln.Drug != "" {
				pair = ln.Supplement + " + " + ln.Drug
			}
			sevStr := ColorForSeverity(ln.Severity).Render(ln.Severity)
			content += fmt.Sprintf("% -34s : %s", pair, sevStr)
			if ln.Source != "" {
				content += lipgloss.NewStyle().Foreground(styles.Subtle).Render("  via " + ln.Source)
			}
			content += "\n"
			if ln.Note != "" {
				note := ln.Note
				if len(note) > 64 {
					note = note[:61] + "..."
				}
				content += lipgloss.NewStyle().Foreground(styles.Subtle).Render("    "+note) + "\n"
			}
		}
		return content
	}

	// Verdict and source attribution cards
	verdictCol := styles.CardStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.NewStyle().Bold(true).Render("Verdict"),
			ColorForVerdict(report.Verdict).Render(report.Verdict),
			fmt.Sprintf("Risk Score   : %d/100", report.RiskScore),
			fmt.Sprintf("Confidence   : %.0f%%", report.Confidence*100),
		),
	)

	diagLines := []string{lipgloss.NewStyle().Bold(true).Render("Sources")}
	if report.GraphLabel != "" {
		diagLines = append(diagLines, report.GraphLabel)
	}
	for _, stage := range []string{"web_answered", "reason_answered", "unknown"} {
		if n := report.Stages[stage]; n > 0 {
			diagLines = append(diagLines, fmt.Sprintf("%s: %d", stage, n))
		}
	}
	if report.Degraded {
		diagLines = append(diagLines, ColorForSeverity("MEDIUM").Render("degraded run"))
	}
	diagCol := styles.CardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, diagLines...))

	row1 := lipgloss.JoinHorizontal(lipgloss.Top, verdictCol, diagCol)

	// One card per populated severity section
	var sectionCards []string
	for _, id := range []string{output.SectionHigh, output.SectionMedium, output.SectionLow, output.SectionSafe, output.SectionUnknown} {
		sec := report.SectionByID(id)
		if sec == nil || len(sec.Lines) == 0 {
			continue
		}
		title := ColorForSeverity(strings.ToUpper(sec.ID)).Render(sec.Title)
		sectionCards = append(sectionCards, styles.CardStyle.Render(
			lipgloss.JoinVertical(lipgloss.Left, title, renderSection(sec)),
		))
	}

	parts := append([]string{row1}, sectionCards...)
	if report.Explanation != "" {
		parts = append(parts, lipgloss.NewStyle().PaddingLeft(2).Foreground(styles.Subtle).Render(report.Explanation))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
