package views

import (
	"fmt"

	"suppcheck/ui/tui/state"
	"suppcheck/ui/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

type HistoryView struct{}

func (v HistoryView) Render(s state.AppState, props ViewProps) string {
	header := MenuHeaderStyle.Width(props.Width).Render("Consultation History")

	if s.Err != nil {
		return lipgloss.JoinVertical(lipgloss.Left,
			header,
			lipgloss.NewStyle().Padding(1, 2).Foreground(styles.SeverityHigh).Render(fmt.Sprintf("Error: %v", s.Err)),
			lipgloss.NewStyle().PaddingLeft(2).Foreground(styles.Subtle).Render("[r] Retry • [b] Back"),
		)
	}

	// Trend chart (the widget renders its own card)
	chart := props.ChartView

	// Recent consultations list
	content := ""
	if len(s.History) == 0 {
		content = lipgloss.NewStyle().Foreground(styles.Subtle).Render("No consultations recorded yet.")
	}
	for _, c := range s.History {
		verdict := ColorForVerdict(c.Verdict).Render(fmt.Sprintf("% -16s", c.Verdict))
		line := fmt.Sprintf("%s  %s risk %3d  conf %.0f%%",
			c.RequestedAt.Format("Jan 02 15:04:05"), verdict, c.RiskScore, c.Confidence*100)
		content += line + "\n"

		detail := fmt.Sprintf("    %s vs %s", c.Supplements, c.Medications)
		if c.PrimaryCause != "" {
			detail += "  (" + c.PrimaryCause + ")"
		}
		content += lipgloss.NewStyle().Foreground(styles.Subtle).Render(detail) + "\n"
	}

	listBox := styles.CardStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.NewStyle().Bold(true).Render("Recent Consultations"),
			content,
		),
	)

	footerText := "[r] Refresh • [b] Back"
	if !s.LastUpdate.IsZero() {
		footerText = fmt.Sprintf("Last Update: %s • %s", s.LastUpdate.Format("15:04:05"), footerText)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		chart,
		listBox,
		lipgloss.NewStyle().PaddingLeft(2).Foreground(styles.Subtle).Render(footerText),
	)
}
