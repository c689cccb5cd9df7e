package components

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Component is the interface for self-contained widgets embedded in pages.
// It is similar to tea.Model but adds resizing, since the controller owns
// the window size.
type Component interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (tea.Model, tea.Cmd)
	View() string
	Resize(w, h int)
}
