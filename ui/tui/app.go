package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"suppcheck/internal/database"
	"suppcheck/internal/database/relational"
	"suppcheck/internal/output"
	"suppcheck/ui/tui/components"
	"suppcheck/ui/tui/state"
	"suppcheck/ui/tui/views"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
)

// Deps are the wired collaborators the TUI drives. History and Worker may be
// nil; the history page is then empty and checks are not persisted.
type Deps struct {
	Normalizer output.EntityNormalizer
	Checker    output.Checker
	Resolver   output.FallbackResolver
	Verdicts   output.VerdictAssessor
	History    relational.ConsultationRepository
	Worker     *database.Worker
	SessionID  string

	// CheckTimeout caps one check run. Zero means the 90-second default.
	CheckTimeout time.Duration
}

// MainModel is the Bubble Tea Model acting as the Controller
type MainModel struct {
	deps           Deps
	state          state.AppState
	spinner        spinner.Model
	riskChart      *components.RiskWidget
	suppsInput     textinput.Model
	medsInput      textinput.Model
	focusIdx       int
	checking       bool
	menuCursor     int
	animCursor     float64
	velocity       float64 // Physics velocity
	spring         harmonica.Spring
	consoleScrollY int
	mouseX         int
	mouseY         int
	quitting       bool
	width          int
	height         int
}

// Messages
type TickMsg time.Time
type AnimateMsg time.Time
type CheckDoneMsg struct {
	Payload *output.CheckPayload
	Err     error
}
type HistoryLoadedMsg struct {
	Items []relational.ConsultationSummary
	Trend []relational.TrendPoint
	Err   error
}

func InitialModel(deps Deps) MainModel {
	if deps.SessionID == "" {
		deps.SessionID = fmt.Sprintf("tui-%d", time.Now().Unix())
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	supps := textinput.New()
	supps.Placeholder = "ginkgo biloba, st johns wort"
	supps.CharLimit = 256
	supps.Width = 48
	supps.Focus()

	meds := textinput.New()
	meds.Placeholder = "warfarin, sertraline"
	meds.CharLimit = 256
	meds.Width = 48

	// Initialize physics spring for smooth cursor animation
	// Increased frequency (12.0) for faster response and damping (0.9) to prevent overshoot
	spring := harmonica.NewSpring(harmonica.FPS(60), 12.0, 0.9)

	return MainModel{
		deps:       deps,
		spinner:    s,
		riskChart:  components.NewRiskWidget(30, 10),
		suppsInput: supps,
		medsInput:  meds,
		spring:     spring,
		state: state.AppState{
			CurrentPage: state.PageMenu,
		},
	}
}

func (m *MainModel) Init() tea.Cmd {
	zone.NewGlobal()
	return tea.Batch(
		m.spinner.Tick,
		tickCmd(),
		animateCmd(),
	)
}

// Commands
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second*1, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func animateCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*16, func(t time.Time) tea.Msg {
		return AnimateMsg(t)
	})
}

func runCheckCmd(deps Deps, supplements, medications []string) tea.Cmd {
	timeout := deps.CheckTimeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		payload, err := output.RunCheck(ctx, deps.Normalizer, deps.Checker, deps.Resolver, deps.Verdicts, output.CheckRequest{
			SessionID:   deps.SessionID,
			Supplements: supplements,
			Medications: medications,
		})
		return CheckDoneMsg{Payload: payload, Err: err}
	}
}

func loadHistoryCmd(repo relational.ConsultationRepository) tea.Cmd {
	return func() tea.Msg {
		if repo == nil {
			return HistoryLoadedMsg{}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		items, err := repo.RecentConsultations(ctx, "", 20)
		if err != nil {
			return HistoryLoadedMsg{Err: err}
		}
		trend, err := repo.SeverityTrend(ctx, 30)
		if err != nil {
			return HistoryLoadedMsg{Items: items, Err: err}
		}
		return HistoryLoadedMsg{Items: items, Trend: trend}
	}
}

func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case AnimateMsg:
		return m.handleAnimateMsg(msg)

	case tea.WindowSizeMsg:
		return m.handleWindowSizeMsg(msg)

	case TickMsg:
		return m.handleTickMsg(msg)

	case CheckDoneMsg:
		return m.handleCheckDoneMsg(msg)

	case HistoryLoadedMsg:
		return m.handleHistoryLoadedMsg(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		return m.handleMouseMsg(msg)
	}

	return m, nil
}

func (m *MainModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	// The check form owns plain keys while it is visible
	if m.state.CurrentPage == state.PageCheck {
		return m.handleCheckKeys(msg)
	}

	if msg.String() == "q" {
		m.quitting = true
		return m, tea.Quit
	}

	if m.state.CurrentPage == state.PageMenu {
		switch msg.String() {
		case "up", "k":
			if m.menuCursor > 0 {
				m.menuCursor--
			}
		case "down", "j":
			if m.menuCursor < 2 {
				m.menuCursor++
			}
		case "enter":
			return m, m.navigateTo(m.menuCursor)
		}
		return m, nil
	}

	if m.state.CurrentPage == state.PageConsole {
		switch msg.String() {
		case "up", "k":
			if m.consoleScrollY > 0 {
				m.consoleScrollY--
			}
		case "down", "j":
			m.consoleScrollY++
		}
	}

	if m.state.CurrentPage == state.PageHistory && msg.String() == "r" {
		return m, loadHistoryCmd(m.deps.History)
	}

	if msg.String() == "b" || msg.String() == "esc" || msg.String() == "backspace" {
		m.state.CurrentPage = state.PageMenu
		m.consoleScrollY = 0
		return m, nil
	}

	return m, nil
}

func (m *MainModel) handleCheckKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.state.CurrentPage = state.PageMenu
		return m, nil

	case "tab", "shift+tab", "up", "down":
		if m.focusIdx == 0 {
			m.focusIdx = 1
			m.suppsInput.Blur()
			return m, m.medsInput.Focus()
		}
		m.focusIdx = 0
		m.medsInput.Blur()
		return m, m.suppsInput.Focus()

	case "enter":
		if m.checking {
			return m, nil
		}
		supplements := splitNames(m.suppsInput.Value())
		medications := splitNames(m.medsInput.Value())
		if len(supplements) == 0 || len(medications) == 0 {
			m.state.Err = fmt.Errorf("enter at least one supplement and one medication")
			return m, nil
		}
		m.state.Err = nil
		m.checking = true
		m.logf("check started: %s vs %s", strings.Join(supplements, ", "), strings.Join(medications, ", "))
		return m, runCheckCmd(m.deps, supplements, medications)
	}

	// Everything else edits whichever input has focus
	var cmd tea.Cmd
	if m.focusIdx == 0 {
		m.suppsInput, cmd = m.suppsInput.Update(msg)
	} else {
		m.medsInput, cmd = m.medsInput.Update(msg)
	}
	return m, cmd
}

func (m *MainModel) navigateTo(cursor int) tea.Cmd {
	switch cursor {
	case 0:
		m.state.CurrentPage = state.PageCheck
		m.focusIdx = 0
		m.medsInput.Blur()
		return m.suppsInput.Focus()
	case 1:
		m.state.CurrentPage = state.PageHistory
		return loadHistoryCmd(m.deps.History)
	case 2:
		m.state.CurrentPage = state.PageConsole
	}
	return nil
}

func (m *MainModel) handleAnimateMsg(msg AnimateMsg) (tea.Model, tea.Cmd) {
	var v float64 = m.velocity
	m.animCursor, v = m.spring.Update(m.animCursor, float64(m.menuCursor), v)
	m.velocity = v
	return m, animateCmd()
}

func (m *MainModel) handleWindowSizeMsg(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	newW := msg.Width/2 - 6
	if newW > 10 {
		m.riskChart.Resize(newW, 10)
	}

	inputW := msg.Width/2 - 10
	if inputW > 20 {
		m.suppsInput.Width = inputW
		m.medsInput.Width = inputW
	}
	return m, nil
}

func (m *MainModel) handleTickMsg(msg TickMsg) (tea.Model, tea.Cmd) {
	// The history worker flushes in the background, so the history page is
	// kept live while visible
	if m.state.CurrentPage == state.PageHistory {
		return m, tea.Batch(
			loadHistoryCmd(m.deps.History),
			tickCmd(),
		)
	}
	return m, tickCmd()
}

func (m *MainModel) handleCheckDoneMsg(msg CheckDoneMsg) (tea.Model, tea.Cmd) {
	m.checking = false
	m.state.LastUpdate = time.Now()

	if msg.Err != nil {
		m.state.Err = msg.Err
		m.logf("check failed: %v", msg.Err)
		return m, nil
	}

	// Update State
	m.state.Err = nil
	m.state.Payload = msg.Payload
	m.state.Report = output.BuildReport(msg.Payload)
	m.riskChart.Push(float64(m.state.Report.RiskScore))

	// Persist off the UI loop
	if m.deps.Worker != nil {
		m.deps.Worker.Enqueue(database.Record{
			Consultation: msg.Payload.Consultation,
			Findings:     msg.Payload.FindingRows,
		})
	}

	m.logf("check complete: %s (risk %d, %d findings, %d unknown)",
		m.state.Report.Verdict, m.state.Report.RiskScore,
		m.state.Report.TotalFindings, m.state.Report.UnknownCount)
	return m, nil
}

func (m *MainModel) handleHistoryLoadedMsg(msg HistoryLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.state.Err = msg.Err
		return m, nil
	}

	m.state.Err = nil
	m.state.History = msg.Items
	m.state.Trend = msg.Trend
	m.state.LastUpdate = time.Now()

	// Update Chart
	scores := make([]float64, 0, len(msg.Trend))
	for _, p := range msg.Trend {
		scores = append(scores, float64(p.RiskScore))
	}
	m.riskChart.SetSeries(scores)
	return m, nil
}

func (m *MainModel) handleMouseMsg(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	m.mouseX = msg.X
	m.mouseY = msg.Y

	if msg.Action == tea.MouseActionRelease && m.state.CurrentPage == state.PageMenu {
		for i := 0; i <= 2; i++ {
			if zone.Get(fmt.Sprintf("menu_%d", i)).InBounds(msg) {
				m.menuCursor = i
				return m, m.navigateTo(i)
			}
		}
	}
	return m, nil
}

func (m *MainModel) logf(format string, args ...interface{}) {
	line := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	m.state.ConsoleLogs = append(m.state.ConsoleLogs, line)
	if len(m.state.ConsoleLogs) > 100 {
		m.state.ConsoleLogs = m.state.ConsoleLogs[1:]
	}
}

func splitNames(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (m *MainModel) View() string {
	if m.quitting {
		return "Bye!\n"
	}

	switch m.state.CurrentPage {
	case state.PageCheck:
		return views.RenderCheck(m.state, m.width, m.suppsInput.View(), m.medsInput.View(), m.spinner.View(), m.checking)
	case state.PageHistory:
		return views.RenderHistory(m.state, m.riskChart.View(), m.width, m.height)
	case state.PageConsole:
		return views.RenderRawConsole(m.state, m.width, m.height, m.consoleScrollY)
	default:
		return views.RenderMenu(m.width, m.height, m.menuCursor, m.animCursor, m.mouseX, m.mouseY)
	}
}

func Start(deps Deps) error {
	m := InitialModel(deps)
	p := tea.NewProgram(
		&m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, err := p.Run()
	return err
}
