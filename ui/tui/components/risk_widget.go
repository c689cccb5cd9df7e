package components

import (
	"suppcheck/ui/tui/styles"

	"github.com/NimbleMarkets/ntcharts/canvas"
	"github.com/NimbleMarkets/ntcharts/linechart"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var _ Component = (*RiskWidget)(nil)

// RiskWidget charts the risk score of recent consultations, oldest first.
type RiskWidget struct {
	Chart  linechart.Model
	Series []float64
	Width  int
	Height int
}

func NewRiskWidget(width, height int) *RiskWidget {
	// width, height, minX, maxX, minY, maxY
	lc := linechart.New(width, height, 0, 30, 0, 100)
	return &RiskWidget{
		Chart:  lc,
		Series: make([]float64, 0, 31),
		Width:  width,
		Height: height,
	}
}

func (c *RiskWidget) Init() tea.Cmd {
	return nil
}

// Push appends one risk score, keeping the window at 31 points.
func (c *RiskWidget) Push(value float64) {
	c.Series = append(c.Series, value)
	if len(c.Series) > 31 {
		c.Series = c.Series[1:]
	}
}

// SetSeries replaces the whole series, e.g. after a history reload.
func (c *RiskWidget) SetSeries(values []float64) {
	if len(values) > 31 {
		values = values[len(values)-31:]
	}
	c.Series = append(c.Series[:0], values...)
}

func (c *RiskWidget) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// The chart is not interactive; data arrives via Push and SetSeries.
	return c, nil
}

func (c *RiskWidget) Resize(w, h int) {
	c.Width = w
	c.Height = h
	c.Chart.Resize(w, h)
}

func (c *RiskWidget) View() string {
	c.Chart.Clear()
	for i := 0; i < len(c.Series)-1; i++ {
		y1 := c.Series[i]
		y2 := c.Series[i+1]
		c.Chart.DrawBrailleLine(
			canvas.Float64Point{X: float64(i), Y: y1},
			canvas.Float64Point{X: float64(i + 1), Y: y2},
		)
	}
	c.Chart.DrawXYAxisAndLabel()

	return styles.CardStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.NewStyle().Bold(true).Render("Risk Score Trend"),
			c.Chart.View(),
		),
	)
}
