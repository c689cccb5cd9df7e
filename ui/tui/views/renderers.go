package views

import (
	"suppcheck/ui/tui/state"
)

func RenderMenu(width, height, cursor int, animCursor float64, mouseX, mouseY int) string {
	v := MenuView{}
	return v.Render(state.AppState{}, ViewProps{
		Width:      width,
		Height:     height,
		MenuCursor: cursor,
		AnimCursor: animCursor,
		MouseX:     mouseX,
		MouseY:     mouseY,
	})
}

func RenderCheck(s state.AppState, width int, suppsInput, medsInput, spinnerView string, checking bool) string {
	v := CheckView{}
	return v.Render(s, ViewProps{
		Width:       width,
		SuppsInput:  suppsInput,
		MedsInput:   medsInput,
		SpinnerView: spinnerView,
		Checking:    checking,
	})
}

func RenderHistory(s state.AppState, chartView string, width, height int) string {
	v := HistoryView{}
	return v.Render(s, ViewProps{
		Width:     width,
		Height:    height,
		ChartView: chartView,
	})
}

func RenderRawConsole(s state.AppState, width, height, scrollY int) string {
	v := ConsoleView{}
	return v.Render(s, ViewProps{
		Width:   width,
		Height:  height,
		ScrollY: scrollY,
	})
}
