package state

import (
	"time"

	"suppcheck/internal/database/relational"
	"suppcheck/internal/output"
)

type Page int

const (
	PageMenu    Page = iota
	PageCheck   // "Interaction Check"
	PageHistory // "Consultation History"
	PageConsole // "Live Console View"
)

// AppState holds the latest check result and history shown by the TUI
type AppState struct {
	Payload     *output.CheckPayload
	Report      output.ReportView
	History     []relational.ConsultationSummary
	Trend       []relational.TrendPoint
	LastUpdate  time.Time
	Err         error
	ConsoleLogs []string
	CurrentPage Page
}
