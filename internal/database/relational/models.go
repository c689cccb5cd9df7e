package relational

import "time"

// ==========================
// 1) CONSULTATION FACT TABLE
// ==========================

// Consultation is one persisted check: what was asked, what the verdict
// was, and how the check ran.
type Consultation struct {
	ConsultationID int64
	SessionID      string
	RequestedAt    time.Time

	// Request, as entered (comma-joined mention lists)
	Supplements string
	Medications string

	// Verdict
	Verdict      string // SAFE | CAUTION ADVISED
	RiskScore    int32  // 0..100
	Confidence   float64
	PrimaryCause string
	Explanation  string

	// Shape of the answer
	FindingCount int32
	SafeCount    int32
	UnknownCount int32

	// How the check ran
	Degraded   bool  // any pathway timed out or failed
	GraphRows  int32 // raw graph findings before aggregation
	DurationMS int64

	CreatedAt time.Time
}

// ==========================
// 2) FINDINGS CHILD TABLE
// ==========================

// ConsultationFinding is one ranked finding within a consultation, stored
// in output order.
type ConsultationFinding struct {
	ConsultationID int64
	Seq            int32
	Supplement     string
	Drug           string
	Severity       string // HIGH | MEDIUM | LOW | UNKNOWN
	Tier           string // GRAPH-HIGH | MEDIUM | LOW | NONE
	Source         string // pathway name or fallback stage
	Warning        string
}

// ==========================
// 3) QUERY-SIDE VIEWS
// ==========================

// ConsultationSummary is the list view of a consultation row.
type ConsultationSummary struct {
	ConsultationID int64     `json:"consultation_id"`
	SessionID      string    `json:"session_id"`
	RequestedAt    time.Time `json:"requested_at"`
	Supplements    string    `json:"supplements"`
	Medications    string    `json:"medications"`
	Verdict        string    `json:"verdict"`
	RiskScore      int32     `json:"risk_score"`
	Confidence     float64   `json:"confidence"`
	PrimaryCause   string    `json:"primary_cause"`
	Explanation    string    `json:"explanation"`
	UnknownCount   int32     `json:"unknown_count"`
}

// TrendPoint is one point of the risk-score history, oldest first, for
// charting.
type TrendPoint struct {
	At        time.Time `json:"at"`
	RiskScore int32     `json:"risk_score"`
}

// InsertResult reports what an insert created.
type InsertResult struct {
	ConsultationID int64
}
