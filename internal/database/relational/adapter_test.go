package relational

import (
	"testing"
	"time"

	"suppcheck/internal/engine"
	"suppcheck/internal/synthesis"
	"suppcheck/internal/verdict"
)

func TestNewConsultation(t *testing.T) {
	requestedAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	res := &synthesis.Result{
		Findings: []synthesis.RankedFinding{
			{
				Supplement: "St Johns Wort",
				Drug:       "Sertraline",
				Severity:   engine.SeverityHigh,
				Tier:       synthesis.TierGraph,
				Source:     "direct",
				Warning:    "Risk of serotonin syndrome.",
			},
			{
				Supplement: "Ginkgo",
				Drug:       "Warfarin",
				Severity:   engine.SeverityMedium,
				Tier:       synthesis.TierMedium,
				Source:     "web_answered",
				Warning:    "May increase bleeding risk; monitor closely.",
			},
		},
		Safe: []engine.SafeRecord{
			{Supplement: engine.EntityRef{Name: "Vitamin C"}, Note: "No interactions found in the graph."},
		},
		Diagnostics: synthesis.Diagnostics{
			Degraded:  true,
			GraphRows: 12,
		},
	}
	v := verdict.Verdict{
		Overall:      "CAUTION ADVISED",
		RiskScore:    60,
		Confidence:   0.75,
		PrimaryCause: "St Johns Wort + Sertraline",
		Explanation:  "Risk of serotonin syndrome. (+1 more)",
		UnknownCount: 0,
	}

	c, findings := NewConsultation("session-1",
		[]string{"St Johns Wort", "Ginkgo", "Vitamin C"},
		[]string{"Sertraline", "Warfarin"},
		res, v, requestedAt, 1500*time.Millisecond)

	if c.SessionID != "session-1" {
		t.Errorf("Expected session-1, got %s", c.SessionID)
	}
	if c.Supplements != "St Johns Wort, Ginkgo, Vitamin C" {
		t.Errorf("Expected joined supplements, got %q", c.Supplements)
	}
	if c.Medications != "Sertraline, Warfarin" {
		t.Errorf("Expected joined medications, got %q", c.Medications)
	}
	if c.Verdict != "CAUTION ADVISED" {
		t.Errorf("Expected CAUTION ADVISED, got %s", c.Verdict)
	}
	if c.RiskScore != 60 {
		t.Errorf("Expected risk score 60, got %d", c.RiskScore)
	}
	if c.Confidence != 0.75 {
		t.Errorf("Expected confidence 0.75, got %f", c.Confidence)
	}
	if c.FindingCount != 2 {
		t.Errorf("Expected 2 findings, got %d", c.FindingCount)
	}
	if c.SafeCount != 1 {
		t.Errorf("Expected 1 safe record, got %d", c.SafeCount)
	}
	if !c.Degraded {
		t.Error("Expected degraded flag to carry over")
	}
	if c.GraphRows != 12 {
		t.Errorf("Expected 12 graph rows, got %d", c.GraphRows)
	}
	if c.DurationMS != 1500 {
		t.Errorf("Expected 1500ms duration, got %d", c.DurationMS)
	}
	if !c.RequestedAt.Equal(requestedAt) {
		t.Errorf("Expected requested_at %v, got %v", requestedAt, c.RequestedAt)
	}

	if len(findings) != 2 {
		t.Fatalf("Expected 2 finding rows, got %d", len(findings))
	}
	first := findings[0]
	if first.Seq != 1 {
		t.Errorf("Expected seq 1, got %d", first.Seq)
	}
	if first.Severity != "HIGH" {
		t.Errorf("Expected HIGH, got %s", first.Severity)
	}
	if first.Tier != "GRAPH-HIGH" {
		t.Errorf("Expected GRAPH-HIGH, got %s", first.Tier)
	}
	second := findings[1]
	if second.Seq != 2 {
		t.Errorf("Expected seq 2, got %d", second.Seq)
	}
	if second.Source != "web_answered" {
		t.Errorf("Expected web_answered, got %s", second.Source)
	}
}

func TestNewConsultationNilResult(t *testing.T) {
	v := verdict.Verdict{Overall: "SAFE", Confidence: 0.9}
	c, findings := NewConsultation("session-2", []string{"Zinc"}, []string{"Aspirin"}, nil, v, time.Now(), time.Second)

	if c.Verdict != "SAFE" {
		t.Errorf("Expected SAFE, got %s", c.Verdict)
	}
	if c.FindingCount != 0 {
		t.Errorf("Expected 0 findings, got %d", c.FindingCount)
	}
	if findings != nil {
		t.Errorf("Expected nil findings, got %v", findings)
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"zero defaults", 0, 10},
		{"negative defaults", -5, 10},
		{"in range passes through", 25, 25},
		{"over cap clamps", 500, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clampLimit(tt.limit); got != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, got)
			}
		})
	}
}
