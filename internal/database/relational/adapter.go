package relational

import (
	"strings"
	"time"

	"suppcheck/internal/synthesis"
	"suppcheck/internal/verdict"
)

// =============================================================================
// ADAPTER FUNCTIONS
// =============================================================================

// NewConsultation converts one finished check into storable rows. The
// sessionID should be provided by the caller.
func NewConsultation(sessionID string, supplements, medications []string, res *synthesis.Result, v verdict.Verdict, requestedAt time.Time, duration time.Duration) (Consultation, []ConsultationFinding) {
	c := Consultation{
		SessionID:   sessionID,
		RequestedAt: requestedAt,
		Supplements: strings.Join(supplements, ", "),
		Medications: strings.Join(medications, ", "),

		Verdict:      v.Overall,
		RiskScore:    int32(v.RiskScore),
		Confidence:   v.Confidence,
		PrimaryCause: v.PrimaryCause,
		Explanation:  v.Explanation,

		UnknownCount: int32(v.UnknownCount),
		DurationMS:   duration.Milliseconds(),
	}

	if res == nil {
		return c, nil
	}

	c.FindingCount = int32(len(res.Findings))
	c.SafeCount = int32(len(res.Safe))
	c.Degraded = res.Diagnostics.Degraded
	c.GraphRows = int32(res.Diagnostics.GraphRows)

	// Convert ranked findings, keeping their rank as seq
	findings := make([]ConsultationFinding, 0, len(res.Findings))
	for i, f := range res.Findings {
		findings = append(findings, ConsultationFinding{
			Seq:        int32(i + 1),
			Supplement: f.Supplement,
			Drug:       f.Drug,
			Severity:   f.Severity.String(),
			Tier:       f.Tier.String(),
			Source:     f.Source,
			Warning:    f.Warning,
		})
	}

	return c, findings
}
