// Package verdict condenses a synthesized check result into one headline
// judgment: an overall label, a bounded risk score, and a confidence figure.
package verdict

import (
	"fmt"

	"suppcheck/internal/engine"
	"suppcheck/internal/synthesis"
)

// Overall verdict labels. A result with unknown pairs is never labelled
// SAFE: no data and confirmed absence are different answers.
const (
	OverallSafe    = "SAFE"
	OverallCaution = "CAUTION ADVISED"
)

// Verdict is the headline judgment for one check.
type Verdict struct {
	Overall      string
	RiskScore    int
	Confidence   float64
	PrimaryCause string
	Explanation  string
	UnknownCount int
}

// Service turns ranked findings into verdicts.
type Service struct {
	cfg Config
}

func NewService(cfg Config) *Service {
	return &Service{cfg: cfg}
}

// Assess reduces a synthesized result to a verdict. Findings arrive already
// ranked, so the first scored finding is the primary cause.
func (s *Service) Assess(res *synthesis.Result) Verdict {
	v := Verdict{Overall: OverallSafe, Confidence: s.cfg.BaseConfidence}
	if res == nil {
		return v
	}
	v.UnknownCount = res.UnknownCount()

	var warnings []string
	sources := make(map[string]bool)

	// 1. Risk score, weighted by severity and capped
	for _, f := range res.Findings {
		switch f.Severity {
		case engine.SeverityHigh:
			v.RiskScore += s.cfg.Weights.High
		case engine.SeverityMedium:
			v.RiskScore += s.cfg.Weights.Medium
		case engine.SeverityLow:
			v.RiskScore += s.cfg.Weights.Low
		default:
			continue
		}
		sources[f.Source] = true
		warnings = append(warnings, f.Warning)
		if v.PrimaryCause == "" {
			v.PrimaryCause = fmt.Sprintf("%s + %s", f.Supplement, f.Drug)
		}
	}
	if v.RiskScore > s.cfg.MaxRiskScore {
		v.RiskScore = s.cfg.MaxRiskScore
	}

	// 2. Overall label
	if len(warnings) > 0 || v.UnknownCount > 0 {
		v.Overall = OverallCaution
	}

	// 3. Confidence by evidence shape
	switch {
	case len(sources) == 0 && v.UnknownCount > 0:
		v.Confidence = s.cfg.SinglePathway
	case len(sources) == 1:
		v.Confidence = s.cfg.SinglePathway
	case len(sources) > 1:
		v.Confidence = s.cfg.MultiPathway
	}
	if res.Diagnostics.Degraded {
		v.Confidence -= s.cfg.DegradedPenalty
	}

	// 4. Explanation: first warning plus a count of the rest
	if len(warnings) > 0 {
		v.Explanation = warnings[0]
		if len(warnings) > 1 {
			v.Explanation += fmt.Sprintf(" (+%d more)", len(warnings)-1)
		}
	} else if v.UnknownCount > 0 {
		v.PrimaryCause = fmt.Sprintf("no data for %d combination(s)", v.UnknownCount)
		v.Explanation = "No interaction data could be found; absence of data is not evidence of safety."
	}

	return v
}
