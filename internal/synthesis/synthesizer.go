// Package synthesis merges graph-sourced findings with fallback outcomes
// into one ranked list under a single confidence vocabulary. Curated graph
// data is categorically preferred: a graph finding precedes every fallback
// finding no matter what severity label the fallback produced.
package synthesis

import (
	"sort"

	"suppcheck/internal/engine"
	"suppcheck/internal/fallback"
)

// Tier is the trust level of a finding's source, orthogonal to severity.
// Values are ordered so the top tier sorts first.
type Tier int

const (
	TierNone Tier = iota
	TierLow
	TierMedium
	TierGraph
)

func (t Tier) String() string {
	switch t {
	case TierGraph:
		return "GRAPH-HIGH"
	case TierMedium:
		return "MEDIUM"
	case TierLow:
		return "LOW"
	default:
		return "NONE"
	}
}

// TierForState maps a terminal fallback state to its confidence tier.
func TierForState(s fallback.State) Tier {
	switch s {
	case fallback.StateWebAnswered:
		return TierMedium
	case fallback.StateReasonAnswered:
		return TierLow
	default:
		return TierNone
	}
}

// RankedFinding is one record of the outward contract: supplement, drug or
// medication, severity, confidence tier, source attribution, and a
// human-readable warning.
type RankedFinding struct {
	Supplement string
	Drug       string
	Severity   engine.Severity
	Tier       Tier
	Source     string // pathway name or fallback stage
	Warning    string
}

// Diagnostics carries the run's health signals through to the output layers.
type Diagnostics struct {
	Timings   []engine.PathwayTiming
	Degraded  bool
	GraphRows int
	Stages    map[string]int // terminal fallback state -> pair count
}

// Result is the synthesized answer handed to output, history, and the MCP
// surface.
type Result struct {
	Findings    []RankedFinding
	Safe        []engine.SafeRecord
	Diagnostics Diagnostics
}

// UnknownCount reports how many pairs exhausted the fallback chain with no
// data. These are surfaced to the user, never dropped.
func (r *Result) UnknownCount() int {
	n := 0
	for _, f := range r.Findings {
		if f.Tier == TierNone {
			n++
		}
	}
	return n
}

// Less is the single total ordering over synthesized findings: confidence
// tier first, severity second, names last for determinism. Every ranking
// decision in the module goes through this function.
func Less(a, b RankedFinding) bool {
	if a.Tier != b.Tier {
		return a.Tier > b.Tier
	}
	if a.Severity != b.Severity {
		return a.Severity > b.Severity
	}
	if a.Supplement != b.Supplement {
		return a.Supplement < b.Supplement
	}
	return a.Drug < b.Drug
}

// Synthesize merges aggregated graph findings with fallback outcomes into
// one ordered list. Safe records and pathway diagnostics pass through;
// fallback stage counts are tallied here.
func Synthesize(graphResult *engine.Result, outcomes []fallback.Outcome) *Result {
	res := &Result{
		Diagnostics: Diagnostics{Stages: make(map[string]int)},
	}

	if graphResult != nil {
		for _, f := range graphResult.Findings {
			res.Findings = append(res.Findings, RankedFinding{
				Supplement: f.SupplementName,
				Drug:       f.DrugName,
				Severity:   f.Severity,
				Tier:       TierGraph,
				Source:     f.Primary.String(),
				Warning:    f.Warning,
			})
		}
		res.Safe = graphResult.Safe
		res.Diagnostics.Timings = graphResult.Diagnostics.Timings
		res.Diagnostics.Degraded = graphResult.Diagnostics.Degraded
		res.Diagnostics.GraphRows = graphResult.Diagnostics.GraphRows
	}

	for _, out := range outcomes {
		res.Diagnostics.Stages[out.State.String()]++
		res.Findings = append(res.Findings, RankedFinding{
			Supplement: out.Pair.Supplement,
			Drug:       out.Pair.Medication,
			Severity:   out.Severity,
			Tier:       TierForState(out.State),
			Source:     out.State.String(),
			Warning:    out.Answer,
		})
	}

	sort.SliceStable(res.Findings, func(i, j int) bool {
		return Less(res.Findings[i], res.Findings[j])
	})

	return res
}
