package synthesis

import (
	"reflect"
	"testing"

	"pgregory.net/rapid"

	"suppcheck/internal/engine"
	"suppcheck/internal/fallback"
)

var nameGen = rapid.StringMatching(`[A-Z][a-z]{2,10}`)

var severityGen = rapid.SampledFrom([]engine.Severity{
	engine.SeverityLow, engine.SeverityMedium, engine.SeverityHigh,
})

var graphFindingGen = rapid.Custom(func(t *rapid.T) engine.AggregatedFinding {
	return engine.AggregatedFinding{
		SupplementName: nameGen.Draw(t, "supplement"),
		DrugName:       nameGen.Draw(t, "drug"),
		Severity:       severityGen.Draw(t, "severity"),
		Primary: rapid.SampledFrom([]engine.PathwayID{
			engine.PathwayIdentity, engine.PathwayCascade,
			engine.PathwayDirect, engine.PathwaySimilarity,
		}).Draw(t, "pathway"),
	}
})

var outcomeGen = rapid.Custom(func(t *rapid.T) fallback.Outcome {
	state := rapid.SampledFrom([]fallback.State{
		fallback.StateWebAnswered, fallback.StateReasonAnswered, fallback.StateUnknown,
	}).Draw(t, "state")
	severity := engine.SeverityUnknown
	if state != fallback.StateUnknown {
		severity = severityGen.Draw(t, "fallbackSeverity")
	}
	return fallback.Outcome{
		Pair: fallback.Pair{
			Supplement: nameGen.Draw(t, "pairSupplement"),
			Medication: nameGen.Draw(t, "pairMedication"),
		},
		State:    state,
		Severity: severity,
	}
})

// Whatever severities the fallback stages claim, a graph finding must never
// appear after a fallback finding, and the whole list must be sorted under
// the one ordering function.
func TestGraphFindingsAlwaysPrecedeFallback(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		graphResult := &engine.Result{
			Findings: rapid.SliceOfN(graphFindingGen, 0, 8).Draw(t, "graphFindings"),
		}
		outcomes := rapid.SliceOfN(outcomeGen, 0, 8).Draw(t, "outcomes")

		res := Synthesize(graphResult, outcomes)

		if len(res.Findings) != len(graphResult.Findings)+len(outcomes) {
			t.Fatalf("expected %d findings, got %d",
				len(graphResult.Findings)+len(outcomes), len(res.Findings))
		}

		seenFallback := false
		for i, f := range res.Findings {
			if f.Tier != TierGraph {
				seenFallback = true
			} else if seenFallback {
				t.Fatalf("graph finding at position %d after a fallback finding", i)
			}
			if i > 0 && Less(f, res.Findings[i-1]) {
				t.Fatalf("findings %d and %d out of order", i-1, i)
			}
		}
	})
}

func TestSynthesizeDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		graphResult := &engine.Result{
			Findings: rapid.SliceOfN(graphFindingGen, 0, 8).Draw(t, "graphFindings"),
		}
		outcomes := rapid.SliceOfN(outcomeGen, 0, 8).Draw(t, "outcomes")

		first := Synthesize(graphResult, outcomes)
		second := Synthesize(graphResult, outcomes)

		if !reflect.DeepEqual(first.Findings, second.Findings) {
			t.Fatal("same inputs synthesized to different orderings")
		}
	})
}
