package output

import (
	"context"
	"errors"
	"strings"
	"testing"

	"suppcheck/internal/database/rag"
	"suppcheck/internal/engine"
	"suppcheck/internal/fallback"
	"suppcheck/internal/verdict"
)

type stubNormalizer struct {
	canonical map[string]string // lowercased mention -> canonical name
	err       error
}

func (s *stubNormalizer) Normalize(ctx context.Context, text string) (rag.Match, error) {
	if s.err != nil {
		return rag.Match{}, s.err
	}
	if c, ok := s.canonical[strings.ToLower(text)]; ok {
		return rag.Match{Kind: "supplement", CanonicalName: c, Confidence: rag.ConfidenceHigh}, nil
	}
	return rag.Match{Confidence: rag.ConfidenceNotFound}, nil
}

type stubChecker struct {
	resolvedSupps map[string]engine.SupplementRef // lowercased name -> ref
	resolvedMeds  map[string]engine.MedicationRef
	result        *engine.Result
	buildErr      error
	checkErr      error

	gotSupps []string
	gotMeds  []string
}

func (s *stubChecker) BuildContext(ctx context.Context, supplementNames, medicationNames []string) (*engine.QueryContext, *engine.UnresolvedInput, error) {
	if s.buildErr != nil {
		return nil, nil, s.buildErr
	}
	s.gotSupps = supplementNames
	s.gotMeds = medicationNames

	var supps []engine.SupplementRef
	var meds []engine.MedicationRef
	unresolved := &engine.UnresolvedInput{}
	for _, n := range supplementNames {
		if ref, ok := s.resolvedSupps[strings.ToLower(n)]; ok {
			supps = append(supps, ref)
		} else {
			unresolved.Supplements = append(unresolved.Supplements, n)
		}
	}
	for _, n := range medicationNames {
		if ref, ok := s.resolvedMeds[strings.ToLower(n)]; ok {
			meds = append(meds, ref)
		} else {
			unresolved.Medications = append(unresolved.Medications, n)
		}
	}
	return engine.NewQueryContext(supps, meds), unresolved, nil
}

func (s *stubChecker) Check(ctx context.Context, qc *engine.QueryContext) (*engine.Result, error) {
	if s.checkErr != nil {
		return nil, s.checkErr
	}
	if s.result != nil {
		return s.result, nil
	}
	return &engine.Result{}, nil
}

type stubFallback struct {
	gotPairs []fallback.Pair
}

func (s *stubFallback) Resolve(ctx context.Context, pairs []fallback.Pair) []fallback.Outcome {
	s.gotPairs = pairs
	outcomes := make([]fallback.Outcome, len(pairs))
	for i, p := range pairs {
		outcomes[i] = fallback.Outcome{
			Pair:     p,
			State:    fallback.StateWebAnswered,
			Severity: engine.SeverityMedium,
			Answer:   "May interact; monitor closely.",
		}
	}
	return outcomes
}

func TestRunCheckFullPipeline(t *testing.T) {
	norm := &stubNormalizer{canonical: map[string]string{
		"st johns wart": "St Johns Wort", // misspelled on purpose
	}}
	chk := &stubChecker{
		resolvedSupps: map[string]engine.SupplementRef{
			"st johns wort": {ID: "supp-1", Name: "St Johns Wort"},
		},
		resolvedMeds: map[string]engine.MedicationRef{
			"sertraline": {ID: "med-1", Name: "Sertraline", Drugs: []engine.EntityRef{{ID: "drug-1", Name: "Sertraline"}}},
		},
		result: &engine.Result{
			Findings: []engine.AggregatedFinding{{
				SupplementID:   "supp-1",
				SupplementName: "St Johns Wort",
				DrugID:         "drug-1",
				DrugName:       "Sertraline",
				Severity:       engine.SeverityHigh,
				Primary:        engine.PathwayDirect,
				Warning:        "Risk of serotonin syndrome.",
			}},
			Diagnostics: engine.Diagnostics{GraphRows: 1},
		},
	}
	fb := &stubFallback{}
	va := verdict.NewService(verdict.DefaultConfig())

	payload, err := RunCheck(context.Background(), norm, chk, fb, va, CheckRequest{
		SessionID:   "session-1",
		Supplements: []string{"st johns wart"},
		Medications: []string{"Sertraline"},
	})
	if err != nil {
		t.Fatalf("RunCheck failed: %v", err)
	}

	if payload.Supplements[0] != "St Johns Wort" {
		t.Errorf("Expected normalized name St Johns Wort, got %s", payload.Supplements[0])
	}
	if chk.gotSupps[0] != "St Johns Wort" {
		t.Errorf("Expected checker to receive canonical name, got %s", chk.gotSupps[0])
	}
	if len(fb.gotPairs) != 0 {
		t.Errorf("Expected no fallback pairs when everything resolved, got %d", len(fb.gotPairs))
	}
	if len(payload.Result.Findings) != 1 {
		t.Fatalf("Expected 1 finding, got %d", len(payload.Result.Findings))
	}
	if payload.Verdict.Overall != "CAUTION ADVISED" {
		t.Errorf("Expected CAUTION ADVISED, got %s", payload.Verdict.Overall)
	}
	if payload.Verdict.RiskScore != 40 {
		t.Errorf("Expected risk score 40, got %d", payload.Verdict.RiskScore)
	}
	if payload.Consultation.SessionID != "session-1" {
		t.Errorf("Expected consultation session-1, got %s", payload.Consultation.SessionID)
	}
	if len(payload.FindingRows) != 1 {
		t.Errorf("Expected 1 history row, got %d", len(payload.FindingRows))
	}
}

func TestRunCheckRoutesUnresolvedToFallback(t *testing.T) {
	chk := &stubChecker{
		resolvedSupps: map[string]engine.SupplementRef{
			"ginkgo": {ID: "supp-1", Name: "Ginkgo"},
		},
		resolvedMeds: map[string]engine.MedicationRef{
			"warfarin": {ID: "med-1", Name: "Warfarin", Drugs: []engine.EntityRef{{ID: "drug-1", Name: "Warfarin"}}},
		},
	}
	fb := &stubFallback{}
	va := verdict.NewService(verdict.DefaultConfig())

	payload, err := RunCheck(context.Background(), nil, chk, fb, va, CheckRequest{
		SessionID:   "session-2",
		Supplements: []string{"Ginkgo", "Kratom"},
		Medications: []string{"Warfarin", "Eliquis"},
	})
	if err != nil {
		t.Fatalf("RunCheck failed: %v", err)
	}

	// Kratom is unresolved: paired with both medications. Eliquis is
	// unresolved: paired with the resolved Ginkgo only.
	want := []fallback.Pair{
		{Supplement: "Kratom", Medication: "Warfarin"},
		{Supplement: "Kratom", Medication: "Eliquis"},
		{Supplement: "Ginkgo", Medication: "Eliquis"},
	}
	if len(fb.gotPairs) != len(want) {
		t.Fatalf("Expected %d fallback pairs, got %d", len(want), len(fb.gotPairs))
	}
	for i, p := range want {
		if fb.gotPairs[i] != p {
			t.Errorf("Expected pair %d to be %v, got %v", i, p, fb.gotPairs[i])
		}
	}

	if len(payload.Result.Findings) != 3 {
		t.Errorf("Expected 3 synthesized findings, got %d", len(payload.Result.Findings))
	}
	if payload.Verdict.Overall != "CAUTION ADVISED" {
		t.Errorf("Expected CAUTION ADVISED, got %s", payload.Verdict.Overall)
	}
}

func TestRunCheckBuildContextError(t *testing.T) {
	chk := &stubChecker{buildErr: errors.New("graph unreachable")}
	va := verdict.NewService(verdict.DefaultConfig())

	_, err := RunCheck(context.Background(), nil, chk, nil, va, CheckRequest{
		Supplements: []string{"Ginkgo"},
		Medications: []string{"Warfarin"},
	})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !strings.Contains(err.Error(), "build context") {
		t.Errorf("Expected build context error, got %v", err)
	}
}

func TestRunCheckCheckError(t *testing.T) {
	chk := &stubChecker{
		resolvedSupps: map[string]engine.SupplementRef{"ginkgo": {ID: "supp-1", Name: "Ginkgo"}},
		resolvedMeds:  map[string]engine.MedicationRef{"warfarin": {ID: "med-1", Name: "Warfarin"}},
		checkErr:      errors.New("graph unavailable"),
	}
	va := verdict.NewService(verdict.DefaultConfig())

	_, err := RunCheck(context.Background(), nil, chk, nil, va, CheckRequest{
		Supplements: []string{"Ginkgo"},
		Medications: []string{"Warfarin"},
	})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !strings.Contains(err.Error(), "graph check") {
		t.Errorf("Expected graph check error, got %v", err)
	}
}

func TestNormalizeMentions(t *testing.T) {
	tests := []struct {
		name string
		norm EntityNormalizer
		in   []string
		want []string
	}{
		{
			name: "nil normalizer passes through",
			norm: nil,
			in:   []string{"ginko"},
			want: []string{"ginko"},
		},
		{
			name: "match replaces spelling",
			norm: &stubNormalizer{canonical: map[string]string{"ginko": "Ginkgo"}},
			in:   []string{"ginko", "Zinc"},
			want: []string{"Ginkgo", "Zinc"},
		},
		{
			name: "error keeps name as typed",
			norm: &stubNormalizer{err: errors.New("llm down")},
			in:   []string{"ginko"},
			want: []string{"ginko"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeMentions(context.Background(), tt.norm, tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %d names, got %d", len(tt.want), len(got))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("Expected %s, got %s", tt.want[i], got[i])
				}
			}
		})
	}
}

func TestFallbackPairsEmptyWhenResolved(t *testing.T) {
	if pairs := fallbackPairs(nil, []string{"Ginkgo"}, []string{"Warfarin"}); pairs != nil {
		t.Errorf("Expected no pairs for nil unresolved, got %v", pairs)
	}
	if pairs := fallbackPairs(&engine.UnresolvedInput{}, []string{"Ginkgo"}, []string{"Warfarin"}); pairs != nil {
		t.Errorf("Expected no pairs for empty unresolved, got %v", pairs)
	}
}
