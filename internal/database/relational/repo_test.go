package relational_test

import (
	"context"
	"testing"
	"time"

	"suppcheck/internal/database/relational"
)

// TestRepoRoundTrip tests end-to-end: insert -> query against in-memory DuckDB.
func TestRepoRoundTrip(t *testing.T) {
	ctx := context.Background()

	client, err := relational.OpenMemory()
	if err != nil {
		t.Fatalf("failed to create duckdb client: %v", err)
	}
	defer client.Close()

	repo := relational.NewRepo(client.DB())
	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	t.Log("✓ Schema migrated successfully")

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	checks := []struct {
		session  string
		at       time.Time
		verdict  string
		risk     int32
		findings []relational.ConsultationFinding
	}{
		{
			session: "session-a", at: base, verdict: "CAUTION ADVISED", risk: 60,
			findings: []relational.ConsultationFinding{
				{Supplement: "St Johns Wort", Drug: "Sertraline", Severity: "HIGH", Tier: "GRAPH-HIGH", Source: "direct", Warning: "Risk of serotonin syndrome."},
				{Supplement: "Ginkgo", Drug: "Warfarin", Severity: "MEDIUM", Tier: "GRAPH-HIGH", Source: "similarity", Warning: "May increase bleeding risk."},
			},
		},
		{
			session: "session-a", at: base.Add(time.Minute), verdict: "SAFE", risk: 0,
			findings: nil,
		},
		{
			session: "session-b", at: base.Add(2 * time.Minute), verdict: "CAUTION ADVISED", risk: 20,
			findings: []relational.ConsultationFinding{
				{Supplement: "Valerian Root", Drug: "Ambien", Severity: "MEDIUM", Tier: "MEDIUM", Source: "web_answered", Warning: "May compound sedation."},
			},
		},
	}

	ids := make([]int64, 0, len(checks))
	for i, check := range checks {
		c := relational.Consultation{
			ConsultationID: int64(i + 1),
			SessionID:      check.session,
			RequestedAt:    check.at,
			Supplements:    "test supplements",
			Medications:    "test medications",
			Verdict:        check.verdict,
			RiskScore:      check.risk,
			Confidence:     0.8,
			FindingCount:   int32(len(check.findings)),
			DurationMS:     42,
		}
		res, err := repo.InsertConsultation(ctx, c, check.findings)
		if err != nil {
			t.Fatalf("failed to insert consultation %d: %v", i+1, err)
		}
		ids = append(ids, res.ConsultationID)
	}
	t.Logf("✓ Inserted %d consultations", len(ids))

	// Recent across all sessions, newest first
	recent, err := repo.RecentConsultations(ctx, "", 10)
	if err != nil {
		t.Fatalf("RecentConsultations failed: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("Expected 3 consultations, got %d", len(recent))
	}
	if recent[0].SessionID != "session-b" {
		t.Errorf("Expected newest first (session-b), got %s", recent[0].SessionID)
	}
	if recent[2].Verdict != "CAUTION ADVISED" {
		t.Errorf("Expected oldest to be CAUTION ADVISED, got %s", recent[2].Verdict)
	}

	// Session filter
	bySession, err := repo.RecentConsultations(ctx, "session-a", 10)
	if err != nil {
		t.Fatalf("RecentConsultations with session failed: %v", err)
	}
	if len(bySession) != 2 {
		t.Errorf("Expected 2 consultations for session-a, got %d", len(bySession))
	}

	// Findings in rank order
	findings, err := repo.FindingsByConsultation(ctx, ids[0])
	if err != nil {
		t.Fatalf("FindingsByConsultation failed: %v", err)
	}
	if len(findings) != 2 {
		t.Fatalf("Expected 2 findings, got %d", len(findings))
	}
	if findings[0].Seq != 1 || findings[0].Supplement != "St Johns Wort" {
		t.Errorf("Expected St Johns Wort at seq 1, got %s at seq %d", findings[0].Supplement, findings[0].Seq)
	}
	if findings[1].Warning != "May increase bleeding risk." {
		t.Errorf("Expected warning to round-trip, got %q", findings[1].Warning)
	}

	// Trend is oldest first for charting
	trend, err := repo.SeverityTrend(ctx, 10)
	if err != nil {
		t.Fatalf("SeverityTrend failed: %v", err)
	}
	if len(trend) != 3 {
		t.Fatalf("Expected 3 trend points, got %d", len(trend))
	}
	if trend[0].RiskScore != 60 || trend[2].RiskScore != 20 {
		t.Errorf("Expected oldest-first trend [60 0 20], got [%d %d %d]",
			trend[0].RiskScore, trend[1].RiskScore, trend[2].RiskScore)
	}

	// Severity aggregation
	counts, err := repo.CountBySeverity(ctx)
	if err != nil {
		t.Fatalf("CountBySeverity failed: %v", err)
	}
	if counts["HIGH"] != 1 {
		t.Errorf("Expected 1 HIGH finding, got %d", counts["HIGH"])
	}
	if counts["MEDIUM"] != 2 {
		t.Errorf("Expected 2 MEDIUM findings, got %d", counts["MEDIUM"])
	}

	// Latest overall
	latest, err := repo.LatestConsultation(ctx, "")
	if err != nil {
		t.Fatalf("LatestConsultation failed: %v", err)
	}
	if latest.SessionID != "session-b" {
		t.Errorf("Expected latest from session-b, got %s", latest.SessionID)
	}
	t.Log("✓ Queries verified")
}

func TestRepoAssignsIDs(t *testing.T) {
	ctx := context.Background()

	client, err := relational.OpenMemory()
	if err != nil {
		t.Fatalf("failed to create duckdb client: %v", err)
	}
	defer client.Close()

	repo := relational.NewRepo(client.DB())
	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	res, err := repo.InsertConsultation(ctx, relational.Consultation{
		SessionID:   "session-x",
		Supplements: "Zinc",
		Medications: "Aspirin",
		Verdict:     "SAFE",
		Confidence:  0.9,
	}, nil)
	if err != nil {
		t.Fatalf("failed to insert consultation: %v", err)
	}
	if res.ConsultationID == 0 {
		t.Error("Expected a generated consultation ID, got 0")
	}
}
