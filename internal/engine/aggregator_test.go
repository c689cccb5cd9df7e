package engine

import (
	"strings"
	"testing"
)

func TestAggregate(t *testing.T) {
	supplements := []SupplementRef{
		{ID: "s1", Name: "Red Yeast Rice"},
		{ID: "s2", Name: "St Johns Wort"},
		{ID: "s3", Name: "Vitamin C"},
	}

	tests := []struct {
		name         string
		findings     []Finding
		wantCount    int
		wantSeverity Severity
		wantPrimary  PathwayID
		wantSafe     []string
	}{
		{
			name: "single finding passes through",
			findings: []Finding{
				{SupplementID: "s1", SupplementName: "Red Yeast Rice", DrugID: "d1", DrugName: "Lovastatin", Severity: SeverityHigh, Pathway: PathwayIdentity, Reason: "Contains equivalent drug - risk of double dosing"},
			},
			wantCount:    1,
			wantSeverity: SeverityHigh,
			wantPrimary:  PathwayIdentity,
			wantSafe:     []string{"St Johns Wort", "Vitamin C"},
		},
		{
			name: "same pair keeps max severity",
			findings: []Finding{
				{SupplementID: "s2", SupplementName: "St Johns Wort", DrugID: "d2", DrugName: "Sertraline", Severity: SeverityLow, Pathway: PathwaySimilarity, Reason: "Has similar effects - may cause additive or antagonistic effects (SSRIs)"},
				{SupplementID: "s2", SupplementName: "St Johns Wort", DrugID: "d2", DrugName: "Sertraline", Severity: SeverityHigh, Pathway: PathwayDirect, Reason: "Risk of serotonin syndrome when combined"},
			},
			wantCount:    1,
			wantSeverity: SeverityHigh,
			wantPrimary:  PathwayDirect,
			wantSafe:     []string{"Red Yeast Rice", "Vitamin C"},
		},
		{
			name: "severity tie goes to the lower pathway id",
			findings: []Finding{
				{SupplementID: "s1", SupplementName: "Red Yeast Rice", DrugID: "d1", DrugName: "Lovastatin", Severity: SeverityHigh, Pathway: PathwayDirect, Reason: "Documented interaction between supplement and medication"},
				{SupplementID: "s1", SupplementName: "Red Yeast Rice", DrugID: "d1", DrugName: "Lovastatin", Severity: SeverityHigh, Pathway: PathwayIdentity, Reason: "Contains equivalent drug - risk of double dosing"},
			},
			wantCount:    1,
			wantSeverity: SeverityHigh,
			wantPrimary:  PathwayIdentity,
			wantSafe:     []string{"St Johns Wort", "Vitamin C"},
		},
		{
			name:      "no findings leaves every supplement safe",
			findings:  nil,
			wantCount: 0,
			wantSafe:  []string{"Red Yeast Rice", "St Johns Wort", "Vitamin C"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aggregated, safe := Aggregate(tt.findings, supplements)

			if len(aggregated) != tt.wantCount {
				t.Fatalf("Expected %d aggregated findings, got %d", tt.wantCount, len(aggregated))
			}
			if tt.wantCount > 0 {
				if aggregated[0].Severity != tt.wantSeverity {
					t.Errorf("Expected severity %s, got %s", tt.wantSeverity, aggregated[0].Severity)
				}
				if aggregated[0].Primary != tt.wantPrimary {
					t.Errorf("Expected primary pathway %s, got %s", tt.wantPrimary, aggregated[0].Primary)
				}
			}

			if len(safe) != len(tt.wantSafe) {
				t.Fatalf("Expected %d safe supplements, got %d", len(tt.wantSafe), len(safe))
			}
			for i, name := range tt.wantSafe {
				if safe[i].Name != name {
					t.Errorf("Expected safe[%d] = %s, got %s", i, name, safe[i].Name)
				}
			}
		})
	}
}

func TestAggregate_WarningConcatenation(t *testing.T) {
	findings := []Finding{
		{SupplementID: "s2", SupplementName: "St Johns Wort", DrugID: "d2", DrugName: "Sertraline", Severity: SeverityLow, Pathway: PathwaySimilarity, Reason: "similarity reason"},
		{SupplementID: "s2", SupplementName: "St Johns Wort", DrugID: "d2", DrugName: "Sertraline", Severity: SeverityHigh, Pathway: PathwayDirect, Reason: "direct reason"},
		{SupplementID: "s2", SupplementName: "St Johns Wort", DrugID: "d2", DrugName: "Sertraline", Severity: SeverityHigh, Pathway: PathwayDirect, Reason: "direct reason"},
	}

	aggregated, _ := Aggregate(findings, nil)
	if len(aggregated) != 1 {
		t.Fatalf("Expected 1 aggregated finding, got %d", len(aggregated))
	}

	// Distinct reasons only, joined in pathway order: direct before similarity.
	want := "direct reason; similarity reason"
	if aggregated[0].Warning != want {
		t.Errorf("Expected warning %q, got %q", want, aggregated[0].Warning)
	}
	if strings.Count(aggregated[0].Warning, "direct reason") != 1 {
		t.Errorf("Duplicate reason was not deduplicated: %q", aggregated[0].Warning)
	}

	if len(aggregated[0].Pathways) != 2 {
		t.Fatalf("Expected 2 contributing pathways, got %d", len(aggregated[0].Pathways))
	}
	if aggregated[0].Pathways[0] != PathwayDirect || aggregated[0].Pathways[1] != PathwaySimilarity {
		t.Errorf("Expected pathways [direct, similarity], got %v", aggregated[0].Pathways)
	}
}

func TestAggregate_SortOrder(t *testing.T) {
	findings := []Finding{
		{SupplementID: "s3", SupplementName: "Zinc", DrugID: "d1", DrugName: "Lovastatin", Severity: SeverityLow, Pathway: PathwaySimilarity, Reason: "low"},
		{SupplementID: "s1", SupplementName: "Ginkgo", DrugID: "d2", DrugName: "Warfarin", Severity: SeverityHigh, Pathway: PathwayDirect, Reason: "high b"},
		{SupplementID: "s2", SupplementName: "Fish Oil", DrugID: "d2", DrugName: "Warfarin", Severity: SeverityHigh, Pathway: PathwayCascade, Reason: "high a"},
		{SupplementID: "s4", SupplementName: "Ashwagandha", DrugID: "d3", DrugName: "Sertraline", Severity: SeverityMedium, Pathway: PathwayCascade, Reason: "medium"},
	}

	aggregated, _ := Aggregate(findings, nil)
	if len(aggregated) != 4 {
		t.Fatalf("Expected 4 aggregated findings, got %d", len(aggregated))
	}

	wantOrder := []string{"Fish Oil", "Ginkgo", "Ashwagandha", "Zinc"}
	for i, name := range wantOrder {
		if aggregated[i].SupplementName != name {
			t.Errorf("Position %d: expected %s, got %s", i, name, aggregated[i].SupplementName)
		}
	}
}

func TestAggregate_SeparateDrugsStaySeparate(t *testing.T) {
	// Same supplement, two different drugs: both findings survive.
	findings := []Finding{
		{SupplementID: "s1", SupplementName: "Ginkgo", DrugID: "d1", DrugName: "Warfarin", Severity: SeverityHigh, Pathway: PathwayDirect, Reason: "bleeding risk"},
		{SupplementID: "s1", SupplementName: "Ginkgo", DrugID: "d2", DrugName: "Aspirin", Severity: SeverityMedium, Pathway: PathwayCascade, Reason: "class overlap"},
	}

	aggregated, safe := Aggregate(findings, []SupplementRef{{ID: "s1", Name: "Ginkgo"}})
	if len(aggregated) != 2 {
		t.Fatalf("Expected 2 aggregated findings, got %d", len(aggregated))
	}
	if len(safe) != 0 {
		t.Errorf("Expected no safe supplements, got %d", len(safe))
	}
}
