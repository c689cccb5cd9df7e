package engine

import (
	"context"
	"fmt"
	"strings"
)

// reasonDoubleDosing is the patient-facing wording for identity hits.
const reasonDoubleDosing = "Contains equivalent drug - risk of double dosing"

// IdentityPathway flags supplements whose active ingredient is chemically
// identical to a drug the user already takes. Only "identical" equivalence
// edges count; "related" chains belong to the cascade pathway.
type IdentityPathway struct {
	store GraphStore
}

func NewIdentityPathway(store GraphStore) *IdentityPathway {
	return &IdentityPathway{store: store}
}

func (p *IdentityPathway) ID() PathwayID {
	return PathwayIdentity
}

func (p *IdentityPathway) Name() string {
	return "Identity Equivalence"
}

func (p *IdentityPathway) Evaluate(ctx context.Context, qc *QueryContext) ([]Finding, error) {
	ingredientIDs := qc.IngredientIDs()
	if len(ingredientIDs) == 0 {
		return nil, nil
	}

	rows, err := p.store.FindEquivalences(ctx, ingredientIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query ingredient equivalences: %w", err)
	}

	var findings []Finding
	for _, row := range rows {
		if !strings.EqualFold(row.EquivalenceType, EquivalenceIdentical) {
			continue
		}
		drug, ok := qc.ActiveDrug(row.DrugID)
		if !ok {
			continue
		}
		reason := reasonDoubleDosing
		if row.Notes != "" {
			reason = reason + ". " + row.Notes
		}
		for _, supp := range qc.SupplementsContaining(row.IngredientID) {
			findings = append(findings, Finding{
				SupplementID:   supp.ID,
				SupplementName: supp.Name,
				DrugID:         drug.ID,
				DrugName:       drug.Name,
				Severity:       SeverityHigh,
				Pathway:        PathwayIdentity,
				Reason:         reason,
			})
		}
	}
	return findings, nil
}
