package engine

import (
	"context"
	"fmt"
)

// reasonDocumented is the wording used when an interaction edge carries no
// description of its own.
const reasonDocumented = "Documented interaction between supplement and medication"

// DirectPathway surfaces explicitly recorded INTERACTS_WITH edges between a
// candidate supplement and an active medication. These are curated clinical
// facts, so every hit is HIGH.
type DirectPathway struct {
	store GraphStore
}

func NewDirectPathway(store GraphStore) *DirectPathway {
	return &DirectPathway{store: store}
}

func (p *DirectPathway) ID() PathwayID {
	return PathwayDirect
}

func (p *DirectPathway) Name() string {
	return "Direct Interaction"
}

func (p *DirectPathway) Evaluate(ctx context.Context, qc *QueryContext) ([]Finding, error) {
	suppIDs := qc.SupplementIDs()
	medIDs := qc.MedicationIDs()
	if len(suppIDs) == 0 || len(medIDs) == 0 {
		return nil, nil
	}

	rows, err := p.store.FindDirectInteractions(ctx, suppIDs, medIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query documented interactions: %w", err)
	}

	var findings []Finding
	for _, row := range rows {
		drug, ok := qc.ActiveDrug(row.DrugID)
		if !ok {
			continue
		}
		reason := row.Description
		if reason == "" {
			reason = reasonDocumented
		}
		findings = append(findings, Finding{
			SupplementID:   row.SupplementID,
			SupplementName: row.SupplementName,
			DrugID:         drug.ID,
			DrugName:       drug.Name,
			Severity:       SeverityHigh,
			Pathway:        PathwayDirect,
			Reason:         reason,
		})
	}
	return findings, nil
}
