package engine

import (
	"context"
	"fmt"
)

// reasonSimilarEffects is the patient-facing wording for similarity hits.
const reasonSimilarEffects = "Has similar effects - may cause additive or antagonistic effects"

// SimilarityPathway bridges supplements to drug classes through
// HAS_SIMILAR_EFFECT_TO edges, then intersects those classes with the
// active-medication drugs. Severity follows the edge's stated confidence.
type SimilarityPathway struct {
	store GraphStore
}

func NewSimilarityPathway(store GraphStore) *SimilarityPathway {
	return &SimilarityPathway{store: store}
}

func (p *SimilarityPathway) ID() PathwayID {
	return PathwaySimilarity
}

func (p *SimilarityPathway) Name() string {
	return "Category Similarity"
}

func (p *SimilarityPathway) Evaluate(ctx context.Context, qc *QueryContext) ([]Finding, error) {
	suppIDs := qc.SupplementIDs()
	if len(suppIDs) == 0 {
		return nil, nil
	}

	links, err := p.store.FindCategoryLinks(ctx, suppIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar-effect links: %w", err)
	}
	if len(links) == 0 {
		return nil, nil
	}

	members, err := p.store.FindCategoryMembership(ctx, qc.DrugIDs())
	if err != nil {
		return nil, fmt.Errorf("failed to query category membership: %w", err)
	}

	drugsByCategory := make(map[string][]EntityRef)
	for _, m := range members {
		drugsByCategory[m.CategoryID] = append(drugsByCategory[m.CategoryID], EntityRef{ID: m.DrugID, Name: m.DrugName})
	}

	var findings []Finding
	for _, link := range links {
		for _, drug := range drugsByCategory[link.CategoryID] {
			findings = append(findings, Finding{
				SupplementID:   link.SupplementID,
				SupplementName: link.SupplementName,
				DrugID:         drug.ID,
				DrugName:       drug.Name,
				Severity:       severityFromConfidence(link.Confidence),
				Pathway:        PathwaySimilarity,
				Reason:         similarityReason(link),
			})
		}
	}
	return findings, nil
}

func similarityReason(link CategoryLinkRow) string {
	reason := fmt.Sprintf("%s (%s)", reasonSimilarEffects, link.CategoryName)
	if link.Notes != "" {
		reason = reason + ". " + link.Notes
	}
	if link.Confidence == "" {
		reason = reason + " (confidence unstated)"
	}
	return reason
}
