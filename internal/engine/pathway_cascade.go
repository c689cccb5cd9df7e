package engine

import (
	"context"
	"fmt"
	"sort"
)

// CascadePathway follows ingredient equivalences of any type into drug
// classes: supplement CONTAINS ingredient, ingredient EQUIVALENT_TO drug,
// drug BELONGS_TO category, and an active-medication drug BELONGS_TO the
// same category. Class overlap is MEDIUM; landing on the prescribed drug
// itself is HIGH.
type CascadePathway struct {
	store GraphStore
}

func NewCascadePathway(store GraphStore) *CascadePathway {
	return &CascadePathway{store: store}
}

func (p *CascadePathway) ID() PathwayID {
	return PathwayCascade
}

func (p *CascadePathway) Name() string {
	return "Cascading Category"
}

func (p *CascadePathway) Evaluate(ctx context.Context, qc *QueryContext) ([]Finding, error) {
	ingredientIDs := qc.IngredientIDs()
	if len(ingredientIDs) == 0 {
		return nil, nil
	}

	eqRows, err := p.store.FindEquivalences(ctx, ingredientIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query ingredient equivalences: %w", err)
	}
	if len(eqRows) == 0 {
		return nil, nil
	}

	// One membership query covers both ends of the bridge: the drugs reached
	// through equivalence chains and the drugs the user actually takes.
	drugIDs := qc.DrugIDs()
	seen := make(map[string]bool, len(drugIDs))
	for _, id := range drugIDs {
		seen[id] = true
	}
	for _, row := range eqRows {
		if !seen[row.DrugID] {
			seen[row.DrugID] = true
			drugIDs = append(drugIDs, row.DrugID)
		}
	}

	members, err := p.store.FindCategoryMembership(ctx, drugIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query category membership: %w", err)
	}

	categoriesByDrug := make(map[string][]EntityRef)
	activeByCategory := make(map[string][]EntityRef)
	for _, m := range members {
		categoriesByDrug[m.DrugID] = append(categoriesByDrug[m.DrugID], EntityRef{ID: m.CategoryID, Name: m.CategoryName})
		if _, ok := qc.ActiveDrug(m.DrugID); ok {
			activeByCategory[m.CategoryID] = append(activeByCategory[m.CategoryID], EntityRef{ID: m.DrugID, Name: m.DrugName})
		}
	}

	// Keep the strongest chain per (supplement, active drug) pair so a
	// same-drug hit is never shadowed by a class-overlap hit.
	type pairKey struct {
		suppID string
		drugID string
	}
	best := make(map[pairKey]Finding)
	for _, row := range eqRows {
		for _, cat := range categoriesByDrug[row.DrugID] {
			for _, active := range activeByCategory[cat.ID] {
				severity := SeverityMedium
				reason := fmt.Sprintf("Contains an ingredient in the same drug class (%s) - duplication risk", cat.Name)
				if active.ID == row.DrugID {
					severity = SeverityHigh
					reason = fmt.Sprintf("Contains an ingredient linked to %s itself - risk of double dosing", active.Name)
				}
				for _, supp := range qc.SupplementsContaining(row.IngredientID) {
					k := pairKey{suppID: supp.ID, drugID: active.ID}
					if cur, ok := best[k]; ok && cur.Severity >= severity {
						continue
					}
					best[k] = Finding{
						SupplementID:   supp.ID,
						SupplementName: supp.Name,
						DrugID:         active.ID,
						DrugName:       active.Name,
						Severity:       severity,
						Pathway:        PathwayCascade,
						Reason:         reason,
					}
				}
			}
		}
	}

	findings := make([]Finding, 0, len(best))
	for _, f := range best {
		findings = append(findings, f)
	}
	sort.Slice(findings, func(i, j int) bool {
		if findings[i].SupplementName != findings[j].SupplementName {
			return findings[i].SupplementName < findings[j].SupplementName
		}
		return findings[i].DrugName < findings[j].DrugName
	})
	return findings, nil
}
