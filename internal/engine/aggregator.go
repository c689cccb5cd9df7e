package engine

import (
	"sort"
	"strings"
)

// Aggregate merges raw pathway findings into one record per
// (supplement, drug) pair and reports which candidate supplements ended up
// with no findings at all.
//
// Severity is the maximum across contributors. On a severity tie the lower
// pathway id becomes the primary attribution, so the most specific evidence
// names the finding. Distinct reasons are concatenated in pathway order.
func Aggregate(findings []Finding, supplements []SupplementRef) ([]AggregatedFinding, []EntityRef) {
	type pairKey struct {
		suppID string
		drugID string
	}

	buckets := make(map[pairKey][]Finding)
	var order []pairKey
	for _, f := range findings {
		k := pairKey{suppID: f.SupplementID, drugID: f.DrugID}
		if _, ok := buckets[k]; !ok {
			order = append(order, k)
		}
		buckets[k] = append(buckets[k], f)
	}

	flagged := make(map[string]bool)
	aggregated := make([]AggregatedFinding, 0, len(buckets))
	for _, k := range order {
		group := buckets[k]
		sort.SliceStable(group, func(i, j int) bool {
			if group[i].Severity != group[j].Severity {
				return group[i].Severity > group[j].Severity
			}
			return group[i].Pathway < group[j].Pathway
		})
		top := group[0]

		// Reasons and contributor list read in pathway order regardless of
		// which contributor won the severity contest.
		byPathway := append([]Finding(nil), group...)
		sort.SliceStable(byPathway, func(i, j int) bool {
			return byPathway[i].Pathway < byPathway[j].Pathway
		})

		var pathways []PathwayID
		var reasons []string
		seenPathway := make(map[PathwayID]bool)
		seenReason := make(map[string]bool)
		for _, f := range byPathway {
			if !seenPathway[f.Pathway] {
				seenPathway[f.Pathway] = true
				pathways = append(pathways, f.Pathway)
			}
			if f.Reason != "" && !seenReason[f.Reason] {
				seenReason[f.Reason] = true
				reasons = append(reasons, f.Reason)
			}
		}

		aggregated = append(aggregated, AggregatedFinding{
			SupplementID:   top.SupplementID,
			SupplementName: top.SupplementName,
			DrugID:         top.DrugID,
			DrugName:       top.DrugName,
			Severity:       top.Severity,
			Primary:        top.Pathway,
			Pathways:       pathways,
			Warning:        strings.Join(reasons, "; "),
		})
		flagged[top.SupplementID] = true
	}

	sort.SliceStable(aggregated, func(i, j int) bool {
		if aggregated[i].Severity != aggregated[j].Severity {
			return aggregated[i].Severity > aggregated[j].Severity
		}
		if aggregated[i].SupplementName != aggregated[j].SupplementName {
			return aggregated[i].SupplementName < aggregated[j].SupplementName
		}
		return aggregated[i].DrugName < aggregated[j].DrugName
	})

	var safe []EntityRef
	for _, s := range supplements {
		if !flagged[s.ID] {
			safe = append(safe, EntityRef{ID: s.ID, Name: s.Name})
		}
	}
	return aggregated, safe
}
