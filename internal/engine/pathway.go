package engine

import (
	"context"
	"strings"
)

// Pathway defines the interface for all interaction evaluators. Each pathway
// is one traversal strategy over the knowledge graph; all four run against
// the same QueryContext snapshot and never mutate it.
type Pathway interface {
	ID() PathwayID
	Name() string
	Evaluate(ctx context.Context, qc *QueryContext) ([]Finding, error)
}

// severityFromConfidence maps a similarity edge's stated confidence to a
// severity. The mapping is total: anything other than high or medium,
// including an absent value, lands on LOW so a sparsely annotated edge can
// never silence a finding.
func severityFromConfidence(confidence string) Severity {
	switch strings.ToLower(strings.TrimSpace(confidence)) {
	case "high":
		return SeverityHigh
	case "medium":
		return SeverityMedium
	default:
		return SeverityLow
	}
}
