package engine

import (
	"context"
	"strings"
	"time"
)

// ============================================================================
// SEVERITY & PATHWAY VOCABULARY
// ============================================================================

// Severity is the clinical risk tier of a finding. Values are ordered so the
// aggregator can take a maximum. SAFE means graph-confirmed absence of any
// matched pathway; UNKNOWN means the fallback chain was exhausted with no
// data. The two are never interchangeable.
type Severity int

const (
	SeverityUnknown Severity = iota
	SeveritySafe
	SeverityLow
	SeverityMedium
	SeverityHigh
)

func (s Severity) String() string {
	switch s {
	case SeverityHigh:
		return "HIGH"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityLow:
		return "LOW"
	case SeveritySafe:
		return "SAFE"
	default:
		return "UNKNOWN"
	}
}

// ParseSeverity maps a stored or reported label back to a Severity.
// Unrecognized labels parse as UNKNOWN.
func ParseSeverity(label string) Severity {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "HIGH":
		return SeverityHigh
	case "MEDIUM", "MODERATE":
		return SeverityMedium
	case "LOW":
		return SeverityLow
	case "SAFE":
		return SeveritySafe
	default:
		return SeverityUnknown
	}
}

// PathwayID identifies one of the four traversal strategies. The numeric
// order doubles as the aggregation tie-break: when two pathways report the
// same (supplement, drug) pair at equal severity, the lower id wins,
// reflecting specificity over generality.
type PathwayID int

const (
	PathwayIdentity   PathwayID = 1
	PathwayCascade    PathwayID = 2
	PathwayDirect     PathwayID = 3
	PathwaySimilarity PathwayID = 4
)

func (p PathwayID) String() string {
	switch p {
	case PathwayIdentity:
		return "identity_equivalence"
	case PathwayCascade:
		return "cascading_category"
	case PathwayDirect:
		return "direct_interaction"
	case PathwaySimilarity:
		return "category_similarity"
	default:
		return "unknown_pathway"
	}
}

// ============================================================================
// QUERY CONTEXT (immutable id snapshot)
// ============================================================================

// EntityRef is a resolved graph entity: id plus display name.
type EntityRef struct {
	ID   string
	Name string
}

// IngredientRef is an active ingredient contained by a supplement.
type IngredientRef struct {
	ID        string
	Name      string
	IsPrimary bool
}

// SupplementRef is a resolved supplement with its composition snapshot.
type SupplementRef struct {
	ID          string
	Name        string
	Ingredients []IngredientRef
}

// MedicationRef is a resolved medication with the drugs it contains.
type MedicationRef struct {
	ID    string
	Name  string
	Drugs []EntityRef
}

// QueryContext is the immutable snapshot one check runs against. It is built
// once (ResolveSupplements / ResolveMedications) and shared by all four
// pathway evaluators, so a check never observes two different graph states.
type QueryContext struct {
	Supplements []SupplementRef
	Medications []MedicationRef

	suppByIngredient map[string][]SupplementRef
	activeDrugs      map[string]EntityRef
}

// NewQueryContext builds the snapshot indices the evaluators share.
func NewQueryContext(supplements []SupplementRef, medications []MedicationRef) *QueryContext {
	qc := &QueryContext{
		Supplements:      supplements,
		Medications:      medications,
		suppByIngredient: make(map[string][]SupplementRef),
		activeDrugs:      make(map[string]EntityRef),
	}
	for _, s := range supplements {
		for _, ing := range s.Ingredients {
			qc.suppByIngredient[ing.ID] = append(qc.suppByIngredient[ing.ID], s)
		}
	}
	for _, m := range medications {
		for _, d := range m.Drugs {
			qc.activeDrugs[d.ID] = d
		}
	}
	return qc
}

// Empty reports whether either side of the check is missing. An empty
// context yields an empty finding sequence, never an error.
func (qc *QueryContext) Empty() bool {
	return len(qc.Supplements) == 0 || len(qc.Medications) == 0
}

func (qc *QueryContext) SupplementIDs() []string {
	ids := make([]string, 0, len(qc.Supplements))
	for _, s := range qc.Supplements {
		ids = append(ids, s.ID)
	}
	return ids
}

func (qc *QueryContext) MedicationIDs() []string {
	ids := make([]string, 0, len(qc.Medications))
	for _, m := range qc.Medications {
		ids = append(ids, m.ID)
	}
	return ids
}

// IngredientIDs returns the deduplicated ids of every active ingredient
// contained by any candidate supplement.
func (qc *QueryContext) IngredientIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, s := range qc.Supplements {
		for _, ing := range s.Ingredients {
			if !seen[ing.ID] {
				seen[ing.ID] = true
				ids = append(ids, ing.ID)
			}
		}
	}
	return ids
}

// DrugIDs returns the deduplicated ids of every drug contained by the
// active medications.
func (qc *QueryContext) DrugIDs() []string {
	ids := make([]string, 0, len(qc.activeDrugs))
	for id := range qc.activeDrugs {
		ids = append(ids, id)
	}
	return ids
}

// ActiveDrug reports whether drugID belongs to the active-medication set.
func (qc *QueryContext) ActiveDrug(drugID string) (EntityRef, bool) {
	d, ok := qc.activeDrugs[drugID]
	return d, ok
}

// SupplementsContaining returns every candidate supplement that contains the
// given active ingredient.
func (qc *QueryContext) SupplementsContaining(ingredientID string) []SupplementRef {
	return qc.suppByIngredient[ingredientID]
}

// ============================================================================
// GRAPH STORE CONTRACT
// ============================================================================

// Equivalence edge types carried by EQUIVALENT_TO relationships.
const (
	EquivalenceIdentical = "identical"
	EquivalenceRelated   = "related"
)

// EquivalenceRow is one CONTAINS -> EQUIVALENT_TO chain edge.
type EquivalenceRow struct {
	IngredientID    string
	IngredientName  string
	DrugID          string
	DrugName        string
	EquivalenceType string // "identical" | "related"
	Notes           string
}

// CategoryLinkRow is one HAS_SIMILAR_EFFECT_TO bridge edge.
type CategoryLinkRow struct {
	SupplementID   string
	SupplementName string
	CategoryID     string
	CategoryName   string
	Confidence     string // "high" | "medium" | "low" | ""
	Notes          string
}

// CategoryMemberRow is one BELONGS_TO classification edge.
type CategoryMemberRow struct {
	DrugID       string
	DrugName     string
	CategoryID   string
	CategoryName string
}

// DirectInteractionRow is one documented INTERACTS_WITH edge, joined with
// the drug the medication contains.
type DirectInteractionRow struct {
	SupplementID   string
	SupplementName string
	MedicationID   string
	MedicationName string
	DrugID         string
	DrugName       string
	Description    string
}

// SharedIngredientNote records that a supplement shares an ingredient with a
// pharmaceutical, regardless of the user's medication list. Used to annotate
// SAFE results so clinically relevant trivia is never silently omitted.
type SharedIngredientNote struct {
	SupplementID    string
	SupplementName  string
	IngredientName  string
	DrugName        string
	EquivalenceType string
}

// EntityHit is one normalization lookup result.
type EntityHit struct {
	Kind string // "supplement" | "medication" | "drug"
	ID   string
	Name string
	Via  string // "exact" | "brand" | "synonym"
}

// GraphStore is the read-only query surface the engine consumes. All methods
// take explicit id or name sets and are side-effect free.
type GraphStore interface {
	ResolveSupplements(ctx context.Context, names []string) ([]SupplementRef, error)
	ResolveMedications(ctx context.Context, names []string) ([]MedicationRef, error)
	FindEquivalences(ctx context.Context, ingredientIDs []string) ([]EquivalenceRow, error)
	FindCategoryLinks(ctx context.Context, supplementIDs []string) ([]CategoryLinkRow, error)
	FindCategoryMembership(ctx context.Context, drugIDs []string) ([]CategoryMemberRow, error)
	FindDirectInteractions(ctx context.Context, supplementIDs, medicationIDs []string) ([]DirectInteractionRow, error)
	SharedIngredientNotes(ctx context.Context, supplementIDs []string) ([]SharedIngredientNote, error)
}

// ============================================================================
// FINDINGS
// ============================================================================

// Finding is one pathway's raw detection: a (supplement, drug) pair with the
// severity and reason that single pathway assigns. Aggregation across
// pathways happens later.
type Finding struct {
	SupplementID   string
	SupplementName string
	DrugID         string
	DrugName       string
	Severity       Severity
	Pathway        PathwayID
	Reason         string
}

// AggregatedFinding is the deduplicated, merged view of one
// (supplement, drug) pair across all contributing pathways.
type AggregatedFinding struct {
	SupplementID   string
	SupplementName string
	DrugID         string
	DrugName       string
	Severity       Severity
	Primary        PathwayID   // highest-priority contributor
	Pathways       []PathwayID // all contributors, ascending
	Warning        string      // distinct reasons joined in pathway order
}

// SafeRecord reports a supplement with zero findings across every pathway.
// Note carries shared-ingredient trivia when the supplement is known to
// share an ingredient with any pharmaceutical.
type SafeRecord struct {
	Supplement EntityRef
	Note       string
}

// PathwayTiming is one evaluator's diagnostic entry.
type PathwayTiming struct {
	Pathway  PathwayID
	Duration time.Duration
	TimedOut bool
	Failed   bool
	Findings int
}

// Diagnostics describes how the check ran, not what it found.
type Diagnostics struct {
	Timings   []PathwayTiming
	Degraded  bool // any pathway timed out or failed
	GraphRows int  // raw findings contributed by the graph before aggregation
}

// Result is the engine's answer for one query context.
type Result struct {
	Findings    []AggregatedFinding
	Safe        []SafeRecord
	Diagnostics Diagnostics
}
