package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"suppcheck/pkg/logger"
)

// ============================================================================
// INTERFACE DEFINITION
// ============================================================================

// InteractionChecker defines the contract for anything that can resolve user
// input into a snapshot and evaluate it.
type InteractionChecker interface {
	BuildContext(ctx context.Context, supplementNames, medicationNames []string) (*QueryContext, *UnresolvedInput, error)
	Check(ctx context.Context, qc *QueryContext) (*Result, error)
}

// UnresolvedInput lists the names the graph could not resolve. These are not
// errors: every unresolved name is handed to the fallback chain instead.
type UnresolvedInput struct {
	Supplements []string
	Medications []string
}

// Empty reports whether everything the user typed resolved in the graph.
func (u *UnresolvedInput) Empty() bool {
	return u == nil || (len(u.Supplements) == 0 && len(u.Medications) == 0)
}

// ============================================================================
// ENGINE
// ============================================================================

// Engine runs the four pathway evaluators in parallel over one immutable
// QueryContext and merges their findings.
type Engine struct {
	store GraphStore
	cfg   EngineConfig

	identity   Pathway
	cascade    Pathway
	direct     Pathway
	similarity Pathway
}

// New builds an Engine around a graph store. The config is validated once
// here so the check path never has to.
func New(store GraphStore, cfg EngineConfig) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		store:      store,
		cfg:        cfg,
		identity:   NewIdentityPathway(store),
		cascade:    NewCascadePathway(store),
		direct:     NewDirectPathway(store),
		similarity: NewSimilarityPathway(store),
	}, nil
}

// Config returns the engine's effective configuration.
func (e *Engine) Config() EngineConfig {
	return e.cfg
}

// Internal result type for concurrency
type pathwayResult struct {
	pathway  PathwayID
	findings []Finding
	duration time.Duration
	timedOut bool
	failed   bool
	err      error
}

// BuildContext resolves the user's names into the id snapshot a check runs
// against. Names that resolve to nothing are reported through
// UnresolvedInput, never as an error.
func (e *Engine) BuildContext(ctx context.Context, supplementNames, medicationNames []string) (*QueryContext, *UnresolvedInput, error) {
	suppNames := normalizeNames(supplementNames)
	medNames := normalizeNames(medicationNames)

	if len(suppNames) > e.cfg.MaxIDSetSize {
		return nil, nil, fmt.Errorf("too many supplements: %d exceeds limit of %d", len(suppNames), e.cfg.MaxIDSetSize)
	}
	if len(medNames) > e.cfg.MaxIDSetSize {
		return nil, nil, fmt.Errorf("too many medications: %d exceeds limit of %d", len(medNames), e.cfg.MaxIDSetSize)
	}

	var wg sync.WaitGroup
	wg.Add(2)

	var supps []SupplementRef
	var meds []MedicationRef
	var suppErr, medErr error

	go func() {
		defer wg.Done()
		supps, suppErr = e.store.ResolveSupplements(ctx, suppNames)
	}()
	go func() {
		defer wg.Done()
		meds, medErr = e.store.ResolveMedications(ctx, medNames)
	}()

	wg.Wait()

	if suppErr != nil {
		return nil, nil, fmt.Errorf("failed to resolve supplements: %w", suppErr)
	}
	if medErr != nil {
		return nil, nil, fmt.Errorf("failed to resolve medications: %w", medErr)
	}

	resolvedSupps := make(map[string]bool, len(supps))
	for _, s := range supps {
		resolvedSupps[strings.ToLower(s.Name)] = true
	}
	resolvedMeds := make(map[string]bool, len(meds))
	for _, m := range meds {
		resolvedMeds[strings.ToLower(m.Name)] = true
	}

	qc := NewQueryContext(supps, meds)
	unresolved := &UnresolvedInput{
		Supplements: missingNames(suppNames, resolvedSupps),
		Medications: missingNames(medNames, resolvedMeds),
	}
	return qc, unresolved, nil
}

// Check evaluates all four pathways concurrently against the snapshot. A
// timed-out or failed pathway contributes an empty set and flips the
// Degraded flag; only an unreachable graph fails the whole check.
func (e *Engine) Check(ctx context.Context, qc *QueryContext) (*Result, error) {
	if qc == nil || qc.Empty() {
		return &Result{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.CheckTimeout)
	defer cancel()

	identityCh := make(chan pathwayResult, 1)
	cascadeCh := make(chan pathwayResult, 1)
	directCh := make(chan pathwayResult, 1)
	similarityCh := make(chan pathwayResult, 1)

	var wg sync.WaitGroup
	wg.Add(4)

	go e.runPathway(ctx, &wg, e.identity, qc, identityCh)
	go e.runPathway(ctx, &wg, e.cascade, qc, cascadeCh)
	go e.runPathway(ctx, &wg, e.direct, qc, directCh)
	go e.runPathway(ctx, &wg, e.similarity, qc, similarityCh)

	wg.Wait()

	// Gather results in pathway order
	results := []pathwayResult{<-identityCh, <-cascadeCh, <-directCh, <-similarityCh}

	if err := ctx.Err(); errors.Is(err, context.Canceled) {
		return nil, err
	}

	var raw []Finding
	diag := Diagnostics{Timings: make([]PathwayTiming, 0, len(results))}
	for _, res := range results {
		if res.err != nil && errors.Is(res.err, ErrGraphUnavailable) {
			return nil, fmt.Errorf("failed to evaluate %s pathway: %w", res.pathway, res.err)
		}
		if res.timedOut || res.failed {
			diag.Degraded = true
		}
		diag.Timings = append(diag.Timings, PathwayTiming{
			Pathway:  res.pathway,
			Duration: res.duration,
			TimedOut: res.timedOut,
			Failed:   res.failed,
			Findings: len(res.findings),
		})
		raw = append(raw, res.findings...)
	}
	diag.GraphRows = len(raw)

	findings, safeRefs := Aggregate(raw, qc.Supplements)

	return &Result{
		Findings:    findings,
		Safe:        e.safeRecords(ctx, safeRefs),
		Diagnostics: diag,
	}, nil
}

func (e *Engine) runPathway(parent context.Context, wg *sync.WaitGroup, p Pathway, qc *QueryContext, ch chan pathwayResult) {
	defer wg.Done()
	defer close(ch)

	ctx, cancel := context.WithTimeout(parent, e.cfg.PathwayTimeout)
	defer cancel()

	start := time.Now()
	findings, err := p.Evaluate(ctx, qc)
	res := pathwayResult{pathway: p.ID(), findings: findings, duration: time.Since(start)}

	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded):
		res.findings = nil
		res.timedOut = true
		res.err = &PathwayTimeoutError{Pathway: p.ID()}
		logger.Warn("pathway timed out", "pathway", p.Name(), "timeout", e.cfg.PathwayTimeout)
	case errors.Is(err, ErrGraphUnavailable):
		res.findings = nil
		res.err = err
	default:
		res.findings = nil
		res.failed = true
		res.err = err
		logger.Warn("pathway failed", "pathway", p.Name(), "error", err)
	}

	ch <- res
}

// safeRecords annotates zero-finding supplements with shared-ingredient
// trivia. The lookup is best effort: a SAFE result stands even when the
// annotation query fails.
func (e *Engine) safeRecords(ctx context.Context, refs []EntityRef) []SafeRecord {
	if len(refs) == 0 {
		return nil
	}

	notesBySupp := make(map[string][]SharedIngredientNote)
	if e.cfg.EnableSafeNotes {
		ids := make([]string, 0, len(refs))
		for _, r := range refs {
			ids = append(ids, r.ID)
		}
		notes, err := e.store.SharedIngredientNotes(ctx, ids)
		if err != nil {
			logger.Warn("shared-ingredient note lookup failed", "error", err)
		}
		for _, n := range notes {
			notesBySupp[n.SupplementID] = append(notesBySupp[n.SupplementID], n)
		}
	}

	records := make([]SafeRecord, 0, len(refs))
	for _, ref := range refs {
		rec := SafeRecord{Supplement: ref}
		if notes := notesBySupp[ref.ID]; len(notes) > 0 {
			rec.Note = fmt.Sprintf("Shares %s with %s", notes[0].IngredientName, notes[0].DrugName)
			if len(notes) > 1 {
				rec.Note += fmt.Sprintf(" (+%d more)", len(notes)-1)
			}
		}
		records = append(records, rec)
	}
	return records
}

// ============================================================================
// NAME HELPERS
// ============================================================================

// normalizeNames trims, drops empties, and deduplicates case-insensitively
// while preserving the first spelling seen.
func normalizeNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, name)
	}
	return out
}

func missingNames(inputs []string, resolved map[string]bool) []string {
	var missing []string
	for _, name := range inputs {
		if !resolved[strings.ToLower(name)] {
			missing = append(missing, name)
		}
	}
	return missing
}
