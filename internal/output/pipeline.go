package output

import (
	"context"
	"fmt"
	"strings"
	"time"

	"suppcheck/internal/database/rag"
	"suppcheck/internal/database/relational"
	"suppcheck/internal/engine"
	"suppcheck/internal/fallback"
	"suppcheck/internal/synthesis"
	"suppcheck/internal/verdict"
	"suppcheck/pkg/logger"
)

// CheckRequest is the user's question: which supplements against which
// medications, as typed.
type CheckRequest struct {
	SessionID   string
	Supplements []string
	Medications []string
}

// CheckPayload represents the final data object ready for persistence and
// display. The MCP surface and the TUI both pull this from the Output layer.
type CheckPayload struct {
	Request     CheckRequest
	Supplements []string // canonical names after normalization
	Medications []string
	Unresolved  *engine.UnresolvedInput

	Result  *synthesis.Result
	Verdict verdict.Verdict

	Consultation relational.Consultation
	FindingRows  []relational.ConsultationFinding
}

// EntityNormalizer corrects free-text names before graph resolution.
type EntityNormalizer interface {
	Normalize(ctx context.Context, text string) (rag.Match, error)
}

// Checker resolves names into an id snapshot and evaluates it.
type Checker interface {
	BuildContext(ctx context.Context, supplementNames, medicationNames []string) (*engine.QueryContext, *engine.UnresolvedInput, error)
	Check(ctx context.Context, qc *engine.QueryContext) (*engine.Result, error)
}

// FallbackResolver answers pairs the graph had no data for.
type FallbackResolver interface {
	Resolve(ctx context.Context, pairs []fallback.Pair) []fallback.Outcome
}

// VerdictAssessor reduces a synthesized result to one verdict.
type VerdictAssessor interface {
	Assess(res *synthesis.Result) verdict.Verdict
}

// RunCheck executes the full check pipeline: Normalize -> Resolve -> Evaluate
// -> Fallback -> Synthesize -> Assess -> Bundle.
// It returns a CheckPayload ready for persistence and display.
func RunCheck(
	ctx context.Context,
	norm EntityNormalizer,
	chk Checker,
	fb FallbackResolver,
	va VerdictAssessor,
	req CheckRequest,
) (*CheckPayload, error) {
	requestedAt := time.Now()

	// 1. Normalize free-text names. Best effort: a name that cannot be
	// corrected is passed through as typed.
	supplements := normalizeMentions(ctx, norm, req.Supplements)
	medications := normalizeMentions(ctx, norm, req.Medications)

	// 2. Resolve names into the id snapshot
	qc, unresolved, err := chk.BuildContext(ctx, supplements, medications)
	if err != nil {
		return nil, fmt.Errorf("build context: %w", err)
	}

	// 3. Evaluate the graph pathways
	graphResult, err := chk.Check(ctx, qc)
	if err != nil {
		return nil, fmt.Errorf("graph check: %w", err)
	}

	// 4. Hand every pair the graph had no data for to the fallback chain
	var outcomes []fallback.Outcome
	if pairs := fallbackPairs(unresolved, supplements, medications); len(pairs) > 0 && fb != nil {
		outcomes = fb.Resolve(ctx, pairs)
	}

	// 5. Merge graph and fallback findings into one ranked list
	merged := synthesis.Synthesize(graphResult, outcomes)

	// 6. Reduce to a verdict
	v := va.Assess(merged)

	// 7. Bundle into Output Payload, with history rows prebuilt
	consultation, rows := relational.NewConsultation(
		req.SessionID, supplements, medications, merged, v, requestedAt, time.Since(requestedAt))

	return &CheckPayload{
		Request:      req,
		Supplements:  supplements,
		Medications:  medications,
		Unresolved:   unresolved,
		Result:       merged,
		Verdict:      v,
		Consultation: consultation,
		FindingRows:  rows,
	}, nil
}

// normalizeMentions maps each name to its canonical form where the
// normalizer finds one, keeping the typed spelling otherwise.
func normalizeMentions(ctx context.Context, norm EntityNormalizer, names []string) []string {
	if norm == nil || len(names) == 0 {
		return names
	}
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = name
		if ctx.Err() != nil {
			continue
		}
		match, err := norm.Normalize(ctx, name)
		if err != nil {
			logger.Warn("normalization failed, keeping name as typed", "name", name, "error", err)
			continue
		}
		if match.Found() && match.CanonicalName != "" {
			out[i] = match.CanonicalName
		}
	}
	return out
}

// fallbackPairs enumerates every (supplement, medication) pair with at least
// one unresolved side. These pairs have no graph data at all, which is a
// different condition from a resolved pair with zero findings.
func fallbackPairs(unresolved *engine.UnresolvedInput, supplements, medications []string) []fallback.Pair {
	if unresolved.Empty() {
		return nil
	}

	unresolvedSupp := make(map[string]bool, len(unresolved.Supplements))
	for _, s := range unresolved.Supplements {
		unresolvedSupp[strings.ToLower(s)] = true
	}

	var pairs []fallback.Pair

	// Unresolved supplements against every medication
	for _, s := range unresolved.Supplements {
		for _, m := range medications {
			pairs = append(pairs, fallback.Pair{Supplement: s, Medication: m})
		}
	}

	// Resolved supplements against unresolved medications. Unresolved ones
	// were already paired above.
	for _, s := range supplements {
		if unresolvedSupp[strings.ToLower(s)] {
			continue
		}
		for _, m := range unresolved.Medications {
			pairs = append(pairs, fallback.Pair{Supplement: s, Medication: m})
		}
	}

	return pairs
}
