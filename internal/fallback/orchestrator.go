package fallback

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"suppcheck/internal/engine"
	"suppcheck/pkg/logger"
)

// Pair is one supplement/medication combination awaiting resolution.
type Pair struct {
	Supplement string
	Medication string
}

// Outcome is the terminal result of running one pair through the chain.
// State names the stage that answered; Severity is read out of the answer
// text itself.
type Outcome struct {
	Pair     Pair
	State    State
	Severity engine.Severity
	Answer   string
}

// Searcher answers an interaction query from the public web.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// Reasoner produces a cautious free-form assessment when no curated or web
// evidence exists.
type Reasoner interface {
	Reason(ctx context.Context, query string) (string, error)
}

// Config bounds the orchestrator's collaborator calls.
type Config struct {
	// CallTimeout caps each individual collaborator call.
	CallTimeout time.Duration

	// Workers caps how many pairs resolve concurrently.
	Workers int
}

// DefaultConfig returns the standard bounds: ten seconds per collaborator
// call, four pairs in flight.
func DefaultConfig() Config {
	return Config{
		CallTimeout: 10 * time.Second,
		Workers:     4,
	}
}

// Orchestrator walks unresolved pairs through the fallback chain.
type Orchestrator struct {
	searcher Searcher
	reasoner Reasoner
	config   Config
}

// New creates an orchestrator. Either collaborator may be nil; its stage
// then counts as failed and the chain moves on.
func New(searcher Searcher, reasoner Reasoner, config Config) *Orchestrator {
	if config.CallTimeout <= 0 {
		config.CallTimeout = DefaultConfig().CallTimeout
	}
	if config.Workers <= 0 {
		config.Workers = DefaultConfig().Workers
	}
	return &Orchestrator{
		searcher: searcher,
		reasoner: reasoner,
		config:   config,
	}
}

// Resolve runs every pair through the chain in a bounded worker pool and
// returns one outcome per pair, in input order. Resolve itself never fails:
// cancellation and collaborator errors surface as unknown outcomes.
func (o *Orchestrator) Resolve(ctx context.Context, pairs []Pair) []Outcome {
	if len(pairs) == 0 {
		return nil
	}

	outcomes := make([]Outcome, len(pairs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.config.Workers)
	for i, pair := range pairs {
		g.Go(func() error {
			outcomes[i] = o.resolvePair(gctx, pair)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// resolvePair walks one pair through the chain. The chain is sequential
// within a pair; every stage failure advances the state instead of
// surfacing an error.
func (o *Orchestrator) resolvePair(ctx context.Context, pair Pair) Outcome {
	query := fmt.Sprintf("Can the supplement %s be taken together with the medication %s?",
		pair.Supplement, pair.Medication)

	state := StateUnresolved

	answer, severity, ok := o.searchStage(ctx, query)
	state = advance(state, ok)
	if state == StateWebAnswered {
		logger.Info("pair resolved by web search",
			"supplement", pair.Supplement, "medication", pair.Medication, "severity", severity.String())
		return Outcome{Pair: pair, State: state, Severity: severity, Answer: answer}
	}

	answer, severity, ok = o.reasonStage(ctx, query)
	state = advance(state, ok)
	if state == StateReasonAnswered {
		logger.Info("pair resolved by reasoning",
			"supplement", pair.Supplement, "medication", pair.Medication, "severity", severity.String())
		return Outcome{Pair: pair, State: state, Severity: severity, Answer: answer}
	}

	// Chain exhausted. The user is told the system has no information.
	return Outcome{
		Pair:     pair,
		State:    StateUnknown,
		Severity: engine.SeverityUnknown,
		Answer:   "No information available for this combination.",
	}
}

// searchStage runs the web collaborator under the per-call timeout. An
// answer that trips none of the severity keywords is inconclusive and
// counts as a miss.
func (o *Orchestrator) searchStage(ctx context.Context, query string) (string, engine.Severity, bool) {
	if o.searcher == nil {
		return "", engine.SeverityUnknown, false
	}

	callCtx, cancel := context.WithTimeout(ctx, o.config.CallTimeout)
	defer cancel()

	answer, err := o.searcher.Search(callCtx, query)
	if err != nil {
		logger.Warn("web search stage failed", "query", query, "error", err)
		return "", engine.SeverityUnknown, false
	}

	severity := severityFromAnswer(answer)
	if severity == engine.SeverityUnknown {
		return "", engine.SeverityUnknown, false
	}
	return answer, severity, true
}

// reasonStage runs the reasoning collaborator under the per-call timeout.
// Any non-empty answer is accepted; one that trips no keyword still reads
// as a low-severity caution.
func (o *Orchestrator) reasonStage(ctx context.Context, query string) (string, engine.Severity, bool) {
	if o.reasoner == nil {
		return "", engine.SeverityUnknown, false
	}

	callCtx, cancel := context.WithTimeout(ctx, o.config.CallTimeout)
	defer cancel()

	answer, err := o.reasoner.Reason(callCtx, query)
	if err != nil {
		logger.Warn("reasoning stage failed", "query", query, "error", err)
		return "", engine.SeverityUnknown, false
	}
	if strings.TrimSpace(answer) == "" {
		return "", engine.SeverityUnknown, false
	}

	severity := severityFromAnswer(answer)
	if severity == engine.SeverityUnknown {
		severity = engine.SeverityLow
	}
	return answer, severity, true
}

// severityFromAnswer maps collaborator prose onto a severity signal.
// Strong warning language outranks hedged language; SeverityUnknown means
// the text carried no usable signal.
func severityFromAnswer(answer string) engine.Severity {
	lower := strings.ToLower(answer)
	switch {
	case containsAny(lower,
		"avoid", "do not combine", "do not take", "should not be taken",
		"dangerous", "contraindicated", "serious interaction", "major interaction"):
		return engine.SeverityHigh
	case containsAny(lower,
		"caution", "may interact", "can interact", "monitor",
		"moderate interaction", "consult your doctor", "consult a doctor",
		"separate doses", "reduce the effectiveness"):
		return engine.SeverityMedium
	case containsAny(lower,
		"no known interaction", "no significant interaction",
		"no interactions found", "unlikely to interact",
		"generally considered safe", "minor interaction"):
		return engine.SeverityLow
	default:
		return engine.SeverityUnknown
	}
}

func containsAny(s string, phrases ...string) bool {
	for _, phrase := range phrases {
		if strings.Contains(s, phrase) {
			return true
		}
	}
	return false
}
