package engine

import (
	"errors"
	"fmt"
)

// ErrGraphUnavailable marks the knowledge graph as unreachable. It is fatal
// for the whole check: no pathway can produce a trustworthy answer without
// the graph, so callers must fail the consultation rather than degrade.
var ErrGraphUnavailable = errors.New("knowledge graph unavailable")

// ErrUnknownEntity marks a name that resolved to nothing in the graph. It is
// a routing signal (the pair belongs to the fallback chain), never a check
// failure.
var ErrUnknownEntity = errors.New("entity not found in knowledge graph")

// PathwayTimeoutError records a single evaluator exceeding its per-pathway
// deadline. The check recovers: the pathway contributes an empty finding set
// and the timeout is surfaced through Diagnostics.
type PathwayTimeoutError struct {
	Pathway PathwayID
}

func (e *PathwayTimeoutError) Error() string {
	return fmt.Sprintf("pathway %s timed out", e.Pathway)
}
