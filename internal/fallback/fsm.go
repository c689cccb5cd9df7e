// Package fallback resolves supplement/medication pairs the knowledge graph
// has no finding for. Each pair walks a fixed chain of collaborators: web
// search first, free-form reasoning second. A pair that exhausts the chain
// is reported as unknown, never dropped.
package fallback

// State tracks where a pair sits in the resolution chain.
type State int

const (
	StateUnresolved State = iota
	StateWebAnswered
	StateWebFailed
	StateReasonAnswered
	StateUnknown
)

// String returns the snake_case label used in logs and source attribution.
func (s State) String() string {
	switch s {
	case StateUnresolved:
		return "unresolved"
	case StateWebAnswered:
		return "web_answered"
	case StateWebFailed:
		return "web_failed"
	case StateReasonAnswered:
		return "reason_answered"
	case StateUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// Terminal reports whether the chain stops at this state.
func (s State) Terminal() bool {
	switch s {
	case StateWebAnswered, StateReasonAnswered, StateUnknown:
		return true
	default:
		return false
	}
}

// advance returns the state after one collaborator call. ok means the
// collaborator produced a usable answer; errors, timeouts, and inconclusive
// answers all advance the same way. Terminal states never move.
func advance(s State, ok bool) State {
	switch s {
	case StateUnresolved:
		if ok {
			return StateWebAnswered
		}
		return StateWebFailed
	case StateWebFailed:
		if ok {
			return StateReasonAnswered
		}
		return StateUnknown
	default:
		return s
	}
}
