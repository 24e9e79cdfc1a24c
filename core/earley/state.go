package earley

import "github.com/dekarrin/glossa/core/grammar"

// stateID indexes into a chart's state arena. -1 means "no such state".
type stateID int32

// candID indexes into a chart's candidate arena. -1 means "empty list".
type candID int32

const noState stateID = -1
const noCand candID = -1

// state is one Earley item: (rule, cursor, start), implicitly ending at
// the column that owns it. It is allocated once per (rule, cursor, start,
// end) quadruple — the chart's lookup table enforces that — and is
// scored lazily, memoised in place.
type state[T any] struct {
	ruleIdx int
	cursor  int
	start   int
	end     int

	// candHead is the head of this state's candidate linked list, built
	// up during column processing as multiple ways to reach this state
	// are discovered. After scoring, only the winning candidate matters;
	// the rest of the list is left allocated but unused (the arena is
	// freed as a whole when the chart is discarded).
	candHead candID

	// nextWanted threads this state onto the bucket of states (sharing
	// the same end column) that all predict the same next symbol, for
	// fast completion fan-out.
	nextWanted stateID

	// Candidate chains only ever point to states with a strictly smaller
	// cursor in the same column or to an earlier column entirely, so
	// score's recursion is guaranteed to terminate without a cycle guard.
	scored bool
	score  float32

	// winner, valid once scored is true.
	winCand candID
}

func (s *state[T]) complete(rules []grammar.Rule[T]) bool {
	return s.cursor == len(rules[s.ruleIdx].RHS)
}

// candidate is one way to have reached a state's current cursor position:
// either the predecessor state at cursor-1 scanned a Match (isLeaf) or
// completed a child state (node). skipPenalty is non-zero only when this
// candidate was formed by the token-skipping scan, which bypassed one or
// more unmatched tokens to reach here.
type candidate[T any] struct {
	prev        stateID
	isLeaf      bool
	leafMatch   *grammar.Match[T]
	leafScore   float32
	node        stateID
	skipPenalty float32
	next        candID
}
