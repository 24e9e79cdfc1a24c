package earley

import (
	"math"

	"github.com/dekarrin/glossa/core/deriv"
	"github.com/dekarrin/glossa/core/grammar"
)

// wantedKey identifies the bucket of states, all ending at the same
// column, that predict the same next symbol.
type wantedKey struct {
	end int
	sym grammar.SymbolID
}

// chart owns the arenas for one parse call: every state and candidate
// allocated while processing the input lives here, and is discarded as a
// unit when Parse returns. References within the arena (stateID/candID)
// never escape the chart.
type chart[T any] struct {
	g *grammar.Grammar[T]

	states     []state[T]
	candidates []candidate[T]

	wanted map[wantedKey]stateID

	// columns[i] holds the bookkeeping for column i, needed after the
	// fact for the final answer and for token-skipping.
	columns []column

	skipWindow  int
	skipPenalty float32

	debug *debugSink
}

type column struct {
	end       int
	states    []stateID
	completed []stateID // start == 0, regardless of lhs
	scannable []stateID
}

func newChart[T any](g *grammar.Grammar[T], skipWindow int, skipPenalty float32, debug *debugSink) *chart[T] {
	return &chart[T]{
		g:           g,
		wanted:      make(map[wantedKey]stateID),
		skipWindow:  skipWindow,
		skipPenalty: skipPenalty,
		debug:       debug,
	}
}

func (c *chart[T]) allocState(ruleIdx, cursor, start, end int) stateID {
	id := stateID(len(c.states))
	c.states = append(c.states, state[T]{
		ruleIdx:    ruleIdx,
		cursor:     cursor,
		start:      start,
		end:        end,
		candHead:   noCand,
		nextWanted: noState,
	})
	return id
}

func (c *chart[T]) st(id stateID) *state[T] { return &c.states[id] }

func (c *chart[T]) allocCandidateLeaf(prev stateID, m *grammar.Match[T], score, skipPenalty float32) candID {
	id := candID(len(c.candidates))
	c.candidates = append(c.candidates, candidate[T]{
		prev: prev, isLeaf: true, leafMatch: m, leafScore: score, skipPenalty: skipPenalty, next: noCand,
	})
	return id
}

func (c *chart[T]) allocCandidateNode(prev, node stateID, skipPenalty float32) candID {
	id := candID(len(c.candidates))
	c.candidates = append(c.candidates, candidate[T]{
		prev: prev, node: node, skipPenalty: skipPenalty, next: noCand,
	})
	return id
}

// columnBuilder accumulates the lookup table used to deduplicate states
// within a single column: at most one state exists per (rule, cursor,
// start) tuple at this end position. Rediscovering that tuple appends a
// new candidate to the existing state instead of allocating.
type columnBuilder struct {
	lookup map[[3]int]stateID // (ruleIdx, cursor, start) -> state in this column
}

// step advances fromState by one position, recording candidate as the way
// it got there. It returns the (possibly newly-allocated) advanced state,
// appends it to col if new, and pushes the candidate built by candMaker
// onto that state's candidate list.
func (c *chart[T]) step(b *columnBuilder, col *column, from stateID, candMaker func(prev stateID) candID) stateID {
	fromSt := c.st(from)
	key := [3]int{fromSt.ruleIdx, fromSt.cursor + 1, fromSt.start}
	target, ok := b.lookup[key]
	if !ok {
		target = c.allocState(fromSt.ruleIdx, fromSt.cursor+1, fromSt.start, col.end)
		b.lookup[key] = target
		col.states = append(col.states, target)
	}
	cand := candMaker(from)
	c.candidates[cand].next = c.st(target).candHead
	c.st(target).candHead = cand
	return target
}

// parse runs the chart over tokens (which must already be lexed) and
// returns the best derivation rooted at g.Start, if any exists.
func parse[T any](g *grammar.Grammar[T], tokens []grammar.Token[T], skipWindow int, skipPenalty float32, debug *debugSink) (*deriv.Derivation[T], bool) {
	c := newChart(g, skipWindow, skipPenalty, debug)

	c.processColumn(0, nil, nil)
	for i, tok := range tokens {
		c.processColumn(i+1, &tokens[i], tok.Matches)
	}

	best, bestScore := c.bestFinalState(len(tokens))
	if best == noState {
		return nil, false
	}
	_ = bestScore
	return c.reconstruct(best), true
}

// processColumn runs predict/scan/complete to a worklist fixpoint for the
// column ending at `end`, given the token that was just scanned to reach
// it (nil for column 0, the seed column).
func (c *chart[T]) processColumn(end int, tok *grammar.Token[T], matches map[string]grammar.TokenMatch[T]) {
	col := &column{end: end}
	b := &columnBuilder{lookup: make(map[[3]int]stateID)}
	nullable := make(map[grammar.SymbolID][]stateID)

	if end == 0 {
		for _, ri := range c.g.RulesFor(c.g.Start) {
			if !c.g.Rules[ri].MergeEnabled() {
				continue
			}
			id := c.allocState(ri, 0, 0, 0)
			b.lookup[[3]int{ri, 0, 0}] = id
			col.states = append(col.states, id)
		}
	} else {
		c.scan(end, tok, matches, b, col)
	}

	i := 0
	for i < len(col.states) {
		sid := col.states[i]
		i++
		st := c.st(sid)
		rule := &c.g.Rules[st.ruleIdx]

		if st.cursor == len(rule.RHS) {
			// Complete: fan out to every predictor waiting on rule.LHS
			// ending at start, and register as nullable if it spans zero
			// tokens at this column.
			wk := wantedKey{end: st.start, sym: rule.LHS}
			pid, ok := c.wanted[wk]
			if !ok {
				pid = noState
			}
			for ; pid != noState; pid = c.st(pid).nextWanted {
				c.step(b, col, pid, func(prev stateID) candID {
					return c.allocCandidateNode(prev, sid, 0)
				})
			}
			if st.start == 0 {
				col.completed = append(col.completed, sid)
			}
			if st.start == end {
				nullable[rule.LHS] = append(nullable[rule.LHS], sid)
			}
			continue
		}

		term := rule.RHS[st.cursor]
		if term.IsSymbol() {
			sym := term.Symbol()
			// Retroactive nullable completion: if some rule producing
			// sym already completed trivially at this column, advance
			// immediately.
			for _, nid := range nullable[sym] {
				c.step(b, col, sid, func(prev stateID) candID {
					return c.allocCandidateNode(prev, nid, 0)
				})
			}
			wk := wantedKey{end: end, sym: sym}
			head, seeded := c.wanted[wk]
			if !seeded {
				head = noState
				for _, ri := range c.g.RulesFor(sym) {
					if !c.g.Rules[ri].MergeEnabled() {
						continue
					}
					if _, dup := b.lookup[[3]int{ri, 0, end}]; dup {
						continue
					}
					id := c.allocState(ri, 0, end, end)
					b.lookup[[3]int{ri, 0, end}] = id
					col.states = append(col.states, id)
				}
			}
			c.st(sid).nextWanted = head
			c.wanted[wk] = sid
		} else {
			col.scannable = append(col.scannable, sid)
		}
	}

	for _, sid := range col.states {
		c.score(sid)
	}

	c.columns = append(c.columns, *col)

	if c.debug != nil {
		dumpColumn(c.debug, c.g, c, col)
	}
}

// scan advances every scannable state from recent columns (the current
// one, for a normal scan; earlier ones too, within skipWindow, for
// token-skipping) whose next terminal the token's match table covers.
func (c *chart[T]) scan(end int, tok *grammar.Token[T], matches map[string]grammar.TokenMatch[T], b *columnBuilder, col *column) {
	lastCol := end - 1 // the column the normal (non-skipping) scan reads from
	firstCol := lastCol - c.skipWindow
	if firstCol < 0 {
		firstCol = 0
	}
	for colIdx := lastCol; colIdx >= firstCol; colIdx-- {
		if colIdx >= len(c.columns) {
			continue
		}
		skipped := lastCol - colIdx
		penalty := float32(skipped) * c.skipPenalty
		for _, sid := range c.columns[colIdx].scannable {
			st := c.st(sid)
			term := c.g.Rules[st.ruleIdx].RHS[st.cursor]
			tm, ok := matches[term.Terminal()]
			if !ok {
				continue
			}
			c.step(b, col, sid, func(prev stateID) candID {
				return c.allocCandidateLeaf(prev, tm.Match, tm.Score, penalty)
			})
		}
	}
}

// score computes (and memoises) a state's best score, recursively scoring
// whatever it depends on. A state with cursor 0 scores as its rule's
// merge score; otherwise it is the max, over its candidates, of
// score(prev) + score(down) + any skip penalty on that candidate.
func (c *chart[T]) score(sid stateID) float32 {
	st := c.st(sid)
	if st.scored {
		return st.score
	}
	if st.cursor == 0 {
		st.score = c.g.Rules[st.ruleIdx].MergeScore
		st.scored = true
		return st.score
	}

	best := float32(math.Inf(-1))
	bestCand := noCand
	for cid := st.candHead; cid != noCand; cid = c.candidates[cid].next {
		cand := c.candidates[cid]
		var downScore float32
		if cand.isLeaf {
			downScore = cand.leafScore
		} else {
			downScore = c.score(cand.node)
		}
		total := c.score(cand.prev) + downScore + cand.skipPenalty
		if total > best {
			best = total
			bestCand = cid
		}
	}
	st.score = best
	st.winCand = bestCand
	st.scored = true
	return best
}

// bestFinalState returns the highest-scoring complete state rooted at
// g.Start across every column within the skip window of the last token,
// so a trailing run of skipped tokens doesn't hide an otherwise-valid
// parse.
func (c *chart[T]) bestFinalState(numTokens int) (stateID, float32) {
	best := noState
	bestScore := float32(math.Inf(-1))
	lastCol := numTokens
	firstCol := lastCol - c.skipWindow
	if firstCol < 0 {
		firstCol = 0
	}
	for colIdx := lastCol; colIdx >= firstCol; colIdx-- {
		if colIdx >= len(c.columns) {
			continue
		}
		skipped := lastCol - colIdx
		penalty := float32(skipped) * c.skipPenalty
		for _, sid := range c.columns[colIdx].completed {
			st := c.st(sid)
			if c.g.Rules[st.ruleIdx].LHS != c.g.Start {
				continue
			}
			total := st.score + penalty
			if total > bestScore {
				bestScore = total
				best = sid
			}
		}
	}
	return best, bestScore
}

// reconstruct walks a completed state's winning-candidate chain back to
// cursor 0 and builds the Derivation it represents, invoking each rule's
// Merge template along the way.
func (c *chart[T]) reconstruct(sid stateID) *deriv.Derivation[T] {
	st := c.st(sid)
	rule := &c.g.Rules[st.ruleIdx]
	children := make([]deriv.Child[T], st.cursor)
	cur := sid
	for i := st.cursor - 1; i >= 0; i-- {
		curSt := c.st(cur)
		cand := c.candidates[curSt.winCand]
		if cand.isLeaf {
			children[i] = deriv.Leaf(cand.leafMatch)
		} else {
			children[i] = deriv.Node(c.reconstruct(cand.node))
		}
		cur = cand.prev
	}
	return deriv.New(rule, children)
}
