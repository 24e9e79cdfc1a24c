// Package correct implements agreement-driven correction over a
// core/grammar.Grammar: given an existing derivation, it walks the tree,
// accumulating a tense context in rule-declared precedence order, and
// regenerates whichever leaves or subtrees disagree with it.
package correct

import (
	"math/rand"

	"github.com/dekarrin/glossa/core/deriv"
	"github.com/dekarrin/glossa/core/generate"
	"github.com/dekarrin/glossa/core/grammar"
	"github.com/dekarrin/glossa/core/payload"
	"github.com/dekarrin/glossa/core/tense"
)

// Diff is one entry in a Correction's explanation: either a leaf that
// already agreed (Right) or a span that had to change (Wrong).
type Diff[T any] struct {
	Right *grammar.Match[T]
	Wrong *Wrong[T]
}

// Wrong explains one corrected span: the agreement errors that triggered
// the correction, and the leaves before and after it.
type Wrong[T any] struct {
	Errors     []tense.Mismatch
	OldMatches []*grammar.Match[T]
	NewMatches []*grammar.Match[T]
}

// Correction is the result of correcting a derivation: the corrected
// tree, and a left-to-right trace of what changed and why.
type Correction[T any] struct {
	Tree *deriv.Derivation[T]
	Diff []Diff[T]
}

// Corrector corrects derivations against grammar g, regenerating
// disagreeing subtrees via a generate.Generator built over the same
// grammar.
type Corrector[T comparable] struct {
	g   *grammar.Grammar[T]
	p   payload.Payload[T]
	gen *generate.Generator[T]
}

// New builds a Corrector over g, using p for both its own default-value
// lookups and the generate.Generator it regenerates subtrees with. g must
// already be Compiled.
func New[T comparable](g *grammar.Grammar[T], p payload.Payload[T]) *Corrector[T] {
	return &Corrector[T]{g: g, p: p, gen: generate.New(g, p)}
}

// state carries the in-progress correction's accumulated tense and diff
// trace, threaded through the recursive walk.
type state[T comparable] struct {
	c     *Corrector[T]
	rng   *rand.Rand
	tense tense.Tense
	diff  []Diff[T]
}

// Correct walks tree, regenerating any rule application whose tense
// disagrees with the base tense declared on a sibling visited earlier in
// its rule's precedence order, and any leaf whose tense disagrees with
// the context accumulated so far. rng drives every random choice made
// while regenerating.
func (c *Corrector[T]) Correct(rng *rand.Rand, tree *deriv.Derivation[T]) Correction[T] {
	st := &state[T]{c: c, rng: rng, tense: tense.Tense{}}
	newTree := st.seeNode(tree)
	return Correction[T]{Tree: newTree, Diff: st.diff}
}

// checkRules reports the agreement errors a rule's own base tense has
// against the context accumulated so far. A rule the generator is
// forbidden from using (SplitScore == ScoreIgnore) always fails, so
// rebuild never selects it.
func (st *state[T]) checkRules(rule *grammar.Rule[T]) []tense.Mismatch {
	if !rule.SplitEnabled() {
		return []tense.Mismatch{{Category: "phrasing", Expected: "valid", Actual: "invalid"}}
	}
	return st.tense.Check(rule.BaseTense)
}

// rebuild regenerates old's subtree from scratch, restricted to rules
// sharing old's LHS that agree with the current tense context, seeding
// the generator's memo from old so generation prefers reusing unchanged
// subtrees. If nothing can be generated, old is returned unchanged.
func (st *state[T]) rebuild(old *deriv.Derivation[T]) *deriv.Derivation[T] {
	def := st.c.p.Default()
	memo := generate.NewMemo[T]()
	generate.SeedMemo(memo, def, old)

	lhs := old.Rule.LHS
	var candidates []int
	for i := range st.c.g.Rules {
		r := &st.c.g.Rules[i]
		if r.LHS != lhs {
			continue
		}
		if len(st.checkRules(r)) > 0 {
			continue
		}
		candidates = append(candidates, i)
	}

	if newTree, ok := st.c.gen.GenerateFromRulesSeeded(st.rng, memo, candidates, old.Value); ok {
		return newTree
	}
	return old
}

// seeNode corrects one rule-application node: regenerating it if its own
// rule disagrees with the tense context, then recursing into its
// children in precedence order (accumulating tense across them), then
// into any remaining children (each starting from a fresh, empty tense).
func (st *state[T]) seeNode(old *deriv.Derivation[T]) *deriv.Derivation[T] {
	errors := st.checkRules(old.Rule)
	newNode := old
	if len(errors) > 0 {
		newNode = st.rebuild(old)
	}
	st.tense.Union(newNode.Rule.BaseTense)

	rule := newNode.Rule
	children := make([]deriv.Child[T], len(newNode.Children))
	copy(children, newNode.Children)
	childDiffs := make([][]Diff[T], len(rule.RHS))
	checked := make([]bool, len(rule.RHS))

	savedDiff := st.diff
	st.diff = nil
	for _, i := range rule.Precedence {
		checked[i] = true
		children[i] = st.recurse(children[i])
		childDiffs[i] = st.diff
		st.diff = nil
	}

	savedTense := st.tense
	for i := range checked {
		if checked[i] {
			continue
		}
		st.tense = tense.Tense{}
		children[i] = st.recurse(children[i])
		childDiffs[i] = st.diff
		st.diff = nil
	}

	st.diff = savedDiff
	st.tense = savedTense

	result := deriv.New(rule, children)
	if len(errors) == 0 {
		for _, cd := range childDiffs {
			st.diff = append(st.diff, cd...)
		}
	} else {
		st.diff = append(st.diff, Diff[T]{Wrong: &Wrong[T]{
			Errors:     errors,
			OldMatches: old.Matches(),
			NewMatches: result.Matches(),
		}})
	}
	return result
}

// recurse dispatches to seeLeaf or seeNode depending on which kind of
// child old is.
func (st *state[T]) recurse(old deriv.Child[T]) deriv.Child[T] {
	if old.IsLeaf() {
		return deriv.Leaf(st.seeLeaf(old.AsLeaf()))
	}
	return deriv.Node(st.seeNode(old.AsNode()))
}

// seeLeaf corrects one lexical leaf: if it already agrees with the tense
// context, it's kept and recorded as Right; otherwise the lexer is asked
// for a same-lemma entry that does agree, picked at random among its
// options, and recorded as Wrong. A leaf the lexer can't fix is kept
// as-is (still recorded as Wrong, so the disagreement isn't hidden).
func (st *state[T]) seeLeaf(old *grammar.Match[T]) *grammar.Match[T] {
	errors := st.tense.UnionChecked(old.Tenses)
	if len(errors) == 0 {
		st.diff = append(st.diff, Diff[T]{Right: old})
		return old
	}

	newMatch := old
	options := st.c.g.Lexer.Fix(old, st.tense)
	if len(options) > 0 {
		newMatch = options[st.rng.Intn(len(options))]
	}

	st.diff = append(st.diff, Diff[T]{Wrong: &Wrong[T]{
		Errors:     errors,
		OldMatches: []*grammar.Match[T]{old},
		NewMatches: []*grammar.Match[T]{newMatch},
	}})
	return newMatch
}
