// Package generate implements randomised top-down generation over a
// core/grammar.Grammar: given a target payload value, it samples a
// derivation whose merged value equals that target, weighting choices
// among competing rules by their Split score.
package generate

import (
	"math"
	"math/rand"

	"github.com/dekarrin/glossa/core/deriv"
	"github.com/dekarrin/glossa/core/grammar"
	"github.com/dekarrin/glossa/core/payload"
)

// Generator indexes a grammar's rules by LHS symbol, once, for repeated
// generation calls. T must be comparable: generation memoises on (term,
// target value) pairs, both to speed up generation and to break infinite
// recursion on left-recursive rules.
type Generator[T comparable] struct {
	g      *grammar.Grammar[T]
	p      payload.Payload[T]
	byName [][]int
}

// New builds a Generator over g, using p to fill in omitted rule
// arguments with the payload's own default value. g must already be
// Compiled.
func New[T comparable](g *grammar.Grammar[T], p payload.Payload[T]) *Generator[T] {
	byName := make([][]int, len(g.Names))
	for i, r := range g.Rules {
		byName[r.LHS] = append(byName[r.LHS], i)
	}
	return &Generator[T]{g: g, p: p, byName: byName}
}

// Generate samples a derivation of g.Start whose value equals target,
// using rng for every random choice. It returns false if no derivation
// reaching target could be found within the grammar's rules.
func (gen *Generator[T]) Generate(rng *rand.Rand, target T) (*deriv.Derivation[T], bool) {
	return gen.GenerateFromRules(rng, gen.byName[gen.g.Start], target)
}

// GenerateFromRules is Generate restricted to a caller-supplied rule set,
// rather than every rule sharing Start's LHS, with a fresh memo.
func (gen *Generator[T]) GenerateFromRules(rng *rand.Rand, ruleIdxs []int, target T) (*deriv.Derivation[T], bool) {
	return gen.GenerateFromRulesSeeded(rng, NewMemo[T](), ruleIdxs, target)
}

// GenerateFromRulesSeeded is GenerateFromRules with a caller-supplied
// memo. The corrector uses this to regenerate a subtree using just the
// rules it wants to consider, seeding the memo with a prior derivation's
// subtrees (via SeedMemo) so generation prefers reusing them.
func (gen *Generator[T]) GenerateFromRulesSeeded(rng *rand.Rand, memo Memo[T], ruleIdxs []int, target T) (*deriv.Derivation[T], bool) {
	st := &state[T]{gen: gen, rng: rng, memo: memo}
	child := st.generateFromList(ruleIdxs, target)
	if child == nil || child.IsLeaf() {
		return nil, false
	}
	return child.AsNode(), true
}

// MemoKey is (term, target value): generation for the same term and the
// same target value always produces the same result.
type MemoKey[T comparable] struct {
	term  grammar.Term
	value T
}

// Memo caches generation results across a GenerateFromRulesSeeded call
// (and, when pre-seeded, across calls): a nil entry for a key that's
// present means that target is being generated further up the call
// stack, which breaks infinite recursion on left-recursive rules, or
// that generating it already failed.
type Memo[T comparable] map[MemoKey[T]]*deriv.Child[T]

// NewMemo returns an empty Memo.
func NewMemo[T comparable]() Memo[T] { return make(Memo[T]) }

// SeedMemo populates m with every subtree of tree, keyed both by its
// actual value and by the payload's default/"unconstrained" value, so a
// later generation call targeting either can find and reuse it.
func SeedMemo[T comparable](m Memo[T], def T, tree *deriv.Derivation[T]) {
	for i := range tree.Children {
		c := tree.Children[i]
		term := tree.Rule.RHS[i]
		m[MemoKey[T]{term: term, value: def}] = &c
		m[MemoKey[T]{term: term, value: c.Value()}] = &c
		if !c.IsLeaf() {
			SeedMemo(m, def, c.AsNode())
		}
	}
}

type state[T comparable] struct {
	gen  *Generator[T]
	rng  *rand.Rand
	memo Memo[T]
}

// generateFromList tries every rule in ruleIdxs independently, then
// samples among the rules that succeeded, weighted 2^SplitScore.
func (st *state[T]) generateFromList(ruleIdxs []int, value T) *deriv.Child[T] {
	type option struct {
		weight float32
		child  *deriv.Child[T]
	}
	var options []option
	for _, ri := range ruleIdxs {
		rule := &st.gen.g.Rules[ri]
		if !rule.SplitEnabled() {
			continue
		}
		if child := st.generateFromRule(ri, value); child != nil {
			options = append(options, option{weight: float32(math.Pow(2, float64(rule.SplitScore))), child: child})
		}
	}
	if len(options) == 0 {
		return nil
	}
	var total float32
	for _, o := range options {
		total += o.weight
	}
	left := st.rng.Float32() * total
	for i, o := range options {
		left -= o.weight
		if left < 0 || i == len(options)-1 {
			return o.child
		}
	}
	return nil
}

// generateFromMemo is the left-recursion-breaking entry point: it installs
// a nil sentinel before recursing, so a term that depends on itself with
// the same target value fails rather than looping forever.
func (st *state[T]) generateFromMemo(term grammar.Term, value T) *deriv.Child[T] {
	key := MemoKey[T]{term: term, value: value}
	if existing, ok := st.memo[key]; ok {
		return existing
	}
	st.memo[key] = nil
	result := st.generateFromTerm(term, value)
	st.memo[key] = result
	return result
}

// generateFromRule runs rule's Split template to enumerate candidate
// argument assignments, builds each candidate's children via
// generateFromMemo (discarding any candidate where a child fails), and
// samples uniformly among the candidates that fully succeeded.
func (st *state[T]) generateFromRule(ruleIdx int, value T) *deriv.Child[T] {
	rule := &st.gen.g.Rules[ruleIdx]
	candidates := rule.Split.Split(value)

	var options [][]deriv.Child[T]
candidateLoop:
	for _, cand := range candidates {
		children := make([]deriv.Child[T], len(rule.RHS))
		for i, term := range rule.RHS {
			v, ok := cand[i]
			if !ok {
				v = st.gen.p.Default()
			}
			child := st.generateFromMemo(term, v)
			if child == nil {
				continue candidateLoop
			}
			children[i] = *child
		}
		options = append(options, children)
	}

	if len(options) == 0 {
		return nil
	}
	children := options[st.rng.Intn(len(options))]
	c := deriv.Node(deriv.New(rule, children))
	return &c
}

func (st *state[T]) generateFromTerm(term grammar.Term, value T) *deriv.Child[T] {
	if term.IsSymbol() {
		return st.generateFromList(st.gen.byName[term.Symbol()], value)
	}
	matches := st.gen.g.Lexer.Unlex(term.Terminal(), value)
	if len(matches) == 0 {
		return nil
	}
	m := matches[st.rng.Intn(len(matches))]
	c := deriv.Leaf(m)
	return &c
}
