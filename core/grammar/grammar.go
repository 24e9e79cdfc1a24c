// Package grammar holds the immutable data model shared by the parser,
// generator, and corrector: symbols, weighted rules, the lexer interface,
// and the load-time diagnostics that validate a grammar once so none of
// the three operations need to re-check it.
package grammar

import (
	"fmt"
	"math"

	"github.com/dekarrin/glossa/core/payload"
	"github.com/dekarrin/glossa/core/tense"
)

// SymbolID is the integer id of a non-terminal, indexing into a Grammar's
// Names table.
type SymbolID int

// Term is either a non-terminal (Symbol) or a terminal matched against a
// token's match table by name.
type Term struct {
	symbol    SymbolID
	terminal  string
	isSymbol  bool
}

// Sym builds a non-terminal term.
func Sym(id SymbolID) Term { return Term{symbol: id, isSymbol: true} }

// Tok builds a terminal term matched by name against a token's match table.
func Tok(name string) Term { return Term{terminal: name} }

// IsSymbol reports whether this term is a non-terminal.
func (t Term) IsSymbol() bool { return t.isSymbol }

// Symbol returns the term's symbol id; only meaningful if IsSymbol is true.
func (t Term) Symbol() SymbolID { return t.symbol }

// Terminal returns the term's terminal name; only meaningful if IsSymbol
// is false.
func (t Term) Terminal() string { return t.terminal }

func (t Term) String() string {
	if t.isSymbol {
		return fmt.Sprintf("$%d", t.symbol)
	}
	return t.terminal
}

// ScoreIgnore marks a merge or split score as making the rule invisible to
// the parser (merge == -Inf) or generator (split == -Inf) respectively.
var ScoreIgnore = float32(math.Inf(-1))

// Rule is one production: lhs -> rhs, with bidirectional semantics
// (Merge/Split templates and their standalone scores), and the agreement
// data the corrector needs (BaseTense, Precedence).
type Rule[T any] struct {
	LHS   SymbolID
	RHS   []Term
	Merge payload.Template[T]
	// MergeScore is added into a parser state's score when this rule is
	// applied. A rule with MergeScore == ScoreIgnore is invisible to the
	// parser (Earley predict skips it).
	MergeScore float32
	Split      payload.Template[T]
	// SplitScore biases the generator's weighted sampling over rules
	// sharing an lhs (weight 2^SplitScore). A rule with SplitScore ==
	// ScoreIgnore is invisible to the generator.
	SplitScore float32
	// Precedence lists RHS term indices in the order the corrector visits
	// them to accumulate a tense context; indices absent from Precedence
	// are still corrected, but don't propagate their tense to siblings.
	Precedence []int
	BaseTense  tense.Tense
}

// MergeEnabled reports whether the parser may use this rule.
func (r Rule[T]) MergeEnabled() bool { return r.MergeScore != ScoreIgnore }

// SplitEnabled reports whether the generator may use this rule.
func (r Rule[T]) SplitEnabled() bool { return r.SplitScore != ScoreIgnore }

// Grammar is the immutable table a parse/generate/correct call is run
// against: named symbols, weighted rules, a start symbol, and the lexer
// collaborator providing lex/unlex/fix/tense.
type Grammar[T any] struct {
	Names []string
	Rules []Rule[T]
	Start SymbolID
	Lexer Lexer[T]

	byLHS [][]int // rule indices by LHS, built by Compile
}

// Compile indexes g's rules by LHS for fast lookup during parsing and
// generation. Callers must call Compile once after building a Grammar and
// before using it; Compile does not mutate Rules or Names.
func (g *Grammar[T]) Compile() {
	g.byLHS = make([][]int, len(g.Names))
	for i, r := range g.Rules {
		g.byLHS[r.LHS] = append(g.byLHS[r.LHS], i)
	}
}

// RulesFor returns the indices of every rule with the given LHS symbol.
func (g *Grammar[T]) RulesFor(sym SymbolID) []int {
	if int(sym) >= len(g.byLHS) {
		return nil
	}
	return g.byLHS[sym]
}

// Name returns the display name of a symbol id.
func (g *Grammar[T]) Name(sym SymbolID) string {
	if int(sym) >= len(g.Names) {
		return fmt.Sprintf("$%d", sym)
	}
	return g.Names[sym]
}

// Match is one lexical entry: its surface forms (keyed by writing system
// or feature name), the disjunction of tenses it's acceptable in, and its
// semantic value.
type Match[T any] struct {
	Texts  map[string]string
	Tenses []tense.Tense
	Value  T
}

// TokenMatch is one (score, Match) entry in a Token's match table.
type TokenMatch[T any] struct {
	Score float32
	Match *Match[T]
}

// Token covers one atomic span of input; Matches maps terminal names the
// grammar might refer to onto the entries that terminal could bind to
// here, including a synthetic "%token" catch-all passthrough key.
type Token[T any] struct {
	Text    string
	Matches map[string]TokenMatch[T]
}

// CatchAllTerminal is the synthetic terminal name a lexer may populate
// with a default-payload passthrough entry, for terminals the grammar
// doesn't otherwise recognize.
const CatchAllTerminal = "%token"

// Lexer is the external collaborator producing tokens from input text and
// lexical entries from semantic targets. Implementations must be
// thread-safe if shared across concurrently-running parse/generate/
// correct calls.
type Lexer[T any] interface {
	// Lex splits input into tokens, each with a match table keyed by
	// terminal name.
	Lex(input string) []Token[T]
	// Unlex returns lexical entries whose value equals the target value
	// (or any entry if the target is the payload default) and whose
	// texts realise the given terminal.
	Unlex(terminal string, value T) []*Match[T]
	// Fix returns entries sharing m's underlying lemma and payload,
	// filtered to those whose tense list agrees with target.
	Fix(m *Match[T], target tense.Tense) []*Match[T]
	// TenseOf interns a raw tense description into the tense algebra's
	// canonical form.
	TenseOf(raw map[string]string) (tense.Tense, error)
}
