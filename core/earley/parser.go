// Package earley implements a weighted Earley chart parser over a
// core/grammar.Grammar: it finds the highest-scoring derivation of an
// input string, optionally skipping a bounded number of unmatched tokens
// along the way.
package earley

import (
	"fmt"
	"io"

	"github.com/dekarrin/glossa/core/deriv"
	"github.com/dekarrin/glossa/core/grammar"
)

// Options configures a Parse call. The zero value disables token-skipping
// and debug tracing.
type Options struct {
	// SkipWindow is the maximum number of consecutive tokens a parse may
	// skip over while still finding a path to a later state. 0 disables
	// skipping entirely (the classic Earley recognizer).
	SkipWindow int
	// SkipPenalty is added to a candidate's score for every token it
	// skips over. It should be negative (or zero, to not penalize
	// skipping at all) for skipping to behave like a last resort.
	SkipPenalty float32
	// Debug, if non-nil, receives a per-column trace of states and
	// scores as the chart is built.
	Debug io.Writer
}

// ErrNoParse reports that no derivation of the input reaches Start.
type ErrNoParse struct {
	Input string
}

func (e *ErrNoParse) Error() string {
	return fmt.Sprintf("no parse found for %q", e.Input)
}

// Parse lexes input with g's lexer and returns the best-scoring derivation
// rooted at g.Start, or ErrNoParse if none exists. g must have been
// Compiled already.
func Parse[T any](g *grammar.Grammar[T], input string, opts Options) (*deriv.Derivation[T], error) {
	tokens := g.Lexer.Lex(input)
	return ParseTokens(g, tokens, opts)
}

// ParseTokens is Parse for callers that have already lexed their input
// (or synthesized tokens directly, e.g. in tests).
func ParseTokens[T any](g *grammar.Grammar[T], tokens []grammar.Token[T], opts Options) (*deriv.Derivation[T], error) {
	var dbg *debugSink
	if opts.Debug != nil {
		dbg = &debugSink{w: opts.Debug}
	}
	d, ok := parse(g, tokens, opts.SkipWindow, opts.SkipPenalty, dbg)
	if !ok {
		return nil, &ErrNoParse{Input: renderTokens(tokens)}
	}
	return d, nil
}

func renderTokens[T any](tokens []grammar.Token[T]) string {
	s := ""
	for i, t := range tokens {
		if i > 0 {
			s += " "
		}
		s += t.Text
	}
	return s
}
