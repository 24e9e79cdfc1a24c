// Package lexicon holds small, concrete grammar.Lexer implementations used
// to exercise the core engine end-to-end: Chars, a one-rune-per-token
// lexicon for terminal grammars over a character alphabet, and Words, a
// closed-vocabulary whitespace lexicon for agreement scenarios.
package lexicon

import (
	"github.com/dekarrin/glossa/core/grammar"
	"github.com/dekarrin/glossa/core/payload"
	"github.com/dekarrin/glossa/core/tense"
)

// Chars lexes input one rune at a time. Each rune's own string form is a
// terminal name (so grammar.Tok("+") matches a literal plus sign), and
// every token also carries a grammar.CatchAllTerminal entry built from
// P.BaseLex, for terminals the grammar names generically rather than by
// literal character.
type Chars[T any] struct {
	P payload.Payload[T]
}

func (c Chars[T]) Lex(input string) []grammar.Token[T] {
	var toks []grammar.Token[T]
	for _, r := range input {
		text := string(r)
		m := &grammar.Match[T]{Texts: map[string]string{"default": text}, Value: c.P.BaseLex(text)}
		toks = append(toks, grammar.Token[T]{
			Text: text,
			Matches: map[string]grammar.TokenMatch[T]{
				text:                     {Match: m},
				grammar.CatchAllTerminal: {Match: m},
			},
		})
	}
	return toks
}

// Unlex returns the single-rune match realising terminal, if P can project
// value back to text and the projected text either names terminal directly
// or terminal is the catch-all.
func (c Chars[T]) Unlex(terminal string, value T) []*grammar.Match[T] {
	text, ok := c.P.BaseUnlex(value)
	if !ok {
		return nil
	}
	if terminal != grammar.CatchAllTerminal && terminal != text {
		return nil
	}
	return []*grammar.Match[T]{{Texts: map[string]string{"default": text}, Value: value}}
}

// Fix is a no-op: individual characters carry no tense of their own to
// correct.
func (c Chars[T]) Fix(m *grammar.Match[T], target tense.Tense) []*grammar.Match[T] {
	return []*grammar.Match[T]{m}
}

func (c Chars[T]) TenseOf(raw map[string]string) (tense.Tense, error) {
	return tense.New(nil, raw)
}
