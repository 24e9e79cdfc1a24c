package lexicon

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/dekarrin/glossa/core/grammar"
	"github.com/dekarrin/glossa/core/payload"
	"github.com/dekarrin/glossa/core/tense"
)

// WordForm is one inflected surface realisation of a WordEntry: the
// terminal it satisfies, its literal text, and the tense(s) it's valid in.
// A nil/empty Tenses means the form carries no agreement constraint of its
// own (Fix always keeps it).
type WordForm struct {
	Terminal string
	Text     string
	Tenses   []tense.Tense
}

// WordEntry is one lemma: a semantic value shared by every one of its
// inflected forms.
type WordEntry[T any] struct {
	Value T
	Forms []WordForm
}

type textHit[T any] struct {
	entry *WordEntry[T]
	form  *WordForm
}

// Words is a closed-vocabulary lexicon for whitespace-separated text:
// Lex splits on whitespace and looks each word up by its NFC-normalised
// form; Unlex and Fix use P.Stringify to decide which entries share a
// lemma, since T itself need not be comparable.
type Words[T any] struct {
	P       payload.Payload[T]
	Entries []WordEntry[T]

	byText map[string]textHit[T]
}

// NewWords indexes entries by normalised surface text for Lex. Entries is
// kept by reference to build the index; re-slicing it after construction
// does not update the index.
func NewWords[T any](p payload.Payload[T], entries []WordEntry[T]) *Words[T] {
	w := &Words[T]{P: p, Entries: entries, byText: map[string]textHit[T]{}}
	for i := range w.Entries {
		e := &w.Entries[i]
		for j := range e.Forms {
			f := &e.Forms[j]
			w.byText[norm.NFC.String(f.Text)] = textHit[T]{entry: e, form: f}
		}
	}
	return w
}

func (w *Words[T]) Lex(input string) []grammar.Token[T] {
	var toks []grammar.Token[T]
	for _, raw := range strings.Fields(input) {
		key := norm.NFC.String(raw)
		matches := map[string]grammar.TokenMatch[T]{}
		if hit, ok := w.byText[key]; ok {
			matches[hit.form.Terminal] = grammar.TokenMatch[T]{Match: &grammar.Match[T]{
				Texts:  map[string]string{"default": hit.form.Text},
				Tenses: hit.form.Tenses,
				Value:  hit.entry.Value,
			}}
		}
		toks = append(toks, grammar.Token[T]{Text: raw, Matches: matches})
	}
	return toks
}

// Unlex returns every form of every entry whose value equals target (by
// Stringify) and which realises terminal. If target is the payload
// default, every entry realising terminal is a candidate, not just a
// default-valued one: a default semantic value matches anything.
func (w *Words[T]) Unlex(terminal string, target T) []*grammar.Match[T] {
	wantDefault := w.P.IsDefault(target)
	wantStr := w.P.Stringify(target)

	var out []*grammar.Match[T]
	for i := range w.Entries {
		e := &w.Entries[i]
		if !wantDefault && w.P.Stringify(e.Value) != wantStr {
			continue
		}
		for j := range e.Forms {
			f := &e.Forms[j]
			if f.Terminal != terminal {
				continue
			}
			out = append(out, &grammar.Match[T]{
				Texts:  map[string]string{"default": f.Text},
				Tenses: f.Tenses,
				Value:  e.Value,
			})
		}
	}
	return out
}

// Fix returns every form sharing m's lemma (same Value by Stringify) whose
// tense list agrees with target.
func (w *Words[T]) Fix(m *grammar.Match[T], target tense.Tense) []*grammar.Match[T] {
	mStr := w.P.Stringify(m.Value)

	var out []*grammar.Match[T]
	for i := range w.Entries {
		e := &w.Entries[i]
		if w.P.Stringify(e.Value) != mStr {
			continue
		}
		for j := range e.Forms {
			f := &e.Forms[j]
			if formAgrees(f.Tenses, target) {
				out = append(out, &grammar.Match[T]{
					Texts:  map[string]string{"default": f.Text},
					Tenses: f.Tenses,
					Value:  e.Value,
				})
			}
		}
	}
	return out
}

func formAgrees(tenses []tense.Tense, target tense.Tense) bool {
	if len(tenses) == 0 {
		return true
	}
	for _, ts := range tenses {
		if ts.Agree(target) {
			return true
		}
	}
	return false
}

func (w *Words[T]) TenseOf(raw map[string]string) (tense.Tense, error) {
	return tense.New(nil, raw)
}
