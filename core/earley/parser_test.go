package earley

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/glossa/core/grammar"
	"github.com/dekarrin/glossa/core/payload"
	"github.com/dekarrin/glossa/core/tense"
)

func Test_Parse_Arithmetic(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		want   int
		wantOK bool
	}{
		{name: "precedence and parens", input: "(1+2)*3-4+5*6", want: 35, wantOK: true},
		{name: "mixed precedence", input: "1+2*(3-4)+5*6", want: 29, wantOK: true},
		{name: "unbalanced parens", input: "1+2*3-4)+5*(6", wantOK: false},
	}

	g := arithGrammar()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)
			d, err := Parse(g, tc.input, Options{})
			if !tc.wantOK {
				assert.Error(err)
				return
			}
			require.NoError(t, err)
			assert.Equal(tc.want, d.Value)
		})
	}
}

func Test_Parse_EmptyInput(t *testing.T) {
	assert := assert.New(t)
	g := arithGrammar()
	_, err := Parse(g, "", Options{})
	assert.Error(err, "arithmetic grammar has no empty derivation of $Expr")
}

// Symbol ids for the scoring-ambiguity grammar below: $Root picks between
// two competing global readings of the whole string, an a-biased one and
// a b-biased one. Each reading scores its preferred character +1 and
// passes any other character through unscored-but-penalized (-1, and not
// appended to the value), so $Root ends up choosing whichever reading's
// preferred character appears more often.
const (
	symRoot  grammar.SymbolID = iota
	symAMode
	symBMode
)

type stringPayload struct{}

func (stringPayload) Default() string                   { return "" }
func (stringPayload) IsDefault(x string) bool            { return x == "" }
func (stringPayload) BaseLex(text string) string         { return text }
func (stringPayload) BaseUnlex(x string) (string, bool)  { return x, true }
func (stringPayload) Parse(text string) (string, error)  { return text, nil }
func (stringPayload) Stringify(x string) string          { return x }
func (stringPayload) Template(source string) (payload.Template[string], error) {
	return nil, &payload.ErrTemplate{Source: source, Reason: "not supported by stringPayload"}
}

// scoringLexer offers terminal "other" on every character (an unscored
// catch-all any $AMode/$BMode can fall back to) plus "a" or "b" when the
// character actually is one.
type scoringLexer struct{}

func (scoringLexer) Lex(input string) []grammar.Token[string] {
	var tokens []grammar.Token[string]
	for _, r := range input {
		text := string(r)
		matches := map[string]grammar.TokenMatch[string]{
			"other": {Score: 0, Match: &grammar.Match[string]{Texts: map[string]string{"latin": text}, Value: text}},
		}
		if text == "a" || text == "b" {
			matches[text] = grammar.TokenMatch[string]{Score: 0, Match: &grammar.Match[string]{Texts: map[string]string{"latin": text}, Value: text}}
		}
		tokens = append(tokens, grammar.Token[string]{Text: text, Matches: matches})
	}
	return tokens
}
func (scoringLexer) Unlex(terminal string, value string) []*grammar.Match[string] { return nil }
func (scoringLexer) Fix(m *grammar.Match[string], target tense.Tense) []*grammar.Match[string] {
	return nil
}
func (scoringLexer) TenseOf(raw map[string]string) (tense.Tense, error) {
	return tense.New(nil, raw)
}

func scoringGrammar() *grammar.Grammar[string] {
	p := stringPayload{}
	unit := payload.Unit[string](p)
	def := payload.DefaultTemplate[string]{P: p}
	concat := payload.FnTemplate[string]{
		MergeFunc: func(args payload.Args[string]) string { return args[0] + args[1] },
		SplitFunc: func(string) []payload.Args[string] { return nil },
	}
	passthrough := payload.FnTemplate[string]{
		MergeFunc: func(args payload.Args[string]) string { return args[0] },
		SplitFunc: func(string) []payload.Args[string] { return nil },
	}
	g := &grammar.Grammar[string]{
		Names: []string{"Root", "AMode", "BMode"},
		Start: symRoot,
		Lexer: scoringLexer{},
	}
	g.Rules = []grammar.Rule[string]{
		{LHS: symRoot, RHS: []grammar.Term{grammar.Sym(symAMode)}, Merge: unit, Split: unit},
		{LHS: symRoot, RHS: []grammar.Term{grammar.Sym(symBMode)}, Merge: unit, Split: unit},

		{LHS: symAMode, RHS: nil, Merge: def, Split: def},
		{LHS: symAMode, RHS: []grammar.Term{grammar.Sym(symAMode), grammar.Tok("a")}, Merge: concat, Split: concat, MergeScore: 1},
		{LHS: symAMode, RHS: []grammar.Term{grammar.Sym(symAMode), grammar.Tok("other")}, Merge: passthrough, Split: passthrough, MergeScore: -1},

		{LHS: symBMode, RHS: nil, Merge: def, Split: def},
		{LHS: symBMode, RHS: []grammar.Term{grammar.Sym(symBMode), grammar.Tok("b")}, Merge: concat, Split: concat, MergeScore: 1},
		{LHS: symBMode, RHS: []grammar.Term{grammar.Sym(symBMode), grammar.Tok("other")}, Merge: passthrough, Split: passthrough, MergeScore: -1},
	}
	g.Compile()
	return g
}

func Test_Parse_ScoringAmbiguity(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "all matching", input: "aaa", want: "aaa"},
		{name: "a-biased branch wins", input: "aab", want: "aa"},
		{name: "b-biased branch wins", input: "bab", want: "bb"},
	}

	g := scoringGrammar()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)
			d, err := Parse(g, tc.input, Options{})
			require.NoError(t, err)
			assert.Equal(tc.want, d.Value)
		})
	}
}

func Test_Parse_Skipping(t *testing.T) {
	g := arithGrammar()

	t.Run("single skip recovers", func(t *testing.T) {
		assert := assert.New(t)
		d, err := Parse(g, "1+2?+3", Options{SkipWindow: 1, SkipPenalty: -1})
		require.NoError(t, err)
		assert.Equal(6, d.Value)
	})

	t.Run("double skip exceeds window", func(t *testing.T) {
		assert := assert.New(t)
		_, err := Parse(g, "1+2??+3", Options{SkipWindow: 1, SkipPenalty: -1})
		assert.Error(err)
	})

	t.Run("double skip within larger window", func(t *testing.T) {
		assert := assert.New(t)
		d, err := Parse(g, "1+2??+3", Options{SkipWindow: 2, SkipPenalty: -1})
		require.NoError(t, err)
		assert.Equal(6, d.Value)
	})
}
