package earley

import (
	"github.com/dekarrin/glossa/core/grammar"
	"github.com/dekarrin/glossa/core/payload"
	"github.com/dekarrin/glossa/core/tense"
)

// intPayload is the minimal payload.Payload[int] used by every core
// package's tests: default is zero, text is meaningless, templates are
// supplied per-rule as payload.FnTemplate instances rather than compiled
// from source.
type intPayload struct{}

func (intPayload) Default() int                    { return 0 }
func (intPayload) IsDefault(x int) bool             { return x == 0 }
func (intPayload) BaseLex(text string) int          { return 0 }
func (intPayload) BaseUnlex(x int) (string, bool)    { return "", false }
func (intPayload) Parse(text string) (int, error)    { return 0, nil }
func (intPayload) Stringify(x int) string            { return "" }
func (intPayload) Template(source string) (payload.Template[int], error) {
	return nil, &payload.ErrTemplate{Source: source, Reason: "not supported by intPayload"}
}

// charLexer lexes one rune per token; a rune's terminal name is its own
// string form, so a grammar rule like grammar.Tok("+") matches literal
// plus signs and grammar.Tok("5") matches the literal digit five. Runes
// outside [0-9+-*/()] produce a token with no matches at all, modelling
// "unrecognized input" for the token-skipping tests.
type charLexer struct{}

func (charLexer) Lex(input string) []grammar.Token[int] {
	var tokens []grammar.Token[int]
	for _, r := range input {
		text := string(r)
		tok := grammar.Token[int]{Text: text, Matches: map[string]grammar.TokenMatch[int]{}}
		if isDigit(r) {
			tok.Matches[text] = grammar.TokenMatch[int]{Score: 0, Match: &grammar.Match[int]{
				Texts: map[string]string{"latin": text},
				Value: int(r - '0'),
			}}
		} else if isOperator(r) {
			tok.Matches[text] = grammar.TokenMatch[int]{Score: 0, Match: &grammar.Match[int]{
				Texts: map[string]string{"latin": text},
			}}
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

func (charLexer) Unlex(terminal string, value int) []*grammar.Match[int] {
	if len(terminal) != 1 {
		return nil
	}
	r := rune(terminal[0])
	if isDigit(r) && value == int(r-'0') {
		return []*grammar.Match[int]{{Texts: map[string]string{"latin": terminal}, Value: value}}
	}
	if isOperator(r) && value == 0 {
		return []*grammar.Match[int]{{Texts: map[string]string{"latin": terminal}}}
	}
	return nil
}

func (charLexer) Fix(m *grammar.Match[int], target tense.Tense) []*grammar.Match[int] {
	return nil
}

func (charLexer) TenseOf(raw map[string]string) (tense.Tense, error) {
	return tense.New(nil, raw)
}

func isDigit(r rune) bool    { return r >= '0' && r <= '9' }
func isOperator(r rune) bool { return r == '+' || r == '-' || r == '*' || r == '/' || r == '(' || r == ')' }

// Symbol ids for the arithmetic grammar: $Expr -> $Expr (+|-) $Term | $Term;
// $Term -> $Term (*|/) $Num | $Num; $Num -> 0..9 | ( $Expr ).
const (
	symExpr grammar.SymbolID = iota
	symTerm
	symNum
)

func arithGrammar() *grammar.Grammar[int] {
	p := intPayload{}
	unit := payload.Unit[int](p)
	binOp := func(f func(a, b int) int) payload.Template[int] {
		return payload.FnTemplate[int]{
			MergeFunc: func(args payload.Args[int]) int { return f(args[0], args[2]) },
			SplitFunc: func(int) []payload.Args[int] { return nil },
		}
	}
	paren := payload.FnTemplate[int]{
		MergeFunc: func(args payload.Args[int]) int { return args[1] },
		SplitFunc: func(int) []payload.Args[int] { return nil },
	}

	g := &grammar.Grammar[int]{
		Names: []string{"Expr", "Term", "Num"},
		Start: symExpr,
		Lexer: charLexer{},
	}

	g.Rules = append(g.Rules,
		grammar.Rule[int]{LHS: symExpr, RHS: []grammar.Term{grammar.Sym(symTerm)}, Merge: unit, Split: unit},
		grammar.Rule[int]{LHS: symExpr, RHS: []grammar.Term{grammar.Sym(symExpr), grammar.Tok("+"), grammar.Sym(symTerm)},
			Merge: binOp(func(a, b int) int { return a + b }), Split: payload.FnTemplate[int]{SplitFunc: func(int) []payload.Args[int] { return nil }}},
		grammar.Rule[int]{LHS: symExpr, RHS: []grammar.Term{grammar.Sym(symExpr), grammar.Tok("-"), grammar.Sym(symTerm)},
			Merge: binOp(func(a, b int) int { return a - b }), Split: payload.FnTemplate[int]{SplitFunc: func(int) []payload.Args[int] { return nil }}},

		grammar.Rule[int]{LHS: symTerm, RHS: []grammar.Term{grammar.Sym(symNum)}, Merge: unit, Split: unit},
		grammar.Rule[int]{LHS: symTerm, RHS: []grammar.Term{grammar.Sym(symTerm), grammar.Tok("*"), grammar.Sym(symNum)},
			Merge: binOp(func(a, b int) int { return a * b }), Split: payload.FnTemplate[int]{SplitFunc: func(int) []payload.Args[int] { return nil }}},
		grammar.Rule[int]{LHS: symTerm, RHS: []grammar.Term{grammar.Sym(symTerm), grammar.Tok("/"), grammar.Sym(symNum)},
			Merge: binOp(func(a, b int) int { return a / b }), Split: payload.FnTemplate[int]{SplitFunc: func(int) []payload.Args[int] { return nil }}},

		grammar.Rule[int]{
			LHS: symNum, RHS: []grammar.Term{grammar.Tok("("), grammar.Sym(symExpr), grammar.Tok(")")},
			Merge: paren, Split: paren,
		},
	)

	for d := 0; d <= 9; d++ {
		digit := string(rune('0' + d))
		g.Rules = append(g.Rules, grammar.Rule[int]{
			LHS: symNum, RHS: []grammar.Term{grammar.Tok(digit)}, Merge: unit, Split: unit,
		})
	}

	g.Compile()
	return g
}
