// Package grammarsrc loads the textual grammar-source format into a
// compiled core/grammar.Grammar: a `lexer: ``` ... ``` ` block handed off
// to a caller-supplied factory, followed by one rule per line in the form
//
//	$Name! = rhs... (= 'template') (< mergeScore) (> splitScore) (? category value)...
//
// RHS items may carry a `:N` slot-index override, a trailing `?` marking
// them optional, and a trailing `*`/`^` marking them max/min correction
// precedence. Tokenising reuses internal/ictiobus/lex, the same
// regex-pattern engine tunascript/fe's generated lexer is built on.
package grammarsrc

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/dekarrin/glossa/core/grammar"
	"github.com/dekarrin/glossa/core/payload"
	"github.com/dekarrin/glossa/internal/ictiobus/lex"
	"github.com/dekarrin/glossa/internal/ictiobus/types"
)

// LexerFactory builds a grammar's lexical collaborator from the raw text
// inside a grammar-source file's `lexer: ``` ... ``` ` block. This is the
// concrete form of the "collaborator closure" a grammar source needs:
// the loader has no opinion on how terminals are matched against input,
// only on the rule table shape around that decision.
type LexerFactory[T any] func(source string) (grammar.Lexer[T], error)

// ErrSyntax is returned for a malformed grammar-source line, naming the
// 1-indexed line number so callers can report it without re-scanning.
type ErrSyntax struct {
	Line   int
	Reason string
}

func (e *ErrSyntax) Error() string {
	return fmt.Sprintf("grammar source, line %d: %s", e.Line, e.Reason)
}

const (
	clSymbol = "symbol"
	clBang   = "bang"
	clEq     = "eq"
	clLt     = "lt"
	clGt     = "gt"
	clLParen = "lparen"
	clRParen = "rparen"
	clQMark  = "qmark"
	clStar   = "star"
	clCaret  = "caret"
	clColon  = "colon"
	clNumber = "number"
	clQuoted = "quoted"
	clWord   = "word"
)

func newLineLexer() lex.Lexer {
	lx := lex.NewLexer()
	classes := []string{clSymbol, clBang, clEq, clLt, clGt, clLParen, clRParen, clQMark, clStar, clCaret, clColon, clNumber, clQuoted, clWord}
	for _, c := range classes {
		lx.AddClass(types.MakeDefaultClass(c), "")
	}
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}
	must(lx.AddPattern(`\$[A-Za-z][A-Za-z0-9_]*`, lex.LexAs(clSymbol), ""))
	must(lx.AddPattern(`!`, lex.LexAs(clBang), ""))
	must(lx.AddPattern(`=`, lex.LexAs(clEq), ""))
	must(lx.AddPattern(`<`, lex.LexAs(clLt), ""))
	must(lx.AddPattern(`>`, lex.LexAs(clGt), ""))
	must(lx.AddPattern(`\(`, lex.LexAs(clLParen), ""))
	must(lx.AddPattern(`\)`, lex.LexAs(clRParen), ""))
	must(lx.AddPattern(`\?`, lex.LexAs(clQMark), ""))
	must(lx.AddPattern(`\*`, lex.LexAs(clStar), ""))
	must(lx.AddPattern(`\^`, lex.LexAs(clCaret), ""))
	must(lx.AddPattern(`:`, lex.LexAs(clColon), ""))
	must(lx.AddPattern(`-?[0-9]+(?:\.[0-9]+)?`, lex.LexAs(clNumber), ""))
	must(lx.AddPattern(`'(?:\\.|[^'\\])*'`, lex.LexAs(clQuoted), ""))
	must(lx.AddPattern(`[A-Za-z_][A-Za-z0-9_]*`, lex.LexAs(clWord), ""))
	must(lx.AddPattern(`\s+`, lex.Discard(), ""))
	return lx
}

func tokenizeLine(lineLexer lex.Lexer, line string, lineNum int) ([]types.Token, error) {
	stream, err := lineLexer.Lex(strings.NewReader(line))
	if err != nil {
		return nil, err
	}
	var toks []types.Token
	for stream.HasNext() {
		tok := stream.Next()
		if tok.Class().ID() == types.TokenError.ID() {
			return nil, &ErrSyntax{Line: lineNum, Reason: tok.Lexeme()}
		}
		if tok.Class().ID() == types.TokenEndOfText.ID() {
			break
		}
		toks = append(toks, tok)
	}
	return toks, nil
}

// symbolTable assigns stable SymbolIDs to $Name references in declaration
// or first-use order, whichever comes first in the source.
type symbolTable struct {
	order []string
	ids   map[string]grammar.SymbolID
}

func newSymbolTable() *symbolTable {
	return &symbolTable{ids: map[string]grammar.SymbolID{}}
}

func (st *symbolTable) idFor(name string) grammar.SymbolID {
	if id, ok := st.ids[name]; ok {
		return id
	}
	id := grammar.SymbolID(len(st.order))
	st.ids[name] = id
	st.order = append(st.order, name)
	return id
}

// pendingTerm is one RHS item mid-parse, before its slot/precedence
// metadata is folded into the rule's Slot wrapper and Precedence list.
type pendingTerm struct {
	term       grammar.Term
	slotIndex  int
	hasSlot    bool
	optional   bool
	precedence rune // 0, '*', or '^'
}

// Load reads a grammar-source document, builds the grammar's Lexer via
// factory from the embedded `lexer: ``` ... ``` ` block, and compiles the
// remaining rule lines into a *grammar.Grammar ready for Compile.
func Load[T any](source string, p payload.Payload[T], factory LexerFactory[T]) (*grammar.Grammar[T], error) {
	lexerSrc, rest, err := extractLexerBlock(source)
	if err != nil {
		return nil, err
	}
	lx, err := factory(lexerSrc)
	if err != nil {
		return nil, fmt.Errorf("building lexer: %w", err)
	}

	lineLexer := newLineLexer()
	st := newSymbolTable()

	var rules []grammar.Rule[T]
	var startSet bool
	var start grammar.SymbolID

	scanner := bufio.NewScanner(strings.NewReader(rest))
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		raw := scanner.Text()
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		toks, err := tokenizeLine(lineLexer, line, lineNum)
		if err != nil {
			return nil, err
		}
		rule, lhsName, err := parseRuleLine(toks, lineNum, st, p, lx)
		if err != nil {
			return nil, err
		}
		if !startSet {
			start = st.idFor(lhsName)
			startSet = true
		}
		rules = append(rules, rule)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading grammar source: %w", err)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("grammar source declares no rules")
	}

	g := &grammar.Grammar[T]{
		Names: append([]string(nil), st.order...),
		Rules: rules,
		Start: start,
		Lexer: lx,
	}
	g.Compile()
	return g, nil
}

func extractLexerBlock(source string) (lexerSrc string, rest string, err error) {
	idx := strings.Index(source, "lexer:")
	if idx < 0 {
		return "", source, fmt.Errorf("grammar source is missing a %q block", "lexer:")
	}
	after := source[idx+len("lexer:"):]
	fenceStart := strings.Index(after, "```")
	if fenceStart < 0 {
		return "", "", fmt.Errorf("lexer block is missing its opening ``` fence")
	}
	after = after[fenceStart+3:]
	fenceEnd := strings.Index(after, "```")
	if fenceEnd < 0 {
		return "", "", fmt.Errorf("lexer block is missing its closing ``` fence")
	}
	lexerSrc = strings.TrimSpace(after[:fenceEnd])
	// keep the removed block's newlines so rule line numbers stay those of
	// the source document
	tail := after[fenceEnd+3:]
	removed := source[idx : len(source)-len(tail)]
	rest = source[:idx] + strings.Repeat("\n", strings.Count(removed, "\n")) + tail
	return lexerSrc, rest, nil
}

func parseRuleLine[T any](toks []types.Token, lineNum int, st *symbolTable, p payload.Payload[T], lx grammar.Lexer[T]) (grammar.Rule[T], string, error) {
	var rule grammar.Rule[T]
	pos := 0
	next := func() (types.Token, bool) {
		if pos >= len(toks) {
			return nil, false
		}
		t := toks[pos]
		pos++
		return t, true
	}
	peekClass := func() string {
		if pos >= len(toks) {
			return ""
		}
		return toks[pos].Class().ID()
	}

	head, ok := next()
	if !ok || head.Class().ID() != clSymbol {
		return rule, "", &ErrSyntax{Line: lineNum, Reason: "expected rule to start with a $Symbol"}
	}
	lhsName := strings.TrimPrefix(head.Lexeme(), "$")
	rule.LHS = st.idFor(lhsName)

	if peekClass() == clBang {
		next()
	}

	eqTok, ok := next()
	if !ok || eqTok.Class().ID() != clEq {
		return rule, "", &ErrSyntax{Line: lineNum, Reason: "expected '=' after rule head"}
	}

	var pending []pendingTerm
	for {
		c := peekClass()
		if c != clSymbol && c != clQuoted {
			break
		}
		tTok, _ := next()
		pt := pendingTerm{}
		if tTok.Class().ID() == clSymbol {
			pt.term = grammar.Sym(st.idFor(strings.TrimPrefix(tTok.Lexeme(), "$")))
		} else {
			pt.term = grammar.Tok(unquote(tTok.Lexeme()))
		}

		for {
			switch peekClass() {
			case clColon:
				next()
				numTok, ok := next()
				if !ok || numTok.Class().ID() != clNumber {
					return rule, "", &ErrSyntax{Line: lineNum, Reason: "expected a number after ':'"}
				}
				n, err := strconv.Atoi(numTok.Lexeme())
				if err != nil {
					return rule, "", &ErrSyntax{Line: lineNum, Reason: "bad slot index: " + err.Error()}
				}
				pt.slotIndex = n
				pt.hasSlot = true
				continue
			case clQMark:
				next()
				pt.optional = true
				continue
			case clStar:
				next()
				pt.precedence = '*'
				continue
			case clCaret:
				next()
				pt.precedence = '^'
				continue
			}
			break
		}
		pending = append(pending, pt)
	}

	rhs := make([]grammar.Term, len(pending))
	for i, pt := range pending {
		rhs[i] = pt.term
	}
	rule.RHS = rhs
	rule.Precedence = buildPrecedence(pending)

	rawTense := map[string]string{}
	rule.MergeScore = 0
	rule.SplitScore = 0

	for peekClass() == clLParen {
		next()
		switch peekClass() {
		case clEq:
			next()
			tmplTok, ok := next()
			if !ok || tmplTok.Class().ID() != clQuoted {
				return rule, "", &ErrSyntax{Line: lineNum, Reason: "expected a quoted template source after '='"}
			}
			tmpl, err := p.Template(unquote(tmplTok.Lexeme()))
			if err != nil {
				return rule, "", fmt.Errorf("line %d: %w", lineNum, err)
			}
			slotted := wrapSlot(tmpl, pending, p)
			rule.Merge = slotted
			rule.Split = slotted
		case clLt:
			next()
			numTok, ok := next()
			if !ok || numTok.Class().ID() != clNumber {
				return rule, "", &ErrSyntax{Line: lineNum, Reason: "expected a number after '<'"}
			}
			f, _ := strconv.ParseFloat(numTok.Lexeme(), 32)
			rule.MergeScore = float32(f)
		case clGt:
			next()
			numTok, ok := next()
			if !ok || numTok.Class().ID() != clNumber {
				return rule, "", &ErrSyntax{Line: lineNum, Reason: "expected a number after '>'"}
			}
			f, _ := strconv.ParseFloat(numTok.Lexeme(), 32)
			rule.SplitScore = float32(f)
		case clQMark:
			next()
			catTok, ok := next()
			if !ok || catTok.Class().ID() != clWord {
				return rule, "", &ErrSyntax{Line: lineNum, Reason: "expected a category name after '?'"}
			}
			valTok, ok := next()
			if !ok || (valTok.Class().ID() != clWord && valTok.Class().ID() != clNumber) {
				return rule, "", &ErrSyntax{Line: lineNum, Reason: "expected a value after the category name"}
			}
			rawTense[catTok.Lexeme()] = valTok.Lexeme()
		default:
			return rule, "", &ErrSyntax{Line: lineNum, Reason: "unknown '(' clause"}
		}
		closeTok, ok := next()
		if !ok || closeTok.Class().ID() != clRParen {
			return rule, "", &ErrSyntax{Line: lineNum, Reason: "expected ')' to close clause"}
		}
	}

	if rule.Merge == nil {
		def := payload.DefaultTemplate[T]{P: p}
		rule.Merge = def
		rule.Split = def
	}

	if len(rawTense) > 0 {
		ts, err := lx.TenseOf(rawTense)
		if err != nil {
			return rule, "", fmt.Errorf("line %d: %w", lineNum, err)
		}
		rule.BaseTense = ts
	}

	if pos != len(toks) {
		return rule, "", &ErrSyntax{Line: lineNum, Reason: "unexpected trailing tokens"}
	}

	return rule, lhsName, nil
}

// buildPrecedence orders RHS indices by '*' (max) first, then unmarked
// items in RHS order, then '^' (min) last. When no item carries a
// precedence marker, it returns natural RHS order rather than nil: a nil
// Precedence means "every child is non-precedence" to core/correct, which
// is never what an unannotated rule means.
func buildPrecedence(pending []pendingTerm) []int {
	var maxIdx, midIdx, minIdx []int
	marked := false
	for i, pt := range pending {
		switch pt.precedence {
		case '*':
			maxIdx = append(maxIdx, i)
			marked = true
		case '^':
			minIdx = append(minIdx, i)
			marked = true
		default:
			midIdx = append(midIdx, i)
		}
	}
	if !marked {
		out := make([]int, len(pending))
		for i := range pending {
			out[i] = i
		}
		return out
	}
	out := make([]int, 0, len(pending))
	out = append(out, maxIdx...)
	out = append(out, midIdx...)
	out = append(out, minIdx...)
	return out
}

// wrapSlot projects RHS positions onto the compiled template's variable
// numbering: an explicit ':N' annotation overrides which inner variable
// an RHS term feeds, otherwise a term feeds the inner variable matching
// its own RHS position. Slot.Slots is indexed by inner variable position,
// so this builds that array from the (usually identity) RHS->inner map.
func wrapSlot[T any](inner payload.Template[T], pending []pendingTerm, p payload.Payload[T]) payload.Template[T] {
	maxInner := -1
	innerOf := make([]int, len(pending))
	for i, pt := range pending {
		idx := i
		if pt.hasSlot {
			idx = pt.slotIndex
		}
		innerOf[i] = idx
		if idx > maxInner {
			maxInner = idx
		}
	}
	slots := make([]*payload.SlotMapping, maxInner+1)
	for i, pt := range pending {
		slots[innerOf[i]] = &payload.SlotMapping{Index: i, Optional: pt.optional}
	}
	return payload.Slot[T]{N: len(pending), Slots: slots, Inner: inner, P: p}
}

func unquote(lexeme string) string {
	if len(lexeme) >= 2 {
		lexeme = lexeme[1 : len(lexeme)-1]
	}
	return strings.NewReplacer(`\'`, `'`, `\\`, `\`).Replace(lexeme)
}
