package payload

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	corepayload "github.com/dekarrin/glossa/core/payload"
)

// NodeKind distinguishes the four shapes an expression tree Node can take.
type NodeKind int

const (
	KindTerminal NodeKind = iota
	KindBinary
	KindUnary
	KindCustom
)

// BinOp is a flattened n-ary binary operator: Conjunction/Disjunction
// commute (their Children may be reordered freely), Join does not.
type BinOp int

const (
	Conjunction BinOp = iota
	Disjunction
	Join
)

// UnOp is a unary, self-inverse operator: applying it twice is the
// identity, which is what licenses the involution-based simplification
// both Merge and Split rely on (see involute below).
type UnOp int

const (
	Not UnOp = iota
	Reverse
)

// Node is one lambda-DCS-style expression: a terminal symbol, a flattened
// application of a binary operator over two or more operands, a unary
// operator application, or a named custom function call. The nil *Node is
// the default (empty) expression.
type Node struct {
	Kind     NodeKind
	Terminal string
	BinOp    BinOp
	UnOp     UnOp
	Custom   string
	Children []*Node
}

func binCommutes(op BinOp) bool { return op == Conjunction || op == Disjunction }

func binText(op BinOp) string {
	switch op {
	case Conjunction:
		return " & "
	case Disjunction:
		return " | "
	default:
		return "."
	}
}

// binPrecedence/unPrecedence rank operators from tightest- to
// loosest-binding, purely to decide when Stringify must parenthesize a
// child; lower binds tighter.
func binPrecedence(op BinOp) int {
	if op == Join {
		return 0
	}
	return 2
}

func unPrecedence(op UnOp) int {
	if op == Reverse {
		return 3
	}
	return 1
}

const maxPrec = int(^uint(0) >> 1)

func stringify(n *Node, context int) string {
	if n == nil {
		return "-"
	}
	switch n.Kind {
	case KindTerminal:
		return n.Terminal
	case KindBinary:
		prec := binPrecedence(n.BinOp)
		parts := make([]string, len(n.Children))
		for i, c := range n.Children {
			parts[i] = stringify(c, prec)
		}
		if binCommutes(n.BinOp) {
			sort.Strings(parts)
		}
		joined := strings.Join(parts, binText(n.BinOp))
		if prec < context {
			return joined
		}
		return "(" + joined + ")"
	case KindUnary:
		prec := unPrecedence(n.UnOp)
		inner := stringify(n.Children[0], prec)
		if n.UnOp == Reverse {
			return "R[" + inner + "]"
		}
		if prec < context {
			return "~" + inner
		}
		return "(~" + inner + ")"
	case KindCustom:
		parts := make([]string, len(n.Children))
		for i, c := range n.Children {
			parts[i] = stringify(c, maxPrec)
		}
		return n.Custom + "(" + strings.Join(parts, ", ") + ")"
	}
	return ""
}

// expand un-flattens x into the top-level operands a merge under op would
// combine: x's own children if x is already a binary node under op,
// otherwise the single-element slice {x}, or none at all for nil.
func expand(op BinOp, x *Node) []*Node {
	if x == nil {
		return nil
	}
	if x.Kind == KindBinary && x.BinOp == op {
		return append([]*Node(nil), x.Children...)
	}
	return []*Node{x}
}

// collapse is expand's inverse: zero operands collapse to nil (empty),
// one collapses to itself, two or more collapse to a flattened node.
func collapse(op BinOp, xs []*Node) *Node {
	switch len(xs) {
	case 0:
		return nil
	case 1:
		return xs[0]
	default:
		return &Node{Kind: KindBinary, BinOp: op, Children: xs}
	}
}

// involute applies op to x, or cancels op if x is already op applied to
// something (since op is its own inverse). The same function serves both
// Merge (simplify double application) and Split (solve op(y) = x for y).
// A default (nil) x has no operator to apply or cancel and stays nil.
func involute(op UnOp, x *Node) *Node {
	if x == nil {
		return nil
	}
	if x.Kind == KindUnary && x.UnOp == op {
		return x.Children[0]
	}
	return &Node{Kind: KindUnary, UnOp: op, Children: []*Node{x}}
}

func crossArgs(xs, ys []corepayload.Args[*Node]) []corepayload.Args[*Node] {
	var out []corepayload.Args[*Node]
	for _, x := range xs {
		for _, y := range ys {
			merged := make(corepayload.Args[*Node], len(x)+len(y))
			for k, v := range x {
				merged[k] = v
			}
			for k, v := range y {
				merged[k] = v
			}
			out = append(out, merged)
		}
	}
	return out
}

// binaryTemplate composes two child templates under a flattened binary
// operator. Grounded on original_source/src/payload/lambda.rs's
// BinaryTemplate: Merge flattens both sides before recombining so nested
// applications of the same operator stay in one n-ary node, and a
// non-commutative operator (Join) only merges when both sides produced
// something. Split enumerates every bipartition of the flattened operands
// (every subset for a commutative operator, every contiguous prefix/suffix
// split otherwise) and recurses each half into the corresponding child.
type binaryTemplate struct {
	op    BinOp
	left  corepayload.Template[*Node]
	right corepayload.Template[*Node]
}

func (bt binaryTemplate) Merge(args corepayload.Args[*Node]) *Node {
	x1 := expand(bt.op, bt.left.Merge(args))
	x2 := expand(bt.op, bt.right.Merge(args))
	if binCommutes(bt.op) || (len(x1) > 0 && len(x2) > 0) {
		return collapse(bt.op, append(x1, x2...))
	}
	return nil
}

func (bt binaryTemplate) Split(x *Node) []corepayload.Args[*Node] {
	base := expand(bt.op, x)
	commutes := binCommutes(bt.op)

	if !commutes && len(base) == 0 {
		x1 := bt.left.Split(nil)
		x2 := bt.right.Split(nil)
		return append(x1, x2...)
	}

	var masks []int
	if commutes {
		for i := 0; i < (1 << len(base)); i++ {
			masks = append(masks, i)
		}
	} else {
		for i := 0; i < len(base)-1; i++ {
			masks = append(masks, (1<<(i+1))-1)
		}
	}

	var result []corepayload.Args[*Node]
	for _, mask := range masks {
		var left, right []*Node
		for j, part := range base {
			if mask&(1<<uint(j)) != 0 {
				left = append(left, part)
			} else {
				right = append(right, part)
			}
		}
		x1 := bt.left.Split(collapse(bt.op, left))
		x2 := bt.right.Split(collapse(bt.op, right))
		result = append(result, crossArgs(x1, x2)...)
	}
	return result
}

// unaryTemplate composes one child template under a self-inverse unary
// operator, relying on involute for both directions.
type unaryTemplate struct {
	op    UnOp
	inner corepayload.Template[*Node]
}

func (ut unaryTemplate) Merge(args corepayload.Args[*Node]) *Node {
	return involute(ut.op, ut.inner.Merge(args))
}

func (ut unaryTemplate) Split(x *Node) []corepayload.Args[*Node] {
	return ut.inner.Split(involute(ut.op, x))
}

// customTemplate composes N child templates into a named function
// application; merge fails (nil) if any child fails. Split matches a
// target custom node of the same name and arity, and splits a default
// (nil) target by splitting nil through each child in turn; any other
// target has no split.
type customTemplate struct {
	name     string
	children []corepayload.Template[*Node]
}

func (ct customTemplate) Merge(args corepayload.Args[*Node]) *Node {
	kids := make([]*Node, len(ct.children))
	for i, c := range ct.children {
		v := c.Merge(args)
		if v == nil {
			return nil
		}
		kids[i] = v
	}
	return &Node{Kind: KindCustom, Custom: ct.name, Children: kids}
}

func (ct customTemplate) Split(x *Node) []corepayload.Args[*Node] {
	if x != nil && x.Kind == KindCustom && x.Custom == ct.name && len(x.Children) == len(ct.children) {
		result := []corepayload.Args[*Node]{{}}
		for i, c := range ct.children {
			result = crossArgs(result, c.Split(x.Children[i]))
		}
		return result
	}
	if x == nil {
		var result []corepayload.Args[*Node]
		for _, c := range ct.children {
			result = append(result, c.Split(nil)...)
		}
		return result
	}
	return nil
}

// terminalTemplate always merges to the same fixed terminal node,
// regardless of args, and only splits that exact terminal.
type terminalTemplate struct {
	text string
}

func (tt terminalTemplate) Merge(corepayload.Args[*Node]) *Node {
	return &Node{Kind: KindTerminal, Terminal: tt.text}
}

func (tt terminalTemplate) Split(x *Node) []corepayload.Args[*Node] {
	if x != nil && x.Kind == KindTerminal && x.Terminal == tt.text {
		return []corepayload.Args[*Node]{{}}
	}
	return nil
}

// Expr is the semantic payload for small lambda-DCS-style expressions:
// conjunction, disjunction, join, negation, reversal, and named custom
// function application over terminal symbols. Templates are compiled from
// a small infix mini-language ("$0 & country.$1", "Tell($0, name.$1)")
// directly grounded on original_source/src/payload/lambda.rs's own
// template parser, rebuilt as a small recursive-descent parser instead of
// a combinator library (none of the pack's dependencies provide one).
type Expr struct{}

func (Expr) Default() *Node         { return nil }
func (Expr) IsDefault(x *Node) bool { return x == nil }

func (Expr) BaseLex(text string) *Node {
	return &Node{Kind: KindTerminal, Terminal: text}
}

func (Expr) BaseUnlex(x *Node) (string, bool) {
	if x != nil && x.Kind == KindTerminal {
		return x.Terminal, true
	}
	return "", false
}

func (e Expr) Parse(text string) (*Node, error) {
	if text == "-" {
		return nil, nil
	}
	tmpl, err := e.Template(text)
	if err != nil {
		return nil, err
	}
	v := tmpl.Merge(corepayload.Args[*Node]{})
	if v == nil {
		return nil, fmt.Errorf("empty expression: %q", text)
	}
	return v, nil
}

func (Expr) Stringify(x *Node) string {
	return stringify(x, maxPrec)
}

// Template compiles source, an infix expression over terminals, $N
// variable references, and the operators "&"/"|" (commutative, loosest),
// "~" (prefix negation), "." (join, tightest), "R[...]" (reversal), and
// "name(a, b, ...)" (custom function application).
func (e Expr) Template(source string) (corepayload.Template[*Node], error) {
	p := &exprParser{toks: tplTokenize(source)}
	tmpl, err := p.parseOrAnd()
	if err != nil {
		return nil, &corepayload.ErrTemplate{Source: source, Reason: err.Error()}
	}
	if p.peek().kind != tokEOF {
		return nil, &corepayload.ErrTemplate{Source: source, Reason: "unexpected trailing input"}
	}
	return tmpl, nil
}

type tokKind int

const (
	tokIdent tokKind = iota
	tokNumber
	tokPunct
	tokEOF
)

type tplToken struct {
	kind tokKind
	text string
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
func isIdentCont(c byte) bool { return isIdentStart(c) || (c >= '0' && c <= '9') }
func isDigit(c byte) bool     { return c >= '0' && c <= '9' }

func tplTokenize(s string) []tplToken {
	var toks []tplToken
	i, n := 0, len(s)
	for i < n {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case isIdentStart(c):
			j := i + 1
			for j < n && isIdentCont(s[j]) {
				j++
			}
			toks = append(toks, tplToken{kind: tokIdent, text: s[i:j]})
			i = j
		case isDigit(c):
			j := i + 1
			for j < n && isDigit(s[j]) {
				j++
			}
			toks = append(toks, tplToken{kind: tokNumber, text: s[i:j]})
			i = j
		default:
			toks = append(toks, tplToken{kind: tokPunct, text: string(c)})
			i++
		}
	}
	toks = append(toks, tplToken{kind: tokEOF})
	return toks
}

type exprParser struct {
	toks []tplToken
	pos  int
}

func (p *exprParser) peek() tplToken { return p.toks[p.pos] }

func (p *exprParser) next() tplToken {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *exprParser) isPunct(s string) bool {
	t := p.peek()
	return t.kind == tokPunct && t.text == s
}

func (p *exprParser) expectPunct(s string) error {
	t := p.next()
	if t.kind != tokPunct || t.text != s {
		return fmt.Errorf("expected %q, got %q", s, t.text)
	}
	return nil
}

func (p *exprParser) parseOrAnd() (corepayload.Template[*Node], error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.isPunct("&") || p.isPunct("|") {
		op := Conjunction
		if p.next().text == "|" {
			op = Disjunction
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = binaryTemplate{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *exprParser) parseNot() (corepayload.Template[*Node], error) {
	if p.isPunct("~") {
		p.next()
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return unaryTemplate{op: Not, inner: inner}, nil
	}
	return p.parseJoin()
}

func (p *exprParser) parseJoin() (corepayload.Template[*Node], error) {
	left, err := p.parseBase()
	if err != nil {
		return nil, err
	}
	for p.isPunct(".") {
		p.next()
		right, err := p.parseBase()
		if err != nil {
			return nil, err
		}
		left = binaryTemplate{op: Join, left: left, right: right}
	}
	return left, nil
}

func (p *exprParser) parseBase() (corepayload.Template[*Node], error) {
	t := p.next()
	switch {
	case t.kind == tokIdent && t.text == "R" && p.isPunct("["):
		p.next()
		inner, err := p.parseOrAnd()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct("]"); err != nil {
			return nil, err
		}
		return unaryTemplate{op: Reverse, inner: inner}, nil
	case t.kind == tokIdent && p.isPunct("("):
		p.next()
		var children []corepayload.Template[*Node]
		if !p.isPunct(")") {
			for {
				c, err := p.parseOrAnd()
				if err != nil {
					return nil, err
				}
				children = append(children, c)
				if p.isPunct(",") {
					p.next()
					continue
				}
				break
			}
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return customTemplate{name: t.text, children: children}, nil
	case t.kind == tokIdent:
		return terminalTemplate{text: t.text}, nil
	case t.kind == tokPunct && t.text == "(":
		inner, err := p.parseOrAnd()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return inner, nil
	case t.kind == tokPunct && t.text == "$":
		num := p.next()
		if num.kind != tokNumber {
			return nil, fmt.Errorf("expected a number after '$'")
		}
		n, _ := strconv.Atoi(num.text)
		return corepayload.Variable[*Node]{Index: n, P: Expr{}}, nil
	}
	return nil, fmt.Errorf("unexpected token %q", t.text)
}
