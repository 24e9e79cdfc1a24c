// Package deriv implements the derivation tree shared by parse, generate,
// and correct: a tree of lexical leaves and rule-application nodes, each
// carrying a merged payload value, with shared ownership so the corrector
// can reuse untouched subtrees between an original derivation and its
// correction without deep-copying them.
package deriv

import (
	"fmt"
	"strings"

	"github.com/dekarrin/glossa/core/grammar"
)

// Child is one child of a Node: either a lexical leaf or a nested node.
// It is a tagged union rather than an interface so callers can switch on
// IsLeaf without a type assertion.
type Child[T any] struct {
	leaf   *grammar.Match[T]
	node   *Derivation[T]
	isLeaf bool
}

// Leaf wraps a lexical match as a Child.
func Leaf[T any](m *grammar.Match[T]) Child[T] {
	return Child[T]{leaf: m, isLeaf: true}
}

// Node wraps a nested derivation as a Child.
func Node[T any](d *Derivation[T]) Child[T] {
	return Child[T]{node: d}
}

// IsLeaf reports whether this child is a lexical leaf (vs. a nested node).
func (c Child[T]) IsLeaf() bool { return c.isLeaf }

// AsLeaf returns the leaf match; only meaningful if IsLeaf is true.
func (c Child[T]) AsLeaf() *grammar.Match[T] { return c.leaf }

// AsNode returns the nested derivation; only meaningful if IsLeaf is false.
func (c Child[T]) AsNode() *Derivation[T] { return c.node }

// Value returns this child's merged/lexical payload value, whichever kind
// of child it is.
func (c Child[T]) Value() T {
	if c.isLeaf {
		return c.leaf.Value
	}
	return c.node.Value
}

// Derivation is a rule application: the rule that fired, its children
// (one per RHS term), and the payload value that rule's Merge template
// produced from them. Children are held by reference (via Child, which
// wraps pointers) so a corrector can share unchanged subtrees between an
// original derivation and its correction.
type Derivation[T any] struct {
	Rule     *grammar.Rule[T]
	Children []Child[T]
	Value    T
}

// New builds a Derivation by invoking rule's Merge template over
// children's values, positionally.
func New[T any](rule *grammar.Rule[T], children []Child[T]) *Derivation[T] {
	args := make(map[int]T, len(children))
	for i, c := range children {
		args[i] = c.Value()
	}
	value := rule.Merge.Merge(args)
	return &Derivation[T]{Rule: rule, Children: children, Value: value}
}

// Matches returns every lexical leaf reachable from this derivation, in
// left-to-right order, i.e. the utterance this derivation renders.
func (d *Derivation[T]) Matches() []*grammar.Match[T] {
	var out []*grammar.Match[T]
	for _, c := range d.Children {
		if c.IsLeaf() {
			out = append(out, c.AsLeaf())
		} else {
			out = append(out, c.AsNode().Matches()...)
		}
	}
	return out
}

// String renders the tree with the teacher's indentation scheme: one
// line per node, "|--" branches for all-but-last children and "\--" for
// the last.
func (d *Derivation[T]) String() string {
	var sb strings.Builder
	d.write(&sb, "", "")
	return sb.String()
}

func (d *Derivation[T]) write(sb *strings.Builder, firstPrefix, contPrefix string) {
	sb.WriteString(firstPrefix)
	fmt.Fprintf(sb, "( lhs=%d )", d.Rule.LHS)
	for i, c := range d.Children {
		sb.WriteRune('\n')
		var fp, cp string
		if i+1 < len(d.Children) {
			fp = contPrefix + "|-- "
			cp = contPrefix + "|   "
		} else {
			fp = contPrefix + "\\-- "
			cp = contPrefix + "    "
		}
		if c.IsLeaf() {
			sb.WriteString(fp)
			fmt.Fprintf(sb, "(LEAF %q)", c.AsLeaf().Texts)
		} else {
			c.AsNode().write(sb, fp, cp)
		}
	}
}
