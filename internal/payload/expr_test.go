package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corepayload "github.com/dekarrin/glossa/core/payload"
)

// l parses a lambda-DCS source string via Expr, failing the test on error;
// an empty string or "-" parses to the default (nil) expression.
func l(t *testing.T, src string) *Node {
	t.Helper()
	if src == "" || src == "-" {
		return nil
	}
	n, err := Expr{}.Parse(src)
	require.NoError(t, err)
	return n
}

func tmpl(t *testing.T, src string) corepayload.Template[*Node] {
	t.Helper()
	tm, err := Expr{}.Template(src)
	require.NoError(t, err)
	return tm
}

func args(vals ...*Node) corepayload.Args[*Node] {
	a := make(corepayload.Args[*Node], len(vals))
	for i, v := range vals {
		a[i] = v
	}
	return a
}

func eq(t *testing.T, got, want *Node) {
	t.Helper()
	assert.Equal(t, Expr{}.Stringify(want), Expr{}.Stringify(got))
}

func Test_Expr_Merge_Joins(t *testing.T) {
	tm := tmpl(t, "color.$0")
	eq(t, tm.Merge(args(l(t, "red"))), l(t, "color.red"))
	eq(t, tm.Merge(args(nil)), nil)
}

func Test_Expr_Merge_BinaryOperators(t *testing.T) {
	tm := tmpl(t, "$0 & country.$1")
	eq(t, tm.Merge(args(l(t, "I"), l(t, "US"))), l(t, "I & country.US"))
	eq(t, tm.Merge(args(l(t, "I"), nil)), l(t, "I"))
	eq(t, tm.Merge(args(nil, l(t, "US"))), l(t, "country.US"))
	eq(t, tm.Merge(args(nil, nil)), nil)
}

func Test_Expr_Merge_UnaryOperators(t *testing.T) {
	tm := tmpl(t, "R[$0].I & ~$1")
	eq(t, tm.Merge(args(l(t, "name"), l(t, "X"))), l(t, "R[name].I & ~X"))
	eq(t, tm.Merge(args(l(t, "R[name]"), l(t, "X"))), l(t, "name.I & ~X"))
	eq(t, tm.Merge(args(l(t, "name"), l(t, "~X"))), l(t, "R[name].I & X"))
	eq(t, tm.Merge(args(l(t, "R[name]"), l(t, "~X"))), l(t, "name.I & X"))
	eq(t, tm.Merge(args(l(t, "name"), nil)), l(t, "R[name].I"))
	eq(t, tm.Merge(args(nil, l(t, "~X"))), l(t, "X"))
	eq(t, tm.Merge(args(nil, nil)), nil)
}

func Test_Expr_Merge_CustomFunctions(t *testing.T) {
	tm := tmpl(t, "Tell($0, name.$1)")
	eq(t, tm.Merge(args(l(t, "I"), l(t, "X"))), l(t, "Tell(I, name.X)"))
	eq(t, tm.Merge(args(l(t, "I"), nil)), nil)
	eq(t, tm.Merge(args(nil, l(t, "X"))), nil)
	eq(t, tm.Merge(args(nil, nil)), nil)
}

func Test_Expr_Split_Joins(t *testing.T) {
	tm := tmpl(t, "color.$0")

	assert.Empty(t, tm.Split(l(t, "type.food")))

	got := tm.Split(l(t, "color.red"))
	require.Len(t, got, 1)
	eq(t, got[0][0], l(t, "red"))

	got = tm.Split(nil)
	require.Len(t, got, 1)
	assert.Nil(t, got[0][0])
}

func Test_Expr_Split_BinaryOperators(t *testing.T) {
	tm := tmpl(t, "$0 & country.$1")

	got := tm.Split(l(t, "I & country.US"))
	require.Len(t, got, 2)
	eq(t, got[0][0], l(t, "I"))
	eq(t, got[0][1], l(t, "US"))
	eq(t, got[1][0], l(t, "I & country.US"))
	assert.Nil(t, got[1][1])

	got = tm.Split(l(t, "country.US"))
	require.Len(t, got, 2)
	assert.Nil(t, got[0][0])
	eq(t, got[0][1], l(t, "US"))
	eq(t, got[1][0], l(t, "country.US"))
	assert.Nil(t, got[1][1])

	got = tm.Split(l(t, "I"))
	require.Len(t, got, 1)
	eq(t, got[0][0], l(t, "I"))
	assert.Nil(t, got[0][1])

	got = tm.Split(nil)
	require.Len(t, got, 1)
	assert.Nil(t, got[0][0])
	assert.Nil(t, got[0][1])
}

// Test_Expr_Split_BinaryOperators_Commute is the other half of the same
// source's commutativity: splitting a target whose conjuncts appear in the
// opposite order as the template's written order still enumerates the
// matching bipartition, since Conjunction's flattened children carry no
// fixed order.
func Test_Expr_Split_BinaryOperators_Commute(t *testing.T) {
	tm := tmpl(t, "$0 & country.$1")

	got := tm.Split(l(t, "country.US & I"))
	require.Len(t, got, 2)
	eq(t, got[0][0], l(t, "I"))
	eq(t, got[0][1], l(t, "US"))
}

func Test_Expr_Split_UnaryOperators(t *testing.T) {
	tm := tmpl(t, "R[$0].I & ~$1")

	got := tm.Split(l(t, "R[name].I & ~Ann"))
	require.Len(t, got, 2)

	assert.Nil(t, got[0][0])
	eq(t, got[0][1], l(t, "~(R[name].I & ~Ann)"))

	eq(t, got[1][0], l(t, "name"))
	eq(t, got[1][1], l(t, "Ann"))
}

func Test_Expr_Split_CustomFunctions(t *testing.T) {
	tm := tmpl(t, "Tell($0, name.$1)")

	assert.Empty(t, tm.Split(l(t, "Ask(you.name)")))

	got := tm.Split(l(t, "Tell(I, name.X)"))
	require.Len(t, got, 1)
	eq(t, got[0][0], l(t, "I"))
	eq(t, got[0][1], l(t, "X"))

	got = tm.Split(nil)
	require.Len(t, got, 2)
}

func Test_Expr_Parse_HandlesUnderscore(t *testing.T) {
	eq(t, l(t, "abc_de_f(hi_jk.lm_no)"), l(t, "abc_de_f(hi_jk.lm_no)"))
}

func Test_Expr_Parse_HandlesWhitespace(t *testing.T) {
	eq(t,
		l(t, " Tell ( ( R [ a ] . b & c ) | d , ( e . f | ~ ( g ) ) ) "),
		l(t, "Tell((R[a].b & c) | d, e.f | ~g)"),
	)
}

func Test_Expr_Stringify_SortsTerms(t *testing.T) {
	n := l(t, "Tell(x) & f.e & (d.c | b.a)")
	assert.Equal(t, "(b.a | d.c) & Tell(x) & f.e", Expr{}.Stringify(n))
}
