package cached

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corepayload "github.com/dekarrin/glossa/core/payload"
	"github.com/dekarrin/glossa/internal/payload"
)

type strPayload struct{}

func (strPayload) Default() string                 { return "" }
func (strPayload) IsDefault(x string) bool          { return x == "" }
func (strPayload) BaseLex(text string) string       { return text }
func (strPayload) BaseUnlex(x string) (string, bool) { return x, x != "" }
func (strPayload) Parse(text string) (string, error) { return text, nil }
func (strPayload) Stringify(x string) string         { return x }
func (strPayload) Template(source string) (corepayload.Template[string], error) {
	if source == "concat" {
		return corepayload.FnTemplate[string]{
			MergeFunc: func(args corepayload.Args[string]) string { return args[0] + args[1] },
			SplitFunc: func(x string) []corepayload.Args[string] { return []corepayload.Args[string]{{0: x}} },
		}, nil
	}
	return nil, &corepayload.ErrTemplate{Source: source, Reason: "unsupported"}
}

func Test_Cached_EqualityIsByRepr(t *testing.T) {
	assert := assert.New(t)
	p := Payload[string]{P: strPayload{}}

	a := p.BaseLex("hello")
	b := p.BaseLex("hello")
	c := p.BaseLex("world")

	assert.Equal(a, b, "two values with the same Stringify are the same Cached value")
	assert.NotEqual(a, c)

	set := map[Cached[string]]bool{a: true}
	assert.True(set[b], "Cached must be directly usable as a comparable map key")
	assert.False(set[c])
}

func Test_Cached_Default(t *testing.T) {
	p := Payload[string]{P: strPayload{}}
	d := p.Default()
	assert.True(t, p.IsDefault(d))
}

func Test_Cached_Template_Merge(t *testing.T) {
	p := Payload[string]{P: strPayload{}}
	tmpl, err := p.Template("concat")
	require.NoError(t, err)

	a := p.BaseLex("foo")
	b := p.BaseLex("bar")
	result := tmpl.Merge(corepayload.Args[Cached[string]]{0: a, 1: b})

	assert.Equal(t, "foobar", result.Repr)
	assert.Equal(t, New(strPayload{}, "foobar"), result)
}

func Test_Cached_Template_Split(t *testing.T) {
	p := Payload[string]{P: strPayload{}}
	tmpl, err := p.Template("concat")
	require.NoError(t, err)

	x := p.BaseLex("foobar")
	splits := tmpl.Split(x)
	require.Len(t, splits, 1)
	assert.Equal(t, "foobar", splits[0][0].Repr)
}

// Test_Cached_EqualityIgnoresPointerIdentity is the case cached exists
// for: two separately-allocated *payload.Node trees with identical
// Stringify output must compare equal once cached, even though the raw
// pointers never would. Without this, generate's memo and correct's
// regeneration would treat every freshly-built equivalent expression as a
// brand new, never-before-seen key.
func Test_Cached_EqualityIgnoresPointerIdentity(t *testing.T) {
	p := Payload[*payload.Node]{P: payload.Expr{}}

	nodeA := &payload.Node{Kind: payload.KindTerminal, Terminal: "x"}
	nodeB := &payload.Node{Kind: payload.KindTerminal, Terminal: "x"}
	require.NotSame(t, nodeA, nodeB, "test is only meaningful if the two Nodes are distinct allocations")

	a := New[*payload.Node](payload.Expr{}, nodeA)
	b := New[*payload.Node](payload.Expr{}, nodeB)
	assert.NotEqual(t, a.Repr, "", "sanity: repr is actually populated")
	assert.Equal(t, a, b, "equal Stringify output must compare equal regardless of allocation")

	set := map[Cached[*payload.Node]]bool{a: true}
	assert.True(t, set[b])

	assert.True(t, p.IsDefault(p.Default()))
}
