package tense

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTense(t *testing.T, raw map[string]string) Tense {
	t.Helper()
	in := &Interner{}
	ts, err := New(in, raw)
	require.NoError(t, err)
	return ts
}

func Test_Interner_StableRoundTrip(t *testing.T) {
	assert := assert.New(t)
	in := &Interner{}
	id1, err := in.Intern("plural")
	require.NoError(t, err)
	id2, err := in.Intern("plural")
	require.NoError(t, err)
	assert.Equal(id1, id2, "interning the same string twice returns the same id")
	assert.Equal("plural", in.String(id1))

	idOther, err := in.Intern("singular")
	require.NoError(t, err)
	assert.NotEqual(id1, idOther)
}

func Test_Tense_Get(t *testing.T) {
	assert := assert.New(t)
	ts := newTense(t, map[string]string{"count": "plural"})

	v, ok := ts.Get("count")
	assert.True(ok)
	assert.Equal("plural", v)

	_, ok = ts.Get("gender")
	assert.False(ok)
}

func Test_Tense_Agree(t *testing.T) {
	assert := assert.New(t)
	in := &Interner{}
	a, err := New(in, map[string]string{"count": "plural", "gender": "male"})
	require.NoError(t, err)
	b, err := New(in, map[string]string{"count": "plural"})
	require.NoError(t, err)
	c, err := New(in, map[string]string{"count": "singular"})
	require.NoError(t, err)

	assert.True(a.Agree(b), "b doesn't define gender, so no conflict")
	assert.False(a.Agree(c), "count disagrees")
}

func Test_Tense_Check(t *testing.T) {
	assert := assert.New(t)
	in := &Interner{}
	context, err := New(in, map[string]string{"count": "plural", "gender": "male"})
	require.NoError(t, err)
	rule, err := New(in, map[string]string{"count": "singular"})
	require.NoError(t, err)

	mismatches := context.Check(rule)
	require.Len(t, mismatches, 1)
	assert.Equal(Mismatch{Category: "count", Expected: "plural", Actual: "singular"}, mismatches[0])
	assert.Equal("count should be plural (was: singular)", mismatches[0].String())
}

func Test_Tense_Union_OverwritesSharedCategories(t *testing.T) {
	assert := assert.New(t)
	in := &Interner{}
	base, err := New(in, map[string]string{"count": "singular"})
	require.NoError(t, err)
	extra, err := New(in, map[string]string{"count": "plural", "gender": "male"})
	require.NoError(t, err)

	base.Union(extra)
	v, ok := base.Get("count")
	assert.True(ok)
	assert.Equal("plural", v)
	v, ok = base.Get("gender")
	assert.True(ok)
	assert.Equal("male", v)
}

func Test_UnionChecked_NoCandidatesIsNoop(t *testing.T) {
	assert := assert.New(t)
	var ctx Tense
	errs := ctx.UnionChecked(nil)
	assert.Nil(errs)
}

func Test_UnionChecked_SingleAgreeingCandidateUnions(t *testing.T) {
	assert := assert.New(t)
	in := &Interner{}
	ctx, err := New(in, map[string]string{"count": "plural"})
	require.NoError(t, err)
	cand, err := New(in, map[string]string{"count": "plural", "gender": "male"})
	require.NoError(t, err)

	errs := ctx.UnionChecked([]Tense{cand})
	assert.Nil(errs)
	v, ok := ctx.Get("gender")
	assert.True(ok)
	assert.Equal("male", v)
}

func Test_UnionChecked_NoneAgreeReturnsLeastWrong(t *testing.T) {
	assert := assert.New(t)
	in := &Interner{}
	ctx, err := New(in, map[string]string{"count": "plural", "gender": "male"})
	require.NoError(t, err)
	// cand1 disagrees on both categories, cand2 disagrees on only one:
	// UnionChecked must report cand2's single mismatch, not cand1's two.
	cand1, err := New(in, map[string]string{"count": "singular", "gender": "female"})
	require.NoError(t, err)
	cand2, err := New(in, map[string]string{"count": "singular", "gender": "male"})
	require.NoError(t, err)

	errs := ctx.UnionChecked([]Tense{cand1, cand2})
	require.Len(t, errs, 1)
	assert.Equal("count", errs[0].Category)
}

func Test_UnionChecked_MultipleAgreeUnionsOnlyIntersection(t *testing.T) {
	assert := assert.New(t)
	in := &Interner{}
	ctx, err := New(in, map[string]string{"count": "plural"})
	require.NoError(t, err)
	// Both candidates agree with ctx (neither contradicts "count"), but
	// they disagree with each other on gender: only their intersection
	// (count=plural) should be unioned, not either one's gender.
	cand1, err := New(in, map[string]string{"count": "plural", "gender": "male"})
	require.NoError(t, err)
	cand2, err := New(in, map[string]string{"count": "plural", "gender": "female"})
	require.NoError(t, err)

	errs := ctx.UnionChecked([]Tense{cand1, cand2})
	assert.Nil(errs)
	_, ok := ctx.Get("gender")
	assert.False(ok, "disagreeing candidates' gender must not be unioned")
	v, _ := ctx.Get("count")
	assert.Equal("plural", v)
}
