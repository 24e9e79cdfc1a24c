package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corepayload "github.com/dekarrin/glossa/core/payload"
)

func Test_Str_Concat(t *testing.T) {
	assert := assert.New(t)
	tmpl, err := Str{}.Template("concat")
	require.NoError(t, err)

	assert.Equal("hello world", tmpl.Merge(corepayload.Args[string]{0: "hello", 1: "world"}))

	splits := tmpl.Split("hello world")
	require.Len(t, splits, 1)
	assert.Equal("hello", splits[0][0])
	assert.Equal("world", splits[0][1])

	assert.Nil(tmpl.Split("hello"))
}

func Test_Str_Unit(t *testing.T) {
	tmpl, err := Str{}.Template("unit")
	require.NoError(t, err)
	assert.Equal(t, "x", tmpl.Merge(corepayload.Args[string]{0: "x"}))
}

func Test_Str_UnrecognizedTemplate(t *testing.T) {
	_, err := Str{}.Template("reverse")
	assert.Error(t, err)
}
