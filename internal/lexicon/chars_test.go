package lexicon

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dekarrin/glossa/core/grammar"
	"github.com/dekarrin/glossa/core/payload"
)

// digitPayload round-trips single ASCII digits to their integer value;
// BaseLex/BaseUnlex are the only methods Chars actually calls.
type digitPayload struct{}

func (digitPayload) Default() int        { return 0 }
func (digitPayload) IsDefault(x int) bool { return x == 0 }
func (digitPayload) BaseLex(text string) int {
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0
	}
	return n
}
func (digitPayload) BaseUnlex(x int) (string, bool) {
	if x < 0 || x > 9 {
		return "", false
	}
	return strconv.Itoa(x), true
}
func (digitPayload) Parse(text string) (int, error) { return strconv.Atoi(text) }
func (digitPayload) Stringify(x int) string          { return strconv.Itoa(x) }
func (digitPayload) Template(source string) (payload.Template[int], error) {
	return nil, &payload.ErrTemplate{Source: source, Reason: "not supported by digitPayload"}
}

func Test_Chars_Lex(t *testing.T) {
	assert := assert.New(t)
	c := Chars[int]{P: digitPayload{}}

	toks := c.Lex("5+3")
	assert.Len(toks, 3)

	five := toks[0]
	assert.Equal("5", five.Text)
	assert.Equal(5, five.Matches["5"].Match.Value)
	assert.Equal(5, five.Matches[grammar.CatchAllTerminal].Match.Value)

	plus := toks[1]
	assert.Equal(0, plus.Matches["+"].Match.Value)
}

func Test_Chars_Unlex(t *testing.T) {
	assert := assert.New(t)
	c := Chars[int]{P: digitPayload{}}

	matches := c.Unlex("7", 7)
	assert.Len(matches, 1)
	assert.Equal("7", matches[0].Texts["default"])

	assert.Nil(c.Unlex("7", 3), "terminal name must match the projected text")
	assert.NotNil(c.Unlex(grammar.CatchAllTerminal, 7), "catch-all accepts any projectable value")
}
