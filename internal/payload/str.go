package payload

import (
	"strings"

	corepayload "github.com/dekarrin/glossa/core/payload"
)

// Str is the semantic payload for scenarios whose value is its own surface
// text: an empty string is default, Stringify/Parse are the identity, and
// the only templates it needs are passthrough and concatenation.
type Str struct{}

func (Str) Default() string         { return "" }
func (Str) IsDefault(x string) bool { return x == "" }
func (Str) BaseLex(text string) string {
	return text
}
func (Str) BaseUnlex(x string) (string, bool) { return x, x != "" }
func (Str) Parse(text string) (string, error) { return text, nil }
func (Str) Stringify(x string) string         { return x }

// Template recognizes "unit" ($0 passthrough) and "concat" (space-joins
// $0 and $1, splitting a target on its last space).
func (p Str) Template(source string) (corepayload.Template[string], error) {
	switch source {
	case "unit":
		return corepayload.Unit[string](p), nil
	case "concat":
		return corepayload.FnTemplate[string]{
			MergeFunc: func(args corepayload.Args[string]) string {
				return strings.TrimSpace(strings.TrimSpace(args[0]) + " " + strings.TrimSpace(args[1]))
			},
			SplitFunc: func(x string) []corepayload.Args[string] {
				i := strings.LastIndex(x, " ")
				if i < 0 {
					return nil
				}
				return []corepayload.Args[string]{{0: x[:i], 1: x[i+1:]}}
			},
		}, nil
	}
	return nil, &corepayload.ErrTemplate{Source: source, Reason: "unrecognized str template"}
}
