package payload

import (
	"strconv"

	corepayload "github.com/dekarrin/glossa/core/payload"
)

// Int is the semantic payload for arithmetic grammars: an ordinary machine
// int, defaulting to zero, whose surface form is its own decimal text.
type Int struct{}

func (Int) Default() int         { return 0 }
func (Int) IsDefault(x int) bool { return x == 0 }

func (Int) BaseLex(text string) int {
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0
	}
	return n
}

func (Int) BaseUnlex(x int) (string, bool) { return strconv.Itoa(x), true }

func (Int) Parse(text string) (int, error) { return strconv.Atoi(text) }

func (Int) Stringify(x int) string { return strconv.Itoa(x) }

// Template recognizes three sources: "unit" ($0 passthrough), "sum"
// ($0+$1, splitting a target into every non-negative addend pair), and
// "product" ($0*$1, splitting into every factor pair, with 0 splitting
// into "either factor is 0").
func (p Int) Template(source string) (corepayload.Template[int], error) {
	switch source {
	case "unit":
		return corepayload.Unit[int](p), nil
	case "sum":
		return corepayload.FnTemplate[int]{
			MergeFunc: func(args corepayload.Args[int]) int { return args[0] + args[1] },
			SplitFunc: func(x int) []corepayload.Args[int] {
				if x < 0 {
					return nil
				}
				out := make([]corepayload.Args[int], 0, x+1)
				for a := 0; a <= x; a++ {
					out = append(out, corepayload.Args[int]{0: a, 1: x - a})
				}
				return out
			},
		}, nil
	case "product":
		return corepayload.FnTemplate[int]{
			MergeFunc: func(args corepayload.Args[int]) int { return args[0] * args[1] },
			SplitFunc: func(x int) []corepayload.Args[int] {
				if x == 0 {
					return []corepayload.Args[int]{{0: 0}, {1: 0}}
				}
				if x < 0 {
					return nil
				}
				var out []corepayload.Args[int]
				for a := 1; a <= x; a++ {
					if x%a == 0 {
						out = append(out, corepayload.Args[int]{0: a, 1: x / a})
					}
				}
				return out
			},
		}, nil
	}
	return nil, &corepayload.ErrTemplate{Source: source, Reason: "unrecognized int template"}
}
