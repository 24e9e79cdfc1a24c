// Package payload defines the abstract semantic value type shared by the
// parser, generator, and corrector, plus the bidirectional Template family
// (merge/split) that rule authors compile against it. Concrete payload
// types (integers, strings, lambda-style expressions) live outside this
// package; payload only specifies the contract they must satisfy.
package payload

import "fmt"

// Args is a sparse index->value map: the positional arguments a Template
// merges from, or the positional assignment a Template's split enumerates.
// Missing indices are implicitly the payload's default value.
type Args[T any] map[int]T

// Payload is the contract a semantic value type T must satisfy to be used
// as a grammar's merge/split value.
//
//   - Default/IsDefault identify the "unknown/empty" value: a parent built
//     from all-default children should itself be default, and a merge must
//     only report a non-default result when it had enough non-default
//     input to justify one.
//   - BaseLex/BaseUnlex inject and project raw token text, for terminals
//     whose semantics is just their surface form (numbers, proper nouns).
//   - Parse/Stringify give a canonical textual round-trip: for every
//     non-default x, Parse(Stringify(x)) must equal x, and Stringify must
//     be canonical (e.g. commutative children sorted) so two semantically
//     equal values produce the same string.
//   - Template compiles a template source string into a Template[T].
type Payload[T any] interface {
	Default() T
	IsDefault(T) bool
	BaseLex(text string) T
	BaseUnlex(T) (string, bool)
	Parse(text string) (T, error)
	Stringify(T) string
	Template(source string) (Template[T], error)
}

// Template is a parameterised payload expression: merge combines
// positional child values into a parent, split enumerates every candidate
// child assignment whose merge would produce a given parent value.
//
// Round-trip law: for every Args returned by Split(x), Merge(args) must
// equal x. Conversely every valid Args whose Merge is x must appear in
// Split(x), unless an explicit policy (see the standard combinators)
// filters it.
type Template[T any] interface {
	Merge(args Args[T]) T
	Split(x T) []Args[T]
}

// ErrTemplate is returned by Payload.Template when a template source
// string fails to compile. Runtime Merge/Split never error: a Merge with
// missing args falls back to the payload default, and a Split that can't
// enumerate anything returns an empty slice.
type ErrTemplate struct {
	Source string
	Reason string
}

func (e *ErrTemplate) Error() string {
	return fmt.Sprintf("payload: bad template %q: %s", e.Source, e.Reason)
}
