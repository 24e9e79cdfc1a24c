// Package cached wraps any Payload in a value type whose equality and hash
// are defined purely by the payload's own canonical Stringify, so that
// values otherwise unsuitable as map keys (slices, pointers, trees like
// *payload.Node) can be used as one. Grounded on
// original_source/src/payload/cached.rs's Cached<T>, which implements
// PartialEq/Hash directly against repr() rather than against the wrapped
// value. Go has no equivalent operator-overload hook for comparable's
// built-in ==, so Cached[T] here holds only the repr and its digest, never
// T itself: equal repr always means an equal Cached[T] struct, regardless
// of how the two T values were separately constructed (two distinct
// *payload.Node allocations with identical Stringify output compare equal
// here even though the raw pointers never would).
package cached

import (
	corepayload "github.com/dekarrin/glossa/core/payload"
	"golang.org/x/crypto/blake2b"
)

// Cached is a payload value identified by its canonical string
// representation rather than by T's own comparison. Cached[T] is always
// comparable (and usable as a map key) even when T is not, since it never
// stores T as a field.
type Cached[T any] struct {
	Repr string
	Sum  [32]byte
}

// New wraps v, computing Repr and Sum immediately from p's Stringify.
func New[T any](p corepayload.Payload[T], v T) Cached[T] {
	repr := p.Stringify(v)
	return Cached[T]{Repr: repr, Sum: blake2b.Sum256([]byte(repr))}
}

// Payload adapts an inner Payload[T] into a Payload[Cached[T]], so a cached
// value can be used anywhere the uncached one could: grammar semantics,
// templates, generation. Every method delegates to P, reconstructing T
// from a Cached[T]'s Repr via P.Parse where needed.
type Payload[T any] struct {
	P corepayload.Payload[T]
}

// value reconstructs the T a Cached[T] stands for. The default value is
// special-cased because Payload's Parse(Stringify(x)) == x guarantee is
// only made for non-default x.
func (c Payload[T]) value(x Cached[T]) T {
	if x.Repr == c.P.Stringify(c.P.Default()) {
		return c.P.Default()
	}
	v, err := c.P.Parse(x.Repr)
	if err != nil {
		return c.P.Default()
	}
	return v
}

func (c Payload[T]) Default() Cached[T] {
	return New(c.P, c.P.Default())
}

func (c Payload[T]) IsDefault(x Cached[T]) bool {
	return x.Repr == c.P.Stringify(c.P.Default())
}

func (c Payload[T]) BaseLex(text string) Cached[T] {
	return New(c.P, c.P.BaseLex(text))
}

func (c Payload[T]) BaseUnlex(x Cached[T]) (string, bool) {
	return c.P.BaseUnlex(c.value(x))
}

func (c Payload[T]) Parse(text string) (Cached[T], error) {
	v, err := c.P.Parse(text)
	if err != nil {
		return Cached[T]{}, err
	}
	return New(c.P, v), nil
}

// Stringify returns the already-computed Repr rather than re-deriving it,
// which is the entire point of caching it at construction.
func (c Payload[T]) Stringify(x Cached[T]) string {
	return x.Repr
}

func (c Payload[T]) Template(source string) (corepayload.Template[Cached[T]], error) {
	inner, err := c.P.Template(source)
	if err != nil {
		return nil, err
	}
	return wrapTemplate[T]{p: c.P, inner: inner}, nil
}

// wrapTemplate lifts a Template[T] to a Template[Cached[T]] by
// reconstructing T on the way in (see Payload.value) and re-wrapping
// (re-hashing) results on the way out.
type wrapTemplate[T any] struct {
	p     corepayload.Payload[T]
	inner corepayload.Template[T]
}

func (w wrapTemplate[T]) value(x Cached[T]) T {
	return Payload[T]{P: w.p}.value(x)
}

func (w wrapTemplate[T]) Merge(args corepayload.Args[Cached[T]]) Cached[T] {
	inner := make(corepayload.Args[T], len(args))
	for i, v := range args {
		inner[i] = w.value(v)
	}
	return New(w.p, w.inner.Merge(inner))
}

func (w wrapTemplate[T]) Split(x Cached[T]) []corepayload.Args[Cached[T]] {
	splits := w.inner.Split(w.value(x))
	out := make([]corepayload.Args[Cached[T]], len(splits))
	for i, s := range splits {
		wrapped := make(corepayload.Args[Cached[T]], len(s))
		for k, v := range s {
			wrapped[k] = New(w.p, v)
		}
		out[i] = wrapped
	}
	return out
}
