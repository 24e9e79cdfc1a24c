package payload

// Variable is the simplest template: it passes slot i straight through.
// Merge returns args[i] or the payload's default if absent; Split(x)
// returns the single assignment {i: x}.
type Variable[T any] struct {
	Index int
	P     Payload[T]
}

func (v Variable[T]) Merge(args Args[T]) T {
	if x, ok := args[v.Index]; ok {
		return x
	}
	return v.P.Default()
}

func (v Variable[T]) Split(x T) []Args[T] {
	return []Args[T]{{v.Index: x}}
}

// DefaultTemplate always merges to the payload default, and only splits a
// default value (into the empty assignment); any non-default target has
// no valid split.
type DefaultTemplate[T any] struct {
	P Payload[T]
}

func (d DefaultTemplate[T]) Merge(Args[T]) T {
	return d.P.Default()
}

func (d DefaultTemplate[T]) Split(x T) []Args[T] {
	if d.P.IsDefault(x) {
		return []Args[T]{{}}
	}
	return nil
}

// Unit passes slot 0 through unchanged; it is Variable{Index: 0} under a
// name that matches how grammar authors write single-child passthrough
// rules ("$NP -> $Noun").
func Unit[T any](p Payload[T]) Variable[T] {
	return Variable[T]{Index: 0, P: p}
}

// SlotMapping describes where RHS term position Index maps to in the
// wrapped inner template's variable numbering, and whether that mapping
// is optional (required mappings must receive a non-default value on
// split; optional ones may be left default).
type SlotMapping struct {
	Index    int
	Optional bool
}

// Slot maps RHS term positions onto an inner template's variable
// positions — the key combinator for ordinary grammar rules, where RHS
// position i doesn't necessarily line up with the semantic template's
// argument numbering (optional terms, terms with no semantic
// contribution at all, etc).
//
// Slots is indexed by inner-template variable position; Slots[j] names
// which RHS position (if any) feeds that inner variable.
//
// On Merge, Slot projects each non-default child value (by RHS position)
// into the corresponding inner-template argument, then delegates to
// Inner.Merge.
//
// On Split, Slot enumerates Inner.Split(x) and filters: every mapped
// slot that isn't Optional must receive a non-default value in that
// enumeration, and every inner variable position with no mapping at all
// must be default in it (a mapped but absent inner position, on an
// Optional slot, is fine either way).
type Slot[T any] struct {
	N     int // number of RHS terms
	Slots []*SlotMapping
	Inner Template[T]
	P     Payload[T]
}

func (s Slot[T]) Merge(args Args[T]) T {
	inner := make(Args[T])
	for innerPos, m := range s.Slots {
		if m == nil {
			continue
		}
		if v, ok := args[m.Index]; ok && !s.P.IsDefault(v) {
			inner[innerPos] = v
		}
	}
	return s.Inner.Merge(inner)
}

func (s Slot[T]) Split(x T) []Args[T] {
	var out []Args[T]
	for _, innerArgs := range s.Inner.Split(x) {
		ok := true
		for innerPos, m := range s.Slots {
			v, present := innerArgs[innerPos]
			if m == nil {
				if present && !s.P.IsDefault(v) {
					ok = false
					break
				}
				continue
			}
			if !m.Optional {
				if !present || s.P.IsDefault(v) {
					ok = false
					break
				}
			}
		}
		for innerPos, v := range innerArgs {
			if innerPos >= len(s.Slots) && !s.P.IsDefault(v) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		result := make(Args[T], s.N)
		for innerPos, m := range s.Slots {
			if m == nil {
				continue
			}
			if v, present := innerArgs[innerPos]; present {
				result[m.Index] = v
			}
		}
		out = append(out, result)
	}
	return out
}

// FnTemplate wraps a pair of plain functions as a Template, for grammars
// whose merge/split logic doesn't fit one of the standard combinators and
// is easier to write out directly than to compile from a template source
// string.
type FnTemplate[T any] struct {
	MergeFunc func(Args[T]) T
	SplitFunc func(T) []Args[T]
}

func (f FnTemplate[T]) Merge(args Args[T]) T { return f.MergeFunc(args) }
func (f FnTemplate[T]) Split(x T) []Args[T]  { return f.SplitFunc(x) }

// Commutative builds a binary-commutative template ("and"/"or"-style):
// Merge(a, b) = Combine([a, b]), and Split enumerates every 2^k subset
// bipartition of the k top-level conjuncts that Flatten reports for the
// target value, recombining each half with Combine.
type Commutative[T any] struct {
	P       Payload[T]
	Combine func(parts []T) T
	Flatten func(T) []T // returns the top-level commutative parts of x, or nil if x isn't of this shape
}

func (c Commutative[T]) Merge(args Args[T]) T {
	a, aok := args[0]
	b, bok := args[1]
	if !aok {
		a = c.P.Default()
	}
	if !bok {
		b = c.P.Default()
	}
	return c.Combine([]T{a, b})
}

func (c Commutative[T]) Split(x T) []Args[T] {
	parts := c.Flatten(x)
	if len(parts) == 0 {
		return nil
	}
	n := len(parts)
	var out []Args[T]
	// every subset bipartition: bit i of mask set means part i goes right.
	for mask := 0; mask < (1 << uint(n)); mask++ {
		var left, right []T
		for i, p := range parts {
			if mask&(1<<uint(i)) != 0 {
				right = append(right, p)
			} else {
				left = append(left, p)
			}
		}
		out = append(out, Args[T]{0: c.Combine(left), 1: c.Combine(right)})
	}
	return out
}

// Ordered builds a binary non-commutative template ("join"-style): only
// the k-1 prefix/suffix splits of the k top-level parts are valid, since
// swapping sides changes meaning.
type Ordered[T any] struct {
	P       Payload[T]
	Combine func(parts []T) T
	Flatten func(T) []T
}

func (o Ordered[T]) Merge(args Args[T]) T {
	a, aok := args[0]
	b, bok := args[1]
	if !aok {
		a = o.P.Default()
	}
	if !bok {
		b = o.P.Default()
	}
	return o.Combine([]T{a, b})
}

func (o Ordered[T]) Split(x T) []Args[T] {
	parts := o.Flatten(x)
	n := len(parts)
	if n < 2 {
		return nil
	}
	out := make([]Args[T], 0, n-1)
	for i := 1; i < n; i++ {
		left := o.Combine(parts[:i])
		right := o.Combine(parts[i:])
		out = append(out, Args[T]{0: left, 1: right})
	}
	return out
}

// Involution wraps a unary template whose operator is its own inverse
// (negation, reversal): Involute(Op(x)) = x. Split first tries treating x
// itself as Op applied to something (by calling Involute), then falls
// back to the inner split.
type Involution[T any] struct {
	P        Payload[T]
	Op       func(T) T
	Involute func(T) (T, bool) // returns (un-op'd value, true) if x is of this operator's shape
	Inner    Template[T]
}

func (inv Involution[T]) Merge(args Args[T]) T {
	x, ok := args[0]
	if !ok {
		x = inv.P.Default()
	}
	return inv.Op(x)
}

func (inv Involution[T]) Split(x T) []Args[T] {
	if inner, ok := inv.Involute(x); ok {
		return []Args[T]{{0: inner}}
	}
	return inv.Inner.Split(x)
}
