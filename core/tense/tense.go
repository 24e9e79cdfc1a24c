package tense

import "fmt"

// Tense is a total map from interned grammatical category to interned
// value, e.g. {count: plural, gender: male}. The zero value is the empty
// tense (agrees with everything, contributes nothing).
type Tense struct {
	in     *Interner
	byCat  map[id]id
}

// Mismatch describes one category where two tenses disagree: Category
// should be Expected but was Actual.
type Mismatch struct {
	Category string
	Expected string
	Actual   string
}

// String renders a Mismatch the way the corrector's diff does: "count
// should be plural (was: singular)".
func (m Mismatch) String() string {
	return fmt.Sprintf("%s should be %s (was: %s)", m.Category, m.Expected, m.Actual)
}

// New builds a Tense from raw category->value strings, interning each one
// against in. If in is nil, the process-wide Default interner is used.
func New(in *Interner, raw map[string]string) (Tense, error) {
	if in == nil {
		in = Default
	}
	t := Tense{in: in, byCat: make(map[id]id, len(raw))}
	for k, v := range raw {
		ck, err := in.Intern(k)
		if err != nil {
			return Tense{}, err
		}
		cv, err := in.Intern(v)
		if err != nil {
			return Tense{}, err
		}
		t.byCat[ck] = cv
	}
	return t, nil
}

// Get returns the value for category, and whether the category is present.
func (t Tense) Get(category string) (string, bool) {
	if t.in == nil || t.byCat == nil {
		return "", false
	}
	ck, err := t.in.Intern(category)
	if err != nil {
		return "", false
	}
	cv, ok := t.byCat[ck]
	if !ok {
		return "", false
	}
	return t.in.String(cv), true
}

// Agree reports whether every category that both t and other define maps
// to the same value in each.
func (t Tense) Agree(other Tense) bool {
	for k, v := range t.byCat {
		if ov, ok := other.byCat[k]; ok && ov != v {
			return false
		}
	}
	return true
}

// Check lists every category common to both t and other whose values
// differ, phrased as "category should be t's value (was: other's value)".
func (t Tense) Check(other Tense) []Mismatch {
	raw := t.checkBase(other)
	out := make([]Mismatch, len(raw))
	for i, m := range raw {
		out[i] = m
	}
	return out
}

func (t Tense) checkBase(other Tense) []Mismatch {
	in := t.interner()
	var mismatches []Mismatch
	for k, v := range t.byCat {
		if ov, ok := other.byCat[k]; ok && ov != v {
			mismatches = append(mismatches, Mismatch{
				Category: in.String(k),
				Expected: in.String(v),
				Actual:   in.String(ov),
			})
		}
	}
	return mismatches
}

func (t Tense) interner() *Interner {
	if t.in != nil {
		return t.in
	}
	return Default
}

// Union overwrites t's entries with every entry from other, mutating t in
// place. Categories other doesn't define are left untouched.
func (t *Tense) Union(other Tense) {
	if t.byCat == nil {
		t.byCat = make(map[id]id)
	}
	if t.in == nil {
		t.in = other.interner()
	}
	for k, v := range other.byCat {
		t.byCat[k] = v
	}
}

// UnionChecked accumulates a tense from several alternative disjuncts (a
// lexical entry's multi-tense list, or a rule's base tense alongside its
// children's). It picks the subset of candidates that agree with t; if
// none agree, it returns the mismatch list of whichever candidate
// disagreed least. If exactly one agrees, it is unioned directly. If more
// than one agrees, only their mutual intersection (categories every
// agreeing candidate fixes identically) is unioned — a multi-tense entry
// only refines categories all of its compatible readings agree on.
func (t *Tense) UnionChecked(candidates []Tense) []Mismatch {
	if len(candidates) == 0 {
		return nil
	}

	type scored struct {
		tense     Tense
		mismatch  []Mismatch
	}
	checks := make([]scored, len(candidates))
	for i, c := range candidates {
		checks[i] = scored{tense: c, mismatch: t.checkBase(c)}
	}

	var agreeing []Tense
	for _, c := range checks {
		if len(c.mismatch) == 0 {
			agreeing = append(agreeing, c.tense)
		}
	}

	if len(agreeing) == 0 {
		best := checks[0]
		for _, c := range checks[1:] {
			if len(c.mismatch) < len(best.mismatch) {
				best = c
			}
		}
		return best.mismatch
	}

	if len(agreeing) == 1 {
		t.Union(agreeing[0])
		return nil
	}

	intersection := agreeing[0]
	for _, other := range agreeing[1:] {
		intersection = intersection.intersect(other)
	}
	t.Union(intersection)
	return nil
}

func (t Tense) intersect(other Tense) Tense {
	out := Tense{in: t.interner(), byCat: make(map[id]id)}
	for k, v := range t.byCat {
		if ov, ok := other.byCat[k]; ok && ov == v {
			out.byCat[k] = v
		}
	}
	return out
}
