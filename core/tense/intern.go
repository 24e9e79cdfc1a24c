// Package tense implements the grammatical agreement algebra shared by the
// grammar, generator, and corrector: a total map from interned grammatical
// category (count, gender, person...) to interned value (plural, male...),
// plus the union/check operations the corrector uses to propagate and
// validate agreement across a derivation.
package tense

import (
	"fmt"
	"sync"
)

// id is the interned representation of a category or value string. The
// id space is 16 bits: a process that interns more than 65536 distinct
// category/value strings is expected to fail fast, not wrap around.
type id uint16

const maxID = ^id(0)

// Interner maps strings to small stable integer ids and back. The zero
// value is ready to use. Interners are safe for concurrent use; a single
// process-wide Interner is the default (see Default), but callers that
// want per-grammar isolation (trading cross-grammar id comparability for
// never sharing global state) can construct their own.
type Interner struct {
	mu      sync.RWMutex
	byID    []string
	byValue map[string]id
}

// Default is the process-wide interner used by New/Category/Value when no
// explicit Interner is supplied. It is initialised lazily on first use.
var Default = &Interner{}

// Intern returns the id for s, allocating a new one if s hasn't been seen
// by this Interner before. It returns an error only when the 16-bit id
// space is exhausted.
func (in *Interner) Intern(s string) (id, error) {
	in.mu.RLock()
	if existing, ok := in.byValue[s]; ok {
		in.mu.RUnlock()
		return existing, nil
	}
	in.mu.RUnlock()

	in.mu.Lock()
	defer in.mu.Unlock()
	if existing, ok := in.byValue[s]; ok {
		return existing, nil
	}
	if len(in.byID) > int(maxID) {
		return 0, fmt.Errorf("tense: interning limit hit (%d strings interned)", len(in.byID))
	}
	if in.byValue == nil {
		in.byValue = make(map[string]id)
	}
	next := id(len(in.byID))
	in.byID = append(in.byID, s)
	in.byValue[s] = next
	return next, nil
}

// String returns the string that was interned as i, by this Interner.
func (in *Interner) String(i id) string {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if int(i) >= len(in.byID) {
		return ""
	}
	return in.byID[i]
}
