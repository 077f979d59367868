// Package solvertypes implements the closed algebraic representation of
// value types, block types, capture sets, and effects that the solver
// operates over (TypeRepr, spec §4.1). It is pure data: constructors,
// structural equality, and debug rendering only.
package solvertypes

import (
	"sync"

	"golang.org/x/text/unicode/norm"
)

// Ident is an interned nominal identifier. Two Idents compare equal iff
// they were interned from the same normalized string, so callers may
// compare Idents by value instead of re-comparing strings on every
// structural Equals call.
type Ident struct {
	name string
}

func (id Ident) String() string { return id.name }

// IsZero reports whether id is the zero value (never interned).
func (id Ident) IsZero() bool { return id.name == "" }

var (
	internMu    sync.Mutex
	internTable = make(map[string]Ident)
)

// Intern normalizes s to NFC and returns the canonical Ident for it.
// Visually identical identifiers that differ only in Unicode
// normalization form (e.g. a precomposed vs. combining accent) intern to
// the same Ident, matching the lexer's own identifier-normalization
// discipline before the two are ever compared structurally.
func Intern(s string) Ident {
	normalized := norm.NFC.String(s)

	internMu.Lock()
	defer internMu.Unlock()

	if id, ok := internTable[normalized]; ok {
		return id
	}
	id := Ident{name: normalized}
	internTable[normalized] = id
	return id
}
