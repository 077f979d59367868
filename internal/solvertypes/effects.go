package solvertypes

import (
	"sort"
	"strings"
)

// EffectSet is an unordered set of effect atoms (spec §3). Effect
// atoms are nominal identifiers (e.g. IO, Net); unlike capture atoms
// they carry no unification-variable form in this spec (effect row
// polymorphism beyond subtract-by-subtyping is an explicit non-goal,
// spec §1).
type EffectSet struct {
	atoms map[Ident]struct{}
}

// EmptyEffectSet is the empty (pure) effect set.
var EmptyEffectSet = EffectSet{}

// NewEffectSet builds an EffectSet from the given atoms, deduplicating.
func NewEffectSet(atoms ...Ident) EffectSet {
	m := make(map[Ident]struct{}, len(atoms))
	for _, a := range atoms {
		m[a] = struct{}{}
	}
	return EffectSet{atoms: m}
}

// IsEmpty reports whether the set is pure (no effects).
func (e EffectSet) IsEmpty() bool { return len(e.atoms) == 0 }

// Contains reports whether a is a member of e.
func (e EffectSet) Contains(a Ident) bool {
	_, ok := e.atoms[a]
	return ok
}

// Union returns the union of e and other.
func (e EffectSet) Union(other EffectSet) EffectSet {
	if e.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return e
	}
	m := make(map[Ident]struct{}, len(e.atoms)+len(other.atoms))
	for a := range e.atoms {
		m[a] = struct{}{}
	}
	for a := range other.atoms {
		m[a] = struct{}{}
	}
	return EffectSet{atoms: m}
}

// Atoms returns the members in a deterministic (sorted) order.
func (e EffectSet) Atoms() []Ident {
	out := make([]Ident, 0, len(e.atoms))
	for a := range e.atoms {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func (e EffectSet) String() string {
	atoms := e.Atoms()
	parts := make([]string, len(atoms))
	for i, a := range atoms {
		parts[i] = a.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Equals reports whether e and other contain exactly the same atoms.
func (e EffectSet) Equals(other EffectSet) bool {
	if len(e.atoms) != len(other.atoms) {
		return false
	}
	for a := range e.atoms {
		if _, ok := other.atoms[a]; !ok {
			return false
		}
	}
	return true
}
