package solvertypes

import (
	"fmt"
	"sort"
	"strings"
)

// CaptureUVarID is the process-wide identity of a capture unification
// variable, distinct from UVarID since the two flavours never unify
// with each other (spec §3).
type CaptureUVarID uint64

// CaptureAtom is a member of a capture set: either a concrete capability
// identifier or a capture unification variable (spec §3).
type CaptureAtom interface {
	isCaptureAtom()
	String() string
	Equals(CaptureAtom) bool
	key() string
}

// Capability is a concrete capture atom naming a capability the
// enclosing block captured (e.g. a file handle, a channel).
type Capability struct {
	Name Ident
}

func (Capability) isCaptureAtom() {}
func (c Capability) String() string { return c.Name.String() }
func (c Capability) key() string    { return "cap:" + c.Name.String() }

func (c Capability) Equals(other CaptureAtom) bool {
	o, ok := other.(Capability)
	return ok && o.Name == c.Name
}

// CaptureUVar is a capture unification variable: underlying is the
// concrete capability kind it ranges over, used purely for diagnostics
// (spec §4.5 Scope.fresh_capture).
type CaptureUVar struct {
	ID         CaptureUVarID
	Role       Role
	Owner      ScopeID
	Underlying Ident
}

func (*CaptureUVar) isCaptureAtom() {}
func (v *CaptureUVar) String() string { return "$" + v.Underlying.String() }
func (v *CaptureUVar) key() string    { return fmt.Sprintf("cuv:%d", v.ID) }

func (v *CaptureUVar) Equals(other CaptureAtom) bool {
	o, ok := other.(*CaptureUVar)
	return ok && o == v
}

// IsCaptureUVar reports whether a is a CaptureUVar, returning it if so.
func IsCaptureUVar(a CaptureAtom) (*CaptureUVar, bool) {
	v, ok := a.(*CaptureUVar)
	return v, ok
}

// CaptureSet is an immutable set of capture atoms (spec §3). The zero
// value is the empty set.
type CaptureSet struct {
	atoms map[string]CaptureAtom
}

// NewCaptureSet builds a CaptureSet from the given atoms, deduplicating.
func NewCaptureSet(atoms ...CaptureAtom) CaptureSet {
	m := make(map[string]CaptureAtom, len(atoms))
	for _, a := range atoms {
		m[a.key()] = a
	}
	return CaptureSet{atoms: m}
}

// EmptyCaptureSet is the empty capture set.
var EmptyCaptureSet = CaptureSet{}

// IsEmpty reports whether the set has no members.
func (c CaptureSet) IsEmpty() bool { return len(c.atoms) == 0 }

// Len returns the number of members.
func (c CaptureSet) Len() int { return len(c.atoms) }

// Contains reports whether a is a member of c.
func (c CaptureSet) Contains(a CaptureAtom) bool {
	_, ok := c.atoms[a.key()]
	return ok
}

// Union returns the union of c and other.
func (c CaptureSet) Union(other CaptureSet) CaptureSet {
	if c.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return c
	}
	m := make(map[string]CaptureAtom, len(c.atoms)+len(other.atoms))
	for k, a := range c.atoms {
		m[k] = a
	}
	for k, a := range other.atoms {
		m[k] = a
	}
	return CaptureSet{atoms: m}
}

// Map applies f to every atom and returns the union of the results,
// matching spec §3's "CaptureSet supports union, membership, and
// mapping".
func (c CaptureSet) Map(f func(CaptureAtom) CaptureSet) CaptureSet {
	result := EmptyCaptureSet
	for _, a := range c.atoms {
		result = result.Union(f(a))
	}
	return result
}

// Atoms returns the members in a deterministic order (sorted by
// String()), for diagnostics and tests.
func (c CaptureSet) Atoms() []CaptureAtom {
	out := make([]CaptureAtom, 0, len(c.atoms))
	for _, a := range c.atoms {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func (c CaptureSet) String() string {
	atoms := c.Atoms()
	parts := make([]string, len(atoms))
	for i, a := range atoms {
		parts[i] = a.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Equals reports structural equality: same atoms, including capture
// uvars by identity.
func (c CaptureSet) Equals(other CaptureSet) bool {
	if len(c.atoms) != len(other.atoms) {
		return false
	}
	for k := range c.atoms {
		if _, ok := other.atoms[k]; !ok {
			return false
		}
	}
	return true
}
