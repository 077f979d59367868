package solvertypes

import (
	"fmt"
	"strings"
)

// ScopeID identifies the UnificationScope that allocated a unification
// variable (spec §3, "a reference to the scope that allocated it"). It
// is an opaque monotonically increasing value; solvertypes never
// constructs one itself — only internal/scope does.
type ScopeID uint64

// UVarID is the process-wide identity of a unification variable.
type UVarID uint64

// ValueType is the closed algebraic description of value types (spec
// §3). Type equality is structural except for UVar, whose equality is
// by identity.
type ValueType interface {
	isValueType()
	String() string
	Equals(ValueType) bool
}

// App is a type constructor application: a nominal constructor applied
// to a finite ordered list of value-type arguments.
type App struct {
	Ctor Ident
	Args []ValueType
}

func (*App) isValueType() {}

func (t *App) String() string {
	if len(t.Args) == 0 {
		return t.Ctor.String()
	}
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s[%s]", t.Ctor, strings.Join(parts, ", "))
}

func (t *App) Equals(other ValueType) bool {
	o, ok := other.(*App)
	if !ok || o.Ctor != t.Ctor || len(t.Args) != len(o.Args) {
		return false
	}
	for i := range t.Args {
		if !t.Args[i].Equals(o.Args[i]) {
			return false
		}
	}
	return true
}

// Boxed is a boxed block type paired with the capture set it captures
// (spec §3): a second-class block "boxed" into a first-class value.
type Boxed struct {
	Block    BlockType
	Captures CaptureSet
}

func (*Boxed) isValueType() {}

func (t *Boxed) String() string {
	return fmt.Sprintf("box %s^%s", t.Block, t.Captures)
}

func (t *Boxed) Equals(other ValueType) bool {
	o, ok := other.(*Boxed)
	if !ok {
		return false
	}
	return t.Block.Equals(o.Block) && t.Captures.Equals(o.Captures)
}

// TypeParam is a reference to a bound type parameter (from an enclosing
// FunctionType's tparams), not a unification variable: it is never
// mutated or given bounds.
type TypeParam struct {
	ID Ident
}

func (*TypeParam) isValueType() {}

func (t *TypeParam) String() string { return t.ID.String() }

func (t *TypeParam) Equals(other ValueType) bool {
	o, ok := other.(*TypeParam)
	return ok && o.ID == t.ID
}

// UVar is a unification variable (spec §3): a mutable placeholder whose
// bounds live in the owning scope's ConstraintGraph, not on the UVar
// value itself. Equality is by pointer identity, matching "variable
// equality is by identity".
type UVar struct {
	ID    UVarID
	Role  Role
	Owner ScopeID
}

func (*UVar) isValueType() {}

func (v *UVar) String() string { return fmt.Sprintf("?%d", v.ID) }

func (v *UVar) Equals(other ValueType) bool {
	o, ok := other.(*UVar)
	return ok && o == v
}

// top and bottom are unexported so TTop/TBottom remain true singletons:
// every ValueType equal to TTop is reference-equal to it via type
// assertion, per spec §4.1.
type top struct{}

func (top) isValueType()            {}
func (top) String() string          { return "⊤" }
func (top) Equals(o ValueType) bool { _, ok := o.(top); return ok }

type bottom struct{}

func (bottom) isValueType()            {}
func (bottom) String() string          { return "⊥" }
func (bottom) Equals(o ValueType) bool { _, ok := o.(bottom); return ok }

// TTop is the universal top value type.
var TTop ValueType = top{}

// TBottom is the universal bottom value type.
var TBottom ValueType = bottom{}

// IsUVar reports whether t is a unification variable, returning it if so.
func IsUVar(t ValueType) (*UVar, bool) {
	v, ok := t.(*UVar)
	return v, ok
}

// IsTop reports whether t is TTop.
func IsTop(t ValueType) bool {
	_, ok := t.(top)
	return ok
}

// IsBottom reports whether t is TBottom.
func IsBottom(t ValueType) bool {
	_, ok := t.(bottom)
	return ok
}
