// Package subst implements Substitution (spec §4.2): an immutable
// mapping from type variables to value types and from capture variables
// to capture sets, consumed at scheme-instantiation time and when
// merging constraint-graph payloads.
package subst

import (
	"fmt"

	"github.com/rzikm/effekt/internal/solvertypes"
)

// ConflictError is raised when applying a substitution whose capture
// domain contains a concrete capability to a capture unification
// variable — the instantiation-vs-concrete-capture confusion spec §4.2
// guards against.
type ConflictError struct {
	Var  *solvertypes.CaptureUVar
	Caps solvertypes.CaptureSet
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("substitution conflict: capture variable %s encountered while domain contains concrete captures %s", e.Var, e.Caps)
}

// Substitution is an immutable pair of maps: type/capture variables to
// their replacements. The zero value is the identity substitution.
type Substitution struct {
	types    map[solvertypes.UVarID]solvertypes.ValueType
	captures map[solvertypes.CaptureUVarID]solvertypes.CaptureSet
}

// Empty is the identity substitution.
var Empty = Substitution{}

// New builds a Substitution from the given maps. Callers must not
// mutate the maps after passing them in — Substitution treats them as
// owned once built, matching the "immutable map pair" contract of
// spec §4.2.
func New(types map[solvertypes.UVarID]solvertypes.ValueType, captures map[solvertypes.CaptureUVarID]solvertypes.CaptureSet) Substitution {
	return Substitution{types: types, captures: captures}
}

// FromType builds a single-entry type substitution.
func FromType(v *solvertypes.UVar, t solvertypes.ValueType) Substitution {
	return Substitution{types: map[solvertypes.UVarID]solvertypes.ValueType{v.ID: t}}
}

// FromCapture builds a single-entry capture substitution.
func FromCapture(v *solvertypes.CaptureUVar, cs solvertypes.CaptureSet) Substitution {
	return Substitution{captures: map[solvertypes.CaptureUVarID]solvertypes.CaptureSet{v.ID: cs}}
}

// Get returns the replacement for a type variable, if any.
func (s Substitution) Get(v *solvertypes.UVar) (solvertypes.ValueType, bool) {
	t, ok := s.types[v.ID]
	return t, ok
}

// IsDefinedAtType reports whether s has an entry for v.
func (s Substitution) IsDefinedAtType(v *solvertypes.UVar) bool {
	_, ok := s.types[v.ID]
	return ok
}

// GetCapture returns the replacement for a capture variable, if any.
func (s Substitution) GetCapture(v *solvertypes.CaptureUVar) (solvertypes.CaptureSet, bool) {
	cs, ok := s.captures[v.ID]
	return cs, ok
}

// IsDefinedAtCapture reports whether s has an entry for v.
func (s Substitution) IsDefinedAtCapture(v *solvertypes.CaptureUVar) bool {
	_, ok := s.captures[v.ID]
	return ok
}

// hasConcreteCapture reports whether s's capture domain maps anything to
// a set containing a concrete Capability atom (as opposed to purely
// variable-to-variable renamings).
func (s Substitution) hasConcreteCapture() bool {
	for _, cs := range s.captures {
		for _, a := range cs.Atoms() {
			if _, ok := a.(solvertypes.Capability); ok {
				return true
			}
		}
	}
	return false
}

// ApplyValue substitutes in a value type.
func (s Substitution) ApplyValue(t solvertypes.ValueType) (solvertypes.ValueType, error) {
	switch t := t.(type) {
	case *solvertypes.App:
		args := make([]solvertypes.ValueType, len(t.Args))
		for i, a := range t.Args {
			na, err := s.ApplyValue(a)
			if err != nil {
				return nil, err
			}
			args[i] = na
		}
		return &solvertypes.App{Ctor: t.Ctor, Args: args}, nil

	case *solvertypes.Boxed:
		block, err := s.ApplyBlock(t.Block)
		if err != nil {
			return nil, err
		}
		captures, err := s.ApplyCaptureSet(t.Captures)
		if err != nil {
			return nil, err
		}
		return &solvertypes.Boxed{Block: block, Captures: captures}, nil

	case *solvertypes.TypeParam:
		return t, nil

	case *solvertypes.UVar:
		if repl, ok := s.Get(t); ok {
			return repl, nil
		}
		return t, nil

	default:
		// TTop / TBottom singletons are substitution-invariant.
		return t, nil
	}
}

// ApplyBlock substitutes in a block type, shadowing the function's own
// bound type/capture parameters first (spec §4.2: "Function-type
// substitution shadows by first removing the function's own
// tparams/cparams from the substitution domain").
func (s Substitution) ApplyBlock(b solvertypes.BlockType) (solvertypes.BlockType, error) {
	switch b := b.(type) {
	case *solvertypes.InterfaceType:
		args := make([]solvertypes.ValueType, len(b.Args))
		for i, a := range b.Args {
			na, err := s.ApplyValue(a)
			if err != nil {
				return nil, err
			}
			args[i] = na
		}
		return &solvertypes.InterfaceType{Name: b.Name, Args: args}, nil

	case *solvertypes.FunctionType:
		shadowed := s.shadow(b.TParams, b.CParams)

		vparams := make([]solvertypes.ValueType, len(b.VParams))
		for i, v := range b.VParams {
			nv, err := shadowed.ApplyValue(v)
			if err != nil {
				return nil, err
			}
			vparams[i] = nv
		}
		bparams := make([]solvertypes.BlockType, len(b.BParams))
		for i, bp := range b.BParams {
			nb, err := shadowed.ApplyBlock(bp)
			if err != nil {
				return nil, err
			}
			bparams[i] = nb
		}
		result, err := shadowed.ApplyValue(b.Result)
		if err != nil {
			return nil, err
		}
		effects, err := shadowed.ApplyEffects(b.Effects)
		if err != nil {
			return nil, err
		}
		return &solvertypes.FunctionType{
			TParams: b.TParams,
			CParams: b.CParams,
			VParams: vparams,
			BParams: bparams,
			Result:  result,
			Effects: effects,
		}, nil

	default:
		return nil, fmt.Errorf("subst: unhandled block type %T", b)
	}
}

// ApplyEffects substitutes in an effect set. Effect atoms are plain
// identifiers (not unification variables) per spec §3, so this is
// identity — it exists for symmetry and to keep call sites uniform.
func (s Substitution) ApplyEffects(e solvertypes.EffectSet) (solvertypes.EffectSet, error) {
	return e, nil
}

// ApplyCaptureSet substitutes in a capture set, raising ConflictError if
// a capture uvar is substituted while s's capture domain contains a
// concrete capability (spec §4.2).
func (s Substitution) ApplyCaptureSet(cs solvertypes.CaptureSet) (solvertypes.CaptureSet, error) {
	result := solvertypes.EmptyCaptureSet
	for _, a := range cs.Atoms() {
		switch a := a.(type) {
		case solvertypes.Capability:
			result = result.Union(solvertypes.NewCaptureSet(a))
		case *solvertypes.CaptureUVar:
			if repl, ok := s.GetCapture(a); ok {
				if s.hasConcreteCapture() {
					return solvertypes.CaptureSet{}, &ConflictError{Var: a, Caps: cs}
				}
				result = result.Union(repl)
			} else {
				result = result.Union(solvertypes.NewCaptureSet(a))
			}
		}
	}
	return result, nil
}

// shadow returns a copy of s with the given type/capture variables
// removed from its domain — used when descending into a FunctionType's
// own bound parameters, which must not be captured by an outer
// substitution.
func (s Substitution) shadow(tparams, cparams []solvertypes.Ident) Substitution {
	if len(tparams) == 0 && len(cparams) == 0 {
		return s
	}
	// tparams/cparams name bound *type parameters* (solvertypes.TypeParam
	// identifiers), which never appear as keys in s (keyed by UVarID /
	// CaptureUVarID). Shadowing therefore only matters when an outer
	// substitution's replacement *values* could be re-bound inside the
	// function — which cannot happen for TypeParam identifiers since
	// they are never substitution keys. The hook remains for forward
	// compatibility if TypeParam identifiers ever become fresh between
	// recursive instantiations; today it is identity.
	return s
}

// ComposeSeq composes two substitutions: "first this, then other"
// (spec §4.2). The result applies `other` to the codomain of `this`,
// then adds `other`'s own bindings, with `other` taking precedence on
// key collisions.
func (s Substitution) ComposeSeq(other Substitution) (Substitution, error) {
	types := make(map[solvertypes.UVarID]solvertypes.ValueType, len(s.types)+len(other.types))
	for k, v := range s.types {
		nv, err := other.ApplyValue(v)
		if err != nil {
			return Substitution{}, err
		}
		types[k] = nv
	}
	for k, v := range other.types {
		types[k] = v
	}

	captures := make(map[solvertypes.CaptureUVarID]solvertypes.CaptureSet, len(s.captures)+len(other.captures))
	for k, cs := range s.captures {
		ncs, err := other.ApplyCaptureSet(cs)
		if err != nil {
			return Substitution{}, err
		}
		captures[k] = ncs
	}
	for k, cs := range other.captures {
		captures[k] = cs
	}

	return Substitution{types: types, captures: captures}, nil
}

// ComposeParallel returns the union of s and other's maps, with other
// overriding on key collisions (spec §4.2). Unlike ComposeSeq, neither
// side is applied to the other's codomain.
func (s Substitution) ComposeParallel(other Substitution) Substitution {
	types := make(map[solvertypes.UVarID]solvertypes.ValueType, len(s.types)+len(other.types))
	for k, v := range s.types {
		types[k] = v
	}
	for k, v := range other.types {
		types[k] = v
	}

	captures := make(map[solvertypes.CaptureUVarID]solvertypes.CaptureSet, len(s.captures)+len(other.captures))
	for k, cs := range s.captures {
		captures[k] = cs
	}
	for k, cs := range other.captures {
		captures[k] = cs
	}

	return Substitution{types: types, captures: captures}
}
