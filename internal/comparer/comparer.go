// Package comparer implements the structural subtype/unification
// recursion (spec §4.4): TypeComparer walks ValueType/BlockType/
// FunctionType structure and, at unification-variable leaves, delegates
// to a pluggable Effects capability — the graph-mutating default (owned
// by internal/scope) or a non-mutating stub used for read-only
// `is_subtype` queries.
package comparer

import (
	"fmt"

	"github.com/rzikm/effekt/internal/solvertypes"
)

// Effects is the four-method abstract capability TypeComparer dispatches
// to at variable leaves (spec §4.4): "require_lower_bound(var, type)",
// "require_upper_bound(var, type)", "unify_captures(c1, c2)", and
// "abort(message)".
type Effects interface {
	RequireLowerBound(x *solvertypes.UVar, t solvertypes.ValueType) error
	RequireUpperBound(x *solvertypes.UVar, t solvertypes.ValueType) error
	UnifyCaptures(c1, c2 solvertypes.CaptureSet) error
	Abort(message string) error
}

// TypeComparer is the stateful structural visitor of spec §4.4.
type TypeComparer struct {
	Effects Effects
}

// New builds a TypeComparer dispatching to the given Effects.
func New(e Effects) *TypeComparer {
	return &TypeComparer{Effects: e}
}

// UnifyValueTypes asserts t1 <: t2 (spec §4.4, cases 1–7 in order).
func (c *TypeComparer) UnifyValueTypes(t1, t2 solvertypes.ValueType) error {
	if t1.Equals(t2) {
		return nil
	}
	if solvertypes.IsTop(t2) || solvertypes.IsBottom(t1) {
		return nil
	}
	if v1, ok := solvertypes.IsUVar(t1); ok {
		return c.Effects.RequireUpperBound(v1, t2)
	}
	if v2, ok := solvertypes.IsUVar(t2); ok {
		return c.Effects.RequireLowerBound(v2, t1)
	}

	a1, ok1 := t1.(*solvertypes.App)
	a2, ok2 := t2.(*solvertypes.App)
	if ok1 && ok2 && a1.Ctor == a2.Ctor && len(a1.Args) == len(a2.Args) {
		for i := range a1.Args {
			if err := c.UnifyValueTypes(a1.Args[i], a2.Args[i]); err != nil {
				return err
			}
		}
		return nil
	}

	b1, okb1 := t1.(*solvertypes.Boxed)
	b2, okb2 := t2.(*solvertypes.Boxed)
	if okb1 && okb2 {
		if err := c.UnifyBlockTypes(b1.Block, b2.Block); err != nil {
			return err
		}
		return c.Effects.UnifyCaptures(b1.Captures, b2.Captures)
	}

	return c.Effects.Abort(fmt.Sprintf("type mismatch: expected %s, got %s", t2, t1))
}

// UnifyBlockTypes dispatches function vs. interface (spec §4.4).
func (c *TypeComparer) UnifyBlockTypes(b1, b2 solvertypes.BlockType) error {
	if f1, ok1 := solvertypes.IsFunctionType(b1); ok1 {
		f2, ok2 := solvertypes.IsFunctionType(b2)
		if !ok2 {
			return c.Effects.Abort(fmt.Sprintf("type mismatch: expected %s, got function type %s", b2, b1))
		}
		return c.UnifyFunctionTypes(f1, f2)
	}

	i1, ok1 := solvertypes.IsInterfaceType(b1)
	i2, ok2 := solvertypes.IsInterfaceType(b2)
	if !ok1 || !ok2 {
		return c.Effects.Abort(fmt.Sprintf("type mismatch: expected %s, got %s", b2, b1))
	}
	if i1.Name != i2.Name || len(i1.Args) != len(i2.Args) {
		return c.Effects.Abort(fmt.Sprintf("kind mismatch: %s vs %s", i1, i2))
	}
	for i := range i1.Args {
		if err := c.UnifyValueTypes(i1.Args[i], i2.Args[i]); err != nil {
			return err
		}
	}
	return nil
}

// UnifyFunctionTypes requires identical arities for type, capture, value,
// and block parameters; alpha-renames f2's bound parameters to f1's;
// compares value and block parameters contravariantly, the result
// covariantly, and effects via UnifyEffects (spec §4.4).
func (c *TypeComparer) UnifyFunctionTypes(f1, f2 *solvertypes.FunctionType) error {
	if len(f1.TParams) != len(f2.TParams) || len(f1.CParams) != len(f2.CParams) ||
		len(f1.VParams) != len(f2.VParams) || len(f1.BParams) != len(f2.BParams) {
		return c.Effects.Abort(fmt.Sprintf("arity mismatch between %s and %s", f1, f2))
	}

	renamed := alphaRename(f2, f1)

	for i := range f1.VParams {
		// Contravariant: f1's param must accept f2's (renamed) param.
		if err := c.UnifyValueTypes(renamed.VParams[i], f1.VParams[i]); err != nil {
			return err
		}
	}
	for i := range f1.BParams {
		if err := c.UnifyBlockTypes(renamed.BParams[i], f1.BParams[i]); err != nil {
			return err
		}
	}
	if err := c.UnifyValueTypes(f1.Result, renamed.Result); err != nil {
		return err
	}
	return c.UnifyEffects(f1.Effects, renamed.Effects)
}

// UnifyEffects asserts e1 <: e2: every effect atom e1 declares must also
// be present in e2 (fewer effects is more general — a pure function is a
// subtype of any function requiring a superset of effects). Effect atoms
// carry no unification-variable form (spec §1 non-goal), so this is a
// plain nominal subset check.
func (c *TypeComparer) UnifyEffects(e1, e2 solvertypes.EffectSet) error {
	for _, a := range e1.Atoms() {
		if !e2.Contains(a) {
			return c.Effects.Abort(fmt.Sprintf("effect mismatch: %s not present in %s", a, e2))
		}
	}
	return nil
}

// alphaRename renames f2's bound type/capture parameters to f1's
// (spec §4.4 "alpha-renames f2's bound type and capture parameters to
// f1's, via a fresh Substitution"), returning the renamed FunctionType.
func alphaRename(f2, f1 *solvertypes.FunctionType) *solvertypes.FunctionType {
	// TParams/CParams are plain identifiers, not unification variables;
	// renaming substitutes TypeParam(origID) -> TypeParam(newID) pairwise.
	// Since subst.Substitution's domain is keyed by UVarID/CaptureUVarID,
	// not Ident, a direct TypeParam-to-TypeParam rename is carried out
	// structurally here rather than through subst.Substitution.
	rename := make(map[solvertypes.Ident]solvertypes.Ident, len(f1.TParams))
	for i := range f1.TParams {
		rename[f2.TParams[i]] = f1.TParams[i]
	}
	crename := make(map[solvertypes.Ident]solvertypes.Ident, len(f1.CParams))
	for i := range f1.CParams {
		crename[f2.CParams[i]] = f1.CParams[i]
	}

	renameValue := func(t solvertypes.ValueType) solvertypes.ValueType {
		return renameTypeParams(t, rename, crename)
	}

	vparams := make([]solvertypes.ValueType, len(f2.VParams))
	for i, v := range f2.VParams {
		vparams[i] = renameValue(v)
	}
	bparams := make([]solvertypes.BlockType, len(f2.BParams))
	for i, b := range f2.BParams {
		bparams[i] = renameBlockParams(b, rename, crename)
	}
	result := renameValue(f2.Result)

	return &solvertypes.FunctionType{
		TParams: f1.TParams,
		CParams: f1.CParams,
		VParams: vparams,
		BParams: bparams,
		Result:  result,
		Effects: f2.Effects,
	}
}

func renameCaptures(cs solvertypes.CaptureSet, crename map[solvertypes.Ident]solvertypes.Ident) solvertypes.CaptureSet {
	if len(crename) == 0 {
		return cs
	}
	return cs.Map(func(a solvertypes.CaptureAtom) solvertypes.CaptureSet {
		if cap, ok := a.(solvertypes.Capability); ok {
			if nid, ok := crename[cap.Name]; ok {
				return solvertypes.NewCaptureSet(solvertypes.Capability{Name: nid})
			}
		}
		return solvertypes.NewCaptureSet(a)
	})
}

func renameTypeParams(t solvertypes.ValueType, rename, crename map[solvertypes.Ident]solvertypes.Ident) solvertypes.ValueType {
	switch t := t.(type) {
	case *solvertypes.TypeParam:
		if nid, ok := rename[t.ID]; ok {
			return &solvertypes.TypeParam{ID: nid}
		}
		return t
	case *solvertypes.App:
		args := make([]solvertypes.ValueType, len(t.Args))
		for i, a := range t.Args {
			args[i] = renameTypeParams(a, rename, crename)
		}
		return &solvertypes.App{Ctor: t.Ctor, Args: args}
	case *solvertypes.Boxed:
		return &solvertypes.Boxed{
			Block:    renameBlockParams(t.Block, rename, crename),
			Captures: renameCaptures(t.Captures, crename),
		}
	default:
		return t
	}
}

func renameBlockParams(b solvertypes.BlockType, rename, crename map[solvertypes.Ident]solvertypes.Ident) solvertypes.BlockType {
	switch b := b.(type) {
	case *solvertypes.InterfaceType:
		args := make([]solvertypes.ValueType, len(b.Args))
		for i, a := range b.Args {
			args[i] = renameTypeParams(a, rename, crename)
		}
		return &solvertypes.InterfaceType{Name: b.Name, Args: args}
	case *solvertypes.FunctionType:
		// Nested function types introduce their own (distinct) bound
		// parameters, which shadow the outer rename — spec §4.2's
		// substitution shadowing rule applies identically here.
		shadowed := make(map[solvertypes.Ident]solvertypes.Ident, len(rename))
		for k, v := range rename {
			shadowed[k] = v
		}
		cshadowed := make(map[solvertypes.Ident]solvertypes.Ident, len(crename))
		for k, v := range crename {
			cshadowed[k] = v
		}
		for _, p := range b.TParams {
			delete(shadowed, p)
		}
		for _, p := range b.CParams {
			delete(cshadowed, p)
		}
		vparams := make([]solvertypes.ValueType, len(b.VParams))
		for i, v := range b.VParams {
			vparams[i] = renameTypeParams(v, shadowed, cshadowed)
		}
		bparams := make([]solvertypes.BlockType, len(b.BParams))
		for i, bp := range b.BParams {
			bparams[i] = renameBlockParams(bp, shadowed, cshadowed)
		}
		return &solvertypes.FunctionType{
			TParams: b.TParams,
			CParams: b.CParams,
			VParams: vparams,
			BParams: bparams,
			Result:  renameTypeParams(b.Result, shadowed, cshadowed),
			Effects: b.Effects,
		}
	default:
		return b
	}
}
