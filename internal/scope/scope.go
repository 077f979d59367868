// Package scope implements UnificationScope (spec §4.5): the owner of a
// scope id, skolem/capture-skolem stacks, and one ConstraintGraph. It
// supplies the two concrete Effects implementations TypeComparer
// dispatches to — the graph-mutating default used by RequireSubtype, and
// a non-mutating stub used by the read-only IsSubtype query — and
// implements Scope.merge, the polarity-aware join/meet/equate table of
// spec §4.4.
package scope

import (
	"fmt"
	"sync/atomic"

	"github.com/rzikm/effekt/internal/comparer"
	"github.com/rzikm/effekt/internal/constraintgraph"
	"github.com/rzikm/effekt/internal/errors"
	"github.com/rzikm/effekt/internal/solvertypes"
	"github.com/rzikm/effekt/internal/subst"
)

// Process-wide monotonically increasing counters (spec §9 "Global
// mutable state": a single process-wide scope id; extended here to
// UVar/CaptureUVar ids too, since their identity must also be
// process-wide and unique across concurrently-live scopes). Adapted
// from the teacher's internal/sid package-scoped atomic-counter idiom.
var (
	nextScopeID   uint64
	nextUVarID    uint64
	nextCaptureID uint64
)

func allocScopeID() solvertypes.ScopeID {
	return solvertypes.ScopeID(atomic.AddUint64(&nextScopeID, 1))
}

func allocUVarID() solvertypes.UVarID {
	return solvertypes.UVarID(atomic.AddUint64(&nextUVarID, 1))
}

func allocCaptureID() solvertypes.CaptureUVarID {
	return solvertypes.CaptureUVarID(atomic.AddUint64(&nextCaptureID, 1))
}

// Polarity dictates whether merge computes a join, a meet, or enforces
// equality (spec §4.4, GLOSSARY "Polarity").
type Polarity int

const (
	Covariant Polarity = iota
	Contravariant
	Invariant
)

// Scope is UnificationScope (spec §4.5).
type Scope struct {
	id             solvertypes.ScopeID
	graph          *constraintgraph.Graph
	skolems        []*solvertypes.UVar
	captureSkolems []*solvertypes.CaptureUVar
	comparer       *comparer.TypeComparer
	reporter       errors.ErrorReporter
}

// New begins a fresh scope with a collecting error reporter.
func New() *Scope {
	return newWithReporter(errors.NewCollectingReporter())
}

func newWithReporter(r errors.ErrorReporter) *Scope {
	s := &Scope{
		id:       allocScopeID(),
		graph:    constraintgraph.New(),
		reporter: r,
	}
	s.comparer = comparer.New(&defaultEffects{scope: s})
	return s
}

// ID returns the scope's process-wide identity, for diagnostics only.
func (s *Scope) ID() solvertypes.ScopeID { return s.id }

// Reports returns the accumulated diagnostics if Scope was built with a
// CollectingReporter (the New() default); nil otherwise.
func (s *Scope) Reports() []*errors.Report {
	if cr, ok := s.reporter.(*errors.CollectingReporter); ok {
		return cr.Reports
	}
	return nil
}

// Fresh allocates and records a fresh unification variable.
func (s *Scope) Fresh(role solvertypes.Role) *solvertypes.UVar {
	v := &solvertypes.UVar{ID: allocUVarID(), Role: role, Owner: s.id}
	s.skolems = append(s.skolems, v)
	return v
}

// FreshCapture allocates and records a fresh capture unification variable.
func (s *Scope) FreshCapture(role solvertypes.Role, underlying solvertypes.Ident) *solvertypes.CaptureUVar {
	v := &solvertypes.CaptureUVar{ID: allocCaptureID(), Role: role, Owner: s.id, Underlying: underlying}
	s.captureSkolems = append(s.captureSkolems, v)
	return v
}

// Instantiate allocates a fresh uvar for each of ft's type parameters and
// a fresh capture uvar for each of its capture parameters, substitutes
// them through vparams/bparams/result, and returns the rigids alongside
// the instantiated type (tparams/cparams now empty), per spec §4.5.
func (s *Scope) Instantiate(ft *solvertypes.FunctionType) ([]*solvertypes.UVar, []*solvertypes.CaptureUVar, *solvertypes.FunctionType) {
	tvars := make([]*solvertypes.UVar, len(ft.TParams))
	trep := make(map[solvertypes.Ident]*solvertypes.UVar, len(ft.TParams))
	for i, tp := range ft.TParams {
		v := s.Fresh(solvertypes.RoleTypeVarInstantiation{Orig: tp})
		tvars[i] = v
		trep[tp] = v
	}

	cvars := make([]*solvertypes.CaptureUVar, len(ft.CParams))
	crep := make(map[solvertypes.Ident]*solvertypes.CaptureUVar, len(ft.CParams))
	for i, cp := range ft.CParams {
		v := s.FreshCapture(solvertypes.RoleCaptureInstantiation{Orig: cp}, cp)
		cvars[i] = v
		crep[cp] = v
	}

	vparams := make([]solvertypes.ValueType, len(ft.VParams))
	for i, v := range ft.VParams {
		vparams[i] = instantiateValue(v, trep, crep)
	}
	bparams := make([]solvertypes.BlockType, len(ft.BParams))
	for i, b := range ft.BParams {
		bparams[i] = instantiateBlock(b, trep, crep)
	}
	result := instantiateValue(ft.Result, trep, crep)

	instantiated := &solvertypes.FunctionType{
		VParams: vparams,
		BParams: bparams,
		Result:  result,
		Effects: ft.Effects,
	}
	return tvars, cvars, instantiated
}

func instantiateValue(t solvertypes.ValueType, trep map[solvertypes.Ident]*solvertypes.UVar, crep map[solvertypes.Ident]*solvertypes.CaptureUVar) solvertypes.ValueType {
	switch t := t.(type) {
	case *solvertypes.TypeParam:
		if v, ok := trep[t.ID]; ok {
			return v
		}
		return t
	case *solvertypes.App:
		args := make([]solvertypes.ValueType, len(t.Args))
		for i, a := range t.Args {
			args[i] = instantiateValue(a, trep, crep)
		}
		return &solvertypes.App{Ctor: t.Ctor, Args: args}
	case *solvertypes.Boxed:
		return &solvertypes.Boxed{
			Block:    instantiateBlock(t.Block, trep, crep),
			Captures: instantiateCaptures(t.Captures, crep),
		}
	default:
		return t
	}
}

func instantiateCaptures(cs solvertypes.CaptureSet, crep map[solvertypes.Ident]*solvertypes.CaptureUVar) solvertypes.CaptureSet {
	if len(crep) == 0 {
		return cs
	}
	return cs.Map(func(a solvertypes.CaptureAtom) solvertypes.CaptureSet {
		if cap, ok := a.(solvertypes.Capability); ok {
			if v, ok := crep[cap.Name]; ok {
				return solvertypes.NewCaptureSet(v)
			}
		}
		return solvertypes.NewCaptureSet(a)
	})
}

func instantiateBlock(b solvertypes.BlockType, trep map[solvertypes.Ident]*solvertypes.UVar, crep map[solvertypes.Ident]*solvertypes.CaptureUVar) solvertypes.BlockType {
	switch b := b.(type) {
	case *solvertypes.InterfaceType:
		args := make([]solvertypes.ValueType, len(b.Args))
		for i, a := range b.Args {
			args[i] = instantiateValue(a, trep, crep)
		}
		return &solvertypes.InterfaceType{Name: b.Name, Args: args}
	case *solvertypes.FunctionType:
		ltrep := trep
		if len(b.TParams) > 0 {
			ltrep = make(map[solvertypes.Ident]*solvertypes.UVar, len(trep))
			for k, v := range trep {
				ltrep[k] = v
			}
			for _, p := range b.TParams {
				delete(ltrep, p)
			}
		}
		lcrep := crep
		if len(b.CParams) > 0 {
			lcrep = make(map[solvertypes.Ident]*solvertypes.CaptureUVar, len(crep))
			for k, v := range crep {
				lcrep[k] = v
			}
			for _, p := range b.CParams {
				delete(lcrep, p)
			}
		}
		vparams := make([]solvertypes.ValueType, len(b.VParams))
		for i, v := range b.VParams {
			vparams[i] = instantiateValue(v, ltrep, lcrep)
		}
		bparams := make([]solvertypes.BlockType, len(b.BParams))
		for i, bp := range b.BParams {
			bparams[i] = instantiateBlock(bp, ltrep, lcrep)
		}
		result := instantiateValue(b.Result, ltrep, lcrep)
		return &solvertypes.FunctionType{
			TParams: b.TParams,
			CParams: b.CParams,
			VParams: vparams,
			BParams: bparams,
			Result:  result,
			Effects: b.Effects,
		}
	default:
		return b
	}
}

// RequireSubtype asserts t1 <: t2 against the graph-mutating default
// Effects, reporting any failure through the scope's ErrorReporter.
func (s *Scope) RequireSubtype(t1, t2 solvertypes.ValueType) error {
	return s.comparer.UnifyValueTypes(t1, t2)
}

// RequireSubtypeBlock asserts b1 <: b2. Open Question Decision (DESIGN.md
// §"Open Question Decisions" item 1): forwards directly to
// unify_block_types rather than preserving the source's unconditional
// abort stub.
func (s *Scope) RequireSubtypeBlock(b1, b2 solvertypes.BlockType) error {
	return s.comparer.UnifyBlockTypes(b1, b2)
}

// RequireSubtypeCaptures asserts c1 <: c2. Same Open Question Decision as
// RequireSubtypeBlock: forwards directly to unify_captures.
func (s *Scope) RequireSubtypeCaptures(c1, c2 solvertypes.CaptureSet) error {
	return s.unifyCaptures(c1, c2)
}

// unifyCaptures is the concrete algorithm behind both RequireSubtypeCaptures
// and the TypeComparer's unify_captures effect (spec §4.4 case 6, §3
// "CaptureSet supports union, membership, and mapping" — the subset check
// below is this repository's own grounding of that abstract effect method,
// spec.md never gives it a concrete algorithm beyond naming it one of the
// four pluggable effects). c1 <: c2 holds when every concrete capability
// atom in c1 is also in c2; an uninstantiated capture uvar in c1 does not
// by itself violate the check, since it stands for a capture set not yet
// resolved to any particular capability.
func (s *Scope) unifyCaptures(c1, c2 solvertypes.CaptureSet) error {
	return unifyCapturesVia(s.reporter, c1, c2)
}

// unifyCapturesVia runs the capture-subset check against the supplied
// reporter, so the non-mutating stub path (IsSubtype) can route any
// mismatch through its own PanickingReporter instead of the scope's real
// (collecting) one.
func unifyCapturesVia(r errors.ErrorReporter, c1, c2 solvertypes.CaptureSet) error {
	for _, a := range c1.Atoms() {
		if c2.Contains(a) {
			continue
		}
		if _, ok := a.(*solvertypes.CaptureUVar); ok {
			continue
		}
		return r.Abort(fmt.Sprintf("capture mismatch: %s not present in %s", a, c2))
	}
	return nil
}

// Subtract computes e1 \ { e | exists e' in e2, e' is a subtype of e }
// (spec §4.5, GLOSSARY "Effect subtraction"). Effect atoms carry no
// richer subtype relation than nominal identity (spec §1 non-goal: row
// effect polymorphism beyond subtract-by-subtyping), so "e' <: e"
// degenerates to e' == e.
func (s *Scope) Subtract(e1, e2 solvertypes.EffectSet) solvertypes.EffectSet {
	var keep []solvertypes.Ident
	for _, a := range e1.Atoms() {
		if !e2.Contains(a) {
			keep = append(keep, a)
		}
	}
	return solvertypes.NewEffectSet(keep...)
}

// IsSubtype is the non-mutating query of spec §4.4 "is_subtype(t1, t2)":
// it runs the comparer against a stub Effects implementation that reads
// (never writes) the graph's current bounds, recovering the
// PanickingReporter's AbortSignal at this one boundary.
func (s *Scope) IsSubtype(t1, t2 solvertypes.ValueType) (result bool) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(errors.AbortSignal); ok {
				result = false
				return
			}
			panic(r)
		}
	}()

	eff := &stubEffects{scope: s, reporter: errors.PanickingReporter{}}
	eff.comparer = comparer.New(eff)
	if err := eff.comparer.UnifyValueTypes(t1, t2); err != nil {
		return false
	}
	return true
}

// BoundsFor exposes the graph's current (lower, upper) bound pair for a
// unification variable owned by this scope, for callers (the CLI
// drivers) that want to report the solver's current knowledge about a
// variable rather than just whether a single obligation held.
func (s *Scope) BoundsFor(x *solvertypes.UVar) (solvertypes.ValueType, solvertypes.ValueType) {
	return s.graph.BoundsFor(x)
}

// Snapshot is an opaque capture of the scope's entire mutable state
// (graph plus skolem lists) for speculative overload resolution.
type Snapshot struct {
	graph          *constraintgraph.Snapshot
	skolems        []*solvertypes.UVar
	captureSkolems []*solvertypes.CaptureUVar
}

// Snapshot captures the scope's current state.
func (s *Scope) Snapshot() *Snapshot {
	skolems := make([]*solvertypes.UVar, len(s.skolems))
	copy(skolems, s.skolems)
	captureSkolems := make([]*solvertypes.CaptureUVar, len(s.captureSkolems))
	copy(captureSkolems, s.captureSkolems)
	return &Snapshot{
		graph:          s.graph.Snapshot(),
		skolems:        skolems,
		captureSkolems: captureSkolems,
	}
}

// Restore discards every mutation and fresh variable allocated since snap.
func (s *Scope) Restore(snap *Snapshot) {
	s.graph.Restore(snap.graph)
	s.skolems = snap.skolems
	s.captureSkolems = snap.captureSkolems
}

// Solve is deliberately stubbed (spec §9 Open Question Decision 2): an
// implementer may leave bisubstitution-based solving unimplemented.
func (s *Scope) Solve() subst.Substitution {
	return subst.Empty
}

// merge computes merge(old, new, polarity) (spec §4.4's table). old and
// new are never themselves substituted here — when either is a
// unification variable, the table's "both variables" row (or, if only
// one side is a variable, the generic is_subtype-based rows) apply.
func (s *Scope) merge(old, new solvertypes.ValueType, pol Polarity) (solvertypes.ValueType, error) {
	if old.Equals(new) {
		return old, nil
	}

	if pol == Covariant {
		if solvertypes.IsBottom(old) {
			return new, nil
		}
		if solvertypes.IsBottom(new) {
			return old, nil
		}
	}
	if pol == Contravariant {
		if solvertypes.IsTop(old) {
			return new, nil
		}
		if solvertypes.IsTop(new) {
			return old, nil
		}
	}

	xv, xok := solvertypes.IsUVar(old)
	yv, yok := solvertypes.IsUVar(new)
	if xok && yok {
		switch pol {
		case Covariant:
			m := s.Fresh(solvertypes.RoleMergeVariable{})
			if err := s.connectNodes(xv, m); err != nil {
				return nil, err
			}
			if err := s.connectNodes(yv, m); err != nil {
				return nil, err
			}
			return m, nil
		case Contravariant:
			m := s.Fresh(solvertypes.RoleMergeVariable{})
			if err := s.connectNodes(m, xv); err != nil {
				return nil, err
			}
			if err := s.connectNodes(m, yv); err != nil {
				return nil, err
			}
			return m, nil
		default: // Invariant: connect in both directions (full equivalence).
			if err := s.connectNodes(xv, yv); err != nil {
				return nil, err
			}
			if err := s.connectNodes(yv, xv); err != nil {
				return nil, err
			}
			return xv, nil
		}
	}

	if s.IsSubtype(old, new) {
		if pol != Invariant || s.IsSubtype(new, old) {
			switch pol {
			case Covariant:
				return new, nil
			case Contravariant:
				return old, nil
			default:
				return old, nil
			}
		}
	} else if s.IsSubtype(new, old) {
		switch pol {
		case Covariant:
			return old, nil
		case Contravariant:
			return new, nil
		}
	}

	a1, ok1 := old.(*solvertypes.App)
	a2, ok2 := new.(*solvertypes.App)
	if ok1 && ok2 && a1.Ctor == a2.Ctor && len(a1.Args) == len(a2.Args) {
		args := make([]solvertypes.ValueType, len(a1.Args))
		for i := range a1.Args {
			merged, err := s.merge(a1.Args[i], a2.Args[i], Invariant)
			if err != nil {
				return nil, err
			}
			args[i] = merged
		}
		return &solvertypes.App{Ctor: a1.Ctor, Args: args}, nil
	}

	return nil, s.reporter.Abort(fmt.Sprintf("cannot merge %s and %s at polarity %d", old, new, pol))
}

// connectNodes asserts x <: y at the solver level (spec §4.4
// "connect_nodes"): a no-op if already known; otherwise it first
// requires y's lower bound accept x's lower bound, then requires x's
// upper bound accept y's upper bound, then installs the graph edge.
func (s *Scope) connectNodes(x, y *solvertypes.UVar) error {
	if x.Equals(y) || s.graph.IsSubtype(x, y) {
		return nil
	}
	if err := s.requireLowerBound(y, s.graph.LowerBound(x)); err != nil {
		return err
	}
	if err := s.requireUpperBound(x, s.graph.UpperBound(y)); err != nil {
		return err
	}
	s.graph.Connect(x, y)
	return nil
}

// requireLowerBound implements the solver default TypeComparer's
// require_lower_bound(x, t) (spec §4.4), propagating to x's upper
// neighbours only when the merge actually changed x's lower bound
// (termination: spec §5 "propagation terminates because each
// propagation step ... strictly reduces").
func (s *Scope) requireLowerBound(x *solvertypes.UVar, t solvertypes.ValueType) error {
	if y, ok := solvertypes.IsUVar(t); ok {
		return s.connectNodes(y, x)
	}

	l, u := s.graph.BoundsFor(x)
	newL, err := s.merge(l, t, Covariant)
	if err != nil {
		return err
	}
	if newL.Equals(l) {
		return nil
	}
	s.graph.UpdateLowerBound(x, newL)
	if err := s.comparer.UnifyValueTypes(newL, u); err != nil {
		return err
	}
	for _, n := range s.graph.UpperVariables(x) {
		if err := s.requireLowerBound(n, t); err != nil {
			return err
		}
	}
	return nil
}

// requireUpperBound is the Contravariant-propagating symmetric
// counterpart of requireLowerBound.
func (s *Scope) requireUpperBound(x *solvertypes.UVar, t solvertypes.ValueType) error {
	if y, ok := solvertypes.IsUVar(t); ok {
		return s.connectNodes(x, y)
	}

	l, u := s.graph.BoundsFor(x)
	newU, err := s.merge(u, t, Contravariant)
	if err != nil {
		return err
	}
	if newU.Equals(u) {
		return nil
	}
	s.graph.UpdateUpperBound(x, newU)
	if err := s.comparer.UnifyValueTypes(l, newU); err != nil {
		return err
	}
	for _, n := range s.graph.LowerVariables(x) {
		if err := s.requireUpperBound(n, t); err != nil {
			return err
		}
	}
	return nil
}

// defaultEffects is the solver's graph-mutating TypeComparer.Effects
// implementation (spec §4.4 "Solver default TypeComparer (owned by
// UnificationScope)").
type defaultEffects struct {
	scope *Scope
}

func (e *defaultEffects) RequireLowerBound(x *solvertypes.UVar, t solvertypes.ValueType) error {
	return e.scope.requireLowerBound(x, t)
}

func (e *defaultEffects) RequireUpperBound(x *solvertypes.UVar, t solvertypes.ValueType) error {
	return e.scope.requireUpperBound(x, t)
}

func (e *defaultEffects) UnifyCaptures(c1, c2 solvertypes.CaptureSet) error {
	return e.scope.unifyCaptures(c1, c2)
}

func (e *defaultEffects) Abort(message string) error {
	return e.scope.reporter.Abort(message)
}

// stubEffects is the non-mutating Effects implementation used by
// IsSubtype (spec §4.4 "is_subtype(t1, t2)"): variable-vs-type
// requirements consult the graph's current bounds and recurse through
// the same comparer; variable-vs-variable requirements consult the
// graph's existing is_subtype/is_supertype neighbour sets. It never
// calls ConstraintGraph mutators.
type stubEffects struct {
	scope    *Scope
	comparer *comparer.TypeComparer
	reporter errors.ErrorReporter
}

func (e *stubEffects) RequireUpperBound(x *solvertypes.UVar, t solvertypes.ValueType) error {
	if y, ok := solvertypes.IsUVar(t); ok {
		if x.Equals(y) || e.scope.graph.IsSubtype(x, y) {
			return nil
		}
		return e.Abort(fmt.Sprintf("%s is not known to be a subtype of %s", x, y))
	}
	return e.comparer.UnifyValueTypes(e.scope.graph.UpperBound(x), t)
}

func (e *stubEffects) RequireLowerBound(x *solvertypes.UVar, t solvertypes.ValueType) error {
	if y, ok := solvertypes.IsUVar(t); ok {
		if x.Equals(y) || e.scope.graph.IsSupertype(x, y) {
			return nil
		}
		return e.Abort(fmt.Sprintf("%s is not known to be a supertype of %s", x, y))
	}
	return e.comparer.UnifyValueTypes(t, e.scope.graph.LowerBound(x))
}

func (e *stubEffects) UnifyCaptures(c1, c2 solvertypes.CaptureSet) error {
	return unifyCapturesVia(e.reporter, c1, c2)
}

func (e *stubEffects) Abort(message string) error {
	return e.reporter.Abort(message)
}
