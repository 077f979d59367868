package comparer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzikm/effekt/internal/solvertypes"
)

// recordingEffects is a non-mutating Effects stub that records every
// dispatch instead of touching a real ConstraintGraph, mirroring the
// "non-mutating stub used for read-only is_subtype queries" shape spec
// §4.4 describes. Tests assert against the recorded calls directly
// rather than wiring internal/scope's real graph-mutating Effects.
type recordingEffects struct {
	lowerCalls []boundCall
	upperCalls []boundCall
	unifyCaps  []capCall
	aborted    string
	abortErr   error
}

type boundCall struct {
	x *solvertypes.UVar
	t solvertypes.ValueType
}

type capCall struct {
	c1, c2 solvertypes.CaptureSet
}

func (r *recordingEffects) RequireLowerBound(x *solvertypes.UVar, t solvertypes.ValueType) error {
	r.lowerCalls = append(r.lowerCalls, boundCall{x, t})
	return nil
}

func (r *recordingEffects) RequireUpperBound(x *solvertypes.UVar, t solvertypes.ValueType) error {
	r.upperCalls = append(r.upperCalls, boundCall{x, t})
	return nil
}

func (r *recordingEffects) UnifyCaptures(c1, c2 solvertypes.CaptureSet) error {
	r.unifyCaps = append(r.unifyCaps, capCall{c1, c2})
	return nil
}

func (r *recordingEffects) Abort(message string) error {
	r.aborted = message
	r.abortErr = &abortError{message}
	return r.abortErr
}

type abortError struct{ message string }

func (e *abortError) Error() string { return e.message }

func intApp() *solvertypes.App  { return &solvertypes.App{Ctor: solvertypes.Intern("Int")} }
func strApp() *solvertypes.App  { return &solvertypes.App{Ctor: solvertypes.Intern("String")} }
func freshVar(id solvertypes.UVarID) *solvertypes.UVar {
	return &solvertypes.UVar{ID: id, Role: solvertypes.RoleInferredArgument{}}
}

func TestUnifyValueTypesEquals(t *testing.T) {
	eff := &recordingEffects{}
	c := New(eff)

	err := c.UnifyValueTypes(intApp(), intApp())

	require.NoError(t, err)
	assert.Empty(t, eff.aborted)
}

func TestUnifyValueTypesTopBottomAbsorb(t *testing.T) {
	eff := &recordingEffects{}
	c := New(eff)

	require.NoError(t, c.UnifyValueTypes(intApp(), solvertypes.TTop))
	require.NoError(t, c.UnifyValueTypes(solvertypes.TBottom, intApp()))
}

func TestUnifyValueTypesUVarDispatch(t *testing.T) {
	eff := &recordingEffects{}
	c := New(eff)
	x := freshVar(1)

	require.NoError(t, c.UnifyValueTypes(x, intApp()))
	require.Len(t, eff.upperCalls, 1)
	assert.Same(t, x, eff.upperCalls[0].x)
	assert.True(t, eff.upperCalls[0].t.Equals(intApp()))

	eff2 := &recordingEffects{}
	c2 := New(eff2)
	y := freshVar(2)
	require.NoError(t, c2.UnifyValueTypes(intApp(), y))
	require.Len(t, eff2.lowerCalls, 1)
	assert.Same(t, y, eff2.lowerCalls[0].x)
}

func TestUnifyValueTypesAppSameCtorRecurses(t *testing.T) {
	eff := &recordingEffects{}
	c := New(eff)

	list := func(elem solvertypes.ValueType) *solvertypes.App {
		return &solvertypes.App{Ctor: solvertypes.Intern("List"), Args: []solvertypes.ValueType{elem}}
	}

	require.NoError(t, c.UnifyValueTypes(list(intApp()), list(intApp())))

	err := c.UnifyValueTypes(list(intApp()), list(strApp()))
	require.Error(t, err)
	assert.NotEmpty(t, eff.aborted)
}

func TestUnifyValueTypesAppArityMismatchAborts(t *testing.T) {
	eff := &recordingEffects{}
	c := New(eff)

	pair := &solvertypes.App{Ctor: solvertypes.Intern("Pair"), Args: []solvertypes.ValueType{intApp(), intApp()}}
	single := &solvertypes.App{Ctor: solvertypes.Intern("Pair"), Args: []solvertypes.ValueType{intApp()}}

	err := c.UnifyValueTypes(pair, single)
	require.Error(t, err)
}

func TestUnifyValueTypesBoxedDelegatesToCaptures(t *testing.T) {
	eff := &recordingEffects{}
	c := New(eff)

	iface1 := &solvertypes.InterfaceType{Name: solvertypes.Intern("Reader")}
	iface2 := &solvertypes.InterfaceType{Name: solvertypes.Intern("Reader")}
	caps1 := solvertypes.NewCaptureSet(solvertypes.Capability{Name: solvertypes.Intern("io")})
	caps2 := solvertypes.NewCaptureSet(solvertypes.Capability{Name: solvertypes.Intern("net")})

	b1 := &solvertypes.Boxed{Block: iface1, Captures: caps1}
	b2 := &solvertypes.Boxed{Block: iface2, Captures: caps2}

	require.NoError(t, c.UnifyValueTypes(b1, b2))
	require.Len(t, eff.unifyCaps, 1)
	assert.True(t, eff.unifyCaps[0].c1.Equals(caps1))
	assert.True(t, eff.unifyCaps[0].c2.Equals(caps2))
}

func TestUnifyValueTypesMismatchAborts(t *testing.T) {
	eff := &recordingEffects{}
	c := New(eff)

	err := c.UnifyValueTypes(intApp(), strApp())
	require.Error(t, err)
	assert.Contains(t, eff.aborted, "type mismatch")
}

func TestUnifyBlockTypesFunctionVsInterfaceAborts(t *testing.T) {
	eff := &recordingEffects{}
	c := New(eff)

	fn := &solvertypes.FunctionType{Result: intApp(), Effects: solvertypes.EmptyEffectSet}
	iface := &solvertypes.InterfaceType{Name: solvertypes.Intern("Reader")}

	err := c.UnifyBlockTypes(fn, iface)
	require.Error(t, err)
}

func TestUnifyBlockTypesInterfaceArityMismatch(t *testing.T) {
	eff := &recordingEffects{}
	c := New(eff)

	a := &solvertypes.InterfaceType{Name: solvertypes.Intern("Reader"), Args: []solvertypes.ValueType{intApp()}}
	b := &solvertypes.InterfaceType{Name: solvertypes.Intern("Reader")}

	err := c.UnifyBlockTypes(a, b)
	require.Error(t, err)
}

func TestUnifyBlockTypesInterfaceArgsRecurse(t *testing.T) {
	eff := &recordingEffects{}
	c := New(eff)

	a := &solvertypes.InterfaceType{Name: solvertypes.Intern("Reader"), Args: []solvertypes.ValueType{intApp()}}
	b := &solvertypes.InterfaceType{Name: solvertypes.Intern("Reader"), Args: []solvertypes.ValueType{intApp()}}

	require.NoError(t, c.UnifyBlockTypes(a, b))
}

func TestUnifyFunctionTypesArityMismatchAborts(t *testing.T) {
	eff := &recordingEffects{}
	c := New(eff)

	f1 := &solvertypes.FunctionType{VParams: []solvertypes.ValueType{intApp()}, Result: intApp(), Effects: solvertypes.EmptyEffectSet}
	f2 := &solvertypes.FunctionType{Result: intApp(), Effects: solvertypes.EmptyEffectSet}

	err := c.UnifyFunctionTypes(f1, f2)
	require.Error(t, err)
}

func TestUnifyFunctionTypesContravariantParamsCovariantResult(t *testing.T) {
	eff := &recordingEffects{}
	c := New(eff)

	f1 := &solvertypes.FunctionType{
		VParams: []solvertypes.ValueType{intApp()},
		Result:  intApp(),
		Effects: solvertypes.EmptyEffectSet,
	}
	f2 := &solvertypes.FunctionType{
		VParams: []solvertypes.ValueType{solvertypes.TBottom},
		Result:  solvertypes.TTop,
		Effects: solvertypes.EmptyEffectSet,
	}

	require.NoError(t, c.UnifyFunctionTypes(f1, f2))
}

func TestUnifyFunctionTypesAlphaRenamesBoundTypeParams(t *testing.T) {
	eff := &recordingEffects{}
	c := New(eff)

	a := solvertypes.Intern("A")
	b := solvertypes.Intern("B")

	// [A](A) => A  <:  [B](B) => B, after alpha-renaming B->A these are
	// structurally identical and should unify without reaching Effects.
	f1 := &solvertypes.FunctionType{
		TParams: []solvertypes.Ident{a},
		VParams: []solvertypes.ValueType{&solvertypes.TypeParam{ID: a}},
		Result:  &solvertypes.TypeParam{ID: a},
		Effects: solvertypes.EmptyEffectSet,
	}
	f2 := &solvertypes.FunctionType{
		TParams: []solvertypes.Ident{b},
		VParams: []solvertypes.ValueType{&solvertypes.TypeParam{ID: b}},
		Result:  &solvertypes.TypeParam{ID: b},
		Effects: solvertypes.EmptyEffectSet,
	}

	require.NoError(t, c.UnifyFunctionTypes(f1, f2))
	assert.Empty(t, eff.lowerCalls)
	assert.Empty(t, eff.upperCalls)
}

func TestUnifyFunctionTypesAlphaRenamesNestedCaptureParams(t *testing.T) {
	eff := &recordingEffects{}
	c := New(eff)

	cp1 := solvertypes.Intern("c1")
	cp2 := solvertypes.Intern("c2")

	box := func(cp solvertypes.Ident) *solvertypes.Boxed {
		return &solvertypes.Boxed{
			Block:    &solvertypes.InterfaceType{Name: solvertypes.Intern("Reader")},
			Captures: solvertypes.NewCaptureSet(solvertypes.Capability{Name: cp}),
		}
	}

	f1 := &solvertypes.FunctionType{
		CParams: []solvertypes.Ident{cp1},
		Result:  box(cp1),
		Effects: solvertypes.EmptyEffectSet,
	}
	f2 := &solvertypes.FunctionType{
		CParams: []solvertypes.Ident{cp2},
		Result:  box(cp2),
		Effects: solvertypes.EmptyEffectSet,
	}

	require.NoError(t, c.UnifyFunctionTypes(f1, f2))
	// The renamed capture set collapses to cp1, so both boxed results are
	// structurally equal: UnifyValueTypes accepts them at its equality
	// case without dispatching UnifyCaptures, and never reaches Abort.
	require.Empty(t, eff.unifyCaps)
	assert.True(t, alphaRename(f2, f1).Result.Equals(f1.Result))
	assert.Empty(t, eff.aborted)
}

func TestUnifyEffectsSubsetPasses(t *testing.T) {
	eff := &recordingEffects{}
	c := New(eff)

	io := solvertypes.Intern("IO")
	net := solvertypes.Intern("Net")

	e1 := solvertypes.NewEffectSet(io)
	e2 := solvertypes.NewEffectSet(io, net)

	require.NoError(t, c.UnifyEffects(e1, e2))
}

func TestUnifyEffectsMissingAborts(t *testing.T) {
	eff := &recordingEffects{}
	c := New(eff)

	io := solvertypes.Intern("IO")
	net := solvertypes.Intern("Net")

	e1 := solvertypes.NewEffectSet(io, net)
	e2 := solvertypes.NewEffectSet(io)

	err := c.UnifyEffects(e1, e2)
	require.Error(t, err)
	assert.Contains(t, eff.aborted, "effect mismatch")
}

func TestUnifyFunctionTypesPropagatesEffectMismatch(t *testing.T) {
	eff := &recordingEffects{}
	c := New(eff)

	io := solvertypes.Intern("IO")
	f1 := &solvertypes.FunctionType{Result: intApp(), Effects: solvertypes.NewEffectSet(io)}
	f2 := &solvertypes.FunctionType{Result: intApp(), Effects: solvertypes.EmptyEffectSet}

	err := c.UnifyFunctionTypes(f1, f2)
	require.Error(t, err)
}
