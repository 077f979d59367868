package cliparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzikm/effekt/internal/scope"
	"github.com/rzikm/effekt/internal/solvertypes"
)

func TestParseValueTypeNullaryApp(t *testing.T) {
	s := scope.New()
	vars := NewVarEnv(s)

	got, err := ParseValueType("Int", vars)
	require.NoError(t, err)
	assert.True(t, got.Equals(&solvertypes.App{Ctor: solvertypes.Intern("Int")}))
}

func TestParseValueTypeTopBottom(t *testing.T) {
	s := scope.New()
	vars := NewVarEnv(s)

	top, err := ParseValueType("Top", vars)
	require.NoError(t, err)
	assert.True(t, solvertypes.IsTop(top))

	bot, err := ParseValueType("Bottom", vars)
	require.NoError(t, err)
	assert.True(t, solvertypes.IsBottom(bot))
}

func TestParseValueTypeAppWithArgs(t *testing.T) {
	s := scope.New()
	vars := NewVarEnv(s)

	got, err := ParseValueType("Pair[Int, String]", vars)
	require.NoError(t, err)

	want := &solvertypes.App{
		Ctor: solvertypes.Intern("Pair"),
		Args: []solvertypes.ValueType{
			&solvertypes.App{Ctor: solvertypes.Intern("Int")},
			&solvertypes.App{Ctor: solvertypes.Intern("String")},
		},
	}
	assert.True(t, got.Equals(want))
}

func TestParseValueTypeVariableIsMemoizedByName(t *testing.T) {
	s := scope.New()
	vars := NewVarEnv(s)

	a1, err := ParseValueType("?a", vars)
	require.NoError(t, err)
	a2, err := ParseValueType("?a", vars)
	require.NoError(t, err)
	b, err := ParseValueType("?b", vars)
	require.NoError(t, err)

	assert.True(t, a1.Equals(a2), "same name must resolve to the same variable")
	assert.False(t, a1.Equals(b))
}

func TestParseValueTypeMalformed(t *testing.T) {
	s := scope.New()
	vars := NewVarEnv(s)

	_, err := ParseValueType("List[Int", vars)
	assert.Error(t, err)

	_, err = ParseValueType("", vars)
	assert.Error(t, err)

	_, err = ParseValueType("Int trailing", vars)
	assert.Error(t, err)
}

func TestParseObligationSplitsOnSubtypeOperator(t *testing.T) {
	s := scope.New()
	vars := NewVarEnv(s)

	t1, t2, err := ParseObligation("Int <: Top", vars)
	require.NoError(t, err)
	assert.True(t, solvertypes.IsTop(t2))
	assert.True(t, t1.Equals(&solvertypes.App{Ctor: solvertypes.Intern("Int")}))
}

func TestParseObligationMissingOperator(t *testing.T) {
	s := scope.New()
	vars := NewVarEnv(s)

	_, _, err := ParseObligation("Int Top", vars)
	assert.Error(t, err)
}
