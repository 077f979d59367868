package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectingReporterAccumulates(t *testing.T) {
	r := NewCollectingReporter()

	err1 := r.Abort("type mismatch: expected Int, got String")
	err2 := r.Abort("arity mismatch between f1 and f2")

	require.Error(t, err1)
	require.Error(t, err2)
	require.Len(t, r.Reports, 2)
	assert.Equal(t, SLV001, r.Reports[0].Code)
	assert.Equal(t, SLV002, r.Reports[1].Code)
	assert.Equal(t, "unify", r.Reports[0].Data["category"])
	assert.Equal(t, "unify", r.Reports[1].Data["category"])

	rep, ok := AsReport(err1)
	require.True(t, ok)
	assert.Equal(t, "solve", rep.Phase)
}

func TestClassifyAbortTaxonomy(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"type mismatch", "type mismatch: expected Int, got String", SLV001},
		{"kind mismatch", "kind mismatch: Reader vs Writer", SLV001},
		{"arity mismatch", "arity mismatch between f1 and f2", SLV002},
		{"merge impossible", "cannot merge at polarity Invariant", SLV003},
		{"unrecognized falls back to type mismatch", "something else entirely", SLV001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyAbort(tt.message))
		})
	}
}

func TestPanickingReporterPanicsWithAbortSignal(t *testing.T) {
	var r PanickingReporter

	assert.PanicsWithValue(t, AbortSignal{Message: "boom"}, func() {
		_ = r.Abort("boom")
	})
}
