package errors

import (
	"strings"

	"github.com/rzikm/effekt/internal/schema"
)

// ErrorReporter is the sole abort sink (spec §6): "abort(message) -> !"
// (never returns to its caller in the source language; here realized as
// either a collecting implementation for normal callers or a panicking
// one for the non-mutating is_subtype query).
type ErrorReporter interface {
	Abort(message string) error
}

// AbortSignal is the panic payload PanickingReporter raises. It is
// recovered exactly once, at the is_subtype non-mutating query boundary
// in internal/scope — the only place in the solver that recovers from a
// panic, by design, since is_subtype must return bool rather than abort
// its caller.
type AbortSignal struct {
	Message string
}

// CollectingReporter accumulates Reports instead of aborting the
// process, for callers (e.g. cmd/scopecheck) that want every failure in
// a batch rather than stopping at the first.
type CollectingReporter struct {
	Reports []*Report
}

// NewCollectingReporter returns an empty CollectingReporter.
func NewCollectingReporter() *CollectingReporter {
	return &CollectingReporter{}
}

func (r *CollectingReporter) Abort(message string) error {
	code := classifyAbort(message)

	data := map[string]any{}
	if info, ok := GetErrorInfo(code); ok {
		data["category"] = info.Category
		data["description"] = info.Description
	}

	rep := &Report{
		Schema:  schema.ErrorV1,
		Code:    code,
		Phase:   "solve",
		Message: message,
		Data:    data,
	}
	r.Reports = append(r.Reports, rep)
	return WrapReport(rep)
}

// PanickingReporter raises AbortSignal instead of returning, for use as
// the Effects.Abort sink inside a non-mutating is_subtype query.
type PanickingReporter struct{}

func (PanickingReporter) Abort(message string) error {
	panic(AbortSignal{Message: message})
}

// classifyAbort maps a free-form abort message back to the SLV###
// taxonomy (spec §7). The comparer's Effects interface carries only a
// message string at the abort call site (no Kind parameter), so the
// taxonomy is recovered from the message's own vocabulary: the arity
// abort in internal/comparer starts with "arity mismatch", and the merge
// abort in internal/scope contains "cannot merge"; every other message
// maps to SLV001.
func classifyAbort(message string) string {
	switch {
	case strings.HasPrefix(message, "arity mismatch"):
		return SLV002
	case strings.Contains(message, "cannot merge"):
		return SLV003
	default:
		return SLV001
	}
}
