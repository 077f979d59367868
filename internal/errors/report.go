package errors

import (
	"encoding/json"
	"errors"

	"github.com/rzikm/effekt/internal/schema"
)

// Fix represents a suggested fix for a reported error, with a confidence
// score in [0,1].
type Fix struct {
	Suggestion string  `json:"suggestion"`
	Confidence float64 `json:"confidence"`
}

// Report is the canonical structured error type for solver diagnostics.
// All error builders should return *Report, which can be wrapped as
// ReportError.
//
// There is no Span/source-location field: the solver is a pure library
// with no file format or wire protocol (spec §6) and never observes a
// source position, so a field no caller could ever populate was trimmed
// rather than carried as dead weight.
type Report struct {
	Schema  string         `json:"schema"`         // Always schema.ErrorV1
	Code    string         `json:"code"`           // Error code (SLV001, SLV003, etc.)
	Phase   string         `json:"phase"`          // Always "solve" for this taxonomy
	Message string         `json:"message"`        // Human-readable message
	Data    map[string]any `json:"data,omitempty"` // Structured data (sorted keys)
	Fix     *Fix           `json:"fix,omitempty"`  // Suggested fix (optional)
}

// ReportError wraps a Report as an error so structured reports survive
// errors.As() unwrapping.
type ReportError struct {
	Rep *Report
}

// Error implements the error interface.
func (e *ReportError) Error() string {
	if e.Rep == nil {
		return "unknown error"
	}
	return e.Rep.Code + ": " + e.Rep.Message
}

// AsReport attempts to extract a Report from an error chain. Returns the
// Report and true if found, nil and false otherwise.
func AsReport(err error) (*Report, bool) {
	var re *ReportError
	if errors.As(err, &re) {
		return re.Rep, true
	}
	return nil, false
}

// WrapReport wraps a Report as a ReportError. Call sites should return
// errors.WrapReport(report) to preserve structure.
func WrapReport(r *Report) error {
	if r == nil {
		return nil
	}
	return &ReportError{Rep: r}
}

// ToJSON converts a Report to JSON (deterministic, sorted keys).
func (r *Report) ToJSON(compact bool) (string, error) {
	var data []byte
	var err error

	if compact {
		data, err = json.Marshal(r)
	} else {
		data, err = json.MarshalIndent(r, "", "  ")
	}

	if err != nil {
		return "", err
	}
	return string(data), nil
}

// NewGeneric creates a generic solve-phase error report for errors that
// don't carry a specific SLV code (e.g. an unexpected panic recovered at
// a CLI boundary).
func NewGeneric(phase string, err error) *Report {
	return &Report{
		Schema:  schema.ErrorV1,
		Code:    SLV005,
		Phase:   phase,
		Message: err.Error(),
		Data:    map[string]any{},
	}
}
