package solvertypes

// Role tags a unification variable with the reason it was allocated.
// Roles carry no semantic weight for the solver itself — they exist
// purely so diagnostics (and the REPL/CLI drivers) can explain where a
// variable came from.
type Role interface {
	role()
	String() string
}

// RoleTypeVarInstantiation marks a variable created by instantiating a
// bound type parameter during scheme instantiation (spec §4.5
// Scope.Instantiate).
type RoleTypeVarInstantiation struct {
	Orig Ident
}

func (RoleTypeVarInstantiation) role() {}
func (r RoleTypeVarInstantiation) String() string { return "instantiation of " + r.Orig.String() }

// RoleMergeVariable marks a fresh variable synthesized by merge (spec
// §4.4 Merge, "both unification variables" case) to represent the join
// or meet of two pre-existing variables.
type RoleMergeVariable struct{}

func (RoleMergeVariable) role() {}
func (RoleMergeVariable) String() string { return "merge variable" }

// RoleInferredReturn marks a variable standing in for an as-yet-unknown
// function return type.
type RoleInferredReturn struct{}

func (RoleInferredReturn) role() {}
func (RoleInferredReturn) String() string { return "inferred return type" }

// RoleInferredArgument marks a variable standing in for an as-yet-unknown
// argument type.
type RoleInferredArgument struct{}

func (RoleInferredArgument) role() {}
func (RoleInferredArgument) String() string { return "inferred argument type" }

// RoleCaptureInstantiation is the capture-side counterpart of
// RoleTypeVarInstantiation: a fresh capture variable created when
// instantiating a bound capture parameter.
type RoleCaptureInstantiation struct {
	Orig Ident
}

func (RoleCaptureInstantiation) role() {}
func (r RoleCaptureInstantiation) String() string {
	return "capture instantiation of " + r.Orig.String()
}

// RoleCaptureMerge is the capture-side counterpart of RoleMergeVariable.
type RoleCaptureMerge struct{}

func (RoleCaptureMerge) role() {}
func (RoleCaptureMerge) String() string { return "merge capture variable" }
