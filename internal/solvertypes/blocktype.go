package solvertypes

import (
	"fmt"
	"strings"
)

// BlockType is either an interface type or a function type (spec §3).
type BlockType interface {
	isBlockType()
	String() string
	Equals(BlockType) bool
}

// InterfaceType is an interface identifier, optionally applied to
// value-type arguments.
type InterfaceType struct {
	Name Ident
	Args []ValueType
}

func (*InterfaceType) isBlockType() {}

func (t *InterfaceType) String() string {
	if len(t.Args) == 0 {
		return t.Name.String()
	}
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s[%s]", t.Name, strings.Join(parts, ", "))
}

func (t *InterfaceType) Equals(other BlockType) bool {
	o, ok := other.(*InterfaceType)
	if !ok || o.Name != t.Name || len(t.Args) != len(o.Args) {
		return false
	}
	for i := range t.Args {
		if !t.Args[i].Equals(o.Args[i]) {
			return false
		}
	}
	return true
}

// FunctionType is a second-class block's function signature (spec §3):
// bound type/capture parameters, ordered value and block parameters, a
// result type, and an effect set.
type FunctionType struct {
	TParams []Ident
	CParams []Ident
	VParams []ValueType
	BParams []BlockType
	Result  ValueType
	Effects EffectSet
}

func (*FunctionType) isBlockType() {}

func (t *FunctionType) String() string {
	var b strings.Builder
	if len(t.TParams) > 0 || len(t.CParams) > 0 {
		b.WriteString("[")
		parts := make([]string, 0, len(t.TParams)+len(t.CParams))
		for _, p := range t.TParams {
			parts = append(parts, p.String())
		}
		for _, p := range t.CParams {
			parts = append(parts, "$"+p.String())
		}
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString("]")
	}
	b.WriteString("(")
	parts := make([]string, 0, len(t.VParams)+len(t.BParams))
	for _, v := range t.VParams {
		parts = append(parts, v.String())
	}
	for _, bp := range t.BParams {
		parts = append(parts, "{"+bp.String()+"}")
	}
	b.WriteString(strings.Join(parts, ", "))
	b.WriteString(") => ")
	b.WriteString(t.Result.String())
	if !t.Effects.IsEmpty() {
		b.WriteString(" / ")
		b.WriteString(t.Effects.String())
	}
	return b.String()
}

func (t *FunctionType) Equals(other BlockType) bool {
	o, ok := other.(*FunctionType)
	if !ok {
		return false
	}
	if len(t.TParams) != len(o.TParams) || len(t.CParams) != len(o.CParams) ||
		len(t.VParams) != len(o.VParams) || len(t.BParams) != len(o.BParams) {
		return false
	}
	for i := range t.TParams {
		if t.TParams[i] != o.TParams[i] {
			return false
		}
	}
	for i := range t.CParams {
		if t.CParams[i] != o.CParams[i] {
			return false
		}
	}
	for i := range t.VParams {
		if !t.VParams[i].Equals(o.VParams[i]) {
			return false
		}
	}
	for i := range t.BParams {
		if !t.BParams[i].Equals(o.BParams[i]) {
			return false
		}
	}
	return t.Result.Equals(o.Result) && t.Effects.Equals(o.Effects)
}

// IsFunctionType reports whether b is a FunctionType, returning it if so.
func IsFunctionType(b BlockType) (*FunctionType, bool) {
	f, ok := b.(*FunctionType)
	return f, ok
}

// IsInterfaceType reports whether b is an InterfaceType, returning it if so.
func IsInterfaceType(b BlockType) (*InterfaceType, bool) {
	i, ok := b.(*InterfaceType)
	return i, ok
}
