// Package cliparse implements the tiny concrete syntax the CLI drivers
// (cmd/scopecheck, cmd/solverepl) accept for a single subtyping
// obligation: "<type> <: <type>". It is deliberately not a general
// parser for the source language — per spec.md §1 that stage is an
// external collaborator out of scope here — just enough surface syntax
// to construct solvertypes.ValueType values and drive a Scope.
package cliparse

import (
	"fmt"
	"strings"

	"github.com/rzikm/effekt/internal/solvertypes"
)

// VarEnv maps the "?name" surface syntax to a single fresh UVar per
// name, so that "?a <: ?b" and a later "?a <: Int" in the same session
// refer to the same variable instead of allocating a new one per line.
type VarEnv struct {
	scope interface {
		Fresh(solvertypes.Role) *solvertypes.UVar
	}
	vars map[string]*solvertypes.UVar
}

// NewVarEnv creates an empty variable environment bound to scope.
func NewVarEnv(scope interface {
	Fresh(solvertypes.Role) *solvertypes.UVar
}) *VarEnv {
	return &VarEnv{scope: scope, vars: make(map[string]*solvertypes.UVar)}
}

func (e *VarEnv) lookup(name string) *solvertypes.UVar {
	if v, ok := e.vars[name]; ok {
		return v
	}
	v := e.scope.Fresh(solvertypes.RoleInferredArgument{})
	e.vars[name] = v
	return v
}

// ParseObligation parses "<type> <: <type>" and returns the two sides.
func ParseObligation(line string, vars *VarEnv) (solvertypes.ValueType, solvertypes.ValueType, error) {
	lhs, rhs, ok := strings.Cut(line, "<:")
	if !ok {
		return nil, nil, fmt.Errorf("missing '<:' in obligation %q", line)
	}
	t1, err := ParseValueType(strings.TrimSpace(lhs), vars)
	if err != nil {
		return nil, nil, fmt.Errorf("left-hand side: %w", err)
	}
	t2, err := ParseValueType(strings.TrimSpace(rhs), vars)
	if err != nil {
		return nil, nil, fmt.Errorf("right-hand side: %w", err)
	}
	return t1, t2, nil
}

// ParseValueType parses one of:
//
//	Top | Bottom               top/bottom singleton
//	?name                      a named unification variable (memoized in vars)
//	Ident                      a nullary App
//	Ident[T, T, ...]           an App with arguments
func ParseValueType(s string, vars *VarEnv) (solvertypes.ValueType, error) {
	p := &parser{s: s}
	t, err := p.parseType(vars)
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.s) {
		return nil, fmt.Errorf("unexpected trailing input %q", p.s[p.pos:])
	}
	return t, nil
}

type parser struct {
	s   string
	pos int
}

func (p *parser) skipSpace() {
	for p.pos < len(p.s) && (p.s[p.pos] == ' ' || p.s[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) parseType(vars *VarEnv) (solvertypes.ValueType, error) {
	p.skipSpace()
	if p.pos >= len(p.s) {
		return nil, fmt.Errorf("unexpected end of input")
	}

	if p.s[p.pos] == '?' {
		p.pos++
		name := p.parseIdent()
		if name == "" {
			return nil, fmt.Errorf("expected a variable name after '?'")
		}
		return vars.lookup(name), nil
	}

	name := p.parseIdent()
	if name == "" {
		return nil, fmt.Errorf("expected a type at position %d", p.pos)
	}

	switch name {
	case "Top":
		return solvertypes.TTop, nil
	case "Bottom":
		return solvertypes.TBottom, nil
	}

	app := &solvertypes.App{Ctor: solvertypes.Intern(name)}

	p.skipSpace()
	if p.pos < len(p.s) && p.s[p.pos] == '[' {
		p.pos++
		for {
			arg, err := p.parseType(vars)
			if err != nil {
				return nil, err
			}
			app.Args = append(app.Args, arg)
			p.skipSpace()
			if p.pos >= len(p.s) {
				return nil, fmt.Errorf("unterminated argument list for %s", name)
			}
			if p.s[p.pos] == ',' {
				p.pos++
				continue
			}
			if p.s[p.pos] == ']' {
				p.pos++
				break
			}
			return nil, fmt.Errorf("expected ',' or ']' in argument list for %s", name)
		}
	}

	return app, nil
}

func (p *parser) parseIdent() string {
	start := p.pos
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		isLetter := c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
		isDigit := c >= '0' && c <= '9'
		if !(isLetter || isDigit || c == '_') {
			break
		}
		p.pos++
	}
	return p.s[start:p.pos]
}
