package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rzikm/effekt/internal/cliparse"
	"github.com/rzikm/effekt/internal/scope"
)

// Assertion is one require_subtype obligation within a Scenario, with
// the expected outcome recorded alongside it so the fixture doubles as
// documentation of the solver's behavior (spec §8's "concrete
// scenarios", externalized to YAML rather than hardcoded Go literals).
type Assertion struct {
	LHS       string `yaml:"lhs"`
	RHS       string `yaml:"rhs"`
	WantError bool   `yaml:"want_error"`
}

// Scenario groups a sequence of assertions that share one Scope, so
// later assertions in the same scenario can observe bounds pinned by
// earlier ones (mirroring §8 scenario 5's "sandwiched variable").
type Scenario struct {
	Name       string      `yaml:"name"`
	Assertions []Assertion `yaml:"assertions"`
}

type fixtureFile struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

func loadFixtures(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture file: %w", err)
	}
	var f fixtureFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing fixture YAML: %w", err)
	}
	return f.Scenarios, nil
}

// assertionResult is the outcome of running one Assertion.
type assertionResult struct {
	assertion Assertion
	gotError  error
	ok        bool // gotError's presence matched WantError
}

func runScenario(sc Scenario) []assertionResult {
	s := scope.New()
	vars := cliparse.NewVarEnv(s)

	results := make([]assertionResult, 0, len(sc.Assertions))
	for _, a := range sc.Assertions {
		t1, err := cliparse.ParseValueType(a.LHS, vars)
		if err != nil {
			results = append(results, assertionResult{assertion: a, gotError: err, ok: false})
			continue
		}
		t2, err := cliparse.ParseValueType(a.RHS, vars)
		if err != nil {
			results = append(results, assertionResult{assertion: a, gotError: err, ok: false})
			continue
		}

		gotErr := s.RequireSubtype(t1, t2)
		results = append(results, assertionResult{
			assertion: a,
			gotError:  gotErr,
			ok:        (gotErr != nil) == a.WantError,
		})
	}
	return results
}
