package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFixturesFromTestdata(t *testing.T) {
	scenarios, err := loadFixtures("testdata/scenarios.yaml")
	require.NoError(t, err)
	require.Len(t, scenarios, 3)
	assert.Equal(t, "top and bottom absorb", scenarios[0].Name)
}

func TestLoadFixturesMissingFile(t *testing.T) {
	_, err := loadFixtures("testdata/does-not-exist.yaml")
	assert.Error(t, err)
}

func TestRunScenarioAllPass(t *testing.T) {
	scenarios, err := loadFixtures("testdata/scenarios.yaml")
	require.NoError(t, err)

	for _, sc := range scenarios {
		for _, res := range runScenario(sc) {
			assert.True(t, res.ok, "scenario %q: assertion %s <: %s did not match want_error=%v (got %v)",
				sc.Name, res.assertion.LHS, res.assertion.RHS, res.assertion.WantError, res.gotError)
		}
	}
}

func TestRunScenarioParseErrorCountsAsFailure(t *testing.T) {
	sc := Scenario{
		Name: "broken syntax",
		Assertions: []Assertion{
			{LHS: "List[Int", RHS: "Top", WantError: false},
		},
	}
	results := runScenario(sc)
	require.Len(t, results, 1)
	assert.False(t, results[0].ok)
	assert.Error(t, results[0].gotError)
}
