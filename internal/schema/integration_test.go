package schema_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rzikm/effekt/internal/errors"
	"github.com/rzikm/effekt/internal/schema"
)

// TestErrorSchemaIntegration verifies the Report produced by the real
// abort path (CollectingReporter.Abort) round-trips through the schema
// package's JSON machinery end-to-end.
func TestErrorSchemaIntegration(t *testing.T) {
	r := errors.NewCollectingReporter()
	_ = r.Abort("type mismatch: expected Int, got String")
	require.Len(t, r.Reports, 1)

	jsonData, jsonErr := r.Reports[0].ToJSON(false)
	if jsonErr != nil {
		t.Fatalf("Failed to convert error to JSON: %v", jsonErr)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(jsonData), &parsed); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}

	schemaField, ok := parsed["schema"].(string)
	if !ok {
		t.Fatal("Missing or invalid schema field")
	}

	if !schema.Accepts(schemaField, schema.ErrorV1) {
		t.Errorf("Schema %q not accepted by %q", schemaField, schema.ErrorV1)
	}

	requiredFields := []string{"schema", "phase", "code", "message"}
	for _, field := range requiredFields {
		if _, ok := parsed[field]; !ok {
			t.Errorf("Missing required field: %s", field)
		}
	}
}

// TestScenarioRunSchemaIntegration verifies a scenario-run report shape
// (schema, cases, counts) round-trips through the schema package's
// deterministic marshaling.
func TestScenarioRunSchemaIntegration(t *testing.T) {
	report := map[string]interface{}{
		"schema": schema.ScenarioV1,
		"cases": []interface{}{
			map[string]interface{}{"name": "reflexivity", "status": "passed"},
		},
		"counts": map[string]interface{}{"passed": 1, "failed": 0, "total": 1},
	}

	jsonData, err := schema.MarshalDeterministic(report)
	if err != nil {
		t.Fatalf("Failed to generate JSON: %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(jsonData, &parsed); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}

	schemaField, ok := parsed["schema"].(string)
	if !ok {
		t.Fatal("Missing or invalid schema field")
	}

	if !schema.Accepts(schemaField, schema.ScenarioV1) {
		t.Errorf("Schema %q not accepted by %q", schemaField, schema.ScenarioV1)
	}

	requiredFields := []string{"schema", "cases", "counts"}
	for _, field := range requiredFields {
		if _, ok := parsed[field]; !ok {
			t.Errorf("Missing required field: %s", field)
		}
	}
}

// TestCompactModeIntegration verifies Report.ToJSON's compact parameter
// works with real error data produced by the CollectingReporter path.
func TestCompactModeIntegration(t *testing.T) {
	r := errors.NewCollectingReporter()
	_ = r.Abort("cannot merge at polarity Invariant")
	require.Len(t, r.Reports, 1)

	prettyJSON, jsonErr := r.Reports[0].ToJSON(false)
	if jsonErr != nil {
		t.Fatalf("Failed to generate pretty JSON: %v", jsonErr)
	}

	compactJSON, jsonErr := r.Reports[0].ToJSON(true)
	if jsonErr != nil {
		t.Fatalf("Failed to generate compact JSON: %v", jsonErr)
	}

	if len(prettyJSON) <= len(compactJSON) {
		t.Error("Pretty JSON should be longer than compact JSON")
	}

	var prettyParsed, compactParsed interface{}
	if err := json.Unmarshal([]byte(prettyJSON), &prettyParsed); err != nil {
		t.Fatalf("Failed to parse pretty JSON: %v", err)
	}
	if err := json.Unmarshal([]byte(compactJSON), &compactParsed); err != nil {
		t.Fatalf("Failed to parse compact JSON: %v", err)
	}
}

// TestDeterministicOutput verifies JSON output is deterministic across
// repeated encodings of the same error value.
func TestDeterministicOutput(t *testing.T) {
	outputs := make([]string, 3)

	for i := 0; i < 3; i++ {
		r := errors.NewCollectingReporter()
		_ = r.Abort("type mismatch: expected Int, got String")

		jsonData, jsonErr := r.Reports[0].ToJSON(true)
		if jsonErr != nil {
			t.Fatalf("Failed to generate JSON (iteration %d): %v", i, jsonErr)
		}

		outputs[i] = jsonData
	}

	for i := 1; i < len(outputs); i++ {
		if outputs[i] != outputs[0] {
			t.Errorf("Output %d differs from output 0:\nOutput 0:\n%s\nOutput %d:\n%s",
				i, outputs[0], i, outputs[i])
		}
	}
}
