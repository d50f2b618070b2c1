package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() JSONSchema {
	return JSONSchema{
		Type: "object",
		Properties: map[string]Property{
			"name":           {Type: "string", MinLength: Int(1)},
			"submissionType": {Type: "string", Enum: []string{"individual", "business"}},
			"email":          {Type: "string", Format: "email"},
		},
		Required: []string{"name"},
	}
}

func TestValidator_Valid(t *testing.T) {
	v, err := NewValidator(testSchema())
	require.NoError(t, err)

	result, err := v.Validate(map[string]interface{}{
		"name":           "Jane",
		"submissionType": "business",
		"extra":          "allowed",
	})
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestValidator_Errors(t *testing.T) {
	tests := []struct {
		name      string
		input     map[string]interface{}
		wantField string
	}{
		{"missing required", map[string]interface{}{"submissionType": "individual"}, "name"},
		{"bad enum", map[string]interface{}{"name": "J", "submissionType": "company"}, "submissionType"},
		{"bad email", map[string]interface{}{"name": "J", "email": "not-an-email"}, "email"},
		{"wrong type", map[string]interface{}{"name": 12}, "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ValidateInput(tt.input, testSchema())
			require.NoError(t, err)
			assert.False(t, result.Valid)
			assert.True(t, result.HasErrors(tt.wantField), "errors: %v", result.GetErrorMessages())
			assert.NotEmpty(t, result.GetErrorsForField(tt.wantField))
		})
	}
}

func TestGetSchemaFromJSON(t *testing.T) {
	schema, err := GetSchemaFromJSON(`{"type":"object","properties":{"a":{"type":"string"}},"required":["a"]}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, schema.Required)
	assert.Equal(t, "string", schema.Properties["a"].Type)
}

func TestNewValidator_InvalidSchema(t *testing.T) {
	_, err := NewValidator(JSONSchema{Type: "not-a-type"})
	assert.Error(t, err)
}
