package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateInput_MinLength(t *testing.T) {
	schema := JSONSchema{
		Type: "object",
		Properties: map[string]Property{
			"query": {Type: "string", MinLength: IntPtr(3)},
		},
	}

	tests := []struct {
		name  string
		input map[string]interface{}
		valid bool
	}{
		{"absent", map[string]interface{}{}, true},
		{"two chars", map[string]interface{}{"query": "ab"}, false},
		{"three chars", map[string]interface{}{"query": "abc"}, true},
		{"three cyrillic chars", map[string]interface{}{"query": "абв"}, true},
		{"two cyrillic chars", map[string]interface{}{"query": "аб"}, false},
		{"emoji counts as one char", map[string]interface{}{"query": "😀a"}, false},
		{"emoji plus two chars", map[string]interface{}{"query": "😀ab"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateInput(tt.input, schema)
			assert.Equal(t, tt.valid, result.Valid, result.GetErrorMessages())
		})
	}
}

func TestValidateInput_CustomMessage(t *testing.T) {
	schema := JSONSchema{
		Properties: map[string]Property{
			"query": {Type: "string", MinLength: IntPtr(3), Message: "too short"},
		},
	}

	result := ValidateInput(map[string]interface{}{"query": "a"}, schema)

	require.False(t, result.Valid)
	require.True(t, result.HasErrors("query"))
	errs := result.GetErrorsForField("query")
	require.Len(t, errs, 1)
	assert.Equal(t, "too short", errs[0].Message)
	assert.Equal(t, "MIN_LENGTH_VIOLATION", errs[0].Code)
}

func TestValidateInput_RequiredAndExtra(t *testing.T) {
	schema := JSONSchema{
		Required: []string{"page"},
		Properties: map[string]Property{
			"page": {Type: "integer", Minimum: floatPtr(1)},
		},
	}

	result := ValidateInput(map[string]interface{}{"limit": 10}, schema)
	assert.False(t, result.Valid)
	assert.True(t, result.HasErrors("page"))
	assert.True(t, result.HasErrors("limit"))

	result = ValidateInput(map[string]interface{}{"page": 0}, schema)
	assert.False(t, result.Valid)
	assert.Equal(t, "MINIMUM_VIOLATION", result.Errors[0].Code)

	result = ValidateInput(map[string]interface{}{"page": "one"}, schema)
	assert.Equal(t, "INVALID_TYPE", result.Errors[0].Code)
}

func TestDocumentSchema_Validate(t *testing.T) {
	schema := MustCompileDocumentSchema(`{
		"type": "object",
		"required": ["id"],
		"properties": {"id": {"type": "integer"}}
	}`)

	assert.NoError(t, schema.Validate([]byte(`{"id": 5, "extra": true}`)))

	err := schema.Validate([]byte(`{"id": "5"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document validation failed")

	err = schema.Validate([]byte(`not json`))
	require.Error(t, err)
}

func TestCompileDocumentSchema_Invalid(t *testing.T) {
	_, err := CompileDocumentSchema(`{"type": 12}`)
	assert.Error(t, err)
}

func floatPtr(f float64) *float64 {
	return &f
}
