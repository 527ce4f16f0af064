package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// JSONSchema describes the accepted shape of request input.
type JSONSchema struct {
	Type                 string              `json:"type"`
	Properties           map[string]Property `json:"properties"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties bool                `json:"additionalProperties,omitempty"`
}

type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Minimum     *float64 `json:"minimum,omitempty"`
	Maximum     *float64 `json:"maximum,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Pattern     *string  `json:"pattern,omitempty"`
	MinLength   *int     `json:"minLength,omitempty"`
	MaxLength   *int     `json:"maxLength,omitempty"`
	// Message replaces the generated message for any violation of this property.
	Message string `json:"message,omitempty"`
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ValidateInput validates input against the schema. String lengths are
// counted in characters, not bytes.
func ValidateInput(input map[string]interface{}, schema JSONSchema) *ValidationResult {
	errors := []ValidationError{}

	for _, requiredField := range schema.Required {
		if _, exists := input[requiredField]; !exists {
			errors = append(errors, ValidationError{
				Field:   requiredField,
				Message: "required field missing",
				Code:    "REQUIRED_FIELD_MISSING",
			})
		}
	}

	for fieldName, value := range input {
		prop, exists := schema.Properties[fieldName]
		if !exists {
			if !schema.AdditionalProperties {
				errors = append(errors, ValidationError{
					Field:   fieldName,
					Message: "field not allowed in schema",
					Code:    "EXTRA_FIELD",
				})
			}
			continue
		}

		errors = append(errors, validateField(fieldName, value, prop)...)
	}

	return &ValidationResult{
		Valid:  len(errors) == 0,
		Errors: errors,
	}
}

func validateField(fieldName string, value interface{}, prop Property) []ValidationError {
	errors := []ValidationError{}
	add := func(code, message string) {
		if prop.Message != "" {
			message = prop.Message
		}
		errors = append(errors, ValidationError{Field: fieldName, Message: message, Code: code})
	}

	if typeErr := validateType(value, prop.Type); typeErr != nil {
		add("INVALID_TYPE", typeErr.Error())
		return errors
	}

	if strVal, ok := value.(string); ok {
		length := utf8.RuneCountInString(strVal)
		if prop.MinLength != nil && length < *prop.MinLength {
			add("MIN_LENGTH_VIOLATION", fmt.Sprintf("value must be at least %d characters", *prop.MinLength))
		}
		if prop.MaxLength != nil && length > *prop.MaxLength {
			add("MAX_LENGTH_VIOLATION", fmt.Sprintf("value must be at most %d characters", *prop.MaxLength))
		}

		if prop.Pattern != nil {
			matched, err := regexp.MatchString(*prop.Pattern, strVal)
			if err != nil || !matched {
				add("PATTERN_MISMATCH", fmt.Sprintf("value must match pattern %s", *prop.Pattern))
			}
		}

		if len(prop.Enum) > 0 {
			found := false
			for _, enumVal := range prop.Enum {
				if strVal == enumVal {
					found = true
					break
				}
			}
			if !found {
				add("INVALID_ENUM_VALUE", fmt.Sprintf("value must be one of %v", prop.Enum))
			}
		}
	}

	if numVal, ok := toFloat(value); ok {
		if prop.Minimum != nil && numVal < *prop.Minimum {
			add("MINIMUM_VIOLATION", fmt.Sprintf("value must be >= %g", *prop.Minimum))
		}
		if prop.Maximum != nil && numVal > *prop.Maximum {
			add("MAXIMUM_VIOLATION", fmt.Sprintf("value must be <= %g", *prop.Maximum))
		}
	}

	return errors
}

func validateType(value interface{}, expectedType string) error {
	switch expectedType {
	case "string":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
	case "number", "integer":
		if _, ok := toFloat(value); !ok {
			return fmt.Errorf("expected %s, got %T", expectedType, value)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected boolean, got %T", value)
		}
	}
	return nil
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// IntPtr is a helper for schema literals.
func IntPtr(i int) *int {
	return &i
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// GetErrorsForField returns errors for a specific field
func (vr *ValidationResult) GetErrorsForField(field string) []ValidationError {
	var fieldErrors []ValidationError
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") {
			fieldErrors = append(fieldErrors, err)
		}
	}
	return fieldErrors
}
