package leadsfetch

import (
	"fmt"

	"amocrm-leads/internal/common/errors"
	"amocrm-leads/internal/common/validation"
)

func GetInputSchema(minQueryLength int) validation.JSONSchema {
	message := errors.MessageQueryTooShort
	if minQueryLength != 3 {
		message = fmt.Sprintf("Query parameter must be at least %d characters long", minQueryLength)
	}

	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"query": {
				Type:        "string",
				Description: "Free-text search passed through to the CRM lead search",
				MinLength:   validation.IntPtr(minQueryLength),
				Message:     message,
			},
		},
		AdditionalProperties: true,
	}
}
