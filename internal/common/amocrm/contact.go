package amocrm

import (
	"strconv"

	"amocrm-leads/internal/models"
)

const (
	FieldCodePhone    = "PHONE"
	FieldCodeEmail    = "EMAIL"
	FieldCodePosition = "POSITION"
)

// contactSchema guards the contact payload before it is decoded.
const contactSchema = `{
	"type": "object",
	"required": ["id"],
	"properties": {
		"id": {"type": "integer"},
		"name": {"type": ["string", "null"]},
		"custom_fields_values": {
			"type": ["array", "null"],
			"items": {
				"type": "object",
				"properties": {
					"field_code": {"type": ["string", "null"]},
					"values": {
						"type": ["array", "null"],
						"items": {"type": "object"}
					}
				}
			}
		}
	}
}`

// TransformContact reduces a raw CRM contact to a models.Contact.
func TransformContact(raw RawContact) models.Contact {
	return models.Contact{
		ID:       raw.ID,
		Name:     raw.Name,
		Phone:    ExtractCustomFieldValue(raw.CustomFieldsValues, FieldCodePhone),
		Email:    ExtractCustomFieldValue(raw.CustomFieldsValues, FieldCodeEmail),
		Position: ExtractCustomFieldValue(raw.CustomFieldsValues, FieldCodePosition),
	}
}

// ExtractCustomFieldValue returns the first value of the first field whose
// code matches, or "" when there is none.
func ExtractCustomFieldValue(fields []CustomField, code string) string {
	for _, field := range fields {
		if field.FieldCode != code {
			continue
		}
		if len(field.Values) == 0 {
			return ""
		}
		return stringifyValue(field.Values[0].Value)
	}
	return ""
}

func stringifyValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
