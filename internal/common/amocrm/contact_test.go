package amocrm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amocrm-leads/internal/models"
)

func TestTransformContact_PhoneOnly(t *testing.T) {
	raw := RawContact{
		ID:   11,
		Name: "Ivan Petrov",
		CustomFieldsValues: []CustomField{
			{FieldCode: FieldCodePhone, Values: []CustomFieldValue{{Value: "123"}}},
		},
	}

	got := TransformContact(raw)

	assert.Equal(t, models.Contact{ID: 11, Name: "Ivan Petrov", Phone: "123", Email: "", Position: ""}, got)
}

func TestTransformContact_FromPayload(t *testing.T) {
	payload := `{
		"id": 22,
		"name": "Maria",
		"custom_fields_values": [
			{"field_id": 1, "field_code": null, "field_name": "Note", "values": [{"value": "ignored"}]},
			{"field_id": 2, "field_code": "EMAIL", "values": [{"value": "maria@example.com", "enum_code": "WORK"}, {"value": "second@example.com"}]},
			{"field_id": 3, "field_code": "POSITION", "values": [{"value": "CTO"}]},
			{"field_id": 4, "field_code": "EMAIL", "values": [{"value": "later@example.com"}]},
			{"field_id": 5, "field_code": "PHONE", "values": [{"value": 79001234567}]}
		]
	}`

	var raw RawContact
	require.NoError(t, json.Unmarshal([]byte(payload), &raw))

	got := TransformContact(raw)

	assert.Equal(t, int64(22), got.ID)
	assert.Equal(t, "Maria", got.Name)
	assert.Equal(t, "maria@example.com", got.Email)
	assert.Equal(t, "CTO", got.Position)
	assert.Equal(t, "79001234567", got.Phone)
}

func TestTransformContact_NullCustomFields(t *testing.T) {
	var raw RawContact
	require.NoError(t, json.Unmarshal([]byte(`{"id": 3, "name": "Nobody", "custom_fields_values": null}`), &raw))

	got := TransformContact(raw)

	assert.Equal(t, "", got.Phone)
	assert.Equal(t, "", got.Email)
	assert.Equal(t, "", got.Position)
}

func TestExtractCustomFieldValue(t *testing.T) {
	tests := []struct {
		name   string
		fields []CustomField
		code   string
		want   string
	}{
		{"no fields", nil, FieldCodePhone, ""},
		{"matching field without values", []CustomField{{FieldCode: FieldCodePhone}}, FieldCodePhone, ""},
		{"null value", []CustomField{{FieldCode: FieldCodePhone, Values: []CustomFieldValue{{Value: nil}}}}, FieldCodePhone, ""},
		{"bool value", []CustomField{{FieldCode: "VIP", Values: []CustomFieldValue{{Value: true}}}}, "VIP", "true"},
		{"other code only", []CustomField{{FieldCode: FieldCodeEmail, Values: []CustomFieldValue{{Value: "a@b.c"}}}}, FieldCodePhone, ""},
		{
			name: "first matching descriptor wins even when empty",
			fields: []CustomField{
				{FieldCode: FieldCodePhone},
				{FieldCode: FieldCodePhone, Values: []CustomFieldValue{{Value: "555"}}},
			},
			code: FieldCodePhone,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractCustomFieldValue(tt.fields, tt.code))
		})
	}
}

func TestLead_PrimaryContactIDs(t *testing.T) {
	lead := Lead{Embedded: LeadEmbedded{Contacts: []ContactRef{
		{ID: 1, IsMain: false},
		{ID: 2, IsMain: true},
		{ID: 3, IsMain: true},
	}}}
	assert.Equal(t, []int64{2, 3}, lead.PrimaryContactIDs())

	assert.Empty(t, Lead{}.PrimaryContactIDs())
}

func TestContactSchema(t *testing.T) {
	assert.NoError(t, contactDocument.Validate([]byte(`{"id": 1, "name": "A", "custom_fields_values": null}`)))
	assert.NoError(t, contactDocument.Validate([]byte(`{"id": 1, "name": "A", "custom_fields_values": [{"field_code": "PHONE", "values": [{"value": "1"}]}]}`)))
	assert.Error(t, contactDocument.Validate([]byte(`{"id": "1", "name": "A"}`)))
	assert.Error(t, contactDocument.Validate([]byte(`{"name": "A"}`)))
	assert.Error(t, contactDocument.Validate([]byte(`{"id": 1, "custom_fields_values": {"PHONE": "1"}}`)))
	assert.Error(t, contactDocument.Validate([]byte(`{"id": 1, "custom_fields_values": [{"field_code": "PHONE", "values": "1"}]}`)))
}
