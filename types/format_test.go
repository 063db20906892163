package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatFieldTable(t *testing.T) {
	out := FormatFieldTable([]FieldDefinition{
		{ID: "full_name", Label: "Full Name", Type: FieldText, Required: true},
		{ID: "id_proof_type", Label: "ID Proof", Type: FieldSelect, Required: true, Options: []string{"Aadhaar", "Passport"}},
	})

	assert.Contains(t, out, "full_name")
	assert.Contains(t, out, "one of: Aadhaar, Passport")
	assert.Contains(t, out, "|")
	assert.Empty(t, FormatFieldTable(nil))
}

func TestFormatSchemaTable(t *testing.T) {
	out := FormatSchemaTable([]*FormSchema{{
		ID:       "name_change",
		Title:    "Name Change Affidavit",
		Keywords: []string{"name", "change"},
		Fields: []FieldDefinition{
			{ID: "new_name", Label: "New Name", Type: FieldText, Required: true},
			{ID: "reason", Label: "Reason", Type: FieldTextarea, Required: false},
		},
	}})

	assert.Contains(t, out, "name_change")
	assert.Contains(t, out, "new_name")
	// Optional fields are not part of the required-field summary.
	assert.NotContains(t, out, "reason")
}

func TestFormatFieldErrors(t *testing.T) {
	out := FormatFieldErrors([]FieldError{{FieldID: "date_of_sworn", Message: "Invalid date format"}})
	assert.Contains(t, out, "date_of_sworn")
	assert.Contains(t, out, "Invalid date format")
	assert.Empty(t, FormatFieldErrors(nil))
}

func TestSchemaAccessors(t *testing.T) {
	s := &FormSchema{
		ID: "f", Title: "F",
		Fields: []FieldDefinition{
			{ID: "a", Label: "A", Type: FieldText, Required: true},
			{ID: "b", Label: "B", Type: FieldText, Required: false},
		},
	}
	assert.NotNil(t, s.Field("a"))
	assert.Nil(t, s.Field("missing"))
	assert.Equal(t, []string{"a"}, s.RequiredIDs())
	assert.Equal(t, []string{"b"}, s.OptionalIDs())
}
