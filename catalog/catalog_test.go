package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexvaani/formfill/types"
)

func TestBuiltInCatalog(t *testing.T) {
	cat, err := BuiltIn()
	require.NoError(t, err)

	ids := cat.IDs()
	assert.Len(t, ids, 6)
	assert.Contains(t, ids, "name_change")
	assert.Contains(t, ids, "affidavit_general")

	for _, id := range ids {
		schema, err := cat.Schema(id)
		require.NoError(t, err)
		assert.NotEmpty(t, schema.Title, "form %s", id)
		assert.NotEmpty(t, schema.RequiredIDs(), "form %s", id)
		for _, f := range schema.Fields {
			assert.NotEmpty(t, f.Label, "form %s field %s", id, f.ID)
			if f.Type == types.FieldSelect {
				assert.NotEmpty(t, f.Options, "form %s field %s", id, f.ID)
			}
		}
	}
}

func TestSchemaNotFound(t *testing.T) {
	cat, err := BuiltIn()
	require.NoError(t, err)

	_, err = cat.Schema("passport_renewal")
	assert.True(t, errors.Is(err, ErrSchemaNotFound))
}

func TestRequiredAndOptionalPartition(t *testing.T) {
	cat, err := BuiltIn()
	require.NoError(t, err)

	schema, err := cat.Schema("traffic_fine_appeal")
	require.NoError(t, err)

	required := schema.RequiredIDs()
	optional := schema.OptionalIDs()
	assert.Equal(t, len(schema.Fields), len(required)+len(optional))
	assert.Contains(t, required, "challan_number")
	assert.Contains(t, optional, "police_station")
}

func TestLoadRejectsInvalidDocument(t *testing.T) {
	cases := map[string]string{
		"not an object":   `[]`,
		"missing fields":  `{"forms": [{"id": "x", "title": "X"}]}`,
		"empty forms":     `{"forms": []}`,
		"field no label":  `{"forms": [{"id": "x", "title": "X", "fields": [{"id": "a", "type": "text", "required": true}]}]}`,
		"bad field type":  `{"forms": [{"id": "x", "title": "X", "fields": [{"id": "a", "label": "A", "type": "dropdown", "required": true}]}]}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestNewStaticInvariants(t *testing.T) {
	base := func() []*types.FormSchema {
		return []*types.FormSchema{{
			ID:    "f",
			Title: "F",
			Fields: []types.FieldDefinition{
				{ID: "a", Label: "A", Type: types.FieldText, Required: true},
			},
		}}
	}

	_, err := NewStatic(base())
	require.NoError(t, err)

	dup := append(base(), base()...)
	_, err = NewStatic(dup)
	assert.Error(t, err)

	noRequired := base()
	noRequired[0].Fields[0].Required = false
	_, err = NewStatic(noRequired)
	assert.Error(t, err)

	selectNoOptions := base()
	selectNoOptions[0].Fields = append(selectNoOptions[0].Fields, types.FieldDefinition{
		ID: "b", Label: "B", Type: types.FieldSelect, Required: false,
	})
	_, err = NewStatic(selectNoOptions)
	assert.Error(t, err)
}
