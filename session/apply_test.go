package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexvaani/formfill/types"
)

var applySchema = &types.FormSchema{
	ID:    "contact",
	Title: "Contact",
	Fields: []types.FieldDefinition{
		{ID: "full_name", Label: "Full Name", Type: types.FieldText, Required: true},
		{ID: "age", Label: "Age", Type: types.FieldNumber, Required: true},
		{ID: "address", Label: "Address", Type: types.FieldTextarea, Required: true},
	},
}

func TestOpsForValues(t *testing.T) {
	current := map[string]any{"full_name": "John Doe"}
	ops := opsForValues(applySchema, current, map[string]any{
		"full_name": "Jane Doe",
		"age":       30.0,
		"pet_name":  "Rex",
		"address":   "   ",
	})

	require.Len(t, ops, 2)
	assert.Equal(t, Operation{Op: opReplace, Path: "/full_name", Value: "Jane Doe"}, ops[1])
	assert.Equal(t, Operation{Op: opAdd, Path: "/age", Value: 30.0}, ops[0])
}

func TestValidateOpsRejectsForeignPath(t *testing.T) {
	err := validateOps(applySchema, []Operation{
		{Op: opAdd, Path: "/full_name", Value: "x"},
		{Op: opAdd, Path: "/shoe_size", Value: 42},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shoe_size")
}

func TestApplyOpsLeavesCurrentUntouched(t *testing.T) {
	current := map[string]any{"full_name": "John Doe"}
	result, err := applyOps(current, []Operation{
		{Op: opAdd, Path: "/age", Value: 30.0},
		{Op: opReplace, Path: "/full_name", Value: "Jane Doe"},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"full_name": "Jane Doe", "age": 30.0}, result)
	assert.Equal(t, map[string]any{"full_name": "John Doe"}, current)
}

func TestApplyOpsNoOps(t *testing.T) {
	current := map[string]any{"full_name": "John Doe"}
	result, err := applyOps(current, nil)
	require.NoError(t, err)
	assert.Equal(t, current, result)
}

func TestEscapePointer(t *testing.T) {
	assert.Equal(t, "plain", escapePointer("plain"))
	assert.Equal(t, "a~1b", escapePointer("a/b"))
	assert.Equal(t, "a~0b", escapePointer("a~b"))
}
