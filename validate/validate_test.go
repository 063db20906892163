package validate_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lexvaani/formfill/oracle"
	"github.com/lexvaani/formfill/oracle/oracletest"
	"github.com/lexvaani/formfill/types"
	"github.com/lexvaani/formfill/validate"
)

var affidavitSchema = &types.FormSchema{
	ID:    "affidavit_general",
	Title: "General Affidavit",
	Fields: []types.FieldDefinition{
		{ID: "deponent_name", Label: "Full Name", Type: types.FieldText, Required: true},
		{ID: "deponent_age", Label: "Age", Type: types.FieldNumber, Required: true},
		{ID: "deponent_address", Label: "Address", Type: types.FieldTextarea, Required: true},
		{ID: "date_of_sworn", Label: "Date", Type: types.FieldDate, Required: true},
		{ID: "notary_name", Label: "Notary", Type: types.FieldText, Required: false},
	},
}

func goodFilled() map[string]any {
	return map[string]any{
		"deponent_name":    "Kamala Devi",
		"deponent_age":     34.0,
		"deponent_address": "12 MG Road, Bengaluru 560001",
		"date_of_sworn":    "2026-08-15",
	}
}

func newValidator(steps ...oracletest.Step) *validate.Validator {
	adapter := oracle.NewAdapter(oracletest.NewScripted(steps...), 5*time.Second, zap.NewNop())
	return validate.NewValidator(adapter, zap.NewNop())
}

func TestValidateAccepts(t *testing.T) {
	v := newValidator(oracletest.Step{Text: `{"valid": true, "errors": [], "missing_required": []}`})

	report := v.Validate(context.Background(), affidavitSchema, goodFilled())
	assert.True(t, report.Valid)
	assert.Empty(t, report.Errors)
	assert.Empty(t, report.MissingRequired)
}

func TestValidateOracleVerdictAloneTightens(t *testing.T) {
	v := newValidator(oracletest.Step{Text: `{"valid": false, "errors": [], "missing_required": []}`})

	report := v.Validate(context.Background(), affidavitSchema, goodFilled())
	assert.False(t, report.Valid)
	assert.Empty(t, report.Errors)
	assert.Empty(t, report.MissingRequired)
}

func TestValidateMergesOracleFindings(t *testing.T) {
	v := newValidator(oracletest.Step{Text: `{
		"valid": false,
		"errors": [
			{"field_id": "deponent_name", "message": "Name looks like a placeholder"},
			{"field_id": "imaginary_field", "message": "ignored"}
		],
		"missing_required": []
	}`})

	report := v.Validate(context.Background(), affidavitSchema, goodFilled())
	assert.False(t, report.Valid)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "deponent_name", report.Errors[0].FieldID)
}

func TestValidateLocalFallbackOnOracleFailure(t *testing.T) {
	v := newValidator(oracletest.Step{Text: "total garbage"})

	filled := goodFilled()
	delete(filled, "deponent_address")
	filled["date_of_sworn"] = "15/08/2026"

	report := v.Validate(context.Background(), affidavitSchema, filled)
	assert.False(t, report.Valid)
	assert.Equal(t, []string{"deponent_address"}, report.MissingRequired)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "date_of_sworn", report.Errors[0].FieldID)
}

func TestValidateLocalChecksAlwaysApply(t *testing.T) {
	// The oracle waving a form through cannot override a local format
	// failure.
	v := newValidator(oracletest.Step{Text: `{"valid": true, "errors": [], "missing_required": []}`})

	filled := goodFilled()
	filled["deponent_name"] = "ab"

	report := v.Validate(context.Background(), affidavitSchema, filled)
	assert.False(t, report.Valid)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "deponent_name", report.Errors[0].FieldID)
}

func TestValidateAddressNeedsPincode(t *testing.T) {
	v := newValidator(oracletest.Step{Text: `{"valid": true, "errors": [], "missing_required": []}`})

	filled := goodFilled()
	filled["deponent_address"] = "12 MG Road, Bengaluru"

	report := v.Validate(context.Background(), affidavitSchema, filled)
	assert.False(t, report.Valid)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "deponent_address", report.Errors[0].FieldID)
}

func TestValidateEmptyStringCountsAsMissing(t *testing.T) {
	v := newValidator(oracletest.Step{Text: `{"valid": true, "errors": [], "missing_required": []}`})

	filled := goodFilled()
	filled["deponent_name"] = "   "

	report := v.Validate(context.Background(), affidavitSchema, filled)
	assert.False(t, report.Valid)
	assert.Equal(t, []string{"deponent_name"}, report.MissingRequired)
}

func TestValidateOptionalAbsentIsFine(t *testing.T) {
	v := newValidator(oracletest.Step{Text: `{"valid": true, "errors": [], "missing_required": []}`})

	report := v.Validate(context.Background(), affidavitSchema, goodFilled())
	assert.True(t, report.Valid)
}

func TestValidateDoesNotMutateInput(t *testing.T) {
	v := newValidator(oracletest.Step{Text: "garbage"})

	filled := goodFilled()
	_ = v.Validate(context.Background(), affidavitSchema, filled)
	assert.Equal(t, goodFilled(), filled)
}

func TestValidatePhoneFormat(t *testing.T) {
	schema := &types.FormSchema{
		ID:    "f",
		Title: "F",
		Fields: []types.FieldDefinition{
			{ID: "contact_phone", Label: "Phone", Type: types.FieldText, Required: true},
		},
	}
	v := newValidator(
		oracletest.Step{Text: `{"valid": true, "errors": [], "missing_required": []}`},
		oracletest.Step{Text: `{"valid": true, "errors": [], "missing_required": []}`},
	)

	report := v.Validate(context.Background(), schema, map[string]any{"contact_phone": "+919876543210"})
	assert.True(t, report.Valid)

	report = v.Validate(context.Background(), schema, map[string]any{"contact_phone": "12345"})
	assert.False(t, report.Valid)
}
