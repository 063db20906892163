package extract_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lexvaani/formfill/extract"
	"github.com/lexvaani/formfill/oracle"
	"github.com/lexvaani/formfill/oracle/oracletest"
	"github.com/lexvaani/formfill/types"
)

func newFieldExtractor(steps ...oracletest.Step) *extract.FieldExtractor {
	adapter := oracle.NewAdapter(oracletest.NewScripted(steps...), 5*time.Second, zap.NewNop())
	return extract.NewFieldExtractor(adapter, extract.Config{DefaultSchemaID: "affidavit_general"}, zap.NewNop())
}

func TestExtractFieldText(t *testing.T) {
	fe := newFieldExtractor(oracletest.Step{Text: `{"value": "Kamala Devi", "confidence": 0.92}`})
	field := &types.FieldDefinition{ID: "deponent_name", Label: "Full Name", Type: types.FieldText, Required: true}

	value, confidence, err := fe.ExtractField(context.Background(), field, "मेरा नाम कमला देवी है", "hi")
	require.NoError(t, err)
	assert.Equal(t, "Kamala Devi", value)
	assert.InDelta(t, 0.92, confidence, 1e-9)
}

func TestExtractFieldNumberFromString(t *testing.T) {
	fe := newFieldExtractor(oracletest.Step{Text: `{"value": "42", "confidence": 0.9}`})
	field := &types.FieldDefinition{ID: "deponent_age", Label: "Age", Type: types.FieldNumber, Required: true}

	value, _, err := fe.ExtractField(context.Background(), field, "I am forty two", "en")
	require.NoError(t, err)
	assert.Equal(t, 42.0, value)
}

func TestExtractFieldDateRequiresISO(t *testing.T) {
	fe := newFieldExtractor(oracletest.Step{Text: `{"value": "15/08/2025", "confidence": 0.9}`})
	field := &types.FieldDefinition{ID: "date_of_sworn", Label: "Date", Type: types.FieldDate, Required: true}

	_, _, err := fe.ExtractField(context.Background(), field, "15th August 2025", "en")
	assert.ErrorIs(t, err, extract.ErrAmbiguous)
}

func TestExtractFieldSelectCanonicalizes(t *testing.T) {
	fe := newFieldExtractor(oracletest.Step{Text: `{"value": "aadhaar", "confidence": 0.95}`})
	field := &types.FieldDefinition{
		ID: "id_proof_type", Label: "ID Proof", Type: types.FieldSelect, Required: true,
		Options: []string{"Aadhaar", "Passport", "Voter ID"},
	}

	value, _, err := fe.ExtractField(context.Background(), field, "aadhaar card", "en")
	require.NoError(t, err)
	assert.Equal(t, "Aadhaar", value)
}

func TestExtractFieldSelectRejectsUnknownOption(t *testing.T) {
	fe := newFieldExtractor(oracletest.Step{Text: `{"value": "Driving License", "confidence": 0.95}`})
	field := &types.FieldDefinition{
		ID: "id_proof_type", Label: "ID Proof", Type: types.FieldSelect, Required: true,
		Options: []string{"Aadhaar", "Passport"},
	}

	_, _, err := fe.ExtractField(context.Background(), field, "my driving license", "en")
	assert.ErrorIs(t, err, extract.ErrAmbiguous)
}

func TestExtractFieldBoolean(t *testing.T) {
	fe := newFieldExtractor(
		oracletest.Step{Text: `{"value": true, "confidence": 0.9}`},
		oracletest.Step{Text: `{"value": "no", "confidence": 0.9}`},
	)
	field := &types.FieldDefinition{ID: "mutual_agreement", Label: "Mutual Agreement", Type: types.FieldBoolean, Required: true}

	value, _, err := fe.ExtractField(context.Background(), field, "हाँ", "hi")
	require.NoError(t, err)
	assert.Equal(t, true, value)

	value, _, err = fe.ExtractField(context.Background(), field, "no we do not", "en")
	require.NoError(t, err)
	assert.Equal(t, false, value)
}

func TestExtractFieldLowConfidenceIsAmbiguous(t *testing.T) {
	fe := newFieldExtractor(oracletest.Step{Text: `{"value": "maybe something", "confidence": 0.2}`})
	field := &types.FieldDefinition{ID: "deponent_name", Label: "Full Name", Type: types.FieldText, Required: true}

	_, confidence, err := fe.ExtractField(context.Background(), field, "hmm not sure", "en")
	assert.ErrorIs(t, err, extract.ErrAmbiguous)
	assert.InDelta(t, 0.2, confidence, 1e-9)
}

func TestExtractFieldMissingValueIsAmbiguous(t *testing.T) {
	fe := newFieldExtractor(oracletest.Step{Text: `{"confidence": 0.9}`})
	field := &types.FieldDefinition{ID: "deponent_name", Label: "Full Name", Type: types.FieldText, Required: true}

	_, _, err := fe.ExtractField(context.Background(), field, "please just proceed", "en")
	assert.ErrorIs(t, err, extract.ErrAmbiguous)
}

func TestExtractFieldOracleFailurePropagates(t *testing.T) {
	fe := newFieldExtractor(oracletest.Step{Err: errors.New("boom")})
	field := &types.FieldDefinition{ID: "deponent_name", Label: "Full Name", Type: types.FieldText, Required: true}

	_, _, err := fe.ExtractField(context.Background(), field, "my name is X", "en")
	require.Error(t, err)
	assert.ErrorIs(t, err, oracle.ErrOracle)
	assert.NotErrorIs(t, err, extract.ErrAmbiguous)
}
