// Package validate checks a completed field set for semantic and format
// sanity before the form is considered submittable.
package validate

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/lexvaani/formfill/oracle"
	"github.com/lexvaani/formfill/types"
)

// Validator runs one oracle round trip over the whole filled map, then
// tightens the answer with local format checks. The oracle can only make a
// report stricter locally, never looser: with the oracle unavailable the
// conservative local result stands, favoring asking the user again over
// silently accepting an incomplete form.
type Validator struct {
	adapter *oracle.Adapter
	logger  *zap.Logger
}

func NewValidator(adapter *oracle.Adapter, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{adapter: adapter, logger: logger}
}

const validateSystem = "You are a legal form validator with expertise in Indian legal documentation. Always return valid JSON only."

// Validate never mutates filled.
func (v *Validator) Validate(ctx context.Context, schema *types.FormSchema, filled map[string]any) *types.ValidationReport {
	report := localChecks(schema, filled)

	parsed, err := v.adapter.Call(ctx,
		buildValidatePrompt(schema, filled),
		[]string{"valid", "errors", "missing_required"},
		oracle.WithSystem(validateSystem),
		oracle.WithMaxTokens(1000),
		oracle.WithTemperature(0),
	)
	if err != nil {
		v.logger.Warn("validator degraded to local checks", zap.Error(err))
		return report
	}

	merge(report, parsed, schema)
	return report
}

// merge folds oracle findings into the local report. Oracle-reported ids
// outside the schema are dropped; duplicates are collapsed.
func merge(report *types.ValidationReport, parsed *oracle.Parsed, schema *types.FormSchema) {
	seenMissing := make(map[string]bool, len(report.MissingRequired))
	for _, id := range report.MissingRequired {
		seenMissing[id] = true
	}
	for _, id := range parsed.StringSlice("missing_required") {
		def := schema.Field(id)
		if def == nil || !def.Required || seenMissing[id] {
			continue
		}
		seenMissing[id] = true
		report.MissingRequired = append(report.MissingRequired, id)
	}

	seenErr := make(map[string]bool, len(report.Errors))
	for _, e := range report.Errors {
		seenErr[e.FieldID] = true
	}
	if rawErrors, ok := parsed.Values["errors"].([]any); ok {
		for _, raw := range rawErrors {
			item, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			fieldID, _ := item["field_id"].(string)
			if fieldID == "" {
				fieldID, _ = item["field"].(string)
			}
			message, _ := item["message"].(string)
			if schema.Field(fieldID) == nil || message == "" || seenErr[fieldID] {
				continue
			}
			seenErr[fieldID] = true
			report.Errors = append(report.Errors, types.FieldError{FieldID: fieldID, Message: message})
		}
	}

	report.Valid = len(report.Errors) == 0 && len(report.MissingRequired) == 0
	// The oracle's verdict can only tighten the report: an explicit false
	// stands even when it names no field.
	if verdict, ok := parsed.Bool("valid"); ok && !verdict {
		report.Valid = false
	}
}

var (
	dateFormat   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	indianMobile = regexp.MustCompile(`^(\+91)?[6-9]\d{9}$`)
	pincode      = regexp.MustCompile(`\b\d{6}\b`)
)

// localChecks is the always-available floor: required coverage plus the
// format rules the product enforced before any oracle was involved.
func localChecks(schema *types.FormSchema, filled map[string]any) *types.ValidationReport {
	report := &types.ValidationReport{}
	for _, f := range schema.Fields {
		value, present := filled[f.ID]
		text := stringValue(value)
		empty := !present || (text == "" && !isNonString(value))

		if f.Required && empty {
			report.MissingRequired = append(report.MissingRequired, f.ID)
			continue
		}
		if empty {
			continue
		}

		switch f.Type {
		case types.FieldDate:
			if !dateFormat.MatchString(text) {
				report.Errors = append(report.Errors, types.FieldError{
					FieldID: f.ID, Message: "Invalid date format (use YYYY-MM-DD)",
				})
			}
		case types.FieldNumber:
			if _, ok := value.(float64); !ok {
				report.Errors = append(report.Errors, types.FieldError{
					FieldID: f.ID, Message: fmt.Sprintf("%s must be a number", f.Label),
				})
			}
		case types.FieldBoolean:
			if _, ok := value.(bool); !ok {
				report.Errors = append(report.Errors, types.FieldError{
					FieldID: f.ID, Message: fmt.Sprintf("%s must be yes or no", f.Label),
				})
			}
		case types.FieldSelect:
			if !containsFold(f.Options, text) {
				report.Errors = append(report.Errors, types.FieldError{
					FieldID: f.ID, Message: fmt.Sprintf("%s must be one of: %s", f.Label, strings.Join(f.Options, ", ")),
				})
			}
		case types.FieldText:
			if isPhoneField(f.ID) {
				if !indianMobile.MatchString(strings.ReplaceAll(text, " ", "")) {
					report.Errors = append(report.Errors, types.FieldError{
						FieldID: f.ID, Message: "Invalid phone number format",
					})
				}
			} else if len([]rune(text)) < 3 {
				report.Errors = append(report.Errors, types.FieldError{
					FieldID: f.ID, Message: fmt.Sprintf("%s must be at least 3 characters", f.Label),
				})
			}
		case types.FieldTextarea:
			if isAddressField(f.ID) && !pincode.MatchString(text) {
				report.Errors = append(report.Errors, types.FieldError{
					FieldID: f.ID, Message: "Address must contain a 6-digit pincode",
				})
			}
		}
	}
	report.Valid = len(report.Errors) == 0 && len(report.MissingRequired) == 0
	return report
}

func buildValidatePrompt(schema *types.FormSchema, filled map[string]any) string {
	filledJSON, err := sonic.MarshalIndent(filled, "", "  ")
	if err != nil {
		filledJSON = []byte("{}")
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Validate this filled %s form for legal correctness, completeness, and consistency.\n\n", schema.Title)
	fmt.Fprintf(&sb, "FORM: %s\nFILLED DATA:\n```json\n%s\n```\n\n", schema.ID, filledJSON)
	fmt.Fprintf(&sb, "REQUIRED FIELDS: %s\n\n", strings.Join(schema.RequiredIDs(), ", "))
	sb.WriteString(`# Criteria:
- All required fields present and non-empty.
- Names realistic and properly capitalized; dates valid and logical; addresses complete.
- Related fields consistent, no contradictions.

Return only JSON:
{"valid": true, "errors": [{"field_id": "<id>", "message": "<specific problem>"}], "missing_required": ["<id>"]}`)
	return sb.String()
}

func stringValue(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func isNonString(v any) bool {
	switch v.(type) {
	case float64, bool, int64:
		return true
	}
	return false
}

func containsFold(options []string, s string) bool {
	for _, opt := range options {
		if strings.EqualFold(opt, s) {
			return true
		}
	}
	return false
}

func isAddressField(id string) bool {
	return strings.Contains(id, "address")
}

func isPhoneField(id string) bool {
	return strings.Contains(id, "phone") || strings.Contains(id, "mobile")
}
