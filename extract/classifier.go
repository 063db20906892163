// Package extract turns free-form multilingual utterances into typed form
// data: one classify-and-extract pass for the opening utterance, and a
// single-field pass for each follow-up answer.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lexvaani/formfill/catalog"
	"github.com/lexvaani/formfill/langid"
	"github.com/lexvaani/formfill/oracle"
	"github.com/lexvaani/formfill/types"
)

var (
	// ErrUnknownFormType marks a classifier answer naming a form the catalog
	// does not have. Callers clamp to the default schema.
	ErrUnknownFormType = errors.New("unknown form type")

	// ErrAmbiguous marks a single-field extraction whose confidence fell
	// below the threshold. The field is re-asked, never silently accepted.
	ErrAmbiguous = errors.New("field extraction ambiguous")

	// ErrEmptyUtterance is an input error, not an oracle problem.
	ErrEmptyUtterance = errors.New("empty utterance")
)

// Config tunes both extraction passes.
type Config struct {
	// DefaultSchemaID is the clamp target when classification fails or
	// names an unknown form.
	DefaultSchemaID string
	// CanonicalLanguage is the language all stored values are normalized
	// into, regardless of input language.
	CanonicalLanguage string
	// ClassifyThreshold is the confidence below which the result is still
	// used but flagged to the caller.
	ClassifyThreshold float64
	// FieldThreshold is the confidence below which a single-field
	// extraction is rejected as ambiguous.
	FieldThreshold float64
}

func (c Config) withDefaults() Config {
	if c.CanonicalLanguage == "" {
		c.CanonicalLanguage = "English"
	}
	if c.ClassifyThreshold <= 0 {
		c.ClassifyThreshold = 0.5
	}
	if c.FieldThreshold <= 0 {
		c.FieldThreshold = 0.4
	}
	return c
}

// Classifier resolves the intended form schema and pulls every mentioned
// field value out of the opening utterance in one oracle round trip.
type Classifier struct {
	catalog    *catalog.Static
	adapter    *oracle.Adapter
	identifier *langid.Identifier
	cfg        Config
	logger     *zap.Logger
}

func NewClassifier(cat *catalog.Static, adapter *oracle.Adapter, identifier *langid.Identifier, cfg Config, logger *zap.Logger) (*Classifier, error) {
	cfg = cfg.withDefaults()
	if cfg.DefaultSchemaID == "" {
		return nil, errors.New("extract: default schema id is required")
	}
	if _, err := cat.Schema(cfg.DefaultSchemaID); err != nil {
		return nil, fmt.Errorf("extract: default schema: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{
		catalog:    cat,
		adapter:    adapter,
		identifier: identifier,
		cfg:        cfg,
		logger:     logger,
	}, nil
}

const classifySystem = "You are a legal form assistant for Indian legal documentation. Always return valid JSON only."

// ClassifyAndExtract infers the form type and extracts field values from one
// utterance. It never fails on oracle trouble: classification failure returns
// a degraded low-confidence result over the default schema so the
// conversation can proceed.
func (c *Classifier) ClassifyAndExtract(ctx context.Context, utterance, languageHint string) (*types.ExtractionResult, error) {
	if strings.TrimSpace(utterance) == "" {
		return nil, ErrEmptyUtterance
	}

	lang := langid.Normalize(languageHint)
	if lang == langid.Auto {
		detected := c.identifier.Identify(ctx, utterance)
		lang = detected.Language
	}

	parsed, err := c.adapter.Call(ctx,
		c.buildClassifyPrompt(utterance, lang),
		[]string{"form_type", "confidence", "fields"},
		oracle.WithSystem(classifySystem),
		oracle.WithMaxTokens(1500),
		oracle.WithTemperature(0),
	)
	if err != nil {
		c.logger.Warn("classification degraded to default schema",
			zap.String("defaultSchema", c.cfg.DefaultSchemaID),
			zap.Error(err))
		return c.degraded(lang), nil
	}

	formType, _ := parsed.String("form_type")
	schema, err := c.catalog.Schema(formType)
	if err != nil {
		c.logger.Warn("classifier named unknown form, clamping",
			zap.String("formType", formType),
			zap.Error(fmt.Errorf("%w: %q", ErrUnknownFormType, formType)))
		schema, _ = c.catalog.Schema(c.cfg.DefaultSchemaID)
	}

	confidence, ok := parsed.Float("confidence")
	if !ok || confidence < 0 || confidence > 1 {
		confidence = c.cfg.ClassifyThreshold
	}
	if confidence < c.cfg.ClassifyThreshold {
		// Low confidence still proceeds; the caller surfaces it for UI
		// signaling instead of blocking the session.
		c.logger.Info("low classification confidence",
			zap.String("formType", schema.ID),
			zap.Float64("confidence", confidence))
	}

	return buildResult(schema, confidence, lang, parsed.Map("fields")), nil
}

// buildResult drops oracle-invented fields, discards empty values, and
// partitions every schema field into exactly one of extracted / missing
// required / missing optional.
func buildResult(schema *types.FormSchema, confidence float64, lang string, rawFields map[string]any) *types.ExtractionResult {
	result := &types.ExtractionResult{
		FormTypeID:       schema.ID,
		Confidence:       confidence,
		DetectedLanguage: lang,
		ExtractedFields:  make(map[string]any),
	}
	for id, raw := range rawFields {
		def := schema.Field(id)
		if def == nil {
			continue
		}
		value, ok := coerceValue(def, raw)
		if !ok {
			continue
		}
		result.ExtractedFields[id] = value
	}
	for _, f := range schema.Fields {
		if _, filled := result.ExtractedFields[f.ID]; filled {
			continue
		}
		if f.Required {
			result.MissingRequired = append(result.MissingRequired, f.ID)
		} else {
			result.MissingOptional = append(result.MissingOptional, f.ID)
		}
	}
	return result
}

func (c *Classifier) degraded(lang string) *types.ExtractionResult {
	schema, _ := c.catalog.Schema(c.cfg.DefaultSchemaID)
	return &types.ExtractionResult{
		FormTypeID:       schema.ID,
		Confidence:       0.3,
		DetectedLanguage: lang,
		ExtractedFields:  map[string]any{},
		MissingRequired:  schema.RequiredIDs(),
		MissingOptional:  schema.OptionalIDs(),
	}
}

func (c *Classifier) buildClassifyPrompt(utterance, lang string) string {
	var sb strings.Builder
	sb.WriteString("Analyze the user's statement, determine which legal form they need, and extract every mentioned field value.\n\n")
	fmt.Fprintf(&sb, "USER STATEMENT: %q\nSTATEMENT LANGUAGE: %s\n\n", utterance, lang)
	sb.WriteString("# Available forms:\n")
	sb.WriteString(types.FormatSchemaTable(c.catalog.Schemas()))
	sb.WriteString("\n# Field reference per form:\n")
	for _, schema := range c.catalog.Schemas() {
		fmt.Fprintf(&sb, "\n## %s\n%s", schema.ID, types.FormatFieldTable(schema.Fields))
	}
	sb.WriteString("\n# Rules:\n")
	fmt.Fprintf(&sb, "- Normalize every extracted value into %s regardless of the input language.\n", c.cfg.CanonicalLanguage)
	sb.WriteString(formattingRules)
	sb.WriteString(`- Only extract values the user explicitly stated. Never invent or default values.
- Omit fields that were not mentioned; do not emit empty strings.

Return only JSON:
{"form_type": "<form id>", "confidence": 0.95, "fields": {"<field_id>": "<normalized value>"}}`)
	return sb.String()
}

const formattingRules = `- Dates: ISO 8601 (YYYY-MM-DD).
- Phone numbers: international format +91XXXXXXXXXX.
- Names: Title Case, full names.
- Addresses: complete, with pincode when stated.
- Numbers: plain digits, no separators.
`
