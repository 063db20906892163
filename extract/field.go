package extract

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/lexvaani/formfill/oracle"
	"github.com/lexvaani/formfill/types"
)

// FieldExtractor resolves one conversational answer into one typed field
// value. Scoping the prompt to a single field is deliberately narrower than
// re-running full-form classification each turn.
type FieldExtractor struct {
	adapter *oracle.Adapter
	cfg     Config
	logger  *zap.Logger
}

func NewFieldExtractor(adapter *oracle.Adapter, cfg Config, logger *zap.Logger) *FieldExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FieldExtractor{adapter: adapter, cfg: cfg.withDefaults(), logger: logger}
}

const fieldSystem = "You are a multilingual legal form assistant with expertise in Indian languages. Always return valid JSON only."

// ExtractField extracts the value for field from the user's answer,
// translated and normalized into the canonical language. Low-confidence
// answers come back as ErrAmbiguous so the session re-asks instead of
// accepting a guess.
func (e *FieldExtractor) ExtractField(ctx context.Context, field *types.FieldDefinition, answer, lang string) (any, float64, error) {
	parsed, err := e.adapter.Call(ctx,
		e.buildFieldPrompt(field, answer, lang),
		[]string{"value", "confidence"},
		oracle.WithSystem(fieldSystem),
		oracle.WithMaxTokens(400),
		oracle.WithTemperature(0),
	)
	if err != nil {
		return nil, 0, err
	}

	confidence, ok := parsed.Float("confidence")
	if !ok {
		confidence = 0.5
	}
	if confidence < e.cfg.FieldThreshold {
		return nil, confidence, fmt.Errorf("%w: confidence %.2f for field %s", ErrAmbiguous, confidence, field.ID)
	}

	if !parsed.Has("value") {
		return nil, confidence, fmt.Errorf("%w: no value for field %s", ErrAmbiguous, field.ID)
	}
	raw := parsed.Values["value"]
	value, ok := coerceValue(field, raw)
	if !ok {
		return nil, confidence, fmt.Errorf("%w: value %v does not fit %s field %s", ErrAmbiguous, raw, field.Type, field.ID)
	}

	e.logger.Debug("field extracted",
		zap.String("field", field.ID),
		zap.Float64("confidence", confidence))
	return value, confidence, nil
}

func (e *FieldExtractor) buildFieldPrompt(field *types.FieldDefinition, answer, lang string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "The user was asked for exactly one form field and answered in %s.\n\n", lang)
	fmt.Fprintf(&sb, "USER ANSWER: %q\n\n", answer)
	fmt.Fprintf(&sb, "FIELD: %s\nLABEL: %s\nTYPE: %s\n", field.ID, field.Label, field.Type)
	if field.Help != "" {
		fmt.Fprintf(&sb, "DESCRIPTION: %s\n", field.Help)
	}
	if len(field.Options) > 0 {
		fmt.Fprintf(&sb, "ALLOWED VALUES: %s\n", strings.Join(field.Options, ", "))
	}
	sb.WriteString("\n# Rules:\n")
	fmt.Fprintf(&sb, "- Translate and normalize the value into %s.\n", e.cfg.CanonicalLanguage)
	sb.WriteString(formattingRules)
	sb.WriteString(`- Extract only the value for this field. Ignore unrelated chatter.
- Confidence reflects how clearly the answer states the value.

Return only JSON:
{"value": "<formatted value>", "confidence": 0.95}`)
	return sb.String()
}

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// coerceValue converts best-effort oracle output into the field's Go type.
// Empty strings count as absent, matching the engine-wide rule that a field
// is filled only by a non-empty normalized value.
func coerceValue(field *types.FieldDefinition, raw any) (any, bool) {
	switch field.Type {
	case types.FieldNumber:
		switch v := raw.(type) {
		case float64:
			return v, true
		case int64:
			return float64(v), true
		case string:
			n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, false
			}
			return n, true
		}
		return nil, false
	case types.FieldBoolean:
		switch v := raw.(type) {
		case bool:
			return v, true
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "true", "yes":
				return true, true
			case "false", "no":
				return false, true
			}
		}
		return nil, false
	case types.FieldDate:
		s, ok := raw.(string)
		if !ok {
			return nil, false
		}
		s = strings.TrimSpace(s)
		if !isoDate.MatchString(s) {
			return nil, false
		}
		return s, true
	case types.FieldSelect:
		s, ok := raw.(string)
		if !ok {
			return nil, false
		}
		s = strings.TrimSpace(s)
		for _, opt := range field.Options {
			if strings.EqualFold(opt, s) {
				return opt, true
			}
		}
		return nil, false
	default:
		s, ok := raw.(string)
		if !ok {
			// The oracle occasionally returns numbers for free-text
			// fields such as id numbers.
			if f, isNum := raw.(float64); isNum {
				return strconv.FormatFloat(f, 'f', -1, 64), true
			}
			return nil, false
		}
		s = strings.TrimSpace(s)
		return s, s != ""
	}
}
