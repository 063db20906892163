// Package question produces one follow-up question per missing field, in the
// language of the ongoing conversation.
package question

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lexvaani/formfill/oracle"
	"github.com/lexvaani/formfill/types"
)

// templates holds the per-language question form, parameterized by field
// label. Languages without a template go through an oracle translation pass.
var templates = map[string]string{
	"en": "What is your %s?",
	"hi": "आपका %s क्या है?",
	"ta": "உங்கள் %s என்ன?",
	"te": "మీ %s ఏమిటి?",
}

// Generator renders follow-up questions. Missing-field order is preserved:
// priority equals position, so the user sees a stable sequential form, not a
// reshuffled one each turn.
type Generator struct {
	adapter *oracle.Adapter
	logger  *zap.Logger
}

func NewGenerator(adapter *oracle.Adapter, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{adapter: adapter, logger: logger}
}

// QuestionsFor returns one Question per missing field id, in input order.
// Unknown field ids are skipped. For languages without a local template the
// whole batch is translated in one oracle round trip; only if that also
// fails do the questions fall back to the English template.
func (g *Generator) QuestionsFor(ctx context.Context, schema *types.FormSchema, missingFieldIDs []string, lang string) []types.Question {
	fields := make([]*types.FieldDefinition, 0, len(missingFieldIDs))
	for _, id := range missingFieldIDs {
		if def := schema.Field(id); def != nil {
			fields = append(fields, def)
		}
	}
	if len(fields) == 0 {
		return nil
	}

	texts := g.render(ctx, fields, lang)

	questions := make([]types.Question, 0, len(fields))
	for i, def := range fields {
		questions = append(questions, types.Question{
			FieldID:  def.ID,
			Text:     texts[def.ID],
			Language: lang,
			Help:     def.Help,
			Priority: i,
		})
	}
	return questions
}

func (g *Generator) render(ctx context.Context, fields []*types.FieldDefinition, lang string) map[string]string {
	out := make(map[string]string, len(fields))

	if tpl, ok := templates[lang]; ok {
		for _, def := range fields {
			out[def.ID] = fmt.Sprintf(tpl, def.Label)
		}
		return out
	}

	// English fallback first, then overwrite with whatever the oracle
	// managed to translate.
	for _, def := range fields {
		out[def.ID] = fmt.Sprintf(templates["en"], def.Label)
	}

	translated, err := g.translate(ctx, fields, lang)
	if err != nil {
		g.logger.Warn("question translation unavailable, using English templates",
			zap.String("language", lang),
			zap.Error(err))
		return out
	}
	for id, text := range translated {
		if strings.TrimSpace(text) != "" {
			out[id] = text
		}
	}
	return out
}

func (g *Generator) translate(ctx context.Context, fields []*types.FieldDefinition, lang string) (map[string]string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Translate each form question below into the language with code %q. Keep questions short and conversational, answerable in a few words.\n\n", lang)
	for _, def := range fields {
		fmt.Fprintf(&sb, "- %s: %s", def.ID, fmt.Sprintf(templates["en"], def.Label))
		if def.Help != "" {
			fmt.Fprintf(&sb, " (%s)", def.Help)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\nReturn only JSON:\n{\"questions\": {\"<field_id>\": \"<translated question>\"}}")

	parsed, err := g.adapter.Call(ctx, sb.String(),
		[]string{"questions"},
		oracle.WithMaxTokens(800),
		oracle.WithTemperature(0.2),
	)
	if err != nil {
		return nil, err
	}

	raw := parsed.Map("questions")
	out := make(map[string]string, len(raw))
	for id, v := range raw {
		if s, ok := v.(string); ok {
			out[id] = s
		}
	}
	return out, nil
}
