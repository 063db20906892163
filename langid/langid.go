// Package langid classifies utterance text into one of the engine's supported
// languages. An oracle guess is cross-checked against script-range heuristics:
// script presence is a near-deterministic tell for the major non-Latin
// scripts, and beats statistical guesses on short or code-mixed utterances.
package langid

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/lexvaani/formfill/oracle"
)

// Auto asks the identifier to detect the language itself.
const Auto = "auto"

// Result is the outcome of identifying one utterance.
type Result struct {
	Language   string  `json:"language_code"`
	Confidence float64 `json:"confidence"`
	IsMixed    bool    `json:"is_mixed"`
}

// Normalize reduces a caller-supplied hint such as "hi-IN" or "ta_IN" to a
// supported base code. Unknown or empty hints normalize to Auto.
func Normalize(hint string) string {
	hint = strings.TrimSpace(hint)
	if hint == "" || strings.EqualFold(hint, Auto) {
		return Auto
	}
	tag, err := language.Parse(hint)
	if err != nil {
		return Auto
	}
	base, _ := tag.Base()
	code := base.String()
	if IsSupported(code) {
		return code
	}
	return Auto
}

// Identifier layers an oracle guess over the script table.
type Identifier struct {
	adapter *oracle.Adapter
	logger  *zap.Logger
}

func NewIdentifier(adapter *oracle.Adapter, logger *zap.Logger) *Identifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Identifier{adapter: adapter, logger: logger}
}

const detectPrompt = `Detect the primary language of the text below.
Supported codes: en, hi, ta, te, bn, gu, kn, ml, pa, mr, or, ur.
Check for script characters first; fall back to vocabulary only for Latin
text. If languages are mixed, report the dominant one.

TEXT: %q

Return only JSON:
{"language_code": "xx", "confidence": 0.95, "is_mixed_language": false}`

// Identify returns the language of text. The oracle is consulted first; the
// local script scan then corrects guesses that the text's own characters
// contradict. Oracle failure degrades to the script-only answer, never to an
// error.
func (i *Identifier) Identify(ctx context.Context, text string) Result {
	counts, latin := scanScripts(text)
	scriptLang, scriptCount := dominantScript(counts)
	mixed := len(counts) > 1 || (scriptCount > 0 && latin > 0)

	guess, confidence := i.oracleGuess(ctx, text)

	switch {
	case guess != "" && scriptMatches(guess, counts):
		// Guess corroborated by the text's own script; also keeps mr/ne
		// over the shared Devanagari range.
		return Result{Language: guess, Confidence: confidence, IsMixed: mixed}
	case scriptCount > 0:
		if guess != "" && guess != scriptLang {
			i.logger.Debug("script scan overrides oracle guess",
				zap.String("guess", guess),
				zap.String("script", scriptLang),
				zap.Int("matched", scriptCount))
		}
		return Result{Language: scriptLang, Confidence: 0.99, IsMixed: mixed}
	case guess == DefaultLanguage:
		return Result{Language: DefaultLanguage, Confidence: confidence, IsMixed: false}
	default:
		// No script evidence for the guess and none for anything else:
		// pure Latin text defaults to the baseline.
		return Result{Language: DefaultLanguage, Confidence: 0.5, IsMixed: false}
	}
}

func (i *Identifier) oracleGuess(ctx context.Context, text string) (string, float64) {
	parsed, err := i.adapter.Call(ctx,
		fmt.Sprintf(detectPrompt, text),
		[]string{"language_code"},
		oracle.WithMaxTokens(128),
		oracle.WithTemperature(0),
	)
	if err != nil {
		i.logger.Warn("language guess unavailable", zap.Error(err))
		return "", 0
	}
	code, ok := parsed.String("language_code")
	if !ok {
		return "", 0
	}
	code = Normalize(code)
	if code == Auto {
		return "", 0
	}
	confidence, ok := parsed.Float("confidence")
	if !ok || confidence <= 0 || confidence > 1 {
		confidence = 0.8
	}
	return code, confidence
}
