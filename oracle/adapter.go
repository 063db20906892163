package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/kaptinlin/jsonrepair"
	"go.uber.org/zap"
)

// ErrMalformedOutput marks oracle responses that could not be coerced into a
// JSON object even after repair.
var ErrMalformedOutput = errors.New("malformed oracle output")

// Failure is the typed result of an oracle round trip that produced nothing
// usable. It wraps the taxonomy error and keeps the raw text for logging and
// clarification prompts.
type Failure struct {
	Reason string
	Raw    string
	err    error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("extraction failure: %s", f.Reason)
}

func (f *Failure) Unwrap() error { return f.err }

// Parsed is a successfully decoded oracle response. Expected keys that the
// oracle omitted are listed in Missing; they are never defaulted to empty
// values on behalf of the caller.
type Parsed struct {
	Raw     string
	Values  map[string]any
	Missing []string
}

func (p *Parsed) Has(key string) bool {
	_, ok := p.Values[key]
	return ok
}

// String returns the value for key as a trimmed string. Absent keys and empty
// strings report false.
func (p *Parsed) String(key string) (string, bool) {
	v, ok := p.Values[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func (p *Parsed) Float(key string) (float64, bool) {
	switch v := p.Values[key].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func (p *Parsed) Bool(key string) (bool, bool) {
	v, ok := p.Values[key].(bool)
	return v, ok
}

func (p *Parsed) StringSlice(key string) []string {
	raw, ok := p.Values[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

func (p *Parsed) Map(key string) map[string]any {
	m, _ := p.Values[key].(map[string]any)
	return m
}

// Adapter is the single boundary through which the engine talks to the oracle.
// No other component parses oracle output directly.
type Adapter struct {
	provider Provider
	timeout  time.Duration
	logger   *zap.Logger
}

func NewAdapter(provider Provider, timeout time.Duration, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Adapter{provider: provider, timeout: timeout, logger: logger}
}

// Call performs one completion round trip and parses the response as a JSON
// object. It never panics and never lets a provider error escape undecorated:
// every failure comes back as a *Failure wrapping ErrOracle or
// ErrMalformedOutput.
func (a *Adapter) Call(ctx context.Context, prompt string, expectedKeys []string, opts ...Option) (*Parsed, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	started := time.Now()
	raw, err := a.provider.Complete(ctx, prompt, opts...)
	if err != nil {
		reason := "provider error"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			reason = "provider timeout"
		}
		a.logger.Warn("oracle call failed",
			zap.String("reason", reason),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err))
		return nil, &Failure{Reason: reason, Raw: raw, err: fmt.Errorf("%w: %v", ErrOracle, err)}
	}
	a.logger.Debug("oracle call completed",
		zap.Duration("elapsed", time.Since(started)),
		zap.Int("responseLen", len(raw)))

	values, err := decodeObject(raw)
	if err != nil {
		a.logger.Warn("oracle output unparsable", zap.String("raw", truncate(raw, 512)))
		return nil, &Failure{Reason: "unparsable response", Raw: raw, err: fmt.Errorf("%w: %v", ErrMalformedOutput, err)}
	}

	parsed := &Parsed{Raw: raw, Values: values}
	for _, key := range expectedKeys {
		if _, ok := values[key]; !ok {
			parsed.Missing = append(parsed.Missing, key)
		}
	}
	return parsed, nil
}

// decodeObject coerces best-effort model output into a JSON object: strip
// code fences, parse, fall back to the first balanced object substring, then
// to a repair pass.
func decodeObject(raw string) (map[string]any, error) {
	text := StripFences(raw)

	var values map[string]any
	if err := sonic.UnmarshalString(text, &values); err == nil {
		return values, nil
	}

	if obj := firstBalancedObject(text); obj != "" {
		if err := sonic.UnmarshalString(obj, &values); err == nil {
			return values, nil
		}
	}

	repaired, err := jsonrepair.JSONRepair(text)
	if err != nil {
		return nil, fmt.Errorf("repair: %w", err)
	}
	if err := sonic.UnmarshalString(repaired, &values); err != nil {
		return nil, err
	}
	if values == nil {
		return nil, errors.New("repaired output is not an object")
	}
	return values, nil
}

// StripFences removes a markdown code fence wrapper, with or without a json
// language tag.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// firstBalancedObject returns the first {...} substring with balanced braces,
// ignoring braces inside string literals.
func firstBalancedObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
