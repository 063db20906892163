package command

import (
	"context"
	"strings"
)

// LocalParser matches whole-utterance keywords across the supported
// languages. It only claims a command on an exact match; anything longer is
// left for the answer pipeline.
type LocalParser struct {
	CancelKeywords []string
	StatusKeywords []string
}

func NewLocalParser() *LocalParser {
	return &LocalParser{
		CancelKeywords: []string{
			"cancel", "quit", "exit", "stop",
			"रद्द", "रद्द करें", "बंद करो",
			"ரத்து", "ரத்து செய்",
			"రద్దు", "రద్దు చేయి",
			"বাতিল", "রদ",
			"رد کریں", "منسوخ",
		},
		StatusKeywords: []string{
			"status", "progress", "how much left",
			"कितना बाकी", "स्थिति",
			"நிலை", "எவ்வளவு மீதம்",
			"స్థితి",
		},
	}
}

func (p *LocalParser) ParseCommand(ctx context.Context, req *Request) (Command, error) {
	normalized := strings.ToLower(strings.TrimSpace(req.Answer))
	for _, keyword := range p.CancelKeywords {
		if normalized == keyword {
			return Cancel, nil
		}
	}
	for _, keyword := range p.StatusKeywords {
		if normalized == keyword {
			return Status, nil
		}
	}
	return None, nil
}

// FailbackParser tries parsers in order and keeps the first successful
// non-None verdict. Parser errors fall through to the next parser so an
// unavailable model never blocks keyword matching.
type FailbackParser struct {
	parsers []Parser
}

func NewFailbackParser(parsers ...Parser) *FailbackParser {
	return &FailbackParser{parsers: parsers}
}

func (p *FailbackParser) ParseCommand(ctx context.Context, req *Request) (Command, error) {
	var lastErr error
	for _, parser := range p.parsers {
		cmd, err := parser.ParseCommand(ctx, req)
		if err != nil {
			lastErr = err
			continue
		}
		if cmd != None {
			return cmd, nil
		}
	}
	if lastErr != nil {
		return None, lastErr
	}
	return None, nil
}
