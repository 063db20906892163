package command

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/lexvaani/formfill/structured"
)

const (
	parseCommandToolName        = "parse_command_intent"
	parseCommandToolDescription = "Classify the user's input as a control command: cancel, status, none."
)

type commandIntent struct {
	Intent Command `json:"intent" jsonschema:"required,enum=cancel,enum=status,enum=none,description=The user's control intent"`
}

// ToolBasedParser asks the model for the intent through a forced tool call.
// It catches phrasings the keyword list cannot, such as "I don't want to do
// this anymore" in any supported language.
type ToolBasedParser struct {
	chain *structured.Chain[*Request, commandIntent]
}

func NewToolBasedParser(chatModel model.ToolCallingChatModel) (*ToolBasedParser, error) {
	chain, err := structured.NewChain[*Request, commandIntent](
		chatModel,
		buildParseCommandPrompt,
		parseCommandToolName,
		parseCommandToolDescription,
	)
	if err != nil {
		return nil, err
	}
	return &ToolBasedParser{chain: chain}, nil
}

func (p *ToolBasedParser) ParseCommand(ctx context.Context, req *Request) (Command, error) {
	result, err := p.chain.Invoke(ctx, req)
	if err != nil {
		return None, err
	}
	if result == nil || result.Intent == "" {
		return None, fmt.Errorf("empty intent returned by %s", parseCommandToolName)
	}
	switch result.Intent {
	case Cancel, Status, None:
		return result.Intent, nil
	default:
		return None, nil
	}
}

func buildParseCommandPrompt(ctx context.Context, req *Request) ([]*schema.Message, error) {
	systemPrompt := fmt.Sprintf(`You classify one turn of a form-filling conversation. The user may answer in any Indian language or English.

Judge the user's answer together with the question they were asked. Choose exactly one intent:
- cancel: the user clearly wants to abandon filling the form. Plain negations like "no" are answers, not cancellation, unless the context says otherwise.
- status: the user asks how far along the form is or what is still missing.
- none: the input is an answer to the question or unrelated chatter.

Call the '%s' tool with the result.`, parseCommandToolName)

	userPrompt := fmt.Sprintf("QUESTION ASKED: %s\nUSER ANSWER (%s): %s", req.Question, req.Language, req.Answer)

	return []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(userPrompt),
	}, nil
}
