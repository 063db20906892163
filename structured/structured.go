// Package structured forces a chat model to answer through a single tool
// call, giving schema-typed output without any text parsing. It is the
// stricter alternative to prompt-and-repair for models that support tool
// choice.
package structured

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
)

// PromptBuilder renders the input into the chat messages for one invocation.
type PromptBuilder[TInput any] func(ctx context.Context, input TInput) ([]*schema.Message, error)

// Chain binds a prompt builder, a tool-calling model and an output type. The
// output schema is derived from TOutput's struct tags at construction time.
type Chain[TInput, TOutput any] struct {
	buildPrompt PromptBuilder[TInput]
	chatModel   model.ToolCallingChatModel
	toolInfo    *schema.ToolInfo
}

func NewChain[TInput, TOutput any](
	chatModel model.ToolCallingChatModel,
	buildPrompt PromptBuilder[TInput],
	toolName string,
	toolDesc string,
) (*Chain[TInput, TOutput], error) {
	toolInfo, err := utils.GoStruct2ToolInfo[TOutput](toolName, toolDesc)
	if err != nil {
		return nil, fmt.Errorf("derive tool info: %w", err)
	}
	return &Chain[TInput, TOutput]{
		buildPrompt: buildPrompt,
		chatModel:   chatModel,
		toolInfo:    toolInfo,
	}, nil
}

// Invoke runs one forced tool call and decodes its arguments into TOutput.
func (c *Chain[TInput, TOutput]) Invoke(ctx context.Context, input TInput) (*TOutput, error) {
	messages, err := c.buildPrompt(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("build prompt: %w", err)
	}

	response, err := c.chatModel.Generate(ctx, messages,
		model.WithTools([]*schema.ToolInfo{c.toolInfo}),
		model.WithToolChoice(schema.ToolChoiceForced, c.toolInfo.Name),
	)
	if err != nil {
		return nil, fmt.Errorf("call model: %w", err)
	}
	if len(response.ToolCalls) == 0 {
		return nil, fmt.Errorf("no tool call in model response: %s", response.Content)
	}

	var result TOutput
	if err := sonic.UnmarshalString(response.ToolCalls[0].Function.Arguments, &result); err != nil {
		return nil, fmt.Errorf("decode tool arguments: %w", err)
	}
	return &result, nil
}
