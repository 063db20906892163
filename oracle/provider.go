package oracle

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ErrOracle covers any provider-side failure: network, timeout, rate limit,
// non-2xx responses. All of them look the same to the engine.
var ErrOracle = errors.New("oracle call failed")

// Options control one completion call. Extraction and classification calls
// keep temperature at zero; determinism is favored over creativity.
type Options struct {
	System      string
	MaxTokens   int
	Temperature float32
}

type Option func(*Options)

func WithSystem(system string) Option {
	return func(o *Options) { o.System = system }
}

func WithMaxTokens(n int) Option {
	return func(o *Options) { o.MaxTokens = n }
}

func WithTemperature(t float32) Option {
	return func(o *Options) { o.Temperature = t }
}

func buildOptions(opts []Option) Options {
	o := Options{MaxTokens: 1024}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Provider is the text-completion oracle. It is stateless and assumed
// unreliable: callers must treat the returned text as best-effort.
type Provider interface {
	Complete(ctx context.Context, prompt string, opts ...Option) (string, error)
}

// ChatModel adapts an eino chat model to the Provider contract.
type ChatModel struct {
	model model.BaseChatModel
}

func NewChatModel(m model.BaseChatModel) *ChatModel {
	return &ChatModel{model: m}
}

func (c *ChatModel) Complete(ctx context.Context, prompt string, opts ...Option) (string, error) {
	o := buildOptions(opts)

	messages := make([]*schema.Message, 0, 2)
	if o.System != "" {
		messages = append(messages, schema.SystemMessage(o.System))
	}
	messages = append(messages, schema.UserMessage(prompt))

	response, err := c.model.Generate(ctx, messages,
		model.WithMaxTokens(o.MaxTokens),
		model.WithTemperature(o.Temperature),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOracle, err)
	}
	return response.Content, nil
}
