package classifier

import (
	"context"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/spec-kit/helpdesk/internal/config"
)

// AnthropicCompleter calls the Anthropic Messages API. Retries are disabled;
// the caller's context bounds the call.
type AnthropicCompleter struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicCompleter builds a completer from the classifier config.
func NewAnthropicCompleter(cfg config.ClassifierConfig, opts ...option.RequestOption) *AnthropicCompleter {
	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 100
	}
	clientOpts := append([]option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}, opts...)
	return &AnthropicCompleter{
		client:    anthropic.NewClient(clientOpts...),
		model:     cfg.Model,
		maxTokens: maxTokens,
	}
}

// Complete sends prompt as a single user message and returns the first text block.
func (a *AnthropicCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", err
	}
	for _, block := range message.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", errors.New("no text content in anthropic response")
}
