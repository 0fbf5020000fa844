// Package llm adapts language model providers to the assistant.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ErrNotConfigured is returned by Unconfigured.
var ErrNotConfigured = errors.New("language model not configured")

// AnthropicClient completes prompts with the Anthropic Messages API.
type AnthropicClient struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
}

// Option configures an AnthropicClient.
type Option func(*anthropicConfig)

type anthropicConfig struct {
	requestOptions []option.RequestOption
}

// WithRequestOptions passes SDK request options such as a base URL or retry count.
func WithRequestOptions(opts ...option.RequestOption) Option {
	return func(c *anthropicConfig) {
		c.requestOptions = append(c.requestOptions, opts...)
	}
}

// NewAnthropic constructs a client for model.
func NewAnthropic(apiKey, model string, maxTokens int, temperature float64, opts ...Option) *AnthropicClient {
	cfg := &anthropicConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	reqOpts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, cfg.requestOptions...)
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &AnthropicClient{
		client:      anthropic.NewClient(reqOpts...),
		model:       model,
		maxTokens:   int64(maxTokens),
		temperature: temperature,
	}
}

func (c *AnthropicClient) Name() string { return "anthropic" }

// Complete sends one user turn with the system prompt and returns the text blocks
// of the reply joined together.
func (c *AnthropicClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   c.maxTokens,
		Temperature: anthropic.Float(c.temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	var b strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", errors.New("anthropic messages: empty completion")
	}
	return text, nil
}

// Unconfigured fails every call. It stands in when no API key is set so the
// rest of the service still starts.
type Unconfigured struct{}

func (Unconfigured) Complete(context.Context, string, string) (string, error) {
	return "", ErrNotConfigured
}
