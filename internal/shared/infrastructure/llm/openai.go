package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIConfig configures an OpenAI-compatible generator.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string

	// SystemPrompt is sent ahead of every prompt when set.
	SystemPrompt string
}

// OpenAIGenerator generates text through any OpenAI-compatible chat API.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
	system string
}

// NewOpenAIGenerator creates an OpenAI-compatible generator.
func NewOpenAIGenerator(cfg OpenAIConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
		system: cfg.SystemPrompt,
	}, nil
}

// Name implements Generator.
func (g *OpenAIGenerator) Name() string { return "openai" }

// Generate implements Generator.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if g.system != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: g.system})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: 0,
		Messages:    messages,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}
