package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-1.5-flash"

// GeminiGenerator generates text with Google's Gemini models.
type GeminiGenerator struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiGenerator creates a Gemini-backed generator.
func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: api key is required")
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiGenerator{client: client, model: client.GenerativeModel(model)}, nil
}

// Name implements Generator.
func (g *GeminiGenerator) Name() string { return "gemini" }

// Generate implements Generator.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate error: %w", err)
	}
	return geminiText(resp)
}

// Close releases the underlying client.
func (g *GeminiGenerator) Close() error {
	return g.client.Close()
}

func geminiText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}
