// Package llm provides text generators backed by hosted language models.
package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when a model answers with no text.
var ErrEmptyResponse = errors.New("model returned no text")

// Generator turns a prompt into text.
type Generator interface {
	// Generate returns the model's reply to prompt.
	Generate(ctx context.Context, prompt string) (string, error)

	// Name identifies the provider for logs and warnings.
	Name() string
}
