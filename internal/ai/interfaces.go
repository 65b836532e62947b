package ai

import (
	"context"

	"github.com/thomas-vilte/matebot/internal/models"
)

// Completer sends a single user prompt to a language model and returns the
// first text block of the response.
type Completer interface {
	// Complete runs one model call bounded by maxTokens output tokens.
	Complete(ctx context.Context, prompt string, maxTokens int) (models.Completion, error)

	// GetModelName returns the model identifier (e.g.: "claude-sonnet-4-5")
	GetModelName() string

	// GetProviderName returns the name of the provider (e.g.: "anthropic", "gemini", "openai")
	GetProviderName() string
}
