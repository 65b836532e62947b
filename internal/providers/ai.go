package providers

import (
	"context"

	"github.com/thomas-vilte/matebot/internal/ai"
	"github.com/thomas-vilte/matebot/internal/ai/anthropic"
	"github.com/thomas-vilte/matebot/internal/ai/gemini"
	"github.com/thomas-vilte/matebot/internal/ai/openai"
	"github.com/thomas-vilte/matebot/internal/config"
	domainErrors "github.com/thomas-vilte/matebot/internal/errors"
	"github.com/thomas-vilte/matebot/internal/services/cost"
)

// NewCompleter creates a Completer based on the configured provider. Every
// call through it is timed, priced and logged.
func NewCompleter(ctx context.Context, cfg *config.Config) (ai.Completer, error) {
	completer, err := newProviderCompleter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return ai.NewUsageTrackingCompleter(completer, cost.NewCalculator()), nil
}

func newProviderCompleter(ctx context.Context, cfg *config.Config) (ai.Completer, error) {
	switch cfg.AI.Provider {
	case config.AIAnthropic:
		completer, err := anthropic.NewAnthropicCompleter(cfg.AI.AnthropicAPIKey, cfg.ModelName())
		if err != nil {
			return nil, err
		}
		return completer, nil
	case config.AIGemini:
		completer, err := gemini.NewGeminiCompleter(ctx, cfg.AI.GeminiAPIKey, cfg.ModelName())
		if err != nil {
			return nil, err
		}
		return completer, nil
	case config.AIOpenAI:
		completer, err := openai.NewOpenAICompleter(cfg.AI.OpenAIAPIKey, cfg.ModelName())
		if err != nil {
			return nil, err
		}
		return completer, nil
	default:
		return nil, domainErrors.ErrProviderNotSupported.WithContext("provider", string(cfg.AI.Provider))
	}
}
