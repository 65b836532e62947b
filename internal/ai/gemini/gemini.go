package gemini

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/thomas-vilte/matebot/internal/ai"
	domainErrors "github.com/thomas-vilte/matebot/internal/errors"
	"github.com/thomas-vilte/matebot/internal/logger"
	"github.com/thomas-vilte/matebot/internal/models"
	"google.golang.org/genai"
)

const providerName = "gemini"

var _ ai.Completer = (*GeminiCompleter)(nil)

// contentGenerator is satisfied by *genai.Models.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type GeminiCompleter struct {
	models contentGenerator
	model  string
}

func NewGeminiCompleter(ctx context.Context, apiKey, model string) (*GeminiCompleter, error) {
	if apiKey == "" {
		return nil, domainErrors.ErrAPIKeyMissing.WithContext("provider", providerName)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		errMsg := strings.ToLower(err.Error())
		if strings.Contains(errMsg, "invalid") ||
			strings.Contains(errMsg, "unauthorized") ||
			strings.Contains(errMsg, "api key") {
			return nil, domainErrors.ErrAIKeyInvalid.WithError(err).WithContext("provider", providerName)
		}
		return nil, domainErrors.NewAppError(domainErrors.TypeAI, "error creating AI client", err)
	}

	return NewGeminiCompleterWithClient(client.Models, model), nil
}

func NewGeminiCompleterWithClient(generator contentGenerator, model string) *GeminiCompleter {
	return &GeminiCompleter{
		models: generator,
		model:  model,
	}
}

func (c *GeminiCompleter) GetModelName() string {
	return c.model
}

func (c *GeminiCompleter) GetProviderName() string {
	return providerName
}

func (c *GeminiCompleter) Complete(ctx context.Context, prompt string, maxTokens int) (models.Completion, error) {
	log := logger.FromContext(ctx)
	start := time.Now()

	log.Debug("calling gemini API",
		"model", c.model,
		"max_tokens", maxTokens,
		"prompt_length", len(prompt))

	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(prompt), GetGenerateConfig(maxTokens))
	if err != nil {
		log.Error("gemini API call failed",
			"error", err,
			"model", c.model)

		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return models.Completion{}, ai.ClassifyError(err, apiErr.Code, providerName)
		}
		return models.Completion{}, ai.ClassifyError(err, 0, providerName)
	}

	text := firstText(resp)
	if text == "" {
		return models.Completion{}, domainErrors.ErrInvalidAIOutput.
			WithContext("reason", "empty response from AI").
			WithContext("provider", providerName)
	}

	usage := extractUsage(resp, c.model)
	if usage != nil {
		usage.DurationMs = time.Since(start).Milliseconds()
	}

	return models.Completion{
		Text:  text,
		Usage: usage,
	}, nil
}
