package openai

import (
	"context"
	"errors"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/thomas-vilte/matebot/internal/ai"
	domainErrors "github.com/thomas-vilte/matebot/internal/errors"
	"github.com/thomas-vilte/matebot/internal/logger"
	"github.com/thomas-vilte/matebot/internal/models"
)

const providerName = "openai"

var _ ai.Completer = (*OpenAICompleter)(nil)

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type OpenAICompleter struct {
	client chatCompleter
	model  string
}

func NewOpenAICompleter(apiKey, model string) (*OpenAICompleter, error) {
	if apiKey == "" {
		return nil, domainErrors.ErrAPIKeyMissing.WithContext("provider", providerName)
	}
	return NewOpenAICompleterWithClient(openai.NewClient(apiKey), model), nil
}

func NewOpenAICompleterWithClient(client chatCompleter, model string) *OpenAICompleter {
	return &OpenAICompleter{
		client: client,
		model:  model,
	}
}

func (c *OpenAICompleter) GetModelName() string {
	return c.model
}

func (c *OpenAICompleter) GetProviderName() string {
	return providerName
}

func (c *OpenAICompleter) Complete(ctx context.Context, prompt string, maxTokens int) (models.Completion, error) {
	log := logger.FromContext(ctx)
	start := time.Now()

	log.Debug("calling openai chat completion",
		"model", c.model,
		"max_tokens", maxTokens,
		"prompt_length", len(prompt))

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		log.Error("openai API call failed",
			"error", err,
			"model", c.model)

		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return models.Completion{}, ai.ClassifyError(err, apiErr.HTTPStatusCode, providerName)
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return models.Completion{}, ai.ClassifyError(err, reqErr.HTTPStatusCode, providerName)
		}
		return models.Completion{}, ai.ClassifyError(err, 0, providerName)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return models.Completion{}, domainErrors.ErrInvalidAIOutput.
			WithContext("reason", "no response from AI").
			WithContext("provider", providerName)
	}

	return models.Completion{
		Text: resp.Choices[0].Message.Content,
		Usage: &models.TokenUsage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
			Model:        c.model,
			DurationMs:   time.Since(start).Milliseconds(),
		},
	}, nil
}
