package anthropic

import (
	"context"
	"errors"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/thomas-vilte/matebot/internal/ai"
	domainErrors "github.com/thomas-vilte/matebot/internal/errors"
	"github.com/thomas-vilte/matebot/internal/logger"
	"github.com/thomas-vilte/matebot/internal/models"
)

const providerName = "anthropic"

var _ ai.Completer = (*AnthropicCompleter)(nil)

// messageCreator is the part of the Messages API the completer calls.
type messageCreator interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type AnthropicCompleter struct {
	messages messageCreator
	model    string
}

func NewAnthropicCompleter(apiKey, model string) (*AnthropicCompleter, error) {
	if apiKey == "" {
		return nil, domainErrors.ErrAPIKeyMissing.WithContext("provider", providerName)
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return NewAnthropicCompleterWithClient(&client.Messages, model), nil
}

func NewAnthropicCompleterWithClient(messages messageCreator, model string) *AnthropicCompleter {
	return &AnthropicCompleter{
		messages: messages,
		model:    model,
	}
}

func (c *AnthropicCompleter) GetModelName() string {
	return c.model
}

func (c *AnthropicCompleter) GetProviderName() string {
	return providerName
}

// Complete sends the prompt as a single user message and returns the text of
// the first content block verbatim.
func (c *AnthropicCompleter) Complete(ctx context.Context, prompt string, maxTokens int) (models.Completion, error) {
	log := logger.FromContext(ctx)
	start := time.Now()

	log.Debug("calling anthropic messages API",
		"model", c.model,
		"max_tokens", maxTokens,
		"prompt_length", len(prompt))

	msg, err := c.messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		log.Error("anthropic API call failed",
			"error", err,
			"model", c.model)

		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return models.Completion{}, ai.ClassifyError(err, apiErr.StatusCode, providerName)
		}
		return models.Completion{}, ai.ClassifyError(err, 0, providerName)
	}

	if len(msg.Content) == 0 || msg.Content[0].Text == "" {
		return models.Completion{}, domainErrors.ErrInvalidAIOutput.
			WithContext("reason", "empty response from AI").
			WithContext("provider", providerName)
	}

	usage := &models.TokenUsage{
		InputTokens:  int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
		TotalTokens:  int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		Model:        c.model,
		DurationMs:   time.Since(start).Milliseconds(),
	}

	log.Debug("anthropic response received",
		"stop_reason", string(msg.StopReason),
		"input_tokens", usage.InputTokens,
		"output_tokens", usage.OutputTokens)

	return models.Completion{
		Text:  msg.Content[0].Text,
		Usage: usage,
	}, nil
}
