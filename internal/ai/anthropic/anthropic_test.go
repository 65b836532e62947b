package anthropic

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	domainErrors "github.com/thomas-vilte/matebot/internal/errors"
)

type mockMessages struct {
	mock.Mock
}

func (m *mockMessages) New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.Message), args.Error(1)
}

func TestNewAnthropicCompleter(t *testing.T) {
	t.Run("should require an API key", func(t *testing.T) {
		completer, err := NewAnthropicCompleter("", "claude-sonnet-4-5")

		assert.ErrorIs(t, err, domainErrors.ErrAPIKeyMissing)
		assert.Nil(t, completer)
	})

	t.Run("should build a client", func(t *testing.T) {
		completer, err := NewAnthropicCompleter("sk-ant-test", "claude-sonnet-4-5")

		require.NoError(t, err)
		assert.Equal(t, "claude-sonnet-4-5", completer.GetModelName())
		assert.Equal(t, "anthropic", completer.GetProviderName())
	})
}

func TestAnthropicCompleter_Complete(t *testing.T) {
	t.Run("should send one user message and return the first block", func(t *testing.T) {
		messages := &mockMessages{}
		completer := NewAnthropicCompleterWithClient(messages, "claude-sonnet-4-5")

		messages.On("New", mock.Anything, mock.MatchedBy(func(p anthropic.MessageNewParams) bool {
			return p.Model == anthropic.Model("claude-sonnet-4-5") &&
				p.MaxTokens == 4096 &&
				len(p.Messages) == 1 &&
				p.Messages[0].Role == anthropic.MessageParamRoleUser
		})).Return(&anthropic.Message{
			Content: []anthropic.ContentBlockUnion{
				{Type: "text", Text: "### Code quality\nLooks fine."},
				{Type: "text", Text: "ignored"},
			},
			Usage: anthropic.Usage{InputTokens: 120, OutputTokens: 30},
		}, nil).Once()

		completion, err := completer.Complete(context.Background(), "review this", 4096)

		require.NoError(t, err)
		assert.Equal(t, "### Code quality\nLooks fine.", completion.Text)
		require.NotNil(t, completion.Usage)
		assert.Equal(t, 120, completion.Usage.InputTokens)
		assert.Equal(t, 30, completion.Usage.OutputTokens)
		assert.Equal(t, 150, completion.Usage.TotalTokens)
		assert.Equal(t, "claude-sonnet-4-5", completion.Usage.Model)
		messages.AssertExpectations(t)
	})

	t.Run("should reject empty content", func(t *testing.T) {
		messages := &mockMessages{}
		completer := NewAnthropicCompleterWithClient(messages, "claude-sonnet-4-5")

		messages.On("New", mock.Anything, mock.Anything).Return(&anthropic.Message{}, nil).Once()

		_, err := completer.Complete(context.Background(), "review this", 4096)

		assert.ErrorIs(t, err, domainErrors.ErrInvalidAIOutput)
	})

	t.Run("should map API status codes", func(t *testing.T) {
		messages := &mockMessages{}
		completer := NewAnthropicCompleterWithClient(messages, "claude-sonnet-4-5")

		req, err := http.NewRequest(http.MethodPost, "https://api.anthropic.com/v1/messages", nil)
		require.NoError(t, err)
		apiErr := &anthropic.Error{
			StatusCode: http.StatusTooManyRequests,
			Request:    req,
			Response:   &http.Response{StatusCode: http.StatusTooManyRequests},
		}
		messages.On("New", mock.Anything, mock.Anything).Return(nil, apiErr).Once()

		_, err = completer.Complete(context.Background(), "review this", 4096)

		assert.ErrorIs(t, err, domainErrors.ErrQuotaExceeded)
	})

	t.Run("should wrap transport errors", func(t *testing.T) {
		messages := &mockMessages{}
		completer := NewAnthropicCompleterWithClient(messages, "claude-sonnet-4-5")

		netErr := errors.New("dial tcp: connection refused")
		messages.On("New", mock.Anything, mock.Anything).Return(nil, netErr).Once()

		_, err := completer.Complete(context.Background(), "review this", 4096)

		assert.ErrorIs(t, err, domainErrors.ErrAIGeneration)
		assert.ErrorIs(t, err, netErr)
	})
}
