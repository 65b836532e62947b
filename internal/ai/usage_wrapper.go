package ai

import (
	"context"
	"time"

	"github.com/thomas-vilte/matebot/internal/logger"
	"github.com/thomas-vilte/matebot/internal/models"
	"github.com/thomas-vilte/matebot/internal/services/cost"
)

var _ Completer = (*UsageTrackingCompleter)(nil)

// UsageTrackingCompleter decorates a Completer with timing, cost estimation
// and one log line per model call.
type UsageTrackingCompleter struct {
	next       Completer
	calculator *cost.Calculator
	now        func() time.Time
}

func NewUsageTrackingCompleter(next Completer, calculator *cost.Calculator) *UsageTrackingCompleter {
	if calculator == nil {
		calculator = cost.NewCalculator()
	}
	return &UsageTrackingCompleter{
		next:       next,
		calculator: calculator,
		now:        time.Now,
	}
}

func (w *UsageTrackingCompleter) Complete(ctx context.Context, prompt string, maxTokens int) (models.Completion, error) {
	log := logger.FromContext(ctx)
	start := w.now()

	providerName := w.next.GetProviderName()
	modelName := w.next.GetModelName()

	completion, err := w.next.Complete(ctx, prompt, maxTokens)
	elapsed := w.now().Sub(start)
	if err != nil {
		log.Error("model call failed",
			"provider", providerName,
			"model", modelName,
			"error", err,
			"duration_ms", elapsed.Milliseconds())
		return completion, err
	}

	usage := completion.Usage
	if usage == nil {
		usage = &models.TokenUsage{}
	}
	if usage.Model == "" {
		usage.Model = modelName
	}
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.InputTokens + usage.OutputTokens
	}
	usage.DurationMs = elapsed.Milliseconds()
	usage.CostUSD = w.calculator.EstimateCost(providerName, usage.Model, usage.InputTokens, usage.OutputTokens)
	completion.Usage = usage

	log.Info("model call finished",
		"provider", providerName,
		"model", usage.Model,
		"input_tokens", usage.InputTokens,
		"output_tokens", usage.OutputTokens,
		"cost_usd", usage.CostUSD,
		"duration_ms", usage.DurationMs)

	return completion, nil
}

func (w *UsageTrackingCompleter) GetModelName() string {
	return w.next.GetModelName()
}

func (w *UsageTrackingCompleter) GetProviderName() string {
	return w.next.GetProviderName()
}
