package ui

import (
	"fmt"
	"io"

	"github.com/thomas-vilte/matebot/internal/i18n"
	"github.com/thomas-vilte/matebot/internal/models"
)

func PrintTokenUsage(w io.Writer, usage *models.TokenUsage, t *i18n.Translations) {
	if usage == nil {
		return
	}
	_, _ = fmt.Fprintf(w, "%s %s: %s %d | %s %d | %s %d\n",
		StatsEmoji,
		t.GetMessage("ui.token_usage", 0, nil),
		t.GetMessage("ui.input", 0, nil), usage.InputTokens,
		t.GetMessage("ui.output", 0, nil), usage.OutputTokens,
		t.GetMessage("ui.total", 0, nil), usage.TotalTokens)
	if usage.CostUSD > 0 {
		_, _ = fmt.Fprintf(w, "💰 %s: $%.4f USD\n", t.GetMessage("ui.cost", 0, nil), usage.CostUSD)
	}
	if usage.DurationMs > 0 {
		_, _ = fmt.Fprintf(w, "⏱️  %s: %dms\n", t.GetMessage("ui.duration", 0, nil), usage.DurationMs)
	}
}
