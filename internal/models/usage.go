package models

// TokenUsage reports what a single model call consumed.
type TokenUsage struct {
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TotalTokens  int     `json:"total_tokens"`
	Model        string  `json:"model,omitempty"`
	CostUSD      float64 `json:"cost_usd,omitempty"`
	DurationMs   int64   `json:"duration_ms,omitempty"`
}

// Completion is the provider-agnostic result of a model call. Text holds the
// first text block of the response, untouched.
type Completion struct {
	Text  string
	Usage *TokenUsage
}
