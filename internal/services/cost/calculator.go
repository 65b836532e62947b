package cost

import (
	"sort"
	"strings"
)

type PricingTable struct {
	InputPricePerMillion  float64
	OutputPricePerMillion float64
}

type ProviderPricing map[string]map[string]PricingTable

// Prices in USD per million tokens, as published by each provider.
var defaultPricing = ProviderPricing{
	"anthropic": {
		"claude-sonnet-4-5": {InputPricePerMillion: 3.00, OutputPricePerMillion: 15.00},
		"claude-haiku-4-5":  {InputPricePerMillion: 1.00, OutputPricePerMillion: 5.00},
		"claude-opus-4-1":   {InputPricePerMillion: 15.00, OutputPricePerMillion: 75.00},
	},
	"gemini": {
		"gemini-2.5-pro":   {InputPricePerMillion: 1.25, OutputPricePerMillion: 10.00},
		"gemini-2.5-flash": {InputPricePerMillion: 0.30, OutputPricePerMillion: 2.50},
	},
	"openai": {
		"gpt-4o":      {InputPricePerMillion: 2.50, OutputPricePerMillion: 10.00},
		"gpt-4o-mini": {InputPricePerMillion: 0.15, OutputPricePerMillion: 0.60},
	},
}

type Calculator struct {
	pricing ProviderPricing
}

func NewCalculator() *Calculator {
	return &Calculator{pricing: defaultPricing}
}

// NewCalculatorWithPricing uses the given table instead of the built-in one.
func NewCalculatorWithPricing(pricing ProviderPricing) *Calculator {
	return &Calculator{pricing: pricing}
}

// EstimateCost returns the cost in USD of a call, or 0 when the model has no
// known price. Dated model ids such as claude-sonnet-4-5-20250929 match
// their base entry; the longest matching prefix wins.
func (c *Calculator) EstimateCost(provider, model string, inputTokens, outputTokens int) float64 {
	prices, ok := c.lookup(strings.ToLower(provider), strings.ToLower(model))
	if !ok {
		return 0
	}

	inputCost := (float64(inputTokens) / 1_000_000) * prices.InputPricePerMillion
	outputCost := (float64(outputTokens) / 1_000_000) * prices.OutputPricePerMillion

	return inputCost + outputCost
}

func (c *Calculator) lookup(provider, model string) (PricingTable, bool) {
	providerPricing, exists := c.pricing[provider]
	if !exists {
		return PricingTable{}, false
	}
	if prices, exists := providerPricing[model]; exists {
		return prices, true
	}

	names := make([]string, 0, len(providerPricing))
	for name := range providerPricing {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })

	for _, name := range names {
		if strings.HasPrefix(model, name) {
			return providerPricing[name], true
		}
	}
	return PricingTable{}, false
}
