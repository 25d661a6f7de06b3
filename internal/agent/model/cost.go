package model

import "github.com/cloudwego/eino/schema"

// Pricing is USD per one million text tokens.
type Pricing struct {
	InputPerM  float64
	OutputPerM float64
}

// Standard-tier Gemini text pricing. Audio and image tokens are billed
// differently and are not used here.
var defaultPricing = map[string]Pricing{
	"gemini-2.5-flash":      {InputPerM: 0.30, OutputPerM: 2.50},
	"gemini-2.5-flash-lite": {InputPerM: 0.10, OutputPerM: 0.40},
}

// CostEnabled reports whether per-turn cost bookkeeping runs.
func CostEnabled() bool {
	return true
}

// ResolvePricing returns the pricing for a model, zero for unknown models so
// cost logs stay additive without guessing.
func ResolvePricing(model string) Pricing {
	if p, ok := defaultPricing[model]; ok {
		return p
	}
	return Pricing{}
}

// ComputeCost converts one call's token usage to USD.
func ComputeCost(usage *schema.TokenUsage, p Pricing) (inputCost, outputCost, total float64) {
	if usage == nil {
		return 0, 0, 0
	}
	inputCost = float64(usage.PromptTokens) / 1_000_000 * p.InputPerM
	outputCost = float64(usage.CompletionTokens) / 1_000_000 * p.OutputPerM
	return inputCost, outputCost, inputCost + outputCost
}
