package llm

import (
	"fmt"
	"strings"

	"github.com/JustGoscha/zentest/internal/types"
)

// modelPricing is USD cost per 1M tokens.
type modelPricing struct {
	input  float64
	output float64
}

var pricingTable = map[string]modelPricing{
	"anthropic/claude-sonnet-4-5": {input: 3.00, output: 15.00},
	"anthropic/claude-opus-4-5":   {input: 15.00, output: 75.00},
	"anthropic/claude-haiku-4-5":  {input: 0.80, output: 4.00},
	"openai/gpt-4o":               {input: 2.50, output: 10.00},
	"openai/gpt-4o-mini":          {input: 0.15, output: 0.60},
	"openrouter/default":          {input: 3.00, output: 10.00},
}

// estimateCost looks up the pricing table (falling back to a provider
// default, then a conservative high estimate) and returns the populated
// UsageStats.
func estimateCost(provider, model string, inputTokens, outputTokens int) types.UsageStats {
	p := pricingForModel(provider, model)
	return types.UsageStats{
		Provider:     provider,
		Model:        model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		CostUSD:      (float64(inputTokens)/1e6)*p.input + (float64(outputTokens)/1e6)*p.output,
	}
}

func pricingForModel(provider, model string) modelPricing {
	if p, ok := pricingTable[fmt.Sprintf("%s/%s", provider, model)]; ok {
		return p
	}
	switch provider {
	case "anthropic":
		return pricingTable["anthropic/claude-sonnet-4-5"]
	case "openai":
		return pricingTable["openai/gpt-4o"]
	case "openrouter":
		key := strings.ToLower(model)
		if strings.Contains(key, "claude") {
			return pricingTable["anthropic/claude-sonnet-4-5"]
		}
		if strings.Contains(key, "gpt-4") {
			return pricingTable["openai/gpt-4o"]
		}
		return pricingTable["openrouter/default"]
	}
	return modelPricing{input: 15.00, output: 75.00}
}
