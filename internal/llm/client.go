// Package llm wraps the vision-capable model providers the AgenticDriver
// and HealingOrchestrator call into. The surface is deliberately narrow: a
// single ModelClient capability, so the driver never depends on any
// provider's own SDK types.
package llm

import (
	"context"
	"fmt"

	"github.com/JustGoscha/zentest/internal/types"
)

// Provider names a ModelClient backend.
type Provider string

const (
	Anthropic  Provider = "anthropic"
	OpenAI     Provider = "openai"
	OpenRouter Provider = "openrouter"
	Mock       Provider = "mock"
)

// Request is what the driver sends on every turn: a system prompt (the
// fixed template plus the current action-history summary), the current
// user-turn text (the test description plus any "last instruction failed"
// feedback), and the latest screenshot.
type Request struct {
	SystemPrompt string
	UserText     string
	ImagePNG     []byte // optional; omitted for text-only turns
}

// Response is a provider's raw answer. Callers parse Response.RawText as
// the model JSON envelope; providers never parse or validate it.
type Response struct {
	RawText    string
	TokenUsage *types.UsageStats
}

// ModelClient is the single capability every provider implements.
// Retries for transient HTTP failures live inside each implementation.
type ModelClient interface {
	Next(ctx context.Context, req Request) (Response, error)
}

// Options configures NewClient. Fields not relevant to the selected
// provider are ignored.
type Options struct {
	APIKey  string
	Model   string
	BaseURL string // OpenRouter only; defaults to the public API
}

// NewClient constructs the ModelClient for the named provider.
func NewClient(provider Provider, opts Options) (ModelClient, error) {
	switch provider {
	case Anthropic:
		return newAnthropicClient(opts)
	case OpenAI:
		return newOpenAIClient(opts)
	case OpenRouter:
		return newOpenRouterClient(opts)
	case Mock:
		return NewMockClient(nil), nil
	default:
		return nil, fmt.Errorf("unsupported model provider: %s", provider)
	}
}
