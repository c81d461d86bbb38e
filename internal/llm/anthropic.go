package llm

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = "claude-sonnet-4-5"

// AnthropicClient calls Claude via the official SDK, with vision turns
// carrying the latest screenshot as an inline base64 image block.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
}

func newAnthropicClient(opts Options) (*AnthropicClient, error) {
	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic: no API key (set apiKey in config or ANTHROPIC_API_KEY)")
	}

	model := opts.Model
	if model == "" {
		model = defaultAnthropicModel
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicClient{client: client, model: model}, nil
}

// Next implements ModelClient.
func (c *AnthropicClient) Next(ctx context.Context, req Request) (Response, error) {
	blocks := []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(req.UserText)}
	if len(req.ImagePNG) > 0 {
		blocks = append(blocks, anthropic.NewImageBlockBase64("image/png", encodeBase64(req.ImagePNG)))
	}

	var resp *anthropic.Message
	err := withRetry(ctx, func() error {
		var apiErr error
		resp, apiErr = c.client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     anthropic.F(anthropic.Model(c.model)),
			MaxTokens: anthropic.F(int64(2048)),
			System:    anthropic.F([]anthropic.TextBlockParam{{Text: anthropic.F(req.SystemPrompt)}}),
			Messages: anthropic.F([]anthropic.MessageParam{
				anthropic.NewUserMessage(blocks...),
			}),
		})
		return apiErr
	})
	if err != nil {
		return Response{}, fmt.Errorf("anthropic: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}

	usage := estimateCost("anthropic", c.model, int(resp.Usage.InputTokens), int(resp.Usage.OutputTokens))
	return Response{RawText: text, TokenUsage: &usage}, nil
}

// withRetry retries a provider call on transient failure (HTTP 5xx/429,
// timeouts) with exponential backoff capped at 10s, up to three attempts.
// A non-transient error returns immediately.
func withRetry(ctx context.Context, fn func() error) error {
	delay := 500 * time.Millisecond
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > 10*time.Second {
			delay = 10 * time.Second
		}
	}
	return err
}

func isRetryable(err error) bool {
	if apiErr, ok := err.(*anthropic.Error); ok {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	// Providers without a typed status code (go-openai, the hand-rolled
	// OpenRouter client) surface transient failures as plain errors; retry
	// those too rather than distinguishing further.
	return true
}
