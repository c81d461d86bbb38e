package llm

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-4o"

// OpenAIClient calls a chat-completions-compatible OpenAI model, sending
// screenshots as an inline data-URL image part on vision turns.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

func newOpenAIClient(opts Options) (*OpenAIClient, error) {
	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("openai: no API key (set apiKey in config or OPENAI_API_KEY)")
	}

	model := opts.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	return &OpenAIClient{client: openai.NewClient(apiKey), model: model}, nil
}

// Next implements ModelClient.
func (c *OpenAIClient) Next(ctx context.Context, req Request) (Response, error) {
	userParts := []openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: req.UserText}}
	if len(req.ImagePNG) > 0 {
		userParts = append(userParts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL: "data:image/png;base64," + encodeBase64(req.ImagePNG),
			},
		})
	}

	var resp openai.ChatCompletionResponse
	err := withRetry(ctx, func() error {
		var apiErr error
		resp, apiErr = c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
				{Role: openai.ChatMessageRoleUser, MultiContent: userParts},
			},
			MaxTokens: 2048,
		})
		return apiErr
	})
	if err != nil {
		return Response{}, fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, fmt.Errorf("openai: empty response")
	}

	usage := estimateCost("openai", c.model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	return Response{RawText: resp.Choices[0].Message.Content, TokenUsage: &usage}, nil
}
