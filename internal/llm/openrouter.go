package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
)

const (
	openRouterBaseURL   = "https://openrouter.ai/api/v1"
	defaultOpenRouterModel = "anthropic/claude-sonnet-4-5"
)

// OpenRouterClient is a hand-rolled net/http client: OpenRouter has no
// official Go SDK. It speaks the OpenAI-compatible chat/completions shape,
// including OpenAI-style multi-part vision messages.
type OpenRouterClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

func newOpenRouterClient(opts Options) (*OpenRouterClient, error) {
	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENROUTER_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("openrouter: no API key (set apiKey in config or OPENROUTER_API_KEY)")
	}

	model := opts.Model
	if model == "" {
		model = defaultOpenRouterModel
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = openRouterBaseURL
	}

	return &OpenRouterClient{
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}, nil
}

type openRouterContentPart struct {
	Type     string                    `json:"type"`
	Text     string                    `json:"text,omitempty"`
	ImageURL *openRouterImageURLObject `json:"image_url,omitempty"`
}

type openRouterImageURLObject struct {
	URL string `json:"url"`
}

type openRouterMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type openRouterRequest struct {
	Model    string              `json:"model"`
	Messages []openRouterMessage `json:"messages"`
	MaxTokens int                `json:"max_tokens"`
}

type openRouterResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Next implements ModelClient.
func (c *OpenRouterClient) Next(ctx context.Context, req Request) (Response, error) {
	userContent := interface{}(req.UserText)
	if len(req.ImagePNG) > 0 {
		userContent = []openRouterContentPart{
			{Type: "text", Text: req.UserText},
			{Type: "image_url", ImageURL: &openRouterImageURLObject{
				URL: "data:image/png;base64," + encodeBase64(req.ImagePNG),
			}},
		}
	}

	payload := openRouterRequest{
		Model: c.model,
		Messages: []openRouterMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: userContent},
		},
		MaxTokens: 2048,
	}

	var body []byte
	err := withRetry(ctx, func() error {
		respBody, apiErr := c.makeAPIRequest(ctx, "/chat/completions", payload)
		body = respBody
		return apiErr
	})
	if err != nil {
		return Response{}, fmt.Errorf("openrouter: %w", err)
	}

	var response openRouterResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return Response{}, fmt.Errorf("openrouter: failed to parse response: %w", err)
	}
	if response.Error != nil {
		return Response{}, fmt.Errorf("openrouter: %s", response.Error.Message)
	}
	if len(response.Choices) == 0 {
		return Response{}, fmt.Errorf("openrouter: empty response")
	}

	usage := estimateCost("openrouter", c.model, response.Usage.PromptTokens, response.Usage.CompletionTokens)
	return Response{RawText: response.Choices[0].Message.Content, TokenUsage: &usage}, nil
}

func (c *OpenRouterClient) makeAPIRequest(ctx context.Context, endpoint string, payload interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("HTTP-Referer", "https://github.com/JustGoscha/zentest")
	req.Header.Set("X-Title", "zentest")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}
