package llm

import (
	"context"
	"sync"

	"github.com/JustGoscha/zentest/internal/types"
)

// MockClient is a scriptable ModelClient for tests and the CLI's `mock`
// provider option: it never calls out to a network, returning canned
// envelopes from a queue (or a default `done{success:true}` once the
// queue is drained).
type MockClient struct {
	mu        sync.Mutex
	responses []string
	calls     []Request
}

// NewMockClient creates a MockClient that returns responses in order,
// one per Next call.
func NewMockClient(responses []string) *MockClient {
	return &MockClient{responses: responses}
}

// Next implements ModelClient.
func (m *MockClient) Next(ctx context.Context, req Request) (Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, req)

	if len(m.responses) == 0 {
		usage := types.UsageStats{Provider: "mock", Model: "mock"}
		return Response{
			RawText:    `{"actions":[{"action":"done","success":true,"reason":"mock queue drained"}],"reasoning":"mock"}`,
			TokenUsage: &usage,
		}, nil
	}

	next := m.responses[0]
	m.responses = m.responses[1:]
	usage := types.UsageStats{Provider: "mock", Model: "mock", InputTokens: 10, OutputTokens: 10}
	return Response{RawText: next, TokenUsage: &usage}, nil
}

// Calls returns every Request seen so far, for test assertions.
func (m *MockClient) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.calls))
	copy(out, m.calls)
	return out
}

// Enqueue appends more scripted responses.
func (m *MockClient) Enqueue(response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, response)
}
