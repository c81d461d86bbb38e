package healing

import (
	"context"
	"testing"

	"github.com/JustGoscha/zentest/internal/llm"
)

func TestRequestRewriteBareJSON(t *testing.T) {
	model := llm.NewMockClient([]string{`{"decision":"REWRITE","reasoning":"stale selector","newTestBody":"await page.waitForTimeout(1);"}`})
	decision := requestRewrite(context.Background(), model, "t", "old body", "full script", "boom", "", nil)
	if decision.Decision != "REWRITE" {
		t.Fatalf("expected REWRITE, got %q", decision.Decision)
	}
	if decision.NewTestBody == "" {
		t.Fatal("expected a non-empty new test body")
	}
}

func TestRequestRewriteFencedJSON(t *testing.T) {
	raw := "Here's my decision:\n```json\n{\"decision\":\"AGENTIC\",\"reasoning\":\"flow changed\"}\n```\n"
	model := llm.NewMockClient([]string{raw})
	decision := requestRewrite(context.Background(), model, "t", "old body", "full script", "boom", "", nil)
	if decision.Decision != "AGENTIC" {
		t.Fatalf("expected AGENTIC, got %q", decision.Decision)
	}
}

func TestRequestRewriteEmptyBodyDegradesToAgentic(t *testing.T) {
	model := llm.NewMockClient([]string{`{"decision":"REWRITE","reasoning":"stale","newTestBody":""}`})
	decision := requestRewrite(context.Background(), model, "t", "old body", "full script", "boom", "", nil)
	if decision.Decision != "AGENTIC" {
		t.Fatalf("expected AGENTIC fallback for an empty rewrite body, got %q", decision.Decision)
	}
}

func TestRequestRewriteUnparseableResponseDegradesToAgentic(t *testing.T) {
	model := llm.NewMockClient([]string{"I'm not sure what to do here."})
	decision := requestRewrite(context.Background(), model, "t", "old body", "full script", "boom", "", nil)
	if decision.Decision != "AGENTIC" {
		t.Fatalf("expected AGENTIC fallback for unparseable output, got %q", decision.Decision)
	}
}
