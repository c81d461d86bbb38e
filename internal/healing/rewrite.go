package healing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/JustGoscha/zentest/internal/llm"
)

// rewriteDecision is the discriminated result the healer model returns for
// the smart-rewrite tier (spec §4.5): either a replacement test body, or a
// deferral back to the agentic tier.
type rewriteDecision struct {
	Decision    string `json:"decision"` // "REWRITE" | "AGENTIC"
	Reasoning   string `json:"reasoning"`
	NewTestBody string `json:"newTestBody,omitempty"`
}

const rewriteSystemPrompt = `You are repairing one failing test in a generated Playwright script.
You will be shown the failing test's current body, the full script for context, the runner's
error message and stack trace, and a screenshot taken at the moment of failure.

Respond with exactly one JSON object, no other text:
{"decision":"REWRITE","reasoning":"...","newTestBody":"...lines of the replacement async function body..."}
or
{"decision":"AGENTIC","reasoning":"..."}

Choose REWRITE only when the fix is a small, mechanical correction to the existing body (a
stale selector, a wrong assertion, a missing wait). Choose AGENTIC when the page flow itself
appears to have changed enough that the test needs to be re-derived by driving the browser.`

func buildRewriteUserText(testName, failingBody, fullScript, errorMessage, stack string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Failing test: %s\n\n", testName)
	b.WriteString("Current body:\n")
	b.WriteString(failingBody)
	b.WriteString("\n\nFull script:\n")
	b.WriteString(fullScript)
	b.WriteString("\n\nRunner error:\n")
	b.WriteString(errorMessage)
	if stack != "" {
		b.WriteString("\n\nStack:\n")
		b.WriteString(stack)
	}
	return b.String()
}

// requestRewrite calls the healer model once and decodes its decision.
// A malformed response is treated as AGENTIC, per spec §7's "rewrite
// errors fall through to full agentic re-derivation".
func requestRewrite(ctx context.Context, model llm.ModelClient, testName, failingBody, fullScript, errorMessage, stack string, screenshot []byte) rewriteDecision {
	resp, err := model.Next(ctx, llm.Request{
		SystemPrompt: rewriteSystemPrompt,
		UserText:     buildRewriteUserText(testName, failingBody, fullScript, errorMessage, stack),
		ImagePNG:     screenshot,
	})
	if err != nil {
		return rewriteDecision{Decision: "AGENTIC", Reasoning: fmt.Sprintf("rewrite model call failed: %v", err)}
	}

	candidate := extractJSONObject(resp.RawText)
	if candidate == "" {
		return rewriteDecision{Decision: "AGENTIC", Reasoning: "rewrite model returned no parseable JSON"}
	}

	var decision rewriteDecision
	if err := json.Unmarshal([]byte(candidate), &decision); err != nil {
		return rewriteDecision{Decision: "AGENTIC", Reasoning: fmt.Sprintf("rewrite model response did not parse: %v", err)}
	}
	if decision.Decision == "REWRITE" && strings.TrimSpace(decision.NewTestBody) == "" {
		return rewriteDecision{Decision: "AGENTIC", Reasoning: "rewrite model chose REWRITE with an empty body"}
	}
	return decision
}

// extractJSONObject tries the trimmed response as-is, then a fenced
// ```json block, then the longest balanced {...} substring — the same
// tolerant strategy internal/agent uses for the driver's model envelope,
// since healer responses come from the same class of chat model.
func extractJSONObject(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if looksLikeDecision(trimmed) {
		return trimmed
	}
	if fenced := extractFencedBlock(raw); fenced != "" && looksLikeDecision(fenced) {
		return fenced
	}
	if block := longestBalancedBraces(raw); block != "" && looksLikeDecision(block) {
		return block
	}
	return ""
}

func looksLikeDecision(s string) bool {
	var probe struct {
		Decision string `json:"decision"`
	}
	return json.Unmarshal([]byte(s), &probe) == nil && probe.Decision != ""
}

func extractFencedBlock(raw string) string {
	const openMarker = "```json"
	start := strings.Index(raw, openMarker)
	if start < 0 {
		start = strings.Index(raw, "```")
		if start < 0 {
			return ""
		}
		start += len("```")
	} else {
		start += len(openMarker)
	}
	end := strings.Index(raw[start:], "```")
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(raw[start : start+end])
}

func longestBalancedBraces(raw string) string {
	best := ""
	depth := 0
	start := -1
	for i, r := range raw {
		switch r {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				if candidate := raw[start : i+1]; len(candidate) > len(best) {
					best = candidate
				}
				start = -1
			}
		}
	}
	return best
}
