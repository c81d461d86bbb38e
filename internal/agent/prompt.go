package agent

import (
	"fmt"
	"strings"

	"github.com/JustGoscha/zentest/internal/config"
	"github.com/JustGoscha/zentest/internal/types"
)

// maxHistoryEntries bounds the action-history summary the system prompt
// carries; older entries are dropped, not the newest (spec §4.3: "truncated
// action-history summary").
const maxHistoryEntries = 15

// actionSchemas is the exhaustive, fixed enumeration of the JSON shapes the
// model may emit, embedded verbatim in every system prompt (spec §4.3).
const actionSchemas = `Allowed actions (respond with exactly this JSON shape):
{"action":"click","x":int,"y":int,"button":"left"|"right"|"middle"?}
{"action":"double_click","x":int,"y":int}
{"action":"mouse_move","x":int,"y":int}
{"action":"drag","x":int,"y":int,"end_x":int,"end_y":int}
{"action":"click_button","name":string,"exact":bool?}
{"action":"click_text","text":string,"exact":bool?}
{"action":"select_input","field":string,"value":string,"exact":bool?}
{"action":"type","text":string}
{"action":"key","combo":string}
{"action":"scroll","x":int,"y":int,"direction":"up"|"down","amount":int>=200}
{"action":"wait","ms":int}
{"action":"assert_text","text":string}
{"action":"assert_not_text","text":string}
{"action":"assert_visible","x":int,"y":int}
{"action":"done","success":bool,"reason":string}`

// buildSystemPrompt is the pure, fixed template spec §9 requires be
// deterministic: same viewport + history summary always yields the same
// string, so golden tests can pin it.
func buildSystemPrompt(viewport config.Viewport, historySummary string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are driving a browser at viewport %dx%d to satisfy a test description.\n\n", viewport.Width, viewport.Height)
	b.WriteString(actionSchemas)
	b.WriteString("\n\n")
	b.WriteString("Respond with a JSON object: {\"actions\":[...], \"reasoning\":\"...\"}.\n")
	b.WriteString("Batch only actions that need no intermediate screenshot to verify (form fills, ")
	b.WriteString("multiple assertions, an assertion immediately followed by done).\n")
	b.WriteString("Click-strategy preference order: click_button > click_text > select_input > coordinate click.\n")
	b.WriteString("Never name a button by a generic label such as \"menu\", \"icon\", or \"more\" — use the visible, specific text.\n")
	b.WriteString("A done{success:true} must be preceded in the same or an earlier batch by an assertion confirming the outcome.\n\n")
	if historySummary == "" {
		b.WriteString("No actions have been taken yet.\n")
	} else {
		b.WriteString("Actions taken so far (most recent last):\n")
		b.WriteString(historySummary)
		b.WriteString("\n")
	}
	return b.String()
}

// buildUserText is the literal instruction accompanying the screenshot:
// the test description, with a one-line failure prefix prepended when the
// previous action errored (spec §4.3).
func buildUserText(description, lastFailureText string) string {
	if lastFailureText == "" {
		return description
	}
	return fmt.Sprintf("Last instruction failed: %s\n\n%s", lastFailureText, description)
}

// summarizeHistory renders the last maxHistoryEntries recorded steps as
// one signature per line, oldest of the kept window first.
func summarizeHistory(steps []types.RecordedStep) string {
	if len(steps) == 0 {
		return ""
	}
	start := 0
	if len(steps) > maxHistoryEntries {
		start = len(steps) - maxHistoryEntries
	}
	lines := make([]string, 0, len(steps)-start)
	for _, step := range steps[start:] {
		line := step.Action.Signature()
		if step.Error != "" {
			line += " -> error: " + step.Error
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
