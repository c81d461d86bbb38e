package agent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/JustGoscha/zentest/internal/types"
)

// envelope is the JSON shape every ModelClient response must parse to
// (spec §4.3/§6): a batch of actions plus the model's stated reasoning for
// that batch.
type envelope struct {
	Actions   []types.Action `json:"actions"`
	Reasoning string         `json:"reasoning"`
}

var knownActionTypes = map[types.ActionType]bool{
	types.ActionClick: true, types.ActionDoubleClick: true, types.ActionMouseMove: true,
	types.ActionDrag: true, types.ActionClickButton: true, types.ActionClickText: true,
	types.ActionSelectInput: true, types.ActionTypeText: true, types.ActionKey: true,
	types.ActionScroll: true, types.ActionWait: true, types.ActionAssertText: true,
	types.ActionAssertNotText: true, types.ActionAssertVisible: true, types.ActionDone: true,
}

// parseEnvelope accepts bare JSON, a fenced ```json code block, or the
// longest balanced {...} substring containing an "actions" key (spec §6).
// Every action that fails to decode (unknown field) or names an unknown
// variant is coerced to done{success:false} rather than rejecting the
// whole batch, so one bad action doesn't lose the rest of a good batch.
func parseEnvelope(raw string) (envelope, error) {
	candidate := extractJSON(raw)
	if candidate == "" {
		return envelope{}, fmt.Errorf("no JSON object found in model response")
	}

	var rawActions struct {
		Actions   []json.RawMessage `json:"actions"`
		Reasoning string            `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(candidate), &rawActions); err != nil {
		return envelope{}, fmt.Errorf("parse model envelope: %w", err)
	}

	env := envelope{Reasoning: rawActions.Reasoning, Actions: make([]types.Action, 0, len(rawActions.Actions))}
	for _, raw := range rawActions.Actions {
		env.Actions = append(env.Actions, decodeAction(raw))
	}
	return env, nil
}

// decodeAction never fails: an action that can't be strictly decoded, or
// that names an action type this build doesn't recognize, becomes a
// terminal done{success:false} carrying the reason (spec §4.3).
func decodeAction(raw json.RawMessage) types.Action {
	var a types.Action
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&a); err != nil {
		return unknownAction(fmt.Sprintf("Unknown action: %v", err))
	}
	if !knownActionTypes[a.Type] {
		return unknownAction(fmt.Sprintf("Unknown action: %s", a.Type))
	}
	return a
}

func unknownAction(reason string) types.Action {
	return types.Action{Type: types.ActionDone, Success: false, Reason: reason}
}

// extractJSON tries, in order: the whole trimmed string as-is, a fenced
// ```json block, then the longest balanced brace substring that contains
// an "actions" key. Returns "" if nothing plausible is found.
func extractJSON(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if isObjectWithActions(trimmed) {
		return trimmed
	}

	if fenced := extractFenced(raw); fenced != "" && isObjectWithActions(fenced) {
		return fenced
	}

	if block := longestBalancedObject(raw); block != "" && isObjectWithActions(block) {
		return block
	}

	return ""
}

func isObjectWithActions(s string) bool {
	var probe struct {
		Actions json.RawMessage `json:"actions"`
	}
	if err := json.Unmarshal([]byte(s), &probe); err != nil {
		return false
	}
	return probe.Actions != nil
}

func extractFenced(raw string) string {
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

// longestBalancedObject scans raw for every top-level-balanced {...}
// substring and returns the longest one that parses as an object with an
// "actions" key, or "" if none does.
func longestBalancedObject(raw string) string {
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
				if candidate := raw[start : i+1]; len(candidate) > len(best) && isObjectWithActions(candidate) {
					best = candidate
				}
				start = -1
			}
		}
	}
	return best
}
