// Package types holds the shared data model driving the agentic execution
// core: actions the model can request, the results of executing them, and
// the recorded/persisted shapes built from a successful test run.
package types

import "strconv"

// ActionType discriminates the Action tagged variants the model may emit.
type ActionType string

const (
	ActionClick         ActionType = "click"
	ActionDoubleClick   ActionType = "double_click"
	ActionMouseMove     ActionType = "mouse_move"
	ActionDrag          ActionType = "drag"
	ActionClickButton   ActionType = "click_button"
	ActionClickText     ActionType = "click_text"
	ActionSelectInput   ActionType = "select_input"
	ActionTypeText      ActionType = "type"
	ActionKey           ActionType = "key"
	ActionScroll        ActionType = "scroll"
	ActionWait          ActionType = "wait"
	ActionAssertText    ActionType = "assert_text"
	ActionAssertNotText ActionType = "assert_not_text"
	ActionAssertVisible ActionType = "assert_visible"
	ActionDone          ActionType = "done"
)

// ScrollDirection is the only closed enum among Action fields.
type ScrollDirection string

const (
	ScrollUp   ScrollDirection = "up"
	ScrollDown ScrollDirection = "down"
)

// Action is the closed sum type of interactions the model may request.
// It is represented as a single flat struct with a Type discriminator,
// in the teacher's style (types.CodeAction, llm.FlowStep) rather than an
// interface hierarchy, so it round-trips through JSON without a custom
// UnmarshalJSON per variant. Only the fields relevant to Type are set;
// callers must switch on Type and must never read a field belonging to
// another variant.
type Action struct {
	Type ActionType `json:"action"`

	// click, double_click, mouse_move, drag (start), assert_visible
	X int `json:"x,omitempty"`
	Y int `json:"y,omitempty"`

	// click
	Button string `json:"button,omitempty"`

	// drag (end point)
	EndX int `json:"end_x,omitempty"`
	EndY int `json:"end_y,omitempty"`

	// click_button, click_text
	Name  string `json:"name,omitempty"`
	Text  string `json:"text,omitempty"`
	Exact bool   `json:"exact,omitempty"`

	// select_input
	Field string `json:"field,omitempty"`
	Value string `json:"value,omitempty"`

	// key
	Combo string `json:"combo,omitempty"`

	// scroll
	Direction ScrollDirection `json:"direction,omitempty"`
	Amount    int             `json:"amount,omitempty"`

	// wait
	Milliseconds int `json:"ms,omitempty"`

	// done
	Success bool   `json:"success,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// Signature returns the stable string used by the AgenticDriver's
// repetition guard (spec §8): variant + salient fields, nothing else.
// It must be a pure function of Action so re-signing is idempotent.
func (a Action) Signature() string {
	switch a.Type {
	case ActionClick:
		return join("click", itoa(a.X)+","+itoa(a.Y), a.Button)
	case ActionDoubleClick:
		return join("double_click", itoa(a.X), itoa(a.Y))
	case ActionMouseMove:
		return join("mouse_move", itoa(a.X), itoa(a.Y))
	case ActionDrag:
		return join("drag", itoa(a.X), itoa(a.Y), itoa(a.EndX), itoa(a.EndY))
	case ActionClickButton:
		return join("click_button", a.Name, boolstr(a.Exact))
	case ActionClickText:
		return join("click_text", a.Text, boolstr(a.Exact))
	case ActionSelectInput:
		return join("select_input", a.Field, a.Value)
	case ActionTypeText:
		return join("type", a.Text)
	case ActionKey:
		return join("key", a.Combo)
	case ActionScroll:
		return join("scroll", string(a.Direction), itoa(a.Amount))
	case ActionWait:
		return join("wait", itoa(a.Milliseconds))
	case ActionAssertText:
		return join("assert_text", a.Text)
	case ActionAssertNotText:
		return join("assert_not_text", a.Text)
	case ActionAssertVisible:
		return join("assert_visible", itoa(a.X), itoa(a.Y))
	case ActionDone:
		return join("done", boolstr(a.Success), a.Reason)
	default:
		return join("unknown", string(a.Type))
	}
}

// IsTerminal reports whether the action ends the test.
func (a Action) IsTerminal() bool {
	return a.Type == ActionDone
}

func join(parts ...string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ":"
		}
		out += p
	}
	return out
}

func boolstr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
