package types

import "testing"

func TestActionSignatureVariesBySalientFields(t *testing.T) {
	cases := []struct {
		name string
		a    Action
		want string
	}{
		{"click", Action{Type: ActionClick, X: 10, Y: 20, Button: "left"}, "click:10,20:left"},
		{"click_button", Action{Type: ActionClickButton, Name: "Submit", Exact: true}, "click_button:Submit:true"},
		{"click_text", Action{Type: ActionClickText, Text: "Sign in"}, "click_text:Sign in:false"},
		{"type", Action{Type: ActionTypeText, Text: "hello"}, "type:hello"},
		{"key", Action{Type: ActionKey, Combo: "Control+A"}, "key:Control+A"},
		{"scroll", Action{Type: ActionScroll, Direction: ScrollDown, Amount: 100}, "scroll:down:100"},
		{"wait", Action{Type: ActionWait, Milliseconds: 500}, "wait:500"},
		{"done", Action{Type: ActionDone, Success: true, Reason: "ok"}, "done:true:ok"},
		{"unknown", Action{Type: ActionType("bogus")}, "unknown:bogus"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.a.Signature(); got != c.want {
				t.Fatalf("got %q, want %q", got, c.want)
			}
		})
	}
}

func TestActionSignatureIgnoresIrrelevantFields(t *testing.T) {
	a := Action{Type: ActionClick, X: 1, Y: 2, Text: "should not appear", Name: "neither should this"}
	if got, want := a.Signature(), "click:1,2:"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestActionIsTerminal(t *testing.T) {
	if !(Action{Type: ActionDone}).IsTerminal() {
		t.Fatal("expected done action to be terminal")
	}
	if (Action{Type: ActionClick}).IsTerminal() {
		t.Fatal("expected click action to be non-terminal")
	}
}
