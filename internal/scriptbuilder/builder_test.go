package scriptbuilder

import (
	"strings"
	"testing"

	"github.com/JustGoscha/zentest/internal/types"
)

func TestBuildNavigatesOnlyOnFirstTest(t *testing.T) {
	results := []TestResult{
		{Test: types.Test{Name: "login"}, Steps: []types.RecordedStep{
			{Action: types.Action{Type: types.ActionClickButton, Name: "Sign in", Exact: true}},
		}},
		{Test: types.Test{Name: "logout"}, Steps: []types.RecordedStep{
			{Action: types.Action{Type: types.ActionClickText, Text: "Log out"}},
		}},
	}
	script := Build("auth", "https://example.com", results)

	if strings.Count(script, "page.goto(") != 1 {
		t.Fatalf("expected exactly one page.goto, got script:\n%s", script)
	}
	if !strings.Contains(script, "test.describe.serial('auth'") {
		t.Fatalf("missing describe block: %s", script)
	}
	if !strings.Contains(script, "getByRole('button', { name: 'Sign in', exact: true })") {
		t.Fatalf("missing click_button translation: %s", script)
	}
}

func TestBuildDeduplicatesConsecutiveAssertions(t *testing.T) {
	results := []TestResult{
		{Test: types.Test{Name: "checkout"}, Steps: []types.RecordedStep{
			{Action: types.Action{Type: types.ActionAssertText, Text: "Order placed"}},
			{Action: types.Action{Type: types.ActionAssertText, Text: "Order placed"}},
			{Action: types.Action{Type: types.ActionAssertText, Text: "Receipt"}},
		}},
	}
	script := Build("checkout", "https://example.com", results)
	if strings.Count(script, `getByText('Order placed')`) != 1 {
		t.Fatalf("expected deduplicated assertion, got:\n%s", script)
	}
	if !strings.Contains(script, `getByText('Receipt')`) {
		t.Fatalf("missing second distinct assertion: %s", script)
	}
}

func TestRenderStepDragEmitsCommentOnly(t *testing.T) {
	step := types.RecordedStep{Action: types.Action{Type: types.ActionDrag, X: 1, Y: 2, EndX: 3, EndY: 4}}
	got := renderStep(step)
	if !strings.Contains(got, "not replayable") {
		t.Fatalf("expected drag comment, got %q", got)
	}
}

func TestRenderStepDoneEmitsNothing(t *testing.T) {
	step := types.RecordedStep{Action: types.Action{Type: types.ActionDone, Success: true}}
	if got := renderStep(step); got != "" {
		t.Fatalf("expected empty string for done, got %q", got)
	}
}

func TestRenderStepClickFallsBackToCoordinates(t *testing.T) {
	step := types.RecordedStep{Action: types.Action{Type: types.ActionClick, X: 10, Y: 20}}
	got := renderStep(step)
	if got != "await page.mouse.click(10, 20);" {
		t.Fatalf("got %q", got)
	}
}

func TestRenderStepClickPrefersLocator(t *testing.T) {
	step := types.RecordedStep{
		Action:      types.Action{Type: types.ActionClick, X: 10, Y: 20},
		ElementInfo: &types.ElementInfo{TestID: "submit"},
	}
	got := renderStep(step)
	if got != `page.locator('[data-testid="submit"]').click();` {
		t.Fatalf("got %q", got)
	}
}

func TestRenderStepSelectInputUsesFillFieldHelper(t *testing.T) {
	step := types.RecordedStep{Action: types.Action{Type: types.ActionSelectInput, Field: "Email", Value: "a@b.com"}}
	got := renderStep(step)
	if got != `await fillField(page, 'Email', 'a@b.com');` {
		t.Fatalf("got %q", got)
	}
}

func TestBuildIncludesFillFieldHelperOnce(t *testing.T) {
	script := Build("s", "https://example.com", nil)
	if strings.Count(script, "async function fillField") != 1 {
		t.Fatalf("expected exactly one fillField helper, got:\n%s", script)
	}
}
