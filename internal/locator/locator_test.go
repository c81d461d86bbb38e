package locator

import (
	"testing"

	"github.com/JustGoscha/zentest/internal/types"
)

func TestDeriveSelectorPrefersTestID(t *testing.T) {
	info := &types.ElementInfo{TestID: "submit-btn", ID: "ignored", Tag: "button"}
	if got := DeriveSelector(info); got != `[data-testid="submit-btn"]` {
		t.Fatalf("got %q", got)
	}
}

func TestDeriveSelectorFallsBackThroughPriority(t *testing.T) {
	cases := []struct {
		name string
		info *types.ElementInfo
		want string
	}{
		{"id", &types.ElementInfo{ID: "login", Tag: "div"}, "#login"},
		{"role+aria", &types.ElementInfo{Role: "button", AriaLabel: "Close", Tag: "div"}, `[role="button"][aria-label="Close"]`},
		{"text on button", &types.ElementInfo{Tag: "button", Text: "Sign in"}, `button:has-text("Sign in")`},
		{"classes", &types.ElementInfo{Tag: "div", Class: "card card-header extra"}, "div.card.card-header"},
		{"bare tag", &types.ElementInfo{Tag: "section"}, "section"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := DeriveSelector(c.info); got != c.want {
				t.Fatalf("got %q, want %q", got, c.want)
			}
		})
	}
}

func TestDeriveSelectorNilInfo(t *testing.T) {
	if got := DeriveSelector(nil); got != "" {
		t.Fatalf("expected empty string for nil info, got %q", got)
	}
}

func TestBuildPlaywrightLocatorTestID(t *testing.T) {
	loc := BuildPlaywrightLocator(&types.ElementInfo{TestID: "email"})
	if !loc.OK || loc.Expr != `page.locator('[data-testid="email"]')` {
		t.Fatalf("got %+v", loc)
	}
}

func TestBuildPlaywrightLocatorRoleAccessibleName(t *testing.T) {
	loc := BuildPlaywrightLocator(&types.ElementInfo{Tag: "input", AriaLabel: "Email address"})
	if !loc.OK || loc.Expr != `page.getByRole('textbox', { name: 'Email address', exact: true })` {
		t.Fatalf("got %+v", loc)
	}
}

func TestBuildPlaywrightLocatorLabelThenPlaceholder(t *testing.T) {
	// For a text input the label, then the placeholder, supplies the
	// accessible name, so the textbox role tier is used.
	byLabel := BuildPlaywrightLocator(&types.ElementInfo{Tag: "input", Label: "Email"})
	if !byLabel.OK || byLabel.Expr != `page.getByRole('textbox', { name: 'Email', exact: true })` {
		t.Fatalf("got %+v", byLabel)
	}

	byPlaceholder := BuildPlaywrightLocator(&types.ElementInfo{Tag: "input", Placeholder: "you@example.com"})
	if !byPlaceholder.OK || byPlaceholder.Expr != `page.getByRole('textbox', { name: 'you@example.com', exact: true })` {
		t.Fatalf("got %+v", byPlaceholder)
	}
}

func TestBuildPlaywrightLocatorInputNeverFallsBackToRawSelector(t *testing.T) {
	loc := BuildPlaywrightLocator(&types.ElementInfo{Tag: "input", Class: "form-control"})
	if loc.OK {
		t.Fatalf("expected no locator for a bare input with only a class, got %+v", loc)
	}
}

func TestBuildPlaywrightLocatorButtonNeverFallsBackToRawSelector(t *testing.T) {
	loc := BuildPlaywrightLocator(&types.ElementInfo{Tag: "button", Class: "btn btn-primary"})
	if loc.OK {
		t.Fatalf("expected no locator for a bare button, got %+v", loc)
	}
}

func TestBuildPlaywrightLocatorGenericTagUsesIDTier(t *testing.T) {
	loc := BuildPlaywrightLocator(&types.ElementInfo{Tag: "div", ID: "panel"})
	if !loc.OK || loc.Expr != `page.locator('#panel')` {
		t.Fatalf("got %+v", loc)
	}
}

func TestBuildPlaywrightLocatorEscapesQuotes(t *testing.T) {
	loc := BuildPlaywrightLocator(&types.ElementInfo{Tag: "a", Text: "It's here"})
	if !loc.OK || loc.Expr != `page.getByText('It\'s here', { exact: true })` {
		t.Fatalf("got %+v", loc)
	}
}
