package suite

import "testing"

func TestParseSuiteNameFromHeading(t *testing.T) {
	content := []byte("# Checkout Flow\n\n## adds item to cart\nUser adds a shirt to the cart.\n")
	got := Parse("fallback", content)
	if got.Name != "Checkout Flow" {
		t.Fatalf("expected suite name %q, got %q", "Checkout Flow", got.Name)
	}
	if len(got.Tests) != 1 || got.Tests[0].Name != "adds item to cart" {
		t.Fatalf("unexpected tests: %+v", got.Tests)
	}
}

func TestParseFallsBackToDefaultName(t *testing.T) {
	content := []byte("## logs in\nUser logs in with valid credentials.\n")
	got := Parse("login", content)
	if got.Name != "login" {
		t.Fatalf("expected fallback name %q, got %q", "login", got.Name)
	}
}

func TestParseMultipleTestsWithMultilineDescriptions(t *testing.T) {
	content := []byte(`# Suite

## first test
Line one of the description.
Line two of the description.

## second test
Just one line.
`)
	got := Parse("fallback", content)
	if len(got.Tests) != 2 {
		t.Fatalf("expected 2 tests, got %d: %+v", len(got.Tests), got.Tests)
	}
	if got.Tests[0].Name != "first test" || got.Tests[1].Name != "second test" {
		t.Fatalf("unexpected test names: %+v", got.Tests)
	}
	wantDesc := "Line one of the description.\nLine two of the description."
	if got.Tests[0].Description != wantDesc {
		t.Fatalf("unexpected description:\n%q\nwant:\n%q", got.Tests[0].Description, wantDesc)
	}
}

func TestParseDropsEmptyTests(t *testing.T) {
	content := []byte("## empty test\n\n## real test\nHas a body.\n")
	got := Parse("fallback", content)
	if len(got.Tests) != 1 || got.Tests[0].Name != "real test" {
		t.Fatalf("expected only the non-empty test to survive, got %+v", got.Tests)
	}
}

func TestParseEmptyFileYieldsNoTests(t *testing.T) {
	got := Parse("fallback", []byte(""))
	if len(got.Tests) != 0 {
		t.Fatalf("expected no tests for empty content, got %+v", got.Tests)
	}
	if got.Name != "fallback" {
		t.Fatalf("expected fallback name preserved, got %q", got.Name)
	}
}
