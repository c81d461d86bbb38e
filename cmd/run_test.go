package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/JustGoscha/zentest/internal/types"
)

func TestActionDescription(t *testing.T) {
	cases := []struct {
		name   string
		action types.Action
		want   string
	}{
		{"name and text", types.Action{Type: types.ActionSelectInput, Name: "Country", Text: "Canada"}, `select_input "Canada" on Country`},
		{"name only", types.Action{Type: types.ActionClickButton, Name: "Submit"}, "click_button Submit"},
		{"text only", types.Action{Type: types.ActionTypeText, Text: "hello"}, `type "hello"`},
		{"neither", types.Action{Type: types.ActionWait}, "wait"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := actionDescription(c.action); got != c.want {
				t.Fatalf("got %q, want %q", got, c.want)
			}
		})
	}
}

func TestResolveSuiteFilesSingleSuite(t *testing.T) {
	dir := t.TempDir()
	suitesDir := filepath.Join(dir, "suites")
	if err := os.MkdirAll(suitesDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(suitesDir, "checkout.md"), []byte("# checkout\n"), 0644); err != nil {
		t.Fatal(err)
	}

	files, err := resolveSuiteFiles(suitesDir, "checkout")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 1 || files[0] != filepath.Join(suitesDir, "checkout.md") {
		t.Fatalf("got %v", files)
	}
}

func TestResolveSuiteFilesMissingSuite(t *testing.T) {
	dir := t.TempDir()
	suitesDir := filepath.Join(dir, "suites")
	if err := os.MkdirAll(suitesDir, 0755); err != nil {
		t.Fatal(err)
	}

	if _, err := resolveSuiteFiles(suitesDir, "nope"); err == nil {
		t.Fatal("expected error for missing suite")
	}
}

func TestResolveSuiteFilesAllSortedMarkdownOnly(t *testing.T) {
	dir := t.TempDir()
	suitesDir := filepath.Join(dir, "suites")
	if err := os.MkdirAll(suitesDir, 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"zebra.md", "alpha.md", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(suitesDir, name), []byte("# suite\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	files, err := resolveSuiteFiles(suitesDir, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 markdown suites, got %v", files)
	}
	if filepath.Base(files[0]) != "alpha.md" || filepath.Base(files[1]) != "zebra.md" {
		t.Fatalf("expected sorted order, got %v", files)
	}
}

func TestPruneOldRunsKeepsMostRecent(t *testing.T) {
	dir := t.TempDir()

	// maxRunsPerSuite is 10; create 12 checkout runs plus one unrelated
	// suite's run dir that pruning must never touch.
	for i := 1; i <= 12; i++ {
		name := fmt.Sprintf("checkout-202601%02dT000000Z", i)
		if err := os.MkdirAll(filepath.Join(dir, name), 0755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(filepath.Join(dir, "other-20260101T000000Z"), 0755); err != nil {
		t.Fatal(err)
	}

	if err := pruneOldRuns(dir, "checkout"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}

	var checkoutRuns, otherRuns int
	for _, e := range entries {
		switch {
		case filepath.Base(e.Name())[:9] == "checkout-":
			checkoutRuns++
		default:
			otherRuns++
		}
	}
	if checkoutRuns != maxRunsPerSuite {
		t.Fatalf("expected %d checkout runs to remain, got %d", maxRunsPerSuite, checkoutRuns)
	}
	if otherRuns != 1 {
		t.Fatalf("expected the unrelated suite's run dir to survive pruning, got %d", otherRuns)
	}
}
