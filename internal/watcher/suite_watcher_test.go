package watcher

import (
	"testing"
	"time"
)

func TestIsSuiteFileAcceptsMarkdownOnly(t *testing.T) {
	cases := map[string]bool{
		"checkout.md":  true,
		"CHECKOUT.MD":  true,
		"checkout.txt": false,
		"checkout.go":  false,
		"checkout":     false,
	}
	for path, want := range cases {
		if got := isSuiteFile(path); got != want {
			t.Errorf("isSuiteFile(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestDrainReadyOnlyReturnsFilesPastDebounceWindow(t *testing.T) {
	w := &SuiteWatcher{
		debounce: 100 * time.Millisecond,
		pendingFiles: map[string]time.Time{
			"old.md": time.Now().Add(-200 * time.Millisecond),
			"new.md": time.Now(),
		},
	}
	ready := w.drainReady(time.Now())
	if len(ready) != 1 || ready[0] != "old.md" {
		t.Fatalf("expected only old.md to be ready, got %+v", ready)
	}
	if _, stillPending := w.pendingFiles["new.md"]; !stillPending {
		t.Fatal("new.md should remain pending")
	}
	if _, stillPending := w.pendingFiles["old.md"]; stillPending {
		t.Fatal("old.md should have been drained")
	}
}

func TestDrainReadyEmptyWhenNothingPending(t *testing.T) {
	w := &SuiteWatcher{debounce: 100 * time.Millisecond, pendingFiles: map[string]time.Time{}}
	if ready := w.drainReady(time.Now()); len(ready) != 0 {
		t.Fatalf("expected no ready files, got %+v", ready)
	}
}
