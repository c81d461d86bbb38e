package scriptbuilder

import (
	"path/filepath"
	"testing"

	"github.com/JustGoscha/zentest/internal/types"
)

func TestWriteArtifactsRoundTripsSidecar(t *testing.T) {
	dir := t.TempDir()
	results := []TestResult{
		{Test: types.Test{Name: "login"}, Steps: []types.RecordedStep{
			{Action: types.Action{Type: types.ActionClickButton, Name: "Sign in", Exact: true}},
		}},
	}

	if err := WriteArtifacts(dir, "auth", "https://example.com", results); err != nil {
		t.Fatalf("WriteArtifacts: %v", err)
	}

	if _, err := filepath.Glob(filepath.Join(dir, "auth.spec.ts")); err != nil {
		t.Fatalf("glob: %v", err)
	}

	sidecar, err := ReadSidecar(dir, "auth")
	if err != nil {
		t.Fatalf("ReadSidecar: %v", err)
	}
	if len(sidecar.Tests) != 1 || sidecar.Tests[0].Name != "login" {
		t.Fatalf("got %+v", sidecar)
	}
	if sidecar.Tests[0].Steps[0].GeneratedCode == "" {
		t.Fatalf("expected GeneratedCode to be filled in before persisting")
	}
}

func TestReadSidecarMissingFileErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := ReadSidecar(dir, "nonexistent"); err == nil {
		t.Fatalf("expected error for missing sidecar")
	}
}
