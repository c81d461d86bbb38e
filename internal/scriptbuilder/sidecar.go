package scriptbuilder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/JustGoscha/zentest/internal/types"
)

// WriteArtifacts renders the script and sidecar for a suite and writes both
// to disk under dir: "<suite>.spec.ts" and "<suite>.steps.json". Screenshots
// are never serialized (RecordedStep.Screenshot has json:"-").
//
// Each step's GeneratedCode is filled in from the same translation the
// script uses, so the sidecar and the script agree on what ran even if the
// Builder's translation table changes between releases.
func WriteArtifacts(dir, suiteName, baseURL string, results []TestResult) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create suite artifact directory: %w", err)
	}

	for i := range results {
		for j := range results[i].Steps {
			results[i].Steps[j].GeneratedCode = renderStep(results[i].Steps[j])
		}
	}

	script := Build(suiteName, baseURL, results)
	scriptPath := filepath.Join(dir, suiteName+".spec.ts")
	if err := os.WriteFile(scriptPath, []byte(script), 0644); err != nil {
		return fmt.Errorf("write script %s: %w", scriptPath, err)
	}

	sidecar := buildSidecar(results)
	data, err := json.MarshalIndent(sidecar, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sidecar: %w", err)
	}
	sidecarPath := filepath.Join(dir, suiteName+".steps.json")
	if err := os.WriteFile(sidecarPath, data, 0644); err != nil {
		return fmt.Errorf("write sidecar %s: %w", sidecarPath, err)
	}

	return nil
}

func buildSidecar(results []TestResult) types.SuiteSidecar {
	sidecar := types.SuiteSidecar{Tests: make([]types.SidecarTest, 0, len(results))}
	for _, r := range results {
		sidecar.Tests = append(sidecar.Tests, types.SidecarTest{
			Name:  r.Test.Name,
			Steps: r.Steps,
		})
	}
	return sidecar
}

// ReadSidecar loads a previously written sidecar. A missing file is not an
// error condition the caller should treat specially here; callers that need
// "absent means re-derive fully" semantics check os.IsNotExist themselves.
func ReadSidecar(dir, suiteName string) (*types.SuiteSidecar, error) {
	path := filepath.Join(dir, suiteName+".steps.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sidecar types.SuiteSidecar
	if err := json.Unmarshal(data, &sidecar); err != nil {
		return nil, fmt.Errorf("parse sidecar %s: %w", path, err)
	}
	return &sidecar, nil
}
