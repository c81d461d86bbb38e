// Package runner shells out to the Playwright CLI to execute a generated
// script and reports the outcome. It never inspects browser state
// directly; that is the AgenticDriver/BrowserExecutor's job. This is the
// static verification step the HealingOrchestrator gates every tier on.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/JustGoscha/zentest/internal/types"
)

// Runner invokes `npx playwright test` against a generated script and
// parses its JSON reporter output into a types.RunReport.
type Runner struct {
	// WorkDir is the directory containing package.json/playwright.config
	// for the generated project; scriptPath is resolved relative to it
	// when not already absolute.
	WorkDir string
	BaseURL string
}

// New returns a Runner rooted at workDir.
func New(workDir, baseURL string) *Runner {
	return &Runner{WorkDir: workDir, BaseURL: baseURL}
}

// Run executes scriptPath under the Playwright test runner and returns
// the outcome. A non-zero exit code from Playwright is not itself
// treated as an error here; the parsed report's Passed field carries
// that information back to the caller.
func (r *Runner) Run(ctx context.Context, scriptPath string) (types.RunReport, error) {
	reportPath := filepath.Join(os.TempDir(), fmt.Sprintf("zentest-report-%d.json", os.Getpid()))
	defer os.Remove(reportPath)

	cmd := exec.CommandContext(ctx, "npx", "playwright", "test", scriptPath, "--reporter=json")
	cmd.Dir = r.WorkDir
	cmd.Env = append(os.Environ(),
		"PLAYWRIGHT_JSON_OUTPUT_NAME="+reportPath,
		"ZENTEST_BASE_URL="+r.BaseURL,
	)

	// Playwright exits non-zero on any failing test; that's expected and
	// the report file, not the exit code, tells us what happened.
	_ = cmd.Run()

	data, err := os.ReadFile(reportPath)
	if err != nil {
		return types.RunReport{}, fmt.Errorf("read playwright report: %w", err)
	}

	report, err := parseReport(data)
	if err != nil {
		return types.RunReport{}, fmt.Errorf("parse playwright report: %w", err)
	}
	return report, nil
}

type playwrightReport struct {
	Suites []pwSuite `json:"suites"`
}

type pwSuite struct {
	Suites []pwSuite `json:"suites"`
	Specs  []pwSpec  `json:"specs"`
}

type pwSpec struct {
	Title string   `json:"title"`
	Tests []pwTest `json:"tests"`
}

type pwTest struct {
	Results []pwResult `json:"results"`
}

type pwResult struct {
	Status      string         `json:"status"`
	Error       *pwError       `json:"error"`
	Attachments []pwAttachment `json:"attachments"`
}

type pwError struct {
	Message string `json:"message"`
	Stack   string `json:"stack"`
}

type pwAttachment struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// parseReport walks the Playwright JSON reporter's nested suite tree and
// summarizes it into a flat types.RunReport describing the first failure
// found, if any. Split out from Run for testability without a real
// Playwright process.
func parseReport(data []byte) (types.RunReport, error) {
	var report playwrightReport
	if err := json.Unmarshal(data, &report); err != nil {
		return types.RunReport{}, err
	}

	failure, found := findFailure(report.Suites)
	if !found {
		return types.RunReport{Passed: true}, nil
	}
	return failure, nil
}

func findFailure(suites []pwSuite) (types.RunReport, bool) {
	for _, s := range suites {
		if report, ok := findFailure(s.Suites); ok {
			return report, true
		}
		for _, spec := range s.Specs {
			for _, test := range spec.Tests {
				for _, result := range test.Results {
					if result.Status == "passed" {
						continue
					}
					report := types.RunReport{
						Passed:     false,
						FailedTest: spec.Title,
					}
					if result.Error != nil {
						report.ErrorMessage = result.Error.Message
						report.Stack = result.Error.Stack
					}
					for _, att := range result.Attachments {
						if att.Name == "screenshot" && att.Path != "" {
							if data, err := os.ReadFile(att.Path); err == nil {
								report.Screenshot = data
							}
						}
					}
					return report, true
				}
			}
		}
	}
	return types.RunReport{}, false
}
