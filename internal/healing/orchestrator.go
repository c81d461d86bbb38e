// Package healing implements the HealingOrchestrator: when a generated
// script fails its static run, recover with the cheapest tier that works
// (spec §4.5) rather than always falling back to a full re-derivation.
package healing

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/JustGoscha/zentest/internal/agent"
	"github.com/JustGoscha/zentest/internal/llm"
	"github.com/JustGoscha/zentest/internal/scriptbuilder"
	"github.com/JustGoscha/zentest/internal/types"
)

// Runner executes a generated script and reports the outcome. Implemented
// by internal/runner's static runner; kept as an interface here so the
// orchestrator's tier logic can be tested without a real child process.
type Runner interface {
	Run(ctx context.Context, scriptPath string) (types.RunReport, error)
}

// Replayer fast-forwards recorded steps without a model. Satisfied by
// *replayer.Replayer.
type Replayer interface {
	Replay(ctx context.Context, steps []types.RecordedStep) error
}

// AgenticRunner drives one test description to completion. Satisfied by
// *agent.Driver.
type AgenticRunner interface {
	RunTest(ctx context.Context, description string, opts agent.Options) (agent.Result, error)
}

// Method names the tier that produced a healed run, matching
// types.RunRecord.HealedBy's closed string set.
type Method string

const (
	MethodNone          Method = ""
	MethodPartialReplay Method = "partial-replay"
	MethodRewrite       Method = "rewrite"
	MethodFullRederive  Method = "full-rederivation"
)

// Result is what Heal returns: whether the suite was recovered, which
// tier recovered it, and the regenerated steps for every test the healer
// touched (for the caller to persist alongside the script).
type Result struct {
	Healed  bool
	Method  Method
	Reason  string
	Results []scriptbuilder.TestResult
}

// Options tunes the rewrite tier's retry budget and lets a caller disable
// the partial-replay tier (spec §4.5 "if Phase 1 disabled").
type Options struct {
	MaxAttempts       int
	SkipPartialReplay bool
}

// Orchestrator drives all three healing tiers for one suite.
type Orchestrator struct {
	agentic   AgenticRunner
	replayer  Replayer
	rewriter  llm.ModelClient
	runner    Runner
	dir       string
	suiteName string
	baseURL   string
}

// New returns an Orchestrator bound to one suite's artifacts.
func New(agentic AgenticRunner, replayer Replayer, rewriter llm.ModelClient, runner Runner, dir, suiteName, baseURL string) *Orchestrator {
	return &Orchestrator{agentic: agentic, replayer: replayer, rewriter: rewriter, runner: runner, dir: dir, suiteName: suiteName, baseURL: baseURL}
}

// DetectDrift reports whether the sidecar is stale relative to suite: any
// test present in suite but absent from the sidecar means the saved
// script no longer matches the source, and the suite must be routed
// directly to agentic re-derivation (spec §4.5).
func (o *Orchestrator) DetectDrift(suite types.TestSuite) (bool, error) {
	sidecar, err := scriptbuilder.ReadSidecar(o.dir, o.suiteName)
	if err != nil {
		return true, nil
	}
	for _, test := range suite.Tests {
		if sidecar.TestByName(test.Name) == nil {
			return true, nil
		}
	}
	return false, nil
}

// Heal recovers suite after a static-run failure described by report,
// trying partial-replay, then smart-rewrite, then full re-derivation, in
// that order, stopping at the first tier whose result verifies.
func (o *Orchestrator) Heal(ctx context.Context, suite types.TestSuite, scriptPath string, report types.RunReport, opts Options) (Result, error) {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}

	if !opts.SkipPartialReplay {
		if result, ok, err := o.tryPartialReplay(ctx, suite, report); err != nil {
			return Result{}, err
		} else if ok {
			return result, nil
		}
	}

	if result, ok, err := o.tryRewrite(ctx, suite, scriptPath, report, opts.MaxAttempts); err != nil {
		return Result{}, err
	} else if ok {
		return result, nil
	}

	return o.fullRederive(ctx, suite)
}

// tryPartialReplay implements tier 1: replay every test before the
// failure, then resume agentically from the failed test onward, sharing
// the page. Any replay error aborts the tier rather than the whole heal.
func (o *Orchestrator) tryPartialReplay(ctx context.Context, suite types.TestSuite, report types.RunReport) (Result, bool, error) {
	sidecar, err := scriptbuilder.ReadSidecar(o.dir, o.suiteName)
	if err != nil {
		return Result{}, false, nil
	}

	failedIndex := indexOfTest(suite.Tests, report.FailedTest)
	if failedIndex < 0 {
		return Result{}, false, nil
	}

	results := make([]scriptbuilder.TestResult, 0, len(suite.Tests))
	for i := 0; i < failedIndex; i++ {
		test := suite.Tests[i]
		sidecarTest := sidecar.TestByName(test.Name)
		if sidecarTest == nil {
			return Result{}, false, nil
		}
		if err := o.replayer.Replay(ctx, sidecarTest.Steps); err != nil {
			return Result{}, false, nil
		}
		results = append(results, scriptbuilder.TestResult{Test: test, Steps: sidecarTest.Steps})
	}

	for i := failedIndex; i < len(suite.Tests); i++ {
		test := suite.Tests[i]
		runResult, err := o.agentic.RunTest(ctx, test.Description, agent.Options{SkipNavigation: true})
		if err != nil {
			return Result{}, false, err
		}
		if !runResult.Success {
			return Result{}, false, nil
		}
		results = append(results, scriptbuilder.TestResult{Test: test, Steps: runResult.Steps})
	}

	if err := scriptbuilder.WriteArtifacts(o.dir, o.suiteName, o.baseURL, results); err != nil {
		return Result{}, false, fmt.Errorf("write regenerated artifacts: %w", err)
	}

	verified, err := o.verify(ctx)
	if err != nil {
		return Result{}, false, err
	}
	if !verified {
		return Result{}, false, nil
	}

	return Result{Healed: true, Method: MethodPartialReplay, Reason: "recovered via partial replay + agentic continuation", Results: results}, true, nil
}

// tryRewrite implements tier 2: ask the healer model for a targeted fix
// to the failing test's body and splice it in, retrying up to maxAttempts
// times against the static runner's fresh error each time.
func (o *Orchestrator) tryRewrite(ctx context.Context, suite types.TestSuite, scriptPath string, report types.RunReport, maxAttempts int) (Result, bool, error) {
	if o.rewriter == nil || report.FailedTest == "" {
		return Result{}, false, nil
	}

	currentReport := report
	for attempt := 0; attempt < maxAttempts; attempt++ {
		script, err := readScript(scriptPath)
		if err != nil {
			return Result{}, false, err
		}

		failingBody, err := extractTestBody(script, currentReport.FailedTest)
		if err != nil {
			return Result{}, false, nil
		}

		decision := requestRewrite(ctx, o.rewriter, currentReport.FailedTest, failingBody, script, currentReport.ErrorMessage, currentReport.Stack, currentReport.Screenshot)
		if decision.Decision != "REWRITE" {
			return Result{}, false, nil
		}

		spliced, err := SpliceTestBody(script, currentReport.FailedTest, decision.NewTestBody)
		if err != nil {
			return Result{}, false, nil
		}
		if err := writeScript(scriptPath, spliced); err != nil {
			return Result{}, false, err
		}

		runReport, err := o.runner.Run(ctx, scriptPath)
		if err != nil {
			return Result{}, false, err
		}
		if runReport.Passed {
			return Result{Healed: true, Method: MethodRewrite, Reason: fmt.Sprintf("recovered via rewrite (%s)", decision.Reasoning)}, true, nil
		}
		currentReport = runReport
	}

	return Result{}, false, nil
}

// fullRederive implements tier 3: rerun the whole suite through the
// AgenticDriver from a fresh navigation, regenerate every artifact, and
// report whatever the verification run decides.
func (o *Orchestrator) fullRederive(ctx context.Context, suite types.TestSuite) (Result, error) {
	results := make([]scriptbuilder.TestResult, 0, len(suite.Tests))
	for i, test := range suite.Tests {
		runResult, err := o.agentic.RunTest(ctx, test.Description, agent.Options{SkipNavigation: i > 0})
		if err != nil {
			return Result{}, err
		}
		if !runResult.Success {
			return Result{Healed: false, Method: MethodFullRederive, Reason: fmt.Sprintf("test %q did not complete: %s", test.Name, runResult.Reason), Results: results}, nil
		}
		results = append(results, scriptbuilder.TestResult{Test: test, Steps: runResult.Steps})
	}

	if err := scriptbuilder.WriteArtifacts(o.dir, o.suiteName, o.baseURL, results); err != nil {
		return Result{}, fmt.Errorf("write regenerated artifacts: %w", err)
	}

	verified, err := o.verify(ctx)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Healed:  verified,
		Method:  MethodFullRederive,
		Reason:  "fully re-derived via AgenticDriver",
		Results: results,
	}, nil
}

// verify re-runs the static runner against the just-written script; only
// a verified pass counts a tier as having healed the suite (spec §4.5).
func (o *Orchestrator) verify(ctx context.Context) (bool, error) {
	scriptPath := scriptPathFor(o.dir, o.suiteName)
	report, err := o.runner.Run(ctx, scriptPath)
	if err != nil {
		return false, err
	}
	return report.Passed, nil
}

func indexOfTest(tests []types.Test, name string) int {
	for i, t := range tests {
		if t.Name == name {
			return i
		}
	}
	return -1
}

func scriptPathFor(dir, suiteName string) string {
	return dir + "/" + suiteName + ".spec.ts"
}

func readScript(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read script %s: %w", path, err)
	}
	return string(data), nil
}

func writeScript(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("write script %s: %w", path, err)
	}
	return nil
}

func extractTestBody(script, testName string) (string, error) {
	declStart := strings.Index(script, "test("+quoteLiteral(testName)+",")
	if declStart < 0 {
		return "", fmt.Errorf("test %q not found in script", testName)
	}
	arrowIdx := strings.Index(script[declStart:], "=> {")
	if arrowIdx < 0 {
		return "", fmt.Errorf("test %q has no async function body", testName)
	}
	bodyOpen := declStart + arrowIdx + len("=> {") - 1
	bodyClose, err := matchingBrace(script, bodyOpen)
	if err != nil {
		return "", err
	}
	return script[bodyOpen+1 : bodyClose], nil
}
