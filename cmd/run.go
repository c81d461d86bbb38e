package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/JustGoscha/zentest/internal/agent"
	"github.com/JustGoscha/zentest/internal/browser"
	"github.com/JustGoscha/zentest/internal/config"
	"github.com/JustGoscha/zentest/internal/healing"
	"github.com/JustGoscha/zentest/internal/history"
	"github.com/JustGoscha/zentest/internal/live"
	"github.com/JustGoscha/zentest/internal/llm"
	"github.com/JustGoscha/zentest/internal/logging"
	"github.com/JustGoscha/zentest/internal/replayer"
	"github.com/JustGoscha/zentest/internal/runner"
	"github.com/JustGoscha/zentest/internal/scriptbuilder"
	"github.com/JustGoscha/zentest/internal/suite"
	"github.com/JustGoscha/zentest/internal/tui"
	"github.com/JustGoscha/zentest/internal/types"
	"github.com/JustGoscha/zentest/internal/watcher"
)

const maxRunsPerSuite = 10

var runCmd = &cobra.Command{
	Use:   "run [suite]",
	Short: "Run one or all suites",
	Long: `Run executes every test in a suite, healing the generated script if
the application under test has drifted since it was last recorded.

With no suite argument, every ".md" file under the suites directory runs.

Example:
  zentest run checkout
  zentest run --agentic --live`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("agentic", false, "force full agentic re-derivation, ignoring any saved script")
	runCmd.Flags().Bool("no-heal", false, "report static-run failures instead of healing them")
	runCmd.Flags().Bool("headless", false, "run the browser headless")
	runCmd.Flags().Bool("headed", false, "show the browser window")
	runCmd.Flags().Bool("watch", false, "rerun the suite whenever its file changes")
	runCmd.Flags().Bool("live", false, "start the websocket live-view server for this run")
}

func runRun(cmd *cobra.Command, args []string) error {
	if zentestConfig == nil {
		return fmt.Errorf("zentest is not initialized in this project; run 'zentest init'")
	}
	cfg := *zentestConfig

	if headless, _ := cmd.Flags().GetBool("headless"); headless {
		cfg.Headless = "true"
	}
	if headed, _ := cmd.Flags().GetBool("headed"); headed {
		cfg.Headless = "false"
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	agentic, _ := cmd.Flags().GetBool("agentic")
	noHeal, _ := cmd.Flags().GetBool("no-heal")
	watchFlag, _ := cmd.Flags().GetBool("watch")
	liveFlag, _ := cmd.Flags().GetBool("live")

	projectDir, _ := cmd.Flags().GetString("project")
	loader := config.NewLoader(projectDir)
	root, err := loader.GetProjectRoot()
	if err != nil {
		root = projectDir
	}
	suitesDir := filepath.Join(root, "suites")

	var suiteArg string
	if len(args) == 1 {
		suiteArg = args[0]
	}

	store, err := history.New(filepath.Join(root, cfg.HistoryDB))
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer store.Close()

	var broadcaster *live.Broadcaster
	if liveFlag {
		broadcaster = live.NewBroadcaster()
		go broadcaster.Run()
		defer broadcaster.Stop()

		mux := http.NewServeMux()
		mux.Handle("/live", broadcaster)
		server := &http.Server{Addr: ":4849", Handler: mux}
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logging.Error("live server: %v", err)
			}
		}()
		defer server.Close()
		fmt.Println("live view: ws://localhost:4849/live")
	}

	runOnce := func() (bool, error) {
		files, err := resolveSuiteFiles(suitesDir, suiteArg)
		if err != nil {
			return false, err
		}
		if len(files) == 0 {
			return false, fmt.Errorf("no suites found under %s", suitesDir)
		}

		allPassed := true
		for _, path := range files {
			passed, err := runSuiteFile(cmd.Context(), &cfg, path, runFlags{
				agentic:     agentic,
				noHeal:      noHeal,
				verbose:     verbose,
				store:       store,
				broadcaster: broadcaster,
			})
			if err != nil {
				return false, err
			}
			allPassed = allPassed && passed
		}
		return allPassed, nil
	}

	if watchFlag {
		return watchAndRun(suitesDir, runOnce)
	}

	passed, err := runOnce()
	if err != nil {
		return err
	}
	if !passed {
		os.Exit(1)
	}
	return nil
}

type runFlags struct {
	agentic     bool
	noHeal      bool
	verbose     bool
	store       *history.RunStore
	broadcaster *live.Broadcaster
}

// broadcastAdapter reconciles agent.Broadcaster's Broadcast method with
// live.Broadcaster's Publish, and fans the same events into a bubbletea
// program so the TUI and the websocket feed share one publisher.
type broadcastAdapter struct {
	live *live.Broadcaster
	prog *tea.Program
}

func (a broadcastAdapter) Broadcast(event types.LiveEvent) {
	if a.live != nil {
		a.live.Publish(event)
	}
	if a.prog == nil {
		return
	}
	switch event.Kind {
	case types.LiveEventStep:
		if step, ok := event.Payload.(types.RecordedStep); ok {
			a.prog.Send(tui.StepMsg{TestName: event.Test, ActionDesc: actionDescription(step.Action)})
		}
	case types.LiveEventResult:
		if passed, ok := event.Payload.(bool); ok {
			status := tui.StatusPassed
			if !passed {
				status = tui.StatusFailed
			}
			a.prog.Send(tui.ResultMsg{TestName: event.Test, Status: status})
		}
	}
}

func actionDescription(action types.Action) string {
	switch {
	case action.Text != "" && action.Name != "":
		return fmt.Sprintf("%s %q on %s", action.Type, action.Text, action.Name)
	case action.Name != "":
		return fmt.Sprintf("%s %s", action.Type, action.Name)
	case action.Text != "":
		return fmt.Sprintf("%s %q", action.Type, action.Text)
	default:
		return string(action.Type)
	}
}

func runSuiteFile(ctx context.Context, cfg *config.Config, path string, flags runFlags) (bool, error) {
	ts, err := suite.ParseFile(path)
	if err != nil {
		return false, fmt.Errorf("parse suite %s: %w", path, err)
	}
	if len(ts.Tests) == 0 {
		fmt.Printf("%s: no tests, skipping\n", ts.Name)
		return true, nil
	}

	dir := filepath.Dir(path)
	baseURL := cfg.EffectiveBaseURL()
	startedAt := time.Now()

	var prog *tea.Program
	interactive := !flags.verbose && isTTY()
	if interactive {
		testNames := make([]string, len(ts.Tests))
		for i, t := range ts.Tests {
			testNames[i] = t.Name
		}
		model := tui.NewModel(ts.Name, testNames)
		prog = tea.NewProgram(model)
		go prog.Run()
		defer prog.Send(tui.DoneMsg{})
	}
	broadcaster := broadcastAdapter{live: flags.broadcaster, prog: prog}

	exec, err := browser.New(ctx, cfg)
	if err != nil {
		return false, fmt.Errorf("start browser: %w", err)
	}
	defer exec.Close()

	agenticModel, err := llm.NewClient(llm.Provider(cfg.Provider), llm.Options{APIKey: cfg.APIKey, Model: cfg.Models.AgenticModel})
	if err != nil {
		return false, fmt.Errorf("create model client: %w", err)
	}

	scriptPath := filepath.Join(dir, ts.Name+".spec.ts")
	orchestrator := healing.New(
		newAgenticRunner(exec, agenticModel, baseURL, ts.Name, broadcaster),
		replayer.New(exec),
		agenticModel,
		runner.New(dir, baseURL),
		dir, ts.Name, baseURL,
	)

	needsDerivation := flags.agentic
	if !needsDerivation {
		if _, err := os.Stat(scriptPath); err != nil {
			needsDerivation = true
		}
	}
	if !needsDerivation {
		if drift, err := orchestrator.DetectDrift(ts); err == nil && drift {
			needsDerivation = true
		}
	}

	var (
		passed       bool
		failedTest   string
		errorMessage string
		screenshot   []byte
		healedBy     string
		totalActions int
		usage        types.UsageStats
	)

	switch {
	case needsDerivation:
		results, ok, reason, driverUsage, err := deriveSuite(ctx, exec, agenticModel, baseURL, ts, broadcaster)
		usage.Add(driverUsage)
		if err != nil {
			return false, err
		}
		if ok {
			if err := scriptbuilder.WriteArtifacts(dir, ts.Name, baseURL, results); err != nil {
				return false, fmt.Errorf("write artifacts: %w", err)
			}
			passed = true
		} else {
			failedTest = reason.test
			errorMessage = reason.message
		}
		for _, r := range results {
			totalActions += len(r.Steps)
		}

	default:
		report, err := runner.New(dir, baseURL).Run(ctx, scriptPath)
		if err != nil {
			return false, fmt.Errorf("run script: %w", err)
		}
		if report.Passed {
			passed = true
		} else if flags.noHeal {
			failedTest, errorMessage, screenshot = report.FailedTest, report.ErrorMessage, report.Screenshot
		} else {
			healResult, err := orchestrator.Heal(ctx, ts, scriptPath, report, healing.Options{MaxAttempts: cfg.Healing.MaxAttempts})
			if err != nil {
				return false, fmt.Errorf("heal suite: %w", err)
			}
			passed = healResult.Healed
			healedBy = string(healResult.Method)
			if !passed {
				failedTest, errorMessage = report.FailedTest, report.ErrorMessage
			}
			for _, r := range healResult.Results {
				totalActions += len(r.Steps)
			}
		}
	}

	finishedAt := time.Now()
	printResultLine(ts.Name, passed, failedTest, errorMessage, finishedAt.Sub(startedAt))

	rec := types.RunRecord{
		Suite:        ts.Name,
		StartedAt:    startedAt.UnixMilli(),
		FinishedAt:   finishedAt.UnixMilli(),
		HealedBy:     healedBy,
		TotalActions: totalActions,
		TokenUsage:   usage,
	}
	if passed {
		rec.Passed = len(ts.Tests)
	} else {
		rec.Failed = 1
		rec.Passed = len(ts.Tests) - 1
	}
	if err := flags.store.Record(rec); err != nil {
		logging.Warn("failed to record run history: %v", err)
	}

	if err := persistRunArtifacts(projectRootOf(dir), ts.Name, startedAt, passed, errorMessage, screenshot); err != nil {
		logging.Warn("failed to persist run artifacts: %v", err)
	}

	return passed, nil
}

type failureReason struct {
	test    string
	message string
}

// deriveSuite runs every test in ts through the AgenticDriver in order,
// stopping at the first failure. Steps from tests that ran before the
// failure are still returned so a partial script can be written.
func deriveSuite(ctx context.Context, exec *browser.Executor, model llm.ModelClient, baseURL string, ts types.TestSuite, b agent.Broadcaster) ([]scriptbuilder.TestResult, bool, failureReason, types.UsageStats, error) {
	var (
		results []scriptbuilder.TestResult
		usage   types.UsageStats
	)
	for i, test := range ts.Tests {
		driver := agent.New(exec, model, baseURL, ts.Name, test.Name, b)
		result, err := driver.RunTest(ctx, test.Description, agent.Options{SkipNavigation: i > 0})
		usage.Add(result.Usage)
		if err != nil {
			return results, false, failureReason{}, usage, err
		}
		b.Broadcast(types.LiveEvent{Kind: types.LiveEventResult, Suite: ts.Name, Test: test.Name, Payload: result.Success})
		if !result.Success {
			return results, false, failureReason{test: test.Name, message: result.Reason}, usage, nil
		}
		results = append(results, scriptbuilder.TestResult{Test: test, Steps: result.Steps})
	}
	return results, true, failureReason{}, usage, nil
}

// newAgenticRunner adapts an already-open Executor and model into the
// healing.AgenticRunner shape, reusing the same browser session the
// orchestrator's other tiers already share.
func newAgenticRunner(exec *browser.Executor, model llm.ModelClient, baseURL, suiteName string, b agent.Broadcaster) healing.AgenticRunner {
	return agenticRunnerFunc(func(ctx context.Context, description string, opts agent.Options) (agent.Result, error) {
		return agent.New(exec, model, baseURL, suiteName, "", b).RunTest(ctx, description, opts)
	})
}

type agenticRunnerFunc func(ctx context.Context, description string, opts agent.Options) (agent.Result, error)

func (f agenticRunnerFunc) RunTest(ctx context.Context, description string, opts agent.Options) (agent.Result, error) {
	return f(ctx, description, opts)
}

func printResultLine(name string, passed bool, failedTest, message string, dur time.Duration) {
	status := "PASS"
	if !passed {
		status = "FAIL"
	}
	fmt.Printf("[%s] %s (%s)", status, name, dur.Round(time.Millisecond))
	if !passed && failedTest != "" {
		fmt.Printf(" - %s: %s", failedTest, message)
	}
	fmt.Println()
}

func persistRunArtifacts(root, suiteName string, startedAt time.Time, passed bool, errorMessage string, screenshot []byte) error {
	runDir := filepath.Join(root, "runs", fmt.Sprintf("%s-%s", suiteName, startedAt.UTC().Format("20060102T150405Z")))
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return err
	}

	results := map[string]any{"suite": suiteName, "passed": passed, "startedAt": startedAt}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(runDir, "results.json"), data, 0644); err != nil {
		return err
	}

	if errorMessage != "" {
		os.WriteFile(filepath.Join(runDir, "error.txt"), []byte(errorMessage), 0644)
	}
	if len(screenshot) > 0 {
		os.WriteFile(filepath.Join(runDir, "failure.png"), screenshot, 0644)
	}

	return pruneOldRuns(filepath.Join(root, "runs"), suiteName)
}

func pruneOldRuns(runsDir, suiteName string) error {
	entries, err := os.ReadDir(runsDir)
	if err != nil {
		return err
	}
	var matching []os.DirEntry
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), suiteName+"-") {
			matching = append(matching, e)
		}
	}
	if len(matching) <= maxRunsPerSuite {
		return nil
	}
	sort.Slice(matching, func(i, j int) bool { return matching[i].Name() < matching[j].Name() })
	for _, e := range matching[:len(matching)-maxRunsPerSuite] {
		os.RemoveAll(filepath.Join(runsDir, e.Name()))
	}
	return nil
}

func projectRootOf(suiteDir string) string {
	return filepath.Dir(suiteDir)
}

func resolveSuiteFiles(suitesDir, arg string) ([]string, error) {
	if arg != "" {
		candidate := arg
		if !strings.HasSuffix(candidate, ".md") {
			candidate = filepath.Join(suitesDir, arg+".md")
		} else if !filepath.IsAbs(candidate) {
			if _, err := os.Stat(candidate); err != nil {
				candidate = filepath.Join(suitesDir, candidate)
			}
		}
		if _, err := os.Stat(candidate); err != nil {
			return nil, fmt.Errorf("suite not found: %s", arg)
		}
		return []string{candidate}, nil
	}

	entries, err := os.ReadDir(suitesDir)
	if err != nil {
		return nil, fmt.Errorf("read suites directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".md") {
			files = append(files, filepath.Join(suitesDir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func watchAndRun(suitesDir string, runOnce func() (bool, error)) error {
	w, err := watcher.New(suitesDir, watcher.DefaultConfig())
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	w.SetChangeCallback(func(path string) error {
		fmt.Printf("\n%s changed, rerunning...\n", filepath.Base(path))
		_, err := runOnce()
		return err
	})

	if _, err := runOnce(); err != nil {
		return err
	}

	fmt.Println("watching for changes (ctrl+c to stop)...")
	return w.Run(context.Background())
}

func isTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
