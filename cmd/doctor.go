package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/JustGoscha/zentest/internal/browser"
	"github.com/JustGoscha/zentest/internal/config"
	"github.com/JustGoscha/zentest/internal/llm"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that zentest can run in this environment",
	Long: `Doctor verifies the environment dependencies zentest needs before a
run can succeed:

  - a project config exists and validates
  - Chrome (or Chromium) is installed and reachable
  - the configured model provider accepts a real request
  - the history database's directory is writable

Example:
  zentest doctor`,
	Run: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) {
	fmt.Println("zentest doctor")
	fmt.Println("==============")
	fmt.Println()

	allPassed := true

	fmt.Print("project initialized... ")
	projectDir, _ := cmd.Root().PersistentFlags().GetString("project")
	loader := config.NewLoader(projectDir)
	if !loader.IsInitialized() {
		fmt.Println("FAILED")
		fmt.Println("  zentest is not initialized in this project.")
		fmt.Println("  Run 'zentest init' to get started.")
		os.Exit(1)
	}
	fmt.Println("ok")

	fmt.Print("config valid... ")
	cfg, err := loader.Load()
	if err != nil {
		fmt.Println("FAILED")
		fmt.Printf("  %v\n", err)
		os.Exit(1)
	}
	fmt.Println("ok")

	fmt.Printf("\n  provider:     %s\n", cfg.Provider)
	fmt.Printf("  agentic model: %s\n", cfg.Models.AgenticModel)
	fmt.Printf("  environment:  %s\n", envLabel(cfg.Current))
	fmt.Printf("  base url:     %s\n\n", cfg.EffectiveBaseURL())

	fmt.Print("chrome available... ")
	if err := checkChrome(cfg); err != nil {
		fmt.Println("FAILED")
		fmt.Printf("  %v\n", err)
		if instructions := browser.PermissionInstructions(err); instructions != "" {
			fmt.Printf("  %s\n", instructions)
		}
		allPassed = false
	} else {
		fmt.Println("ok")
	}

	fmt.Print("model connectivity... ")
	elapsed, err := checkModel(cfg)
	if err != nil {
		fmt.Println("FAILED")
		fmt.Printf("  %v\n", err)
		allPassed = false
	} else {
		fmt.Printf("ok (%.2fs)\n", elapsed.Seconds())
	}

	fmt.Print("history database writable... ")
	if err := checkHistoryDBWritable(cfg); err != nil {
		fmt.Println("FAILED")
		fmt.Printf("  %v\n", err)
		allPassed = false
	} else {
		fmt.Println("ok")
	}

	fmt.Println("\n" + strings.Repeat("-", 40))
	if allPassed {
		fmt.Println("all checks passed")
	} else {
		fmt.Println("some checks failed, see above")
		os.Exit(1)
	}
}

func envLabel(current string) string {
	if current == "" {
		return "(default)"
	}
	return current
}

func checkChrome(cfg *config.Config) error {
	if err := browser.CheckPermissions(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	probe := *cfg
	probe.Headless = "true"
	exec, err := browser.New(ctx, &probe)
	if err != nil {
		return err
	}
	exec.Close()
	return nil
}

func checkModel(cfg *config.Config) (time.Duration, error) {
	client, err := llm.NewClient(llm.Provider(cfg.Provider), llm.Options{
		APIKey: cfg.APIKey,
		Model:  cfg.Models.AgenticModel,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create model client: %w", err)
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err = client.Next(ctx, llm.Request{
		SystemPrompt: "Reply with the single word: ok",
		UserText:     "ping",
	})
	if err != nil {
		return 0, fmt.Errorf("model request failed: %w", err)
	}
	return time.Since(start), nil
}

func checkHistoryDBWritable(cfg *config.Config) error {
	dir := filepath.Dir(cfg.HistoryDB)
	if dir == "" || dir == "." {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("cannot create %s: %w", dir, err)
	}
	probe := filepath.Join(dir, ".zentest-doctor-write-check")
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		return fmt.Errorf("directory %s is not writable: %w", dir, err)
	}
	os.Remove(probe)
	return nil
}
