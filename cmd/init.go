package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JustGoscha/zentest/internal/config"
	"github.com/JustGoscha/zentest/internal/ui/components"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold a zentest project in the current directory",
	Long: `Init creates a .zentest directory with a config.yaml and an empty
suites directory, prompting for the model provider, API key, and base URL
of the application under test.

Example:
  zentest init`,
	Run: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().Bool("force", false, "reinitialize even if .zentest already exists")
	initCmd.Flags().Bool("non-interactive", false, "skip prompts and use flag/default values")
	initCmd.Flags().String("provider", "anthropic", "model provider (anthropic|openai|openrouter|mock)")
	initCmd.Flags().String("api-key", "", "API key (falls back to the provider's standard env var)")
	initCmd.Flags().String("base-url", "http://localhost:3000", "base URL of the application under test")
}

func runInit(cmd *cobra.Command, args []string) {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Printf("error getting current directory: %v\n", err)
		os.Exit(1)
	}

	loader := config.NewLoader(cwd)
	if loader.IsInitialized() {
		force, _ := cmd.Flags().GetBool("force")
		if !force {
			fmt.Println("zentest is already initialized in this project.")
			fmt.Println("Use --force to reinitialize.")
			os.Exit(1)
		}
	}

	nonInteractive, _ := cmd.Flags().GetBool("non-interactive")

	var cfg *config.Config
	if nonInteractive {
		cfg = configFromFlags(cmd)
	} else {
		var err error
		cfg, err = runInitPrompts(cmd)
		if err != nil {
			fmt.Printf("error during setup: %v\n", err)
			os.Exit(1)
		}
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("warning: %v (edit .zentest/config.yaml before running tests)\n", err)
	}

	configPath := loader.GetConfigPath()
	if err := loader.Save(cfg, configPath); err != nil {
		fmt.Printf("error writing config: %v\n", err)
		os.Exit(1)
	}

	suitesDir := filepath.Join(filepath.Dir(configPath), "..", "suites")
	if err := os.MkdirAll(suitesDir, 0755); err != nil {
		fmt.Printf("error creating suites directory: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("zentest initialized.")
	fmt.Printf("  config: %s\n", configPath)
	fmt.Printf("  suites: %s\n", suitesDir)
	fmt.Println("\nWrite a suite as a markdown file under suites/, then run:")
	fmt.Println("  zentest run <suite>")
}

func configFromFlags(cmd *cobra.Command) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Provider, _ = cmd.Flags().GetString("provider")
	cfg.APIKey, _ = cmd.Flags().GetString("api-key")
	cfg.BaseURL, _ = cmd.Flags().GetString("base-url")
	return cfg
}

func runInitPrompts(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	providerID, err := components.RunSelector("Select a model provider", []components.SelectorOption{
		{ID: "anthropic", Title: "Anthropic", Description: "Claude models"},
		{ID: "openai", Title: "OpenAI", Description: "GPT models"},
		{ID: "openrouter", Title: "OpenRouter", Description: "Routes to many providers"},
		{ID: "mock", Title: "Mock", Description: "No network calls, for trying zentest offline"},
	})
	if err != nil {
		return nil, err
	}
	cfg.Provider = providerID

	if providerID != "mock" {
		apiKey, err := components.RunAutoSuggestInput(
			"API key (leave blank to use the provider's environment variable)",
			"sk-...", "", nil)
		if err != nil {
			return nil, err
		}
		cfg.APIKey = apiKey
	}

	baseURL, err := components.RunAutoSuggestInput(
		"Base URL of the application under test",
		"http://localhost:3000", "http://localhost:3000", nil)
	if err != nil {
		return nil, err
	}
	cfg.BaseURL = baseURL

	headlessID, err := components.RunSelector("Browser mode", []components.SelectorOption{
		{ID: "auto", Title: "Auto", Description: "Headless in CI, headed on a TTY"},
		{ID: "true", Title: "Headless", Description: "Always headless"},
		{ID: "false", Title: "Headed", Description: "Always show the browser window"},
	})
	if err != nil {
		return nil, err
	}
	cfg.Headless = headlessID

	envs, err := promptForEnvironments()
	if err != nil {
		return nil, err
	}
	cfg.Envs = envs

	return cfg, nil
}

// namedEnvironments are the environment slots offered during scaffolding;
// `run --env NAME` selects one of the chosen names at test time.
var namedEnvironments = []components.CheckboxOption{
	{ID: "staging", Title: "staging", Description: "Pre-production, usually behind auth"},
	{ID: "production", Title: "production", Description: "The live site"},
	{ID: "preview", Title: "preview", Description: "A per-branch or per-PR deploy"},
}

// promptForEnvironments lets the user pick zero or more named environments
// to scaffold beyond the default baseUrl, then asks for each one's URL.
func promptForEnvironments() (map[string]config.EnvConfig, error) {
	selected, err := components.RunCheckboxSelection(
		"Scaffold named environments? (optional, space to toggle, enter to confirm none)",
		namedEnvironments)
	if err != nil {
		if _, cancelled := err.(components.ErrSelectionCancelled); cancelled {
			return nil, nil
		}
		return nil, err
	}
	if len(selected) == 0 {
		return nil, nil
	}

	envs := make(map[string]config.EnvConfig, len(selected))
	for _, name := range selected {
		url, err := components.RunAutoSuggestInput(
			fmt.Sprintf("Base URL for %q", name), "https://example.com", "", nil)
		if err != nil {
			return nil, err
		}
		if url != "" {
			envs[name] = config.EnvConfig{URL: url}
		}
	}
	return envs, nil
}
