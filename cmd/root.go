package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/JustGoscha/zentest/internal/config"
	"github.com/JustGoscha/zentest/internal/logging"
)

var cfgFile string
var zentestConfig *config.Config

// rootCmd is the base command when zentest is called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "zentest",
	Short: "Agentic browser test automation",
	Long: `zentest runs end-to-end browser tests written as plain-English
descriptions, records the resulting interactions as a reusable Playwright
script, replays that script on subsequent runs, and heals the script when
the application under test drifts.

Run 'zentest init' to scaffold a project, then 'zentest run' to execute
your suites.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .zentest/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "V", false, "verbose output")
	rootCmd.PersistentFlags().StringP("env", "e", "", "environment to use")
	rootCmd.PersistentFlags().StringP("project", "p", ".", "project directory")
}

// initConfig reads in config file and ZENTEST_* environment variables.
func initConfig() {
	startTime := time.Now()
	verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
	projectDir, _ := rootCmd.PersistentFlags().GetString("project")

	if err := logging.Initialize(projectDir); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to initialize logging: %v\n", err)
	} else {
		logging.RedirectStandardLog()
	}

	if verbose {
		logging.GetLogger().SetLevel(logging.DEBUG)
	}

	loader := config.NewLoader(projectDir)
	if !loader.IsInitialized() {
		// init/doctor handle the "not initialized" case themselves; other
		// commands fail fast when they try to use a nil zentestConfig.
		return
	}

	cfg, err := loader.Load()
	if err != nil {
		logging.Warn("failed to load config: %v", err)
		return
	}

	if env, _ := rootCmd.PersistentFlags().GetString("env"); env != "" {
		if _, exists := cfg.Envs[env]; exists {
			cfg.Current = env
		}
	}

	zentestConfig = cfg
	if verbose {
		logging.Debug("config initialized in %v (env=%s)", time.Since(startTime), cfg.Current)
	}
}
