// Package main provides the delib CLI entry point.
// delib generates tabular reports from virtual deliberation session exports.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/delib-cli/cmd"
	"github.com/otherjamesbrown/delib-cli/config"
	"github.com/otherjamesbrown/delib-cli/pkg/buildinfo"
	"github.com/otherjamesbrown/delib-cli/pkg/logging"
)

// Global flags and state.
var (
	cfgFile string
	debug   bool
	runLog  string

	// cfg holds the loaded configuration.
	cfg *config.CLIConfig

	// appLogger is the shared logger built in PersistentPreRunE.
	appLogger logging.Logger

	// runLogSink is the optional run-log file sink; flushed on exit.
	runLogSink *logging.FileSink

	// Command deps shared with the cmd package.
	reportDeps = cmd.DefaultReportDeps()
	rollupDeps = cmd.DefaultRollupDeps()
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "delib",
	Short: "delib - Deliberation session report generator",
	Long: `delib turns JSON exports from a multi-room virtual deliberation
platform into CSV reports.

Each export file captures one session: its rooms, the participants with
their speak and disconnect blocks, the moderated transcript, and poll
events. delib reads those files and produces two kinds of reports:

COMMON WORKFLOWS:
  Per-session sheets:   delib report ./exports/
  Participant rollups:  delib rollup ./events/
  Preview a run:        delib report ./exports/ --dry-run
  Machine summaries:    delib report ./exports/ --output json

DISCOVERY:
  delib <command> --help    Flags and examples for any command
  delib config show         Current configuration
  delib version             Build information`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for commands that don't need it.
		if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		// Load configuration.
		var err error
		if cfgFile != "" {
			cfg, err = config.LoadConfigFrom(cfgFile)
		} else {
			cfg, err = config.LoadConfig()
		}
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}

		// Override with command-line flags.
		if debug {
			cfg.Debug = true
		}
		if runLog != "" {
			cfg.RunLog = runLog
		}

		if err := setupLogging(cfg); err != nil {
			return err
		}

		// Hand the loaded config and logger to the subcommands.
		reportDeps.Logger = appLogger
		reportDeps.LoadConfig = loadedConfig
		rollupDeps.Logger = appLogger
		rollupDeps.LoadConfig = loadedConfig

		return nil
	},
}

// loadedConfig returns the configuration loaded by PersistentPreRunE.
func loadedConfig() (*config.CLIConfig, error) {
	if cfg != nil {
		return cfg, nil
	}
	return config.LoadConfig()
}

// setupLogging builds the shared logger, attaching a run-log file sink
// when one is configured.
func setupLogging(cfg *config.CLIConfig) error {
	logCfg := logging.DefaultConfig()
	if cfg.Debug {
		logCfg.Level = logging.LevelDebug
	}

	if cfg.RunLog != "" {
		path, err := config.ExpandPath(cfg.RunLog)
		if err != nil {
			return fmt.Errorf("invalid run-log path: %w", err)
		}
		sink, err := logging.NewFileSink(logging.FileSinkConfig{Path: path})
		if err != nil {
			return fmt.Errorf("opening run log: %w", err)
		}
		runLogSink = sink
		logCfg.Sinks = append(logCfg.Sinks, sink)
	}

	appLogger = logging.NewLogger(logCfg)
	return nil
}

// Version command flags.
var versionOutputJSON bool

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print the version, commit hash, and build time of the delib CLI.

Examples:
  delib version
  delib version --output-json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := buildinfo.Get("delib")

		if versionOutputJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "delib version %s\n", info.Version)
		fmt.Fprintf(out, "  commit:     %s\n", info.Commit)
		fmt.Fprintf(out, "  built:      %s\n", info.BuildTime)
		fmt.Fprintf(out, "  go version: %s\n", info.GoVersion)
		return nil
	},
}

// configCmd manages CLI configuration.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long:  `View and modify the delib CLI configuration settings.`,
}

// configShowCmd displays current configuration.
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current CLI configuration values.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Load config (uses PersistentPreRunE, so cfg is already loaded).
		if cfg == nil {
			var err error
			cfg, err = config.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
		}

		configPath, _ := config.ConfigPath()

		fmt.Println("Current configuration:")
		fmt.Printf("  Config file:     %s\n", configPath)
		fmt.Printf("  Output dir:      %s\n", cfg.OutputDir)
		fmt.Printf("  Exclude names:   %s\n", strings.Join(cfg.ExcludeScreenNames, ", "))
		fmt.Printf("  Rollup prefix:   %s\n", cfg.RollupPrefix)
		fmt.Printf("  Concurrency:     %d\n", cfg.Concurrency)
		fmt.Printf("  BOM:             %t\n", cfg.BOM)
		fmt.Printf("  Overwrite:       %t\n", cfg.Overwrite)
		fmt.Printf("  Run log:         %s\n", valueOrDefault(cfg.RunLog, "(not set)"))
		fmt.Printf("  Debug:           %t\n", cfg.Debug)

		return nil
	},
}

// configInitCmd initializes configuration.
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration file",
	Long:  `Create a new configuration file with default values if one doesn't exist.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := config.ConfigPath()
		if err != nil {
			return fmt.Errorf("getting config path: %w", err)
		}

		// Check if config already exists.
		if _, err := os.Stat(configPath); err == nil {
			fmt.Printf("Configuration file already exists: %s\n", configPath)
			fmt.Println("Use 'delib config show' to view current settings.")
			return nil
		}

		// Create default config.
		defaultCfg := config.DefaultConfig()
		if err := config.SaveConfig(defaultCfg); err != nil {
			return fmt.Errorf("saving configuration: %w", err)
		}

		fmt.Printf("Created configuration file: %s\n", configPath)
		fmt.Println("\nDefault settings:")
		fmt.Printf("  Output dir:    %s\n", defaultCfg.OutputDir)
		fmt.Printf("  Exclude names: %s\n", strings.Join(defaultCfg.ExcludeScreenNames, ", "))
		fmt.Printf("  Rollup prefix: %s\n", defaultCfg.RollupPrefix)

		return nil
	},
}

// configSetCmd sets a configuration value.
var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the config file.

Available keys:
  output_dir            - Directory report files are written into
  exclude_screen_names  - Comma-separated screen names to exclude
  rollup_prefix         - File name prefix for rollup outputs
  concurrency           - Session files processed at once
  bom                   - Prepend a UTF-8 BOM to CSV files (true/false)
  overwrite             - Replace existing report files (true/false)
  run_log               - Path for a JSON-lines run log (supports ~)
  debug                 - Enable debug mode (true/false)

Examples:
  delib config set output_dir ~/reports
  delib config set exclude_screen_names "Record,Tech Support"
  delib config set rollup_prefix summit
  delib config set bom true`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		// Load current config.
		currentCfg, err := config.LoadConfig()
		if err != nil {
			// If config doesn't exist, start with defaults.
			currentCfg = config.DefaultConfig()
		}

		// Set the value.
		switch key {
		case "output_dir":
			currentCfg.OutputDir = value
		case "exclude_screen_names":
			var names []string
			for _, name := range strings.Split(value, ",") {
				if trimmed := strings.TrimSpace(name); trimmed != "" {
					names = append(names, trimmed)
				}
			}
			currentCfg.ExcludeScreenNames = names
		case "rollup_prefix":
			currentCfg.RollupPrefix = value
		case "concurrency":
			n, err := strconv.Atoi(value)
			if err != nil || n < 1 {
				return fmt.Errorf("invalid concurrency value: %s (must be a positive integer)", value)
			}
			currentCfg.Concurrency = n
		case "bom":
			b, err := parseBool(value)
			if err != nil {
				return fmt.Errorf("invalid bom value: %s (must be true or false)", value)
			}
			currentCfg.BOM = b
		case "overwrite":
			b, err := parseBool(value)
			if err != nil {
				return fmt.Errorf("invalid overwrite value: %s (must be true or false)", value)
			}
			currentCfg.Overwrite = b
		case "run_log":
			// Validate the path is expandable; store the original for readability.
			expanded, err := config.ExpandPath(value)
			if err != nil {
				return fmt.Errorf("invalid run log path: %w", err)
			}
			currentCfg.RunLog = value
			fmt.Printf("  (expands to: %s)\n", expanded)
		case "debug":
			b, err := parseBool(value)
			if err != nil {
				return fmt.Errorf("invalid debug value: %s (must be true or false)", value)
			}
			currentCfg.Debug = b
		default:
			return fmt.Errorf("unknown configuration key: %s", key)
		}

		// Save the config.
		if err := config.SaveConfig(currentCfg); err != nil {
			return fmt.Errorf("saving configuration: %w", err)
		}

		fmt.Printf("Set %s = %s\n", key, value)
		return nil
	},
}

// completionCmd generates shell completion scripts.
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for delib.

To load completions:

Bash:
  $ source <(delib completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ delib completion bash > /etc/bash_completion.d/delib
  # macOS:
  $ delib completion bash > $(brew --prefix)/etc/bash_completion.d/delib

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ delib completion zsh > "${fpath[1]}/_delib"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ delib completion fish | source

  # To load completions for each session, execute once:
  $ delib completion fish > ~/.config/fish/completions/delib.fish

PowerShell:
  PS> delib completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> delib completion powershell > delib.ps1
  # and source this file from your PowerShell profile.
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			return rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			return rootCmd.GenFishCompletion(os.Stdout, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(os.Stdout)
		default:
			return fmt.Errorf("unsupported shell: %s", args[0])
		}
	},
}

// valueOrDefault returns value, or def when value is empty.
func valueOrDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}

// parseBool parses a true/false config value.
func parseBool(value string) (bool, error) {
	switch value {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("not a boolean: %s", value)
	}
}

func init() {
	// Global flags.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ~/.delib/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&runLog, "run-log", "", "Append a JSON-lines log of the run to this file")

	rootCmd.AddGroup(
		&cobra.Group{ID: "reports", Title: "Reports:"},
		&cobra.Group{ID: "setup", Title: "Setup:"},
	)

	// Reports
	reportCmd := cmd.NewReportCommand(reportDeps)
	reportCmd.GroupID = "reports"
	rootCmd.AddCommand(reportCmd)

	rollupCmd := cmd.NewRollupCommand(rollupDeps)
	rollupCmd.GroupID = "reports"
	rootCmd.AddCommand(rollupCmd)

	// Setup
	configCmd.GroupID = "setup"
	rootCmd.AddCommand(configCmd)

	completionCmd.GroupID = "setup"
	rootCmd.AddCommand(completionCmd)

	versionCmd.GroupID = "setup"
	versionCmd.Flags().BoolVar(&versionOutputJSON, "output-json", false, "Output as JSON")
	rootCmd.AddCommand(versionCmd)

	// Config subcommands.
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
}

func main() {
	// Set up signal handling for graceful shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	cmdErr := rootCmd.ExecuteContext(ctx)

	// Flush the run log before exiting.
	if runLogSink != nil {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = runLogSink.Flush(flushCtx)
		flushCancel()
		_ = runLogSink.Close()
	}

	if cmdErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", cmdErr)
		os.Exit(1)
	}
}
