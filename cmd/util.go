package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/otherjamesbrown/delib-cli/config"
	"github.com/otherjamesbrown/delib-cli/pkg/batch"
	"github.com/otherjamesbrown/delib-cli/pkg/logging"
)

// commandLogger returns the injected logger, or builds one from config.
func commandLogger(injected logging.Logger, cfg *config.CLIConfig) logging.Logger {
	if injected != nil {
		return injected
	}

	logCfg := logging.DefaultConfig()
	if cfg.Debug {
		logCfg.Level = logging.LevelDebug
	}
	return logging.NewLogger(logCfg)
}

// displayDryRun lists the work units a run would process.
func displayDryRun(unit string, items []string) {
	fmt.Println("\033[1m=== DRY RUN - No reports will be written ===\033[0m")
	fmt.Println()
	fmt.Printf("Would process %d %s:\n", len(items), unit)
	for _, item := range items {
		fmt.Printf("  %s\n", item)
	}
	fmt.Println()
	fmt.Println("\033[2mRun without --dry-run to generate the reports.\033[0m")
}

// runSummary is the serializable shape of a batch run result.
type runSummary struct {
	RunID     string   `json:"run_id" yaml:"run_id"`
	Total     int      `json:"total" yaml:"total"`
	Processed int      `json:"processed" yaml:"processed"`
	Skipped   int      `json:"skipped" yaml:"skipped"`
	Failed    int      `json:"failed" yaml:"failed"`
	Duration  string   `json:"duration" yaml:"duration"`
	Success   bool     `json:"success" yaml:"success"`
	Errors    []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// displayRunResult prints a batch run summary in the requested format.
func displayRunResult(title, format string, result *batch.ProcessResult) error {
	summary := runSummary{
		RunID:     result.RunID,
		Total:     result.TotalFiles,
		Processed: result.ProcessedCount,
		Skipped:   result.SkippedCount,
		Failed:    result.FailedCount,
		Duration:  formatRunDuration(result.CompletedAt.Sub(result.StartedAt)),
		Success:   result.Success,
	}
	for _, fe := range result.Errors {
		summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %s", fe.FilePath, fe.Error))
	}

	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		return enc.Encode(summary)
	case "", "text":
		displayRunResultText(title, summary)
		return nil
	default:
		return fmt.Errorf("invalid output format: %s (must be text, json, or yaml)", format)
	}
}

// displayRunResultText prints a run summary in human-readable form.
func displayRunResultText(title string, summary runSummary) {
	fmt.Println()
	fmt.Println(title)
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("  Run ID:    %s\n", summary.RunID)
	fmt.Printf("  Total:     %d\n", summary.Total)
	fmt.Printf("  Processed: \033[32m%d\033[0m\n", summary.Processed)
	fmt.Printf("  Skipped:   \033[33m%d\033[0m\n", summary.Skipped)
	fmt.Printf("  Failed:    \033[31m%d\033[0m\n", summary.Failed)
	fmt.Printf("  Duration:  %s\n", summary.Duration)

	if len(summary.Errors) > 0 {
		fmt.Println("\nErrors:")
		for _, msg := range summary.Errors {
			fmt.Printf("  \033[31m%s\033[0m\n", msg)
		}
	}
}

// formatRunDuration formats a run duration in a human-readable way.
func formatRunDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%.1fm", d.Minutes())
}
