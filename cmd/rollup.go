package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/delib-cli/config"
	"github.com/otherjamesbrown/delib-cli/pkg/batch"
	dlerrors "github.com/otherjamesbrown/delib-cli/pkg/errors"
	"github.com/otherjamesbrown/delib-cli/pkg/export"
	"github.com/otherjamesbrown/delib-cli/pkg/logging"
	"github.com/otherjamesbrown/delib-cli/pkg/report"
	"github.com/otherjamesbrown/delib-cli/pkg/session"
)

// RollupCommandDeps holds the dependencies for the rollup command.
type RollupCommandDeps struct {
	Config     *config.CLIConfig
	Logger     logging.Logger
	LoadConfig func() (*config.CLIConfig, error)
}

// DefaultRollupDeps returns the default dependencies for production use.
func DefaultRollupDeps() *RollupCommandDeps {
	return &RollupCommandDeps{
		LoadConfig: config.LoadConfig,
	}
}

// Rollup command flags.
var (
	rollupOut       string
	rollupPrefix    string
	rollupBOM       bool
	rollupOverwrite bool
	rollupDryRun    bool
	rollupOutput    string
)

// NewRollupCommand creates the 'rollup' command.
func NewRollupCommand(deps *RollupCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultRollupDeps()
	}

	cmd := &cobra.Command{
		Use:   "rollup <path>",
		Short: "Generate cross-room participant rollups",
		Long: `Generate participant voting and deliberation rollups.

Each subdirectory of <path> is treated as one event: all of its session
exports are merged, rooms with the same name are combined, and every
participant's per-room metrics (move-on votes, questions written, speak
count and time, room deliberation window) are rolled up.

Two CSV files are written per folder: a long form with one row per
participant and room, and a wide form pivoted on room with one row per
participant. Observer, admin, and removed roles are excluded.

Examples:
  delib rollup ./events/
  delib rollup ./events/ --prefix summit --out ./reports
  delib rollup ./events/ --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRollup(cmd, deps, args[0])
		},
	}

	cmd.Flags().StringVar(&rollupOut, "out", "", "Directory to write rollup files into")
	cmd.Flags().StringVar(&rollupPrefix, "prefix", "", "File name prefix for rollup outputs")
	cmd.Flags().BoolVar(&rollupBOM, "bom", false, "Prepend a UTF-8 BOM to CSV files for Excel")
	cmd.Flags().BoolVar(&rollupOverwrite, "overwrite", false, "Replace existing rollup files instead of renaming")
	cmd.Flags().BoolVar(&rollupDryRun, "dry-run", false, "List the folders that would be processed without writing rollups")
	cmd.Flags().StringVarP(&rollupOutput, "output", "o", "", "Result summary format: text, json, yaml")

	return cmd
}

// runRollup executes the rollup command.
func runRollup(cmd *cobra.Command, deps *RollupCommandDeps, path string) error {
	cfg, err := deps.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("out") {
		cfg.OutputDir = rollupOut
	}
	if flags.Changed("prefix") {
		cfg.RollupPrefix = rollupPrefix
	}
	if flags.Changed("bom") {
		cfg.BOM = rollupBOM
	}
	if flags.Changed("overwrite") {
		cfg.Overwrite = rollupOverwrite
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	deps.Config = cfg

	log := commandLogger(deps.Logger, cfg)

	folders, err := session.ScanSessionFolders(path)
	if err != nil {
		return err
	}

	if rollupDryRun {
		displayDryRun("event folders", folders)
		return nil
	}

	fmt.Println("Generating participant rollups")
	fmt.Printf("  Input:      %s\n", path)
	fmt.Printf("  Folders:    %d\n", len(folders))
	fmt.Printf("  Output dir: %s\n", cfg.OutputDir)
	fmt.Printf("  Prefix:     %s\n", cfg.RollupPrefix)
	fmt.Println()

	writer := export.NewWriter(export.WriterOptions{
		OutputDir: cfg.OutputDir,
		BOM:       cfg.BOM,
		Overwrite: cfg.Overwrite,
	}, log)

	handler := func(ctx context.Context, folder string) error {
		return rollupFolder(log, writer, cfg, folder)
	}

	// One rollup spans a whole folder, so folders are the unit of work.
	proc := batch.NewProcessor(handler, log, batch.ProcessorConfig{
		Concurrency: cfg.Concurrency,
	})
	result := proc.Process(cmd.Context(), folders)

	if err := displayRunResult("Rollup run", rollupOutput, result); err != nil {
		return err
	}
	if result.FailedCount > 0 {
		return fmt.Errorf("%d of %d folders failed", result.FailedCount, result.TotalFiles)
	}

	return nil
}

// rollupFolder merges every session export in one folder into a single
// rollup and writes its long and wide tables. A folder whose files all
// fail to parse is skipped, not failed.
func rollupFolder(log logging.Logger, w *export.Writer, cfg *config.CLIConfig, folder string) error {
	folderName := filepath.Base(folder)

	files, err := session.ScanSessionFiles(folder)
	if err != nil {
		return err
	}

	rollup := report.NewRollup(log)
	parsed := 0
	for _, file := range files {
		rooms, err := parseSessionFile(file)
		if err != nil {
			log.Warn("skipping unparseable session file",
				logging.F("file", file), logging.Err(err))
			continue
		}
		rollup.AddSession(session.SessionName(file), rooms)
		parsed++
	}
	if parsed == 0 {
		return dlerrors.NewFileError(folderName, "no parseable session files")
	}

	long := report.RollupLongTable(rollup)
	wide := report.RollupWideTable(long)

	longName := fmt.Sprintf("%s_%s_long", cfg.RollupPrefix, folderName)
	if _, err := w.WriteTable(longName, long); err != nil {
		return fmt.Errorf("writing long rollup for %s: %w", folderName, err)
	}
	wideName := fmt.Sprintf("%s_%s_wide", cfg.RollupPrefix, folderName)
	if _, err := w.WriteTable(wideName, wide); err != nil {
		return fmt.Errorf("writing wide rollup for %s: %w", folderName, err)
	}

	return nil
}

// parseSessionFile opens and parses one session export.
func parseSessionFile(path string) ([]session.Room, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return session.ParseSession(f)
}
