// Package cmd provides CLI commands for the delib tool.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/delib-cli/config"
	"github.com/otherjamesbrown/delib-cli/pkg/batch"
	dlerrors "github.com/otherjamesbrown/delib-cli/pkg/errors"
	"github.com/otherjamesbrown/delib-cli/pkg/export"
	"github.com/otherjamesbrown/delib-cli/pkg/logging"
	"github.com/otherjamesbrown/delib-cli/pkg/report"
	"github.com/otherjamesbrown/delib-cli/pkg/session"
)

// ReportCommandDeps holds the dependencies for the report command.
type ReportCommandDeps struct {
	Config     *config.CLIConfig
	Logger     logging.Logger
	LoadConfig func() (*config.CLIConfig, error)
}

// DefaultReportDeps returns the default dependencies for production use.
func DefaultReportDeps() *ReportCommandDeps {
	return &ReportCommandDeps{
		LoadConfig: config.LoadConfig,
	}
}

// Report command flags.
var (
	reportOut         string
	reportExclude     []string
	reportConcurrency int
	reportOverwrite   bool
	reportDryRun      bool
	reportOutput      string
)

// NewReportCommand creates the 'report' command.
func NewReportCommand(deps *ReportCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultReportDeps()
	}

	cmd := &cobra.Command{
		Use:   "report <path>",
		Short: "Generate per-session speak and abuse-flag reports",
		Long: `Generate per-session reports from deliberation session exports.

Scans <path> for *.json session exports (a single file is accepted too) and
writes one spreadsheet per session with four sheets: speak instances by
group, speaker totals, disconnected time by group, and abuse flags by group.

Observers and excluded screen names (default: Record) are filtered out.
Participants who never spoke still appear in the totals with a zero count.

Examples:
  delib report ./exports/
  delib report session-2024-03-01.json
  delib report ./exports/ --out ./reports --bom
  delib report ./exports/ --exclude Record --exclude "Tech Support"
  delib report ./exports/ --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, deps, args[0])
		},
	}

	cmd.Flags().StringVar(&reportOut, "out", "", "Directory to write report files into")
	cmd.Flags().StringSliceVar(&reportExclude, "exclude", nil, "Screen names to exclude from reports")
	cmd.Flags().IntVar(&reportConcurrency, "concurrency", 0, "Number of session files processed at once")
	cmd.Flags().BoolVar(&reportOverwrite, "overwrite", false, "Replace existing report files instead of renaming")
	cmd.Flags().BoolVar(&reportDryRun, "dry-run", false, "List the files that would be processed without writing reports")
	cmd.Flags().StringVarP(&reportOutput, "output", "o", "", "Result summary format: text, json, yaml")

	return cmd
}

// runReport executes the report command.
func runReport(cmd *cobra.Command, deps *ReportCommandDeps, path string) error {
	cfg, err := deps.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("out") {
		cfg.OutputDir = reportOut
	}
	if flags.Changed("exclude") {
		cfg.ExcludeScreenNames = reportExclude
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency = reportConcurrency
	}
	if flags.Changed("overwrite") {
		cfg.Overwrite = reportOverwrite
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	deps.Config = cfg

	log := commandLogger(deps.Logger, cfg)

	files, err := session.ScanSessionFiles(path)
	if err != nil {
		return err
	}

	if reportDryRun {
		displayDryRun("session files", files)
		return nil
	}

	fmt.Println("Generating session reports")
	fmt.Printf("  Input:       %s\n", path)
	fmt.Printf("  Files:       %d\n", len(files))
	fmt.Printf("  Output dir:  %s\n", cfg.OutputDir)
	fmt.Printf("  Concurrency: %d\n", cfg.Concurrency)
	fmt.Println()

	writer := export.NewWriter(export.WriterOptions{
		OutputDir: cfg.OutputDir,
		Overwrite: cfg.Overwrite,
	}, log)

	handler := func(ctx context.Context, file string) error {
		return reportSession(log, writer, cfg, file)
	}

	proc := batch.NewProcessor(handler, log, batch.ProcessorConfig{
		Concurrency: cfg.Concurrency,
	})
	result := proc.Process(cmd.Context(), files)

	if err := displayRunResult("Session report run", reportOutput, result); err != nil {
		return err
	}
	if result.FailedCount > 0 {
		return fmt.Errorf("%d of %d session files failed", result.FailedCount, result.TotalFiles)
	}

	return nil
}

// reportSession renders the four report sheets for one session export.
// A parse failure is file-scoped: the file is skipped and the run goes on.
func reportSession(log logging.Logger, w *export.Writer, cfg *config.CLIConfig, path string) error {
	name := session.SessionName(path)

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	rooms, err := session.ParseSession(f)
	if err != nil {
		return dlerrors.NewFileError(name, err.Error())
	}

	extractor := report.NewExtractor(report.ExtractOptions{
		ExcludeNames:     cfg.ExcludeScreenNames,
		ExcludeObservers: true,
		EmitSentinels:    true,
	}, log)

	var speaks []report.SpeakInterval
	var disconnects []report.DisconnectInterval
	var abuseFlags []report.AbuseFlag
	for i := range rooms {
		room := &rooms[i]
		if room.Name() == "" {
			log.Warn("skipped room with no name",
				logging.Err(dlerrors.NewRoomError(name, "", "room record has no name")))
			continue
		}
		speaks = append(speaks, extractor.SpeakIntervals(room)...)
		disconnects = append(disconnects, extractor.DisconnectIntervals(room)...)
		abuseFlags = append(abuseFlags, extractor.AbuseFlags(room)...)
	}

	roomNames := session.RoomNames(rooms)
	tables := []report.Table{
		report.SpeakTimelineTable(report.RoomTimelines(speaks, roomNames)),
		report.SpeakerTotalsTable(report.SpeakerTotals(speaks, roomNames)),
		report.DisconnectTable(report.DisconnectTotals(disconnects, roomNames)),
		report.AbuseFlagsTable(report.AbuseFlagCounts(abuseFlags, roomNames)),
	}

	if _, err := w.WriteWorkbook(name, tables); err != nil {
		return fmt.Errorf("writing workbook for session %s: %w", name, err)
	}

	return nil
}
