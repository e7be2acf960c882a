package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/otherjamesbrown/delib-cli/config"
	"github.com/otherjamesbrown/delib-cli/pkg/logging"
	"github.com/otherjamesbrown/delib-cli/pkg/report"
)

// sampleSessionJSON is a minimal but complete session export: one room,
// two participants, one observer, and a deliberation window.
const sampleSessionJSON = `[
  {
    "roomData": {"name": "Blue"},
    "userData": [
      {
        "id": "u1",
        "screenName": "Alice",
        "role": "user",
        "speakBlocks": [{"speakTime": 60000, "finishTime": 125000, "requestTime": 55000}],
        "disconnectedBlocks": [{"disconnectedTime": 200000, "connectedTime": 230000}],
        "advanceAgenda": [{"answer": 0}]
      },
      {
        "id": "u2",
        "screenName": "Bob",
        "role": "user",
        "speakBlocks": [],
        "disconnectedBlocks": [],
        "advanceAgenda": []
      },
      {
        "id": "u9",
        "screenName": "Watcher",
        "role": "observer",
        "speakBlocks": [{"speakTime": 0, "finishTime": 1000, "requestTime": 0}],
        "disconnectedBlocks": [],
        "advanceAgenda": []
      }
    ],
    "transcriptData": [
      {"type": "moderator", "t": 10000, "text": "Introductions"},
      {"type": "abusiveLanguage", "t": 90000, "userId": "u2"},
      {"type": "moderator", "t": 610000, "text": "Deliberation ends"}
    ],
    "pollData": {}
  }
]`

// mockReportConfig creates a mock configuration for report command testing.
func mockReportConfig(outDir string) *config.CLIConfig {
	return &config.CLIConfig{
		OutputDir:          outDir,
		ExcludeScreenNames: []string{"Record"},
		RollupPrefix:       "metaverse",
		Concurrency:        1,
		Overwrite:          true,
	}
}

// createReportTestDeps creates test dependencies for the report command.
func createReportTestDeps(cfg *config.CLIConfig) *ReportCommandDeps {
	return &ReportCommandDeps{
		Config: cfg,
		Logger: logging.NewLogger(&logging.Config{
			Level:       logging.LevelError,
			ServiceName: "test",
			Output:      os.Stderr,
		}),
		LoadConfig: func() (*config.CLIConfig, error) {
			return cfg, nil
		},
	}
}

// readSheet returns all rows of one sheet of a workbook.
func readSheet(t *testing.T, path, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

// sheetHasValue reports whether any cell of the rows equals value.
func sheetHasValue(rows [][]string, value string) bool {
	for _, row := range rows {
		for _, cell := range row {
			if cell == value {
				return true
			}
		}
	}
	return false
}

func TestNewReportCommand(t *testing.T) {
	cmd := NewReportCommand(createReportTestDeps(mockReportConfig(t.TempDir())))

	assert.NotNil(t, cmd)
	assert.Equal(t, "report <path>", cmd.Use)
	assert.Contains(t, cmd.Short, "per-session")

	for _, name := range []string{"out", "exclude", "concurrency", "overwrite", "dry-run", "output"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "expected flag %q", name)
	}
}

func TestNewReportCommand_WithNilDeps(t *testing.T) {
	cmd := NewReportCommand(nil)
	assert.NotNil(t, cmd)
	assert.Equal(t, "report <path>", cmd.Use)
}

func TestReportCommand_WritesWorkbookSheets(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(inDir, "session-one.json"), []byte(sampleSessionJSON), 0644))

	cmd := NewReportCommand(createReportTestDeps(mockReportConfig(outDir)))
	cmd.SetArgs([]string{inDir})

	require.NoError(t, cmd.Execute())

	f, err := excelize.OpenFile(filepath.Join(outDir, "session-one.xlsx"))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{
		report.SheetSpeakInstances,
		report.SheetSpeakerTotals,
		report.SheetDisconnectedTime,
		report.SheetAbuseFlags,
	}, f.GetSheetList())
}

func TestReportCommand_SheetContents(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(inDir, "s.json"), []byte(sampleSessionJSON), 0644))

	cmd := NewReportCommand(createReportTestDeps(mockReportConfig(outDir)))
	cmd.SetArgs([]string{inDir})
	require.NoError(t, cmd.Execute())

	workbook := filepath.Join(outDir, "s.xlsx")
	totals := readSheet(t, workbook, report.SheetSpeakerTotals)

	// Alice spoke 65s; Bob appears with a zero count; the observer does not.
	assert.Contains(t, totals, []string{"Alice", "u1", "01:05", "1"})
	assert.Contains(t, totals, []string{"Bob", "u2", "00:00", "0"})
	assert.False(t, sheetHasValue(totals, "Watcher"))

	flags := readSheet(t, workbook, report.SheetAbuseFlags)
	assert.Contains(t, flags, []string{"Blue", "1"})
}

func TestReportCommand_SkipsMalformedFile(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(inDir, "good.json"), []byte(sampleSessionJSON), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(inDir, "bad.json"), []byte("{not json"), 0644))

	cmd := NewReportCommand(createReportTestDeps(mockReportConfig(outDir)))
	cmd.SetArgs([]string{inDir})

	// A malformed file is skipped, not failed, so the run succeeds.
	require.NoError(t, cmd.Execute())

	_, err := os.Stat(filepath.Join(outDir, "good.xlsx"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(outDir, "bad.xlsx"))
	assert.Error(t, err)
}

func TestReportCommand_WarnsOnUnnamedRoom(t *testing.T) {
	const unnamedRoomJSON = `[
	  {
	    "roomData": {"name": ""},
	    "userData": [
	      {
	        "id": "g1",
	        "screenName": "Ghost",
	        "role": "user",
	        "speakBlocks": [{"speakTime": 1000, "finishTime": 9000, "requestTime": 0}],
	        "disconnectedBlocks": [],
	        "advanceAgenda": []
	      }
	    ],
	    "transcriptData": [],
	    "pollData": {}
	  },
	  {
	    "roomData": {"name": "Blue"},
	    "userData": [
	      {
	        "id": "u1",
	        "screenName": "Alice",
	        "role": "user",
	        "speakBlocks": [{"speakTime": 60000, "finishTime": 125000, "requestTime": 55000}],
	        "disconnectedBlocks": [],
	        "advanceAgenda": []
	      }
	    ],
	    "transcriptData": [],
	    "pollData": {}
	  }
	]`

	inDir := t.TempDir()
	outDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(inDir, "s.json"), []byte(unnamedRoomJSON), 0644))

	var logs bytes.Buffer
	deps := createReportTestDeps(mockReportConfig(outDir))
	deps.Logger = logging.NewLogger(&logging.Config{
		Level:       logging.LevelWarn,
		ServiceName: "test",
		JSONFormat:  true,
		Output:      &logs,
	})

	cmd := NewReportCommand(deps)
	cmd.SetArgs([]string{inDir})
	require.NoError(t, cmd.Execute())

	// The unnamed room is dropped with a warning; no participant from it
	// reaches the workbook.
	assert.Contains(t, logs.String(), "skipped room with no name")

	totals := readSheet(t, filepath.Join(outDir, "s.xlsx"), report.SheetSpeakerTotals)
	assert.False(t, sheetHasValue(totals, "Ghost"))
	assert.True(t, sheetHasValue(totals, "Alice"))
}

func TestReportCommand_NoInputIsFatal(t *testing.T) {
	cmd := NewReportCommand(createReportTestDeps(mockReportConfig(t.TempDir())))
	cmd.SetArgs([]string{t.TempDir()})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no session files")
}

func TestReportCommand_DryRunWritesNothing(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(inDir, "s.json"), []byte(sampleSessionJSON), 0644))

	cmd := NewReportCommand(createReportTestDeps(mockReportConfig(outDir)))
	cmd.SetArgs([]string{inDir, "--dry-run"})
	require.NoError(t, cmd.Execute())

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReportCommand_OutFlagOverridesConfig(t *testing.T) {
	inDir := t.TempDir()
	cfgDir := t.TempDir()
	flagDir := filepath.Join(t.TempDir(), "flagged")
	require.NoError(t, os.WriteFile(filepath.Join(inDir, "s.json"), []byte(sampleSessionJSON), 0644))

	cmd := NewReportCommand(createReportTestDeps(mockReportConfig(cfgDir)))
	cmd.SetArgs([]string{inDir, "--out", flagDir})
	require.NoError(t, cmd.Execute())

	entries, err := os.ReadDir(flagDir)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)

	cfgEntries, err := os.ReadDir(cfgDir)
	require.NoError(t, err)
	assert.Empty(t, cfgEntries)
}

func TestReportCommand_ExcludeFlag(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(inDir, "s.json"), []byte(sampleSessionJSON), 0644))

	cmd := NewReportCommand(createReportTestDeps(mockReportConfig(outDir)))
	cmd.SetArgs([]string{inDir, "--exclude", "Alice", "--overwrite"})
	require.NoError(t, cmd.Execute())

	totals := readSheet(t, filepath.Join(outDir, "s.xlsx"), report.SheetSpeakerTotals)
	assert.False(t, sheetHasValue(totals, "Alice"))
	assert.True(t, sheetHasValue(totals, "Bob"))
}