// Package export serializes report tables to CSV files and xlsx
// workbooks on disk.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/otherjamesbrown/delib-cli/pkg/logging"
	"github.com/otherjamesbrown/delib-cli/pkg/report"
)

// utf8BOM makes the files open cleanly in Excel, which otherwise guesses
// a legacy encoding for CSV.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriterOptions controls CSV serialization.
type WriterOptions struct {
	// OutputDir is the directory files are written into. Created if missing.
	OutputDir string

	// BOM prepends a UTF-8 byte order mark to every file.
	BOM bool

	// Overwrite replaces existing files instead of picking a unique name.
	Overwrite bool
}

// Writer writes report tables as CSV files.
type Writer struct {
	opts   WriterOptions
	logger logging.Logger
}

// NewWriter creates a Writer. The output directory is created on first use.
func NewWriter(opts WriterOptions, logger logging.Logger) *Writer {
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	return &Writer{opts: opts, logger: logger}
}

// WriteTable writes one table to <OutputDir>/<name>.csv and returns the
// path actually written. When the file already exists and Overwrite is off,
// a " (n)" suffix is appended before the extension.
func (w *Writer) WriteTable(name string, table report.Table) (string, error) {
	if err := os.MkdirAll(w.opts.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(w.opts.OutputDir, sanitizeFileName(name)+".csv")
	if !w.opts.Overwrite {
		path = UniquePath(path)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if w.opts.BOM {
		if _, err := f.Write(utf8BOM); err != nil {
			return "", fmt.Errorf("failed to write %s: %w", path, err)
		}
	}

	cw := csv.NewWriter(f)
	if err := cw.Write(table.Columns); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := cw.WriteAll(table.Rows); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}

	w.logger.Info("wrote table",
		logging.F("path", path),
		logging.F("rows", len(table.Rows)))
	return path, nil
}

// UniquePath returns path if nothing exists there, otherwise the first
// "<base> (n)<ext>" variant that is free.
func UniquePath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, n, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// sanitizeFileName replaces path separators so sheet names like
// "Speak Instances By Group" stay single path segments.
func sanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "/", "-")
	name = strings.ReplaceAll(name, string(filepath.Separator), "-")
	return name
}
