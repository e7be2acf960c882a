package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/otherjamesbrown/delib-cli/pkg/logging"
	"github.com/otherjamesbrown/delib-cli/pkg/report"
)

// WriteWorkbook writes the given tables as the sheets of one xlsx workbook
// at <OutputDir>/<name>.xlsx, in order, and returns the path actually
// written. Sheet names come from each table's Name. The same Overwrite and
// UniquePath rules apply as for CSV output.
func (w *Writer) WriteWorkbook(name string, tables []report.Table) (string, error) {
	if len(tables) == 0 {
		return "", fmt.Errorf("workbook %q has no sheets", name)
	}

	if err := os.MkdirAll(w.opts.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(w.opts.OutputDir, sanitizeFileName(name)+".xlsx")
	if !w.opts.Overwrite {
		path = UniquePath(path)
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, table := range tables {
		if i == 0 {
			// Rename the default sheet instead of leaving it empty.
			if err := f.SetSheetName("Sheet1", table.Name); err != nil {
				return "", fmt.Errorf("naming sheet %q: %w", table.Name, err)
			}
		} else {
			if _, err := f.NewSheet(table.Name); err != nil {
				return "", fmt.Errorf("adding sheet %q: %w", table.Name, err)
			}
		}
		if err := writeSheet(f, table); err != nil {
			return "", err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("writing workbook %s: %w", path, err)
	}

	w.logger.Info("wrote workbook",
		logging.F("path", path),
		logging.F("sheets", len(tables)))

	return path, nil
}

// writeSheet fills one sheet with a table's header row and data rows.
func writeSheet(f *excelize.File, table report.Table) error {
	header := make([]interface{}, len(table.Columns))
	for i, col := range table.Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(table.Name, "A1", &header); err != nil {
		return fmt.Errorf("writing header of sheet %q: %w", table.Name, err)
	}

	for r, row := range table.Rows {
		cells := make([]interface{}, len(row))
		for i, v := range row {
			cells[i] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return fmt.Errorf("addressing row %d of sheet %q: %w", r+2, table.Name, err)
		}
		if err := f.SetSheetRow(table.Name, cell, &cells); err != nil {
			return fmt.Errorf("writing row %d of sheet %q: %w", r+2, table.Name, err)
		}
	}

	return nil
}
