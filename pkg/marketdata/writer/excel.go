package writer

import (
	"fmt"
	"log"
	"slices"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/rxtech-lab/candle-downloader/internal/types"
)

// defaultSheet is created by excelize with every new workbook.
const defaultSheet = "Sheet1"

// ExcelWriter writes one worksheet per table into an .xlsx workbook.
type ExcelWriter struct {
	file       *excelize.File
	outputPath string
	sheets     []string
}

// NewExcelWriter creates a new ExcelWriter for outputPath.
func NewExcelWriter(outputPath string) TableWriter {
	return &ExcelWriter{
		outputPath: outputPath,
	}
}

// Initialize creates the output directory and opens a fresh workbook.
func (w *ExcelWriter) Initialize() error {
	if err := ensureOutputDir(w.outputPath); err != nil {
		return err
	}

	w.file = excelize.NewFile()
	w.sheets = nil

	return nil
}

// WriteTable adds a worksheet named sheet holding the header and one row per candle.
func (w *ExcelWriter) WriteTable(sheet string, table types.CandleTable) error {
	if w.file == nil {
		return fmt.Errorf("writer not initialized")
	}

	if slices.Contains(w.sheets, sheet) {
		return fmt.Errorf("sheet %s already written", sheet)
	}

	if _, err := w.file.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}

	if err := w.file.SetSheetRow(sheet, "A1", &header); err != nil {
		w.dropSheet(sheet)

		return fmt.Errorf("failed to write header of %s: %w", sheet, err)
	}

	for i, c := range table.Candles {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			w.dropSheet(sheet)

			return err
		}

		row := []any{c.FormattedTime(), c.Open, c.High, c.Low, c.Close, c.Volume}
		if err := w.file.SetSheetRow(sheet, cell, &row); err != nil {
			w.dropSheet(sheet)

			return fmt.Errorf("failed to write row %d of %s: %w", i, sheet, err)
		}
	}

	if err := w.file.SetColWidth(sheet, "A", "A", 20); err != nil {
		log.Printf("Warning: failed to size DateTime column of %s: %v", sheet, err)
	}

	w.sheets = append(w.sheets, sheet)

	return nil
}

// dropSheet removes a partially written sheet so a failed table leaves no trace.
func (w *ExcelWriter) dropSheet(sheet string) {
	if err := w.file.DeleteSheet(sheet); err != nil {
		log.Printf("Warning: failed to drop partial sheet %s: %v", sheet, err)
	}
}

// Finalize replaces any previous file with the workbook. The default empty sheet is dropped once a table was written.
func (w *ExcelWriter) Finalize() (outputPath string, err error) {
	if w.file == nil {
		return "", fmt.Errorf("writer not initialized")
	}

	if len(w.sheets) > 0 && !slices.Contains(w.sheets, defaultSheet) {
		if err := w.file.DeleteSheet(defaultSheet); err != nil {
			return "", fmt.Errorf("failed to remove default sheet: %w", err)
		}

		index, err := w.file.GetSheetIndex(w.sheets[0])
		if err != nil {
			return "", err
		}

		w.file.SetActiveSheet(index)
	}

	if err := removeExisting(w.outputPath); err != nil {
		return "", err
	}

	if err := w.file.SaveAs(w.outputPath); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}

	log.Printf("Successfully saved %d sheets to %s", len(w.sheets), w.outputPath)

	return w.outputPath, nil
}

// Close releases the workbook.
func (w *ExcelWriter) Close() error {
	if w.file == nil {
		return nil
	}

	err := w.file.Close()
	w.file = nil

	return err
}

// GetOutputPath returns the workbook path.
func (w *ExcelWriter) GetOutputPath() string {
	return w.outputPath
}

// ReadExcelTable reads a sheet written by ExcelWriter back into a table.
// Timestamps are parsed in loc; the granularity and window are left for the caller to set.
func ReadExcelTable(path string, sheet string, loc *time.Location) (types.CandleTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return types.CandleTable{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return types.CandleTable{}, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}

	table := types.CandleTable{Candles: []types.Candle{}}
	if len(rows) <= 1 {
		return table, nil
	}

	for i, row := range rows[1:] {
		if len(row) < len(Header) {
			return types.CandleTable{}, fmt.Errorf("row %d of %s has %d cells", i+2, sheet, len(row))
		}

		ts, err := types.ParseCandleTime(row[0], loc)
		if err != nil {
			return types.CandleTable{}, fmt.Errorf("row %d of %s: %w", i+2, sheet, err)
		}

		values := make([]float64, 5)
		for j := range values {
			values[j], err = strconv.ParseFloat(row[j+1], 64)
			if err != nil {
				return types.CandleTable{}, fmt.Errorf("row %d of %s: %w", i+2, sheet, err)
			}
		}

		table.Candles = append(table.Candles, types.Candle{
			Time:   ts,
			Open:   values[0],
			High:   values[1],
			Low:    values[2],
			Close:  values[3],
			Volume: values[4],
		})
	}

	return table, nil
}
