package writer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rxtech-lab/candle-downloader/internal/types"
)

// WriterType defines the on-disk format of the output file.
type WriterType string

const (
	WriterExcel  WriterType = "excel"
	WriterDuckDB WriterType = "duckdb"
)

// TableWriter defines the interface for persisting named candle tables.
type TableWriter interface {
	// Initialize sets up the writer, potentially creating tables or files.
	Initialize() error
	// WriteTable persists one combined table under the given sheet name.
	WriteTable(sheet string, table types.CandleTable) error
	// Finalize completes the writing process (e.g., saves the workbook, exports files).
	Finalize() (outputPath string, err error)
	// Close releases any resources held by the writer.
	Close() error
	// GetOutputPath returns the configured output file path.
	GetOutputPath() string
}

// Header is the column layout of every written sheet.
var Header = []string{"DateTime", "Open", "High", "Low", "Close", "Volume"}

// NewTableWriter creates the writer for writerType, storing <dir>/<symbol>.<ext>.
func NewTableWriter(writerType WriterType, dir string, symbol string) (TableWriter, error) {
	switch writerType {
	case WriterExcel:
		return NewExcelWriter(filepath.Join(dir, symbol+".xlsx")), nil
	case WriterDuckDB:
		return NewDuckDBWriter(filepath.Join(dir, symbol+".parquet")), nil
	default:
		return nil, fmt.Errorf("unsupported writer type: %s", writerType)
	}
}

// ensureOutputDir makes sure the parent directory of outputPath exists.
func ensureOutputDir(outputPath string) error {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	return nil
}

// removeExisting deletes a previous file at outputPath.
// Writers call it from Finalize only, so a run that writes nothing keeps the old file.
func removeExisting(outputPath string) error {
	if err := os.Remove(outputPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove existing file %s: %w", outputPath, err)
	}

	return nil
}
