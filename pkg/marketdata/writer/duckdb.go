package writer

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"

	"github.com/rxtech-lab/candle-downloader/internal/types"
)

var candleColumns = []string{"id", "sheet", "row_index", "time", "datetime", "open", "high", "low", "close", "volume"}

// DuckDBWriter implements the TableWriter interface for DuckDB.
// Every table lands in one in-memory candles table tagged with its sheet name,
// which is exported to a single Parquet file on Finalize.
type DuckDBWriter struct {
	db         *sql.DB
	sq         squirrel.StatementBuilderType
	insertSQL  string
	outputPath string
	sheets     map[string]bool
}

// NewDuckDBWriter creates a new DuckDBWriter.
// outputPath specifies where the final Parquet file will be saved.
func NewDuckDBWriter(outputPath string) TableWriter {
	return &DuckDBWriter{
		outputPath: outputPath,
		sq:         squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}
}

// Initialize opens an in-memory database and creates the candles table.
func (w *DuckDBWriter) Initialize() (err error) {
	if err = ensureOutputDir(w.outputPath); err != nil {
		return err
	}

	w.insertSQL, _, err = w.sq.Insert("candles").
		Columns(candleColumns...).
		Values(make([]any, len(candleColumns))...).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert statement: %w", err)
	}

	w.db, err = sql.Open("duckdb", ":memory:")
	if err != nil {
		return fmt.Errorf("failed to open DuckDB connection: %w", err)
	}

	_, err = w.db.Exec(`
		CREATE TABLE IF NOT EXISTS candles (
			id TEXT,
			sheet TEXT,
			row_index INTEGER,
			time TIMESTAMPTZ,
			datetime TEXT,
			open DOUBLE,
			high DOUBLE,
			low DOUBLE,
			close DOUBLE,
			volume DOUBLE
		)
	`)
	if err != nil {
		w.db.Close()
		w.db = nil

		return fmt.Errorf("failed to create table: %w", err)
	}

	w.sheets = make(map[string]bool)

	return nil
}

// WriteTable inserts every candle of table under sheet in its own transaction,
// so a failed sheet leaves the others untouched.
func (w *DuckDBWriter) WriteTable(sheet string, table types.CandleTable) error {
	if w.db == nil {
		return fmt.Errorf("writer not initialized or db is nil")
	}

	if w.sheets[sheet] {
		return fmt.Errorf("sheet %s already written", sheet)
	}

	if len(table.Candles) > 0 {
		if err := w.insertTable(sheet, table); err != nil {
			return err
		}
	}

	w.sheets[sheet] = true

	return nil
}

// insertTable runs one prepared single-row insert per candle inside a transaction.
func (w *DuckDBWriter) insertTable(sheet string, table types.CandleTable) error {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(w.insertSQL)
	if err != nil {
		tx.Rollback()

		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, c := range table.Candles {
		_, err := stmt.Exec(uuid.New().String(), sheet, i, c.Time, c.FormattedTime(), c.Open, c.High, c.Low, c.Close, c.Volume)
		if err != nil {
			tx.Rollback()

			return fmt.Errorf("failed to insert row %d of %s: %w", i, sheet, err)
		}
	}

	if err := tx.Commit(); err != nil {
		tx.Rollback()

		return fmt.Errorf("failed to commit %s: %w", sheet, err)
	}

	return nil
}

// Finalize replaces any previous file with a Parquet export of every written sheet.
func (w *DuckDBWriter) Finalize() (outputPath string, err error) {
	if w.db == nil {
		return "", fmt.Errorf("writer not initialized or db is nil")
	}

	if err = removeExisting(w.outputPath); err != nil {
		return "", err
	}

	_, err = w.db.Exec(fmt.Sprintf(`COPY (SELECT * FROM candles ORDER BY sheet, row_index) TO '%s' (FORMAT PARQUET)`, escapeLiteral(w.outputPath)))
	if err != nil {
		return "", fmt.Errorf("failed to export to Parquet: %w", err)
	}

	log.Printf("Successfully exported data to %s", w.outputPath)

	return w.outputPath, nil
}

// Close releases the database connection.
func (w *DuckDBWriter) Close() error {
	if w.db == nil {
		return nil
	}

	err := w.db.Close()
	w.db = nil

	if err != nil {
		return fmt.Errorf("failed to close db connection: %w", err)
	}

	return nil
}

// GetOutputPath returns the Parquet path.
func (w *DuckDBWriter) GetOutputPath() string {
	return w.outputPath
}

// ReadParquetTable reads the rows of one sheet back from a Parquet file written by DuckDBWriter.
func ReadParquetTable(path string, sheet string, loc *time.Location) (types.CandleTable, error) {
	if loc == nil {
		loc = time.UTC
	}

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return types.CandleTable{}, fmt.Errorf("failed to open DuckDB connection: %w", err)
	}
	defer db.Close()

	query, args, err := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question).
		Select("datetime", "open", "high", "low", "close", "volume").
		From(fmt.Sprintf("read_parquet('%s')", escapeLiteral(path))).
		Where(squirrel.Eq{"sheet": sheet}).
		OrderBy("row_index").
		ToSql()
	if err != nil {
		return types.CandleTable{}, err
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return types.CandleTable{}, fmt.Errorf("failed to query parquet: %w", err)
	}
	defer rows.Close()

	table := types.CandleTable{Candles: []types.Candle{}}

	for rows.Next() {
		var (
			datetime string
			c        types.Candle
		)

		if err := rows.Scan(&datetime, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return types.CandleTable{}, fmt.Errorf("failed to scan row: %w", err)
		}

		c.Time, err = types.ParseCandleTime(datetime, loc)
		if err != nil {
			return types.CandleTable{}, err
		}

		table.Candles = append(table.Candles, c)
	}

	if err := rows.Err(); err != nil {
		return types.CandleTable{}, fmt.Errorf("error iterating rows: %w", err)
	}

	return table, nil
}

func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
