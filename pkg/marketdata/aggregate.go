package marketdata

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/rxtech-lab/candle-downloader/internal/logger"
	"github.com/rxtech-lab/candle-downloader/internal/types"
	"github.com/rxtech-lab/candle-downloader/pkg/errors"
	"github.com/rxtech-lab/candle-downloader/pkg/marketdata/writer"
)

// SheetName returns the sheet a granularity is written to, e.g. SBIN_ONE_DAY.
func SheetName(symbol string, g types.Granularity) string {
	return fmt.Sprintf("%s_%s", symbol, g)
}

// Concatenate joins window tables in window order. Rows are neither re-sorted nor deduplicated.
func Concatenate(g types.Granularity, tables []types.CandleTable) types.CandleTable {
	merged := types.CandleTable{Granularity: g}
	if len(tables) == 0 {
		return merged
	}

	merged.Window = types.DateWindow{
		Start: tables[0].Window.Start,
		End:   tables[len(tables)-1].Window.End,
	}

	size := 0
	for _, table := range tables {
		size += table.Len()
	}

	merged.Candles = make([]types.Candle, 0, size)

	for _, table := range tables {
		merged.Candles = append(merged.Candles, table.Candles...)
	}

	return merged
}

// WriteResult writes one sheet per granularity in granularities, in order.
// A failing sheet does not stop the others; all failures are combined into the returned error.
// It returns the names of the sheets that were written.
func WriteResult(w writer.TableWriter, symbol string, result *AcquisitionResult, granularities []types.Granularity, log *logger.Logger) ([]string, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	var (
		written []string
		errs    error
	)

	for _, g := range granularities {
		sheet := SheetName(symbol, g)

		merged := result.Merged(g)
		if merged.IsNone() {
			log.Warn("No data collected for granularity", zap.String("sheet", sheet))

			continue
		}

		table := merged.Unwrap()
		if err := w.WriteTable(sheet, table); err != nil {
			log.Error("Failed to write sheet", zap.String("sheet", sheet), zap.Error(err))
			errs = multierr.Append(errs, errors.Wrapf(errors.ErrCodeSinkWrite, err, "failed to write sheet %s", sheet))

			continue
		}

		log.Info("Wrote sheet", zap.String("sheet", sheet), zap.Int("rows", table.Len()))
		written = append(written, sheet)
	}

	return written, errs
}
