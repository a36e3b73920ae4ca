package writer

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/candle-downloader/internal/types"
)

var ist = time.FixedZone("IST", 5*3600+1800)

func sampleTable(g types.Granularity, start time.Time, step time.Duration, n int) types.CandleTable {
	table := types.NewCandleTable(g, types.NewDateWindow(start, start))
	for i := 0; i < n; i++ {
		price := 100 + float64(i)*0.25
		table.Candles = append(table.Candles, types.Candle{
			Time:   start.Add(time.Duration(i) * step),
			Open:   price,
			High:   price + 1.5,
			Low:    price - 0.75,
			Close:  price + 0.5,
			Volume: float64(1000 + i),
		})
	}

	return table
}

type WriterTestSuite struct {
	suite.Suite
}

func TestWriterSuite(t *testing.T) {
	suite.Run(t, new(WriterTestSuite))
}

func (suite *WriterTestSuite) TestNewTableWriter() {
	dir := suite.T().TempDir()

	w, err := NewTableWriter(WriterExcel, dir, "SBIN")
	suite.Require().NoError(err)
	suite.Equal(filepath.Join(dir, "SBIN.xlsx"), w.GetOutputPath())

	w, err = NewTableWriter(WriterDuckDB, dir, "SBIN")
	suite.Require().NoError(err)
	suite.Equal(filepath.Join(dir, "SBIN.parquet"), w.GetOutputPath())

	_, err = NewTableWriter("csv", dir, "SBIN")
	suite.Error(err)
}
