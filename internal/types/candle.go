package types

import "time"

// CandleTimeLayout is the canonical timestamp format of a stored candle (DD-MM-YYYY HH:MM:SS).
const CandleTimeLayout = "02-01-2006 15:04:05"

// Candle is one OHLCV record for a fixed time bucket.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// FormattedTime returns the candle timestamp in CandleTimeLayout.
func (c Candle) FormattedTime() string {
	return c.Time.Format(CandleTimeLayout)
}

// ParseCandleTime parses a timestamp written in CandleTimeLayout.
func ParseCandleTime(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}

	return time.ParseInLocation(CandleTimeLayout, value, loc)
}

// CandleTable is an ordered run of candles for one granularity and one window.
// Tables of the same granularity are merged after acquisition.
type CandleTable struct {
	Granularity Granularity
	Window      DateWindow
	Candles     []Candle
}

// NewCandleTable creates an empty table bound to granularity and window.
func NewCandleTable(granularity Granularity, window DateWindow) CandleTable {
	return CandleTable{
		Granularity: granularity,
		Window:      window,
		Candles:     []Candle{},
	}
}

// Len returns the number of rows.
func (t CandleTable) Len() int {
	return len(t.Candles)
}

// IsEmpty reports whether the table holds no rows.
func (t CandleTable) IsEmpty() bool {
	return len(t.Candles) == 0
}

// IsStrictlyIncreasing reports whether every timestamp is later than the one before it,
// which also rules out duplicate timestamps.
func (t CandleTable) IsStrictlyIncreasing() bool {
	for i := 1; i < len(t.Candles); i++ {
		if !t.Candles[i].Time.After(t.Candles[i-1].Time) {
			return false
		}
	}

	return true
}
