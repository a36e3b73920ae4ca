package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/candle-downloader/internal/types"
)

// DataGenerator generates realistic candles for testing.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how candles are generated.
type GeneratorConfig struct {
	// StartTime is the time of the first candle
	StartTime time.Time
	// Interval is the duration between each candle
	Interval time.Duration
	// Count is the number of candles to generate
	Count int
	// InitialPrice is the starting price
	InitialPrice float64
	// Volatility controls price movement (0.01 = 1% per candle)
	Volatility float64
	// VolumeBase is the average volume per candle
	VolumeBase float64
}

// marketOpen is the first candle of an NSE session, 09:15 IST.
var (
	sessionZone = time.FixedZone("IST", 5*60*60+30*60)
	marketOpen  = 9*time.Hour + 15*time.Minute
)

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		StartTime:    time.Date(2024, 1, 1, 9, 15, 0, 0, sessionZone),
		Interval:     time.Minute,
		Count:        100,
		InitialPrice: 600.0,
		Volatility:   0.002,
		VolumeBase:   10000,
	}
}

// Generate creates candles following a geometric Brownian motion.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.Candle {
	candles := make([]types.Candle, config.Count)
	currentPrice := config.InitialPrice
	currentTime := config.StartTime

	for i := 0; i < config.Count; i++ {
		open := currentPrice

		// Box-Muller
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		close := open * (1 + config.Volatility*z)
		if close <= 0 {
			close = open * 0.99
		}

		high := math.Max(open, close) + math.Abs(g.rng.Float64()*config.Volatility*open*0.5)
		low := math.Min(open, close) - math.Abs(g.rng.Float64()*config.Volatility*open*0.5)
		if low <= 0 {
			low = math.Min(open, close) * 0.99
		}

		candles[i] = types.Candle{
			Time:   currentTime,
			Open:   roundToDecimals(open, 2),
			High:   roundToDecimals(high, 2),
			Low:    roundToDecimals(low, 2),
			Close:  roundToDecimals(close, 2),
			Volume: math.Round(config.VolumeBase * (0.5 + g.rng.Float64())),
		}

		currentPrice = close
		currentTime = currentTime.Add(config.Interval)
	}

	return candles
}

// GenerateTable fills window with perDay candles of granularity g on each day, starting at 09:15 IST.
// Daily granularity yields one candle per day regardless of perDay.
func (g *DataGenerator) GenerateTable(granularity types.Granularity, window types.DateWindow, perDay int) types.CandleTable {
	table := types.NewCandleTable(granularity, window)

	if granularity == types.GranularityOneDay {
		perDay = 1
	}

	config := DefaultConfig()
	config.Interval = granularity.Duration()
	config.Count = perDay

	for day := window.Start; !day.After(window.End); day = day.AddDate(0, 0, 1) {
		y, m, d := day.Date()
		config.StartTime = time.Date(y, m, d, 0, 0, 0, 0, sessionZone).Add(marketOpen)

		candles := g.Generate(config)
		table.Candles = append(table.Candles, candles...)
		config.InitialPrice = candles[len(candles)-1].Close
	}

	return table
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(val*pow) / pow
}
