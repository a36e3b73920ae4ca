package types

import (
	"fmt"
	"strings"
	"time"
)

// Granularity is the time-bucket size of a candle, spelled the way the broker API expects it.
type Granularity string

const (
	GranularityOneMinute     Granularity = "ONE_MINUTE"
	GranularityThreeMinute   Granularity = "THREE_MINUTE"
	GranularityFiveMinute    Granularity = "FIVE_MINUTE"
	GranularityTenMinute     Granularity = "TEN_MINUTE"
	GranularityFifteenMinute Granularity = "FIFTEEN_MINUTE"
	GranularityThirtyMinute  Granularity = "THIRTY_MINUTE"
	GranularityOneHour       Granularity = "ONE_HOUR"
	GranularityOneDay        Granularity = "ONE_DAY"
)

// granularityIntervals maps each granularity to its short interval code.
var granularityIntervals = map[Granularity]string{
	GranularityOneMinute:     "1m",
	GranularityThreeMinute:   "3m",
	GranularityFiveMinute:    "5m",
	GranularityTenMinute:     "10m",
	GranularityFifteenMinute: "15m",
	GranularityThirtyMinute:  "30m",
	GranularityOneHour:       "1h",
	GranularityOneDay:        "1d",
}

// AllGranularities returns every supported granularity, finest first.
func AllGranularities() []Granularity {
	return []Granularity{
		GranularityOneMinute,
		GranularityThreeMinute,
		GranularityFiveMinute,
		GranularityTenMinute,
		GranularityFifteenMinute,
		GranularityThirtyMinute,
		GranularityOneHour,
		GranularityOneDay,
	}
}

// SupportedIntervals returns the short interval codes accepted by ParseInterval.
func SupportedIntervals() []string {
	intervals := make([]string, 0, len(granularityIntervals))
	for _, g := range AllGranularities() {
		intervals = append(intervals, granularityIntervals[g])
	}

	return intervals
}

// ParseInterval converts a short interval code such as "15m" into a Granularity.
func ParseInterval(interval string) (Granularity, error) {
	code := strings.TrimSpace(interval)
	for g, c := range granularityIntervals {
		if c == code {
			return g, nil
		}
	}

	return "", fmt.Errorf("unsupported interval %q, expected one of %s", interval, strings.Join(SupportedIntervals(), ", "))
}

// ParseIntervalList parses a comma separated interval list like "1m, 5m,1d".
// Spaces are ignored and the order of the input is kept.
func ParseIntervalList(list string) ([]Granularity, error) {
	parts := strings.Split(strings.ReplaceAll(list, " ", ""), ",")
	granularities := make([]Granularity, 0, len(parts))

	for _, part := range parts {
		g, err := ParseInterval(part)
		if err != nil {
			return nil, err
		}

		granularities = append(granularities, g)
	}

	return granularities, nil
}

// Validate reports whether g is part of the supported set.
func (g Granularity) Validate() error {
	if _, ok := granularityIntervals[g]; !ok {
		return fmt.Errorf("unsupported granularity: %s", g)
	}

	return nil
}

// Interval returns the short interval code, e.g. "5m" for FIVE_MINUTE.
func (g Granularity) Interval() string {
	return granularityIntervals[g]
}

// Duration returns the length of one candle bucket.
func (g Granularity) Duration() time.Duration {
	switch g {
	case GranularityOneMinute:
		return time.Minute
	case GranularityThreeMinute:
		return 3 * time.Minute
	case GranularityFiveMinute:
		return 5 * time.Minute
	case GranularityTenMinute:
		return 10 * time.Minute
	case GranularityFifteenMinute:
		return 15 * time.Minute
	case GranularityThirtyMinute:
		return 30 * time.Minute
	case GranularityOneHour:
		return time.Hour
	case GranularityOneDay:
		return 24 * time.Hour
	default:
		return 0
	}
}

func (g Granularity) String() string {
	return string(g)
}
