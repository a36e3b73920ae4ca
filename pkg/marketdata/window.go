package marketdata

import (
	"time"

	"github.com/rxtech-lab/candle-downloader/internal/types"
	"github.com/rxtech-lab/candle-downloader/pkg/errors"
)

// MaxWindowDays is the longest span, in calendar days, the provider accepts per intraday request.
const MaxWindowDays = 7

// ChunkDateRange splits [start, end] into adjacent windows of at most MaxWindowDays days.
//
// The end date is inclusive, so the range is first extended by one day. Each window
// starts the day after the previous one ends; the first starts at start and the
// last ends at end+1 day. start == end yields the single window [start, start+1].
func ChunkDateRange(start, end time.Time) ([]types.DateWindow, error) {
	if start.IsZero() || end.IsZero() {
		return nil, errors.New(errors.ErrCodeInvalidRange, "start and end dates are required")
	}

	start = types.TruncateToDay(start)
	end = types.TruncateToDay(end.In(start.Location()))

	if start.After(end) {
		return nil, errors.Newf(errors.ErrCodeInvalidRange, "start date %s is after end date %s",
			start.Format(types.DateLayout), end.Format(types.DateLayout))
	}

	last := end.AddDate(0, 0, 1)
	windows := make([]types.DateWindow, 0, types.DaysBetween(start, last)/MaxWindowDays+1)

	for current := start; !current.After(last); {
		windowEnd := current.AddDate(0, 0, MaxWindowDays-1)
		if windowEnd.After(last) {
			windowEnd = last
		}

		windows = append(windows, types.DateWindow{Start: current, End: windowEnd})
		current = windowEnd.AddDate(0, 0, 1)
	}

	return windows, nil
}
