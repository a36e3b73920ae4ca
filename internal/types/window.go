package types

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date layout used for request bounds, display and logs.
const DateLayout = "2006-01-02"

// DateWindow is a bounded range of calendar days used for one provider request.
// Both Start and End are inclusive and sit at midnight.
type DateWindow struct {
	Start time.Time
	End   time.Time
}

// NewDateWindow creates a window over the calendar days of start and end.
func NewDateWindow(start, end time.Time) DateWindow {
	return DateWindow{
		Start: TruncateToDay(start),
		End:   TruncateToDay(end),
	}
}

// Validate checks that the window is not inverted.
func (w DateWindow) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return fmt.Errorf("window bounds must be set")
	}

	if w.Start.After(w.End) {
		return fmt.Errorf("window start %s is after end %s", w.Start.Format(DateLayout), w.End.Format(DateLayout))
	}

	return nil
}

// Days returns the number of calendar days covered by the window.
func (w DateWindow) Days() int {
	return DaysBetween(w.Start, w.End) + 1
}

// Contains reports whether the calendar day of t lies inside the window.
func (w DateWindow) Contains(t time.Time) bool {
	day := TruncateToDay(t.In(w.Start.Location()))

	return !day.Before(w.Start) && !day.After(w.End)
}

// FromParam returns the request lower bound, the first minute of Start.
func (w DateWindow) FromParam() string {
	return w.Start.Format(DateLayout) + " 00:00"
}

// ToParam returns the request upper bound, the last minute of End.
// The next window starts on the following day at 00:00 so the two never overlap.
func (w DateWindow) ToParam() string {
	return w.End.Format(DateLayout) + " 23:59"
}

func (w DateWindow) String() string {
	return fmt.Sprintf("[%s, %s]", w.Start.Format(DateLayout), w.End.Format(DateLayout))
}

// TruncateToDay returns midnight of t's calendar day in t's location.
func TruncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()

	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysBetween returns the number of calendar days from a to b.
// It is computed on dates alone so DST transitions do not skew the count.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)

	return int(to.Sub(from).Hours() / 24)
}
