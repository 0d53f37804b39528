package jobs

import (
	"fmt"
	"time"
)

// NextRunAt resolves a "HH:MM" wall-clock time in the given IANA timezone to
// the next occurrence strictly after `after`. Timezone handling here is only
// used for reminder scheduling and is deliberately approximate around DST
// transitions.
func NextRunAt(clock, timezone string, after time.Time) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid nudge time %q: %w", clock, err)
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}

	local := after.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), t.Hour(), t.Minute(), 0, 0, loc)
	if !next.After(after) {
		next = next.AddDate(0, 0, 1)
	}
	return next, nil
}
