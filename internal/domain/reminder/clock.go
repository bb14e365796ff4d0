package reminder

import (
	"fmt"
	"time"
)

// Clock supplies the current time. Injected so generation and sweeping
// are deterministic under test.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// DoseTime combines a calendar day with an "HH:MM" time-of-day string
// in the given location and returns the absolute timestamp.
func DoseTime(day time.Time, hhmm string, loc *time.Location) (time.Time, error) {
	parsed, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time of day %q: %w", hhmm, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), parsed.Hour(), parsed.Minute(), 0, 0, loc), nil
}
