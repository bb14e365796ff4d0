package medication

import "time"

// Frequency describes how often a medication is supposed to be taken.
type Frequency string

const (
	FrequencyOnceDaily  Frequency = "once_daily"
	FrequencyTwiceDaily Frequency = "twice_daily"
	FrequencyThreeTimes Frequency = "three_times_daily"
	FrequencyFourTimes  Frequency = "four_times_daily"
	FrequencyAsNeeded   Frequency = "as_needed"
	FrequencyWeekly     Frequency = "weekly"
	FrequencyMonthly    Frequency = "monthly"
)

// Medication represents one medication definition owned by a user.
// The reminder engine reads these; it never writes them.
type Medication struct {
	ID        string
	UserID    string
	Name      string
	Dosage    string
	Frequency Frequency
	// Times holds the expected dose slots as "HH:MM" strings (24h),
	// in ascending order. Empty for as_needed medications.
	Times     []string
	StartDate time.Time
	EndDate   *time.Time
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DueOn reports whether the medication's frequency calls for doses on
// the given calendar day. Daily frequencies are due every day; weekly
// medications are due on the weekday of their start date, monthly ones
// on its day-of-month.
func (m *Medication) DueOn(day time.Time) bool {
	switch m.Frequency {
	case FrequencyWeekly:
		return day.Weekday() == m.StartDate.Weekday()
	case FrequencyMonthly:
		return day.Day() == m.StartDate.Day()
	default:
		return true
	}
}
