package medication

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDueOn(t *testing.T) {
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC) // a Monday

	daily := &Medication{Frequency: FrequencyTwiceDaily, StartDate: start}
	weekly := &Medication{Frequency: FrequencyWeekly, StartDate: start}
	monthly := &Medication{Frequency: FrequencyMonthly, StartDate: start}

	monday := time.Date(2024, 1, 22, 0, 0, 0, 0, time.UTC)
	tuesday := time.Date(2024, 1, 23, 0, 0, 0, 0, time.UTC)
	fifteenthNextMonth := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)

	assert.True(t, daily.DueOn(monday))
	assert.True(t, daily.DueOn(tuesday))

	assert.True(t, weekly.DueOn(monday))
	assert.False(t, weekly.DueOn(tuesday))

	assert.True(t, monthly.DueOn(fifteenthNextMonth))
	assert.False(t, monthly.DueOn(monday))
}
