package leave_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/leave"
)

func TestParseDate(t *testing.T) {
	d, err := leave.ParseDate("2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, leave.NewDate(2025, time.March, 10), d)

	for _, bad := range []string{"", "10-03-2025", "2025-3-10", "2025-03-10T00:00:00Z", "yesterday"} {
		_, err := leave.ParseDate(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestDaysBetween(t *testing.T) {
	mar10 := leave.NewDate(2025, time.March, 10)

	assert.Equal(t, 0, leave.DaysBetween(mar10, mar10))
	assert.Equal(t, 2, leave.DaysBetween(mar10, mar10.AddDays(2)))
	assert.Equal(t, -2, leave.DaysBetween(mar10.AddDays(2), mar10))

	// Month and year boundaries are plain day arithmetic.
	assert.Equal(t, 1, leave.DaysBetween(leave.NewDate(2025, time.March, 31), leave.NewDate(2025, time.April, 1)))
	assert.Equal(t, 1, leave.DaysBetween(leave.NewDate(2025, time.December, 31), leave.NewDate(2026, time.January, 1)))
}

func TestMonthRange(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		last  int
	}{
		{2025, time.March, 31},
		{2025, time.April, 30},
		{2025, time.February, 28},
		{2024, time.February, 29}, // leap year
		{2025, time.December, 31},
	}
	for _, tt := range tests {
		first, last := leave.MonthRange(tt.year, tt.month)
		assert.Equal(t, leave.NewDate(tt.year, tt.month, 1), first)
		assert.Equal(t, leave.NewDate(tt.year, tt.month, tt.last), last)
	}
}

func TestDate_JSONRoundTrip(t *testing.T) {
	d := leave.NewDate(2025, time.March, 10)

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2025-03-10"`, string(data))

	var back leave.Date
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.Equal(d))

	assert.Error(t, json.Unmarshal([]byte(`"03/10/2025"`), &back))
}

func TestRequest_DurationAndOverlap(t *testing.T) {
	req := leave.Request{
		StartDate: leave.NewDate(2025, time.March, 10),
		EndDate:   leave.NewDate(2025, time.March, 12),
	}

	// Inclusive range: the 10th, 11th and 12th.
	assert.Equal(t, 3, req.Duration())

	single := leave.Request{
		StartDate: leave.NewDate(2025, time.March, 10),
		EndDate:   leave.NewDate(2025, time.March, 10),
	}
	assert.Equal(t, 1, single.Duration())

	first, last := leave.MonthRange(2025, time.March)
	assert.True(t, req.Overlaps(first, last))
	assert.True(t, req.Overlaps(leave.NewDate(2025, time.March, 12), leave.NewDate(2025, time.March, 20)), "touching end day overlaps")
	assert.False(t, req.Overlaps(leave.NewDate(2025, time.March, 13), leave.NewDate(2025, time.March, 20)))
	assert.False(t, req.Overlaps(leave.NewDate(2025, time.March, 1), leave.NewDate(2025, time.March, 9)))
}
