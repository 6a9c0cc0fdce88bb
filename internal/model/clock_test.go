package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	c, err := ParseClock("09:40")
	require.NoError(t, err)
	assert.Equal(t, NewClock(9, 40), c)
	assert.Equal(t, "09:40", c.String())

	c, err = ParseClock("24:00")
	require.NoError(t, err)
	assert.Equal(t, Clock(MinutesPerDay), c)

	for _, bad := range []string{"", "noon", "25:00", "10:61", "24:30", "10:00xyz", " 10:00", "10:00:59", "10:0"} {
		_, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestClockJSON(t *testing.T) {
	data, err := json.Marshal(NewClock(14, 5))
	require.NoError(t, err)
	assert.JSONEq(t, `"14:05"`, string(data))

	var c Clock
	require.NoError(t, json.Unmarshal([]byte(`"07:30"`), &c))
	assert.Equal(t, NewClock(7, 30), c)
}

func TestClockPgTime(t *testing.T) {
	v, err := NewClock(10, 15).TimeValue()
	require.NoError(t, err)
	assert.Equal(t, int64((10*time.Hour+15*time.Minute)/time.Microsecond), v.Microseconds)

	var c Clock
	require.NoError(t, c.ScanTime(v))
	assert.Equal(t, NewClock(10, 15), c)

	assert.Error(t, c.ScanTime(pgtype.Time{}))
}

func TestDayOfWeekMondayFirst(t *testing.T) {
	assert.Equal(t, DayOfWeek(0), DayOfWeekOf(time.Monday))
	assert.Equal(t, DayOfWeek(6), DayOfWeekOf(time.Sunday))
	for w := time.Sunday; w <= time.Saturday; w++ {
		assert.Equal(t, w, DayOfWeekOf(w).Weekday())
	}
	assert.False(t, DayOfWeek(7).Valid())

	rule := &AvailabilityRule{DayOfWeek: 0, IsActive: true}
	assert.True(t, rule.AppliesTo(monday))
	assert.False(t, rule.AppliesTo(monday.AddDate(0, 0, -1)))
}

func TestAtUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	at := At(monday, NewClock(9, 0), loc)
	assert.Equal(t, time.Date(2026, time.October, 19, 6, 0, 0, 0, time.UTC), at.UTC())
}
