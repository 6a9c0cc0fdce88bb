package model

import (
	"testing"
	"time"

	"github.com/Freeeeeet/lesson_scheduler/internal/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var monday = time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC)

func slot(start, end string) TimeSlot {
	s, _ := ParseClock(start)
	e, _ := ParseClock(end)
	return TimeSlot{Date: monday, Start: s, End: e}
}

func TestTimeSlotOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b TimeSlot
		want bool
	}{
		{"partial overlap", slot("09:00", "09:30"), slot("09:15", "09:45"), true},
		{"touching endpoints", slot("09:00", "09:30"), slot("09:30", "10:00"), false},
		{"contained", slot("09:00", "10:00"), slot("09:10", "09:20"), true},
		{"identical", slot("09:00", "09:30"), slot("09:00", "09:30"), true},
		{"disjoint", slot("09:00", "09:30"), slot("11:00", "11:30"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}

func TestTimeSlotOverlapsDifferentDates(t *testing.T) {
	a := slot("09:00", "09:30")
	b := a
	b.Date = monday.AddDate(0, 0, 7)
	assert.False(t, a.Overlaps(b))
}

func TestTimeSlotContains(t *testing.T) {
	s := slot("09:00", "09:30")
	assert.True(t, s.Contains(NewClock(9, 0)))
	assert.True(t, s.Contains(NewClock(9, 29)))
	assert.False(t, s.Contains(NewClock(9, 30)))
	assert.False(t, s.Contains(NewClock(8, 59)))
}

func TestNewTimeSlot(t *testing.T) {
	s, err := NewTimeSlot(monday.Add(13*time.Hour), NewClock(9, 0), 45)
	require.NoError(t, err)
	assert.Equal(t, monday, s.Date)
	assert.Equal(t, NewClock(9, 45), s.End)
	assert.Equal(t, 45, s.Minutes())

	_, err = NewTimeSlot(monday, NewClock(23, 45), 30)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInterval)

	_, err = NewTimeSlot(monday, NewClock(9, 0), 0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInterval)

	s, err = NewTimeSlot(monday, NewClock(23, 30), 30)
	require.NoError(t, err)
	assert.Equal(t, "24:00", s.End.String())
}

func TestSlotEqualIgnoresRule(t *testing.T) {
	a := Slot{TimeSlot: slot("09:00", "09:30")}
	b := a
	b.RuleID[0] = 1
	assert.True(t, a.Equal(b))
}
