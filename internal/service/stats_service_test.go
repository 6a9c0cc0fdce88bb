package service

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/lesson_scheduler/internal/apperrors"
	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dated(daysFromToday int, status model.SessionStatus) *model.Session {
	return &model.Session{
		ID:        uuid.New(),
		StudentID: uuid.New(),
		Date:      statsToday.AddDate(0, 0, daysFromToday),
		StartTime: model.NewClock(10, 0),
		EndTime:   model.NewClock(10, 30),
		Status:    status,
	}
}

var statsToday = time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC)

func TestAggregateSessions(t *testing.T) {
	four, two := 4, 2
	rated := dated(-3, model.SessionStatusCompleted)
	rated.FeedbackRating = &four
	ratedLow := dated(-2, model.SessionStatusCompleted)
	ratedLow.FeedbackRating = &two

	sessions := []*model.Session{
		rated,
		ratedLow,
		dated(-2, model.SessionStatusCompleted),
		dated(-1, model.SessionStatusNoShow),
		dated(-1, model.SessionStatusCancelled),
		dated(-4, model.SessionStatusCancelled),
		dated(0, model.SessionStatusScheduled),
		dated(2, model.SessionStatusScheduled),
		dated(3, model.SessionStatusCancelled),
	}

	stats := AggregateSessions(sessions, statsToday)

	assert.Equal(t, 9, stats.SessionCount)
	assert.Equal(t, 3, stats.CompletedCount)
	assert.Equal(t, 3, stats.CancelledCount)
	assert.Equal(t, 1, stats.NoShowCount)
	assert.Equal(t, 6, stats.PastCount)
	assert.Equal(t, 2, stats.UpcomingCount)
	// 3 из 6 прошедших
	assert.Equal(t, "50", stats.CompletionRate.String())
	// 3 из 4 (завершённые + неявки)
	assert.Equal(t, "75", stats.AttendanceRate.String())
	assert.Equal(t, 2, stats.RatedCount)
	assert.Equal(t, "3", stats.AverageRating.String())
	require.NotNil(t, stats.LastSessionDate)
	assert.True(t, stats.LastSessionDate.Equal(statsToday.AddDate(0, 0, -2)))
}

func TestAggregateSessionsRoundsToOneDecimal(t *testing.T) {
	sessions := []*model.Session{
		dated(-1, model.SessionStatusCompleted),
		dated(-2, model.SessionStatusCompleted),
		dated(-3, model.SessionStatusCancelled),
	}

	stats := AggregateSessions(sessions, statsToday)

	assert.Equal(t, "66.7", stats.CompletionRate.String())
	assert.Equal(t, "100", stats.AttendanceRate.String())
}

func TestAggregateSessionsEmpty(t *testing.T) {
	stats := AggregateSessions(nil, statsToday)

	assert.Zero(t, stats.SessionCount)
	assert.True(t, stats.CompletionRate.IsZero())
	assert.True(t, stats.AttendanceRate.IsZero())
	assert.True(t, stats.AverageRating.IsZero())
	assert.Nil(t, stats.LastSessionDate)
}

func TestLearningStreak(t *testing.T) {
	tests := []struct {
		name     string
		sessions []*model.Session
		want     int
	}{
		{"no sessions", nil, 0},
		{"only cancelled", []*model.Session{dated(-1, model.SessionStatusCancelled)}, 0},
		{
			"three days in a row with duplicates",
			[]*model.Session{
				dated(-1, model.SessionStatusCompleted),
				dated(-1, model.SessionStatusCompleted),
				dated(-2, model.SessionStatusCompleted),
				dated(-3, model.SessionStatusCompleted),
			},
			3,
		},
		{
			"gap breaks the streak",
			[]*model.Session{
				dated(-1, model.SessionStatusCompleted),
				dated(-2, model.SessionStatusCompleted),
				dated(-4, model.SessionStatusCompleted),
				dated(-5, model.SessionStatusCompleted),
			},
			2,
		},
		{
			"non-completed day does not count",
			[]*model.Session{
				dated(-1, model.SessionStatusCompleted),
				dated(-2, model.SessionStatusNoShow),
				dated(-3, model.SessionStatusCompleted),
			},
			1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LearningStreak(tt.sessions))
		})
	}
}

func TestTeacherStats(t *testing.T) {
	f := newFixture(t)
	f.addRule(time.Monday, "09:00", "12:00", 10)
	ctx := context.Background()

	done := f.book("09:00")
	f.book("10:20")
	_, err := f.svc.Complete(ctx, done.ID, f.teacher.ID)
	require.NoError(t, err)

	// неделя спустя обе сессии в прошлом
	f.now = nextMonday.AddDate(0, 0, 7)

	stats, err := f.stats.TeacherStats(ctx, f.teacher.ID, nextMonday, nextMonday.AddDate(0, 0, 6))
	require.NoError(t, err)

	assert.Equal(t, 2, stats.SessionCount)
	assert.Equal(t, 1, stats.CompletedCount)
	assert.Equal(t, 2, stats.PastCount)
	assert.Equal(t, "50", stats.CompletionRate.String())
	assert.Equal(t, "100", stats.AttendanceRate.String())
	assert.Equal(t, 1, stats.TotalStudents)
	assert.Equal(t, 1, stats.ActiveStudents)
	require.NotNil(t, stats.LastSessionDate)
	assert.True(t, stats.LastSessionDate.Equal(nextMonday))
	assert.True(t, stats.PeriodStart.Equal(nextMonday))
}

func TestStudentStats(t *testing.T) {
	f := newFixture(t)
	f.addRule(time.Monday, "09:00", "12:00", 10)
	ctx := context.Background()

	session := f.book("09:00")
	_, err := f.svc.Complete(ctx, session.ID, f.teacher.ID)
	require.NoError(t, err)

	stats, err := f.stats.StudentStats(ctx, f.student.ID, nextMonday.AddDate(0, 0, -30), nextMonday.AddDate(0, 0, 30))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.CompletedCount)
	assert.Equal(t, 1, stats.LearningStreak)
}

func TestStatsErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.stats.TeacherStats(ctx, f.student.ID, nextMonday, nextMonday)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.stats.StudentStats(ctx, uuid.New(), nextMonday, nextMonday)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.stats.TeacherStats(ctx, f.teacher.ID, nextMonday, nextMonday.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
