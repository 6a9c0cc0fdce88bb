package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/lesson_scheduler/internal/apperrors"
	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/Freeeeeet/lesson_scheduler/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC)

func newSession(teacherID uuid.UUID, start model.Clock) *model.Session {
	return &model.Session{
		ID:              uuid.New(),
		TeacherID:       teacherID,
		StudentID:       uuid.New(),
		Date:            day,
		StartTime:       start,
		EndTime:         start.Add(30),
		DurationMinutes: 30,
		Status:          model.SessionStatusScheduled,
	}
}

func insert(t *testing.T, store *SessionStore, s *model.Session) error {
	t.Helper()
	return store.InTeacherTx(context.Background(), s.TeacherID, func(ctx context.Context, tx repository.SessionTx) error {
		return tx.Insert(ctx, s)
	})
}

func TestInTeacherTxRollsBackOnError(t *testing.T) {
	store := NewSessionStore()
	s := newSession(uuid.New(), model.NewClock(9, 0))
	boom := errors.New("boom")

	err := store.InTeacherTx(context.Background(), s.TeacherID, func(ctx context.Context, tx repository.SessionTx) error {
		require.NoError(t, tx.Insert(ctx, s))

		active, err := tx.ListActiveOnDate(ctx, s.TeacherID, day)
		require.NoError(t, err)
		assert.Len(t, active, 1, "transaction sees its own writes")
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.GetByID(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCommitRejectsDuplicateActiveStart(t *testing.T) {
	store := NewSessionStore()
	teacher := uuid.New()
	first := newSession(teacher, model.NewClock(9, 0))
	require.NoError(t, insert(t, store, first))

	err := insert(t, store, newSession(teacher, model.NewClock(9, 0)))
	assert.ErrorIs(t, err, apperrors.ErrSlotUnavailable)
	id, ok := apperrors.ConflictingSession(err)
	require.True(t, ok)
	assert.Equal(t, first.ID, id)

	// другой учитель в то же время: не конфликт
	assert.NoError(t, insert(t, store, newSession(uuid.New(), model.NewClock(9, 0))))
}

func TestCancelledSessionFreesStart(t *testing.T) {
	store := NewSessionStore()
	teacher := uuid.New()
	first := newSession(teacher, model.NewClock(9, 0))
	require.NoError(t, insert(t, store, first))

	err := store.InTeacherTx(context.Background(), teacher, func(ctx context.Context, tx repository.SessionTx) error {
		s, err := tx.GetForUpdate(ctx, first.ID)
		require.NoError(t, err)
		s.Status = model.SessionStatusCancelled
		return tx.Update(ctx, s)
	})
	require.NoError(t, err)

	assert.NoError(t, insert(t, store, newSession(teacher, model.NewClock(9, 0))))
}

func TestPendingRemindersAndMark(t *testing.T) {
	store := NewSessionStore()
	s := newSession(uuid.New(), model.NewClock(9, 0))
	require.NoError(t, insert(t, store, s))

	pending, err := store.ListPendingReminders(context.Background(), day, day)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, store.MarkReminderSent(context.Background(), s.ID))

	pending, err = store.ListPendingReminders(context.Background(), day, day)
	require.NoError(t, err)
	assert.Empty(t, pending)

	assert.ErrorIs(t, store.MarkReminderSent(context.Background(), uuid.New()), apperrors.ErrNotFound)
}

func TestMarkReminderSentWaitsForTeacherTx(t *testing.T) {
	store := NewSessionStore()
	s := newSession(uuid.New(), model.NewClock(9, 0))
	require.NoError(t, insert(t, store, s))

	marked := make(chan error, 1)
	var (
		markErr error
		early   bool
	)
	err := store.InTeacherTx(context.Background(), s.TeacherID, func(ctx context.Context, tx repository.SessionTx) error {
		current, err := tx.GetForUpdate(ctx, s.ID)
		if err != nil {
			return err
		}

		go func() { marked <- store.MarkReminderSent(context.Background(), s.ID) }()
		select {
		case markErr = <-marked:
			early = true
			t.Error("reminder flag was written while the teacher transaction was open")
		case <-time.After(50 * time.Millisecond):
		}

		current.Topic = "grammar"
		return tx.Update(ctx, current)
	})
	require.NoError(t, err)
	if !early {
		markErr = <-marked
	}
	require.NoError(t, markErr)

	got, err := store.GetByID(context.Background(), s.ID)
	require.NoError(t, err)
	assert.True(t, got.ReminderSent)
	assert.Equal(t, "grammar", got.Topic)
}

func TestGetByIDReturnsCopy(t *testing.T) {
	store := NewSessionStore()
	s := newSession(uuid.New(), model.NewClock(9, 0))
	require.NoError(t, insert(t, store, s))

	got, err := store.GetByID(context.Background(), s.ID)
	require.NoError(t, err)
	got.Status = model.SessionStatusCancelled

	again, err := store.GetByID(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusScheduled, again.Status)
}

func TestEnrollmentRecordLesson(t *testing.T) {
	store := NewEnrollmentStore()
	student, course := uuid.New(), uuid.New()
	require.NoError(t, store.Upsert(context.Background(), &model.Enrollment{
		StudentID: student,
		CourseID:  course,
		Status:    model.EnrollmentStatusActive,
	}))

	e, err := store.RecordLesson(context.Background(), student, course, model.LessonKey(uuid.New()), 4)
	require.NoError(t, err)
	assert.Equal(t, "25", e.ProgressPercentage.String())

	_, err = store.RecordLesson(context.Background(), uuid.New(), course, "x", 4)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
