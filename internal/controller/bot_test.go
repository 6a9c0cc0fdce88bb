package controller

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/Freeeeeet/lesson_scheduler/internal/notify"
	"github.com/Freeeeeet/lesson_scheduler/internal/repository/memory"
	"github.com/Freeeeeet/lesson_scheduler/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type botFixture struct {
	controller *BotController
	sessions   *service.SessionService
	teacher    *model.User
	student    *model.User
	course     *model.Course
}

func newBotFixture(t *testing.T) *botFixture {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	users := memory.NewUserStore()
	courses := memory.NewCourseStore()
	enrollments := memory.NewEnrollmentStore()
	rules := memory.NewAvailabilityStore()
	store := memory.NewSessionStore()

	f := &botFixture{
		teacher: &model.User{ID: uuid.New(), TelegramID: 100, FirstName: "Anna", IsTeacher: true, TimeZone: "UTC"},
		student: &model.User{ID: uuid.New(), TelegramID: 200, FirstName: "Ivan", TimeZone: "UTC"},
		course:  &model.Course{ID: uuid.New(), Title: "English", SessionDurationMinutes: 30, IsActive: true},
	}
	require.NoError(t, users.Upsert(ctx, f.teacher))
	require.NoError(t, users.Upsert(ctx, f.student))
	require.NoError(t, courses.Upsert(ctx, f.course))
	require.NoError(t, enrollments.Upsert(ctx, &model.Enrollment{StudentID: f.student.ID, CourseID: f.course.ID, Status: model.EnrollmentStatusActive}))
	require.NoError(t, rules.Create(ctx, &model.AvailabilityRule{
		ID:          uuid.New(),
		TeacherID:   f.teacher.ID,
		DayOfWeek:   model.DayOfWeekOf(time.Monday),
		StartTime:   model.NewClock(9, 0),
		EndTime:     model.NewClock(12, 0),
		IsActive:    true,
		SlotMinutes: 30,
		MaxSessions: 10,
	}))

	f.sessions = service.NewSessionService(store, rules, users, courses, enrollments, notify.NewLogNotifier(logger), logger)
	f.controller = NewBotController(nil, users, f.sessions, logger)
	// воскресенье перед занятием
	f.controller.now = func() time.Time { return time.Date(2030, time.January, 6, 12, 0, 0, 0, time.UTC) }
	return f
}

func (f *botFixture) book(t *testing.T, hour int) *model.Session {
	t.Helper()
	session, err := f.sessions.Book(context.Background(), service.BookRequest{
		CourseID:  f.course.ID,
		TeacherID: f.teacher.ID,
		StudentID: f.student.ID,
		Date:      time.Date(2030, time.January, 7, 0, 0, 0, 0, time.UTC),
		StartTime: model.NewClock(hour, 0),
	})
	require.NoError(t, err)
	return session
}

func TestStartText(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	text, err := f.controller.StartText(ctx, 100)
	require.NoError(t, err)
	assert.Contains(t, text, "Anna")
	assert.Contains(t, text, "учитель")

	text, err = f.controller.StartText(ctx, 999)
	require.NoError(t, err)
	assert.Contains(t, text, "не привязан")
	assert.Contains(t, text, "999")
}

func TestSessionsReply(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	text, markup, err := f.controller.SessionsReply(ctx, 200)
	require.NoError(t, err)
	assert.Nil(t, markup)
	assert.Contains(t, text, "занятий нет")

	first := f.book(t, 9)
	f.book(t, 10)

	text, markup, err = f.controller.SessionsReply(ctx, 200)
	require.NoError(t, err)
	assert.Contains(t, text, "Понедельник, 07.01.2030 09:00-09:30")
	assert.Contains(t, text, "2. 📅")
	require.NotNil(t, markup)
	require.Len(t, markup.InlineKeyboard, 2)
	assert.Equal(t, cancelPrefix+first.ID.String(), markup.InlineKeyboard[0][0].CallbackData)

	_, markup, err = f.controller.SessionsReply(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, markup)
}

func TestCancelFromCallback(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()
	session := f.book(t, 9)

	assert.Equal(t, "❌ Некорректная кнопка", f.controller.CancelFromCallback(ctx, 200, cancelPrefix+"oops"))
	assert.Equal(t, "❌ Чат не привязан к аккаунту", f.controller.CancelFromCallback(ctx, 999, cancelPrefix+session.ID.String()))

	assert.Equal(t, "✅ Занятие отменено", f.controller.CancelFromCallback(ctx, 200, cancelPrefix+session.ID.String()))

	got, err := f.sessions.Get(ctx, session.ID, f.student.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusCancelled, got.Status)

	// отменённые не показываются
	text, _, err := f.controller.SessionsReply(ctx, 100)
	require.NoError(t, err)
	assert.Contains(t, text, "занятий нет")
}
