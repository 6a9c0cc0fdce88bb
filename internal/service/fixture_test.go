package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/Freeeeeet/lesson_scheduler/internal/repository/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// 2026-10-19: понедельник
var nextMonday = time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC)

type sentEvent struct {
	sessionID uuid.UUID
	kind      model.EventKind
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []sentEvent
	err    error
}

func (n *recordingNotifier) Notify(ctx context.Context, session *model.Session, kind model.EventKind) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, sentEvent{sessionID: session.ID, kind: kind})
	return n.err
}

func (n *recordingNotifier) kinds() []model.EventKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	var kinds []model.EventKind
	for _, e := range n.events {
		kinds = append(kinds, e.kind)
	}
	return kinds
}

type fixture struct {
	t *testing.T

	sessions    *memory.SessionStore
	rules       *memory.AvailabilityStore
	users       *memory.UserStore
	courses     *memory.CourseStore
	enrollments *memory.EnrollmentStore
	notifier    *recordingNotifier

	svc   *SessionService
	avail *AvailabilityService
	stats *StatsService

	teacher  *model.User
	student  *model.User
	stranger *model.User
	course   *model.Course

	now time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{
		t:           t,
		sessions:    memory.NewSessionStore(),
		rules:       memory.NewAvailabilityStore(),
		users:       memory.NewUserStore(),
		courses:     memory.NewCourseStore(),
		enrollments: memory.NewEnrollmentStore(),
		notifier:    &recordingNotifier{},
		// воскресенье накануне, полдень
		now: time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC),
	}

	f.teacher = &model.User{ID: uuid.New(), FirstName: "Anna", IsTeacher: true, TimeZone: "UTC"}
	f.student = &model.User{ID: uuid.New(), FirstName: "Ivan", TimeZone: "UTC"}
	f.stranger = &model.User{ID: uuid.New(), FirstName: "Oleg", TimeZone: "UTC"}
	for _, u := range []*model.User{f.teacher, f.student, f.stranger} {
		require.NoError(t, f.users.Upsert(ctx, u))
	}

	f.course = &model.Course{ID: uuid.New(), Title: "English B1", SessionDurationMinutes: 30, TotalLessons: 10, IsActive: true}
	require.NoError(t, f.courses.Upsert(ctx, f.course))
	require.NoError(t, f.enrollments.Upsert(ctx, &model.Enrollment{
		StudentID: f.student.ID,
		CourseID:  f.course.ID,
		Status:    model.EnrollmentStatusActive,
	}))

	logger := zap.NewNop()
	clock := func() time.Time { return f.now }

	f.svc = NewSessionService(f.sessions, f.rules, f.users, f.courses, f.enrollments, f.notifier, logger)
	f.svc.now = clock
	f.avail = NewAvailabilityService(f.rules, f.sessions, f.users, f.courses, logger)
	f.avail.now = clock
	f.stats = NewStatsService(f.sessions, f.users, logger)
	f.stats.now = clock

	return f
}

// addRule создаёт правило напрямую в хранилище
func (f *fixture) addRule(weekday time.Weekday, start, end string, maxSessions int) *model.AvailabilityRule {
	f.t.Helper()
	rule := &model.AvailabilityRule{
		ID:           uuid.New(),
		TeacherID:    f.teacher.ID,
		DayOfWeek:    model.DayOfWeekOf(weekday),
		StartTime:    clock(start),
		EndTime:      clock(end),
		IsActive:     true,
		MaxSessions:  maxSessions,
		BreakMinutes: model.DefaultBreakMinutes,
		SlotMinutes:  model.DefaultSlotMinutes,
	}
	require.NoError(f.t, f.rules.Create(context.Background(), rule))
	return rule
}

func (f *fixture) bookRequest(date time.Time, start string) BookRequest {
	return BookRequest{
		CourseID:  f.course.ID,
		TeacherID: f.teacher.ID,
		StudentID: f.student.ID,
		Date:      date,
		StartTime: clock(start),
		Platform:  model.PlatformZoom,
	}
}

func (f *fixture) book(start string) *model.Session {
	f.t.Helper()
	session, err := f.svc.Book(context.Background(), f.bookRequest(nextMonday, start))
	require.NoError(f.t, err)
	return session
}

func clock(s string) model.Clock {
	c, err := model.ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}
