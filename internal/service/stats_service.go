package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Freeeeeet/lesson_scheduler/internal/apperrors"
	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/Freeeeeet/lesson_scheduler/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StatsService считает статистику по истории сессий на лету
type StatsService struct {
	sessions repository.SessionStore
	users    UserDirectory
	logger   *zap.Logger
	now      func() time.Time
}

func NewStatsService(sessions repository.SessionStore, users UserDirectory, logger *zap.Logger) *StatsService {
	return &StatsService{
		sessions: sessions,
		users:    users,
		logger:   logger,
		now:      time.Now,
	}
}

// TeacherStats: показатели учителя за период
func (s *StatsService) TeacherStats(ctx context.Context, teacherID uuid.UUID, from, to time.Time) (*model.TeacherStats, error) {
	teacher, err := s.getUser(ctx, teacherID, from, to)
	if err != nil {
		return nil, err
	}
	if !teacher.IsTeacher {
		return nil, apperrors.NotFound("teacher not found")
	}

	sessions, err := s.sessions.ListByTeacher(ctx, teacherID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list teacher sessions: %w", err)
	}

	stats := &model.TeacherStats{
		SessionStats: AggregateSessions(sessions, s.today(teacher)),
	}
	stats.PeriodStart = model.DateOf(from)
	stats.PeriodEnd = model.DateOf(to)

	all := make(map[uuid.UUID]struct{})
	active := make(map[uuid.UUID]struct{})
	for _, session := range sessions {
		all[session.StudentID] = struct{}{}
		if session.Status.BlocksSlot() {
			active[session.StudentID] = struct{}{}
		}
	}
	stats.TotalStudents = len(all)
	stats.ActiveStudents = len(active)

	s.logger.Debug("Teacher stats calculated",
		zap.String("teacher_id", teacherID.String()),
		zap.Int("sessions", stats.SessionCount),
	)

	return stats, nil
}

// StudentStats: показатели студента за период, включая серию дней обучения
func (s *StatsService) StudentStats(ctx context.Context, studentID uuid.UUID, from, to time.Time) (*model.StudentStats, error) {
	student, err := s.getUser(ctx, studentID, from, to)
	if err != nil {
		return nil, err
	}

	sessions, err := s.sessions.ListByStudent(ctx, studentID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list student sessions: %w", err)
	}

	stats := &model.StudentStats{
		SessionStats:   AggregateSessions(sessions, s.today(student)),
		LearningStreak: LearningStreak(sessions),
	}
	stats.PeriodStart = model.DateOf(from)
	stats.PeriodEnd = model.DateOf(to)

	return stats, nil
}

func (s *StatsService) getUser(ctx context.Context, userID uuid.UUID, from, to time.Time) (*model.User, error) {
	if to.Before(from) {
		return nil, apperrors.Validation("period end is before period start")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, apperrors.NotFound("user not found")
	}
	return user, nil
}

func (s *StatsService) today(user *model.User) time.Time {
	return model.DateOf(s.now().In(user.Location()))
}

// AggregateSessions сворачивает сессии в счётчики. Прошедшими считаются
// сессии с датой раньше today.
//
// completion rate = завершённые / все прошедшие,
// attendance rate = завершённые / (завершённые + неявки) среди прошедших.
// Проценты округляются до одного знака.
func AggregateSessions(sessions []*model.Session, today time.Time) model.SessionStats {
	var (
		stats         model.SessionStats
		pastCompleted int
		pastNoShow    int
		ratingSum     int
	)
	today = model.DateOf(today)

	for _, session := range sessions {
		stats.SessionCount++

		switch session.Status {
		case model.SessionStatusCompleted:
			stats.CompletedCount++
			if stats.LastSessionDate == nil || session.Date.After(*stats.LastSessionDate) {
				last := model.DateOf(session.Date)
				stats.LastSessionDate = &last
			}
		case model.SessionStatusCancelled:
			stats.CancelledCount++
		case model.SessionStatusNoShow:
			stats.NoShowCount++
		}

		if session.Date.Before(today) {
			stats.PastCount++
			switch session.Status {
			case model.SessionStatusCompleted:
				pastCompleted++
			case model.SessionStatusNoShow:
				pastNoShow++
			}
		} else if session.Status.BlocksSlot() {
			stats.UpcomingCount++
		}

		if session.FeedbackRating != nil {
			stats.RatedCount++
			ratingSum += *session.FeedbackRating
		}
	}

	stats.CompletionRate = percent(pastCompleted, stats.PastCount)
	stats.AttendanceRate = percent(pastCompleted, pastCompleted+pastNoShow)
	if stats.RatedCount > 0 {
		stats.AverageRating = decimal.NewFromInt(int64(ratingSum)).
			Div(decimal.NewFromInt(int64(stats.RatedCount))).
			Round(2)
	}

	return stats
}

// LearningStreak: число подряд идущих дней с завершённой сессией,
// считая назад от самого последнего такого дня
func LearningStreak(sessions []*model.Session) int {
	seen := make(map[time.Time]struct{})
	var days []time.Time
	for _, session := range sessions {
		if session.Status != model.SessionStatusCompleted {
			continue
		}
		day := model.DateOf(session.Date)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	if len(days) == 0 {
		return 0
	}

	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	streak := 1
	for i := 1; i < len(days); i++ {
		if !days[i-1].AddDate(0, 0, -1).Equal(days[i]) {
			break
		}
		streak++
	}
	return streak
}

func percent(part, total int) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(part)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(1)
}
