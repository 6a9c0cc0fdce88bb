package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Freeeeeet/lesson_scheduler/internal/apperrors"
	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// SeedUser, SeedCourse, SeedEnrollment, SeedRule: записи YAML-файла
type SeedUser struct {
	ID         uuid.UUID `yaml:"id"`
	TelegramID int64     `yaml:"telegram_id"`
	FirstName  string    `yaml:"first_name"`
	LastName   string    `yaml:"last_name"`
	IsTeacher  bool      `yaml:"is_teacher"`
	TimeZone   string    `yaml:"time_zone"`
}

type SeedCourse struct {
	ID              uuid.UUID `yaml:"id"`
	Title           string    `yaml:"title"`
	DurationMinutes int       `yaml:"duration_minutes"`
	TotalLessons    int       `yaml:"total_lessons"`
}

type SeedEnrollment struct {
	StudentID uuid.UUID `yaml:"student_id"`
	CourseID  uuid.UUID `yaml:"course_id"`
	Status    string    `yaml:"status"`
}

type SeedRule struct {
	TeacherID   uuid.UUID `yaml:"teacher_id"`
	DayOfWeek   int       `yaml:"day_of_week"` // 0 = понедельник
	Start       string    `yaml:"start"`
	End         string    `yaml:"end"`
	MaxSessions int       `yaml:"max_sessions"`
}

// SeedFile: справочные данные для локального запуска
type SeedFile struct {
	Users        []SeedUser       `yaml:"users"`
	Courses      []SeedCourse     `yaml:"courses"`
	Enrollments  []SeedEnrollment `yaml:"enrollments"`
	Availability []SeedRule       `yaml:"availability"`
}

type (
	UserWriter interface {
		Upsert(ctx context.Context, user *model.User) error
	}
	CourseWriter interface {
		Upsert(ctx context.Context, course *model.Course) error
	}
	EnrollmentWriter interface {
		Upsert(ctx context.Context, e *model.Enrollment) error
	}
	RuleCreator interface {
		CreateRule(ctx context.Context, teacherID uuid.UUID, rule *model.AvailabilityRule) (*model.AvailabilityRule, error)
	}
)

// Seeder загружает SeedFile в хранилища
type Seeder struct {
	Users        UserWriter
	Courses      CourseWriter
	Enrollments  EnrollmentWriter
	Availability RuleCreator
	Logger       *zap.Logger
}

// LoadSeedFile читает YAML-файл с данными
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &seed, nil
}

// Apply записывает данные. Правила создаются через сервис, чтобы прошла
// та же валидация, что и у API.
func (s *Seeder) Apply(ctx context.Context, seed *SeedFile) error {
	for _, u := range seed.Users {
		if _, err := time.LoadLocation(u.TimeZone); err != nil {
			return fmt.Errorf("user %s: invalid time zone %q: %w", u.ID, u.TimeZone, err)
		}
		user := &model.User{
			ID:         u.ID,
			TelegramID: u.TelegramID,
			FirstName:  u.FirstName,
			LastName:   u.LastName,
			IsTeacher:  u.IsTeacher,
			TimeZone:   u.TimeZone,
		}
		if err := s.Users.Upsert(ctx, user); err != nil {
			return fmt.Errorf("upsert user: %w", err)
		}
	}

	for _, c := range seed.Courses {
		course := &model.Course{
			ID:                     c.ID,
			Title:                  c.Title,
			SessionDurationMinutes: c.DurationMinutes,
			TotalLessons:           c.TotalLessons,
			IsActive:               true,
		}
		if err := s.Courses.Upsert(ctx, course); err != nil {
			return fmt.Errorf("upsert course: %w", err)
		}
	}

	for _, e := range seed.Enrollments {
		status := model.EnrollmentStatus(e.Status)
		if status == "" {
			status = model.EnrollmentStatusActive
		}
		enrollment := &model.Enrollment{
			StudentID: e.StudentID,
			CourseID:  e.CourseID,
			Status:    status,
		}
		if err := s.Enrollments.Upsert(ctx, enrollment); err != nil {
			return fmt.Errorf("upsert enrollment: %w", err)
		}
	}

	for _, a := range seed.Availability {
		start, err := model.ParseClock(a.Start)
		if err != nil {
			return fmt.Errorf("availability start: %w", err)
		}
		end, err := model.ParseClock(a.End)
		if err != nil {
			return fmt.Errorf("availability end: %w", err)
		}
		rule := &model.AvailabilityRule{
			DayOfWeek:   model.DayOfWeek(a.DayOfWeek),
			StartTime:   start,
			EndTime:     end,
			IsActive:    true,
			MaxSessions: a.MaxSessions,
		}
		if _, err := s.Availability.CreateRule(ctx, a.TeacherID, rule); err != nil {
			// при повторном запуске окно уже есть
			if errors.Is(err, apperrors.ErrValidation) {
				s.Logger.Warn("Skipping availability rule", zap.Error(err))
				continue
			}
			return fmt.Errorf("create availability rule: %w", err)
		}
	}

	s.Logger.Info("Seed data applied",
		zap.Int("users", len(seed.Users)),
		zap.Int("courses", len(seed.Courses)),
		zap.Int("enrollments", len(seed.Enrollments)),
		zap.Int("rules", len(seed.Availability)),
	)
	return nil
}
