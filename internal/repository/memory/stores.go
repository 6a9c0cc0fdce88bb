package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Freeeeeet/lesson_scheduler/internal/apperrors"
	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/google/uuid"
)

// AvailabilityStore: правила доступности в памяти
type AvailabilityStore struct {
	mu    sync.RWMutex
	rules map[uuid.UUID]*model.AvailabilityRule
}

func NewAvailabilityStore() *AvailabilityStore {
	return &AvailabilityStore{rules: make(map[uuid.UUID]*model.AvailabilityRule)}
}

func (s *AvailabilityStore) Create(ctx context.Context, rule *model.AvailabilityRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.duplicate(rule) {
		return apperrors.Validation("availability rule with the same window already exists")
	}
	now := time.Now()
	rule.CreatedAt = now
	rule.UpdatedAt = now
	copied := *rule
	s.rules[rule.ID] = &copied
	return nil
}

func (s *AvailabilityStore) Update(ctx context.Context, rule *model.AvailabilityRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rules[rule.ID]; !ok {
		return apperrors.NotFound("availability rule not found")
	}
	if s.duplicate(rule) {
		return apperrors.Validation("availability rule with the same window already exists")
	}
	rule.UpdatedAt = time.Now()
	copied := *rule
	s.rules[rule.ID] = &copied
	return nil
}

func (s *AvailabilityStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rules[id]; !ok {
		return apperrors.NotFound("availability rule not found")
	}
	delete(s.rules, id)
	return nil
}

func (s *AvailabilityStore) GetByID(ctx context.Context, id uuid.UUID) (*model.AvailabilityRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rule, ok := s.rules[id]
	if !ok {
		return nil, nil
	}
	copied := *rule
	return &copied, nil
}

func (s *AvailabilityStore) ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]*model.AvailabilityRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*model.AvailabilityRule
	for _, rule := range s.rules {
		if rule.TeacherID == teacherID {
			copied := *rule
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DayOfWeek != result[j].DayOfWeek {
			return result[i].DayOfWeek < result[j].DayOfWeek
		}
		return result[i].StartTime < result[j].StartTime
	})
	return result, nil
}

// duplicate: окно (teacher, day_of_week, start, end) уже занято другим правилом
func (s *AvailabilityStore) duplicate(rule *model.AvailabilityRule) bool {
	for _, existing := range s.rules {
		if existing.ID == rule.ID {
			continue
		}
		if existing.TeacherID == rule.TeacherID && existing.DayOfWeek == rule.DayOfWeek &&
			existing.StartTime == rule.StartTime && existing.EndTime == rule.EndTime {
			return true
		}
	}
	return false
}

// UserStore: справочник пользователей в памяти
type UserStore struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*model.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[uuid.UUID]*model.User)}
}

func (s *UserStore) Upsert(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.users[user.ID]; ok {
		user.CreatedAt = existing.CreatedAt
	} else {
		user.CreatedAt = time.Now()
	}
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (s *UserStore) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	if telegramID == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.TelegramID == telegramID {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

// CourseStore: каталог курсов в памяти
type CourseStore struct {
	mu      sync.RWMutex
	courses map[uuid.UUID]*model.Course
}

func NewCourseStore() *CourseStore {
	return &CourseStore{courses: make(map[uuid.UUID]*model.Course)}
}

func (s *CourseStore) Upsert(ctx context.Context, course *model.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if course.SessionDurationMinutes == 0 {
		course.SessionDurationMinutes = model.DefaultSlotMinutes
	}
	if existing, ok := s.courses[course.ID]; ok {
		course.CreatedAt = existing.CreatedAt
	} else {
		course.CreatedAt = time.Now()
	}
	copied := *course
	s.courses[course.ID] = &copied
	return nil
}

func (s *CourseStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	course, ok := s.courses[id]
	if !ok {
		return nil, nil
	}
	copied := *course
	return &copied, nil
}

type enrollmentKey struct {
	student uuid.UUID
	course  uuid.UUID
}

// EnrollmentStore: записи на курсы в памяти
type EnrollmentStore struct {
	mu          sync.Mutex
	enrollments map[enrollmentKey]*model.Enrollment
}

func NewEnrollmentStore() *EnrollmentStore {
	return &EnrollmentStore{enrollments: make(map[enrollmentKey]*model.Enrollment)}
}

func (s *EnrollmentStore) Upsert(ctx context.Context, e *model.Enrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.UpdatedAt = time.Now()
	s.enrollments[enrollmentKey{e.StudentID, e.CourseID}] = cloneEnrollment(e)
	return nil
}

func (s *EnrollmentStore) Get(ctx context.Context, studentID, courseID uuid.UUID) (*model.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.enrollments[enrollmentKey{studentID, courseID}]
	if !ok {
		return nil, nil
	}
	return cloneEnrollment(e), nil
}

func (s *EnrollmentStore) RecordLesson(ctx context.Context, studentID, courseID uuid.UUID, lessonKey string, totalLessons int) (*model.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.enrollments[enrollmentKey{studentID, courseID}]
	if !ok {
		return nil, apperrors.NotFound("enrollment not found")
	}
	if e.RecordLesson(lessonKey, totalLessons) {
		e.UpdatedAt = time.Now()
	}
	return cloneEnrollment(e), nil
}

func cloneEnrollment(e *model.Enrollment) *model.Enrollment {
	c := *e
	c.CompletedLessons = append([]string(nil), e.CompletedLessons...)
	return &c
}
