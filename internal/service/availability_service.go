package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_scheduler/internal/apperrors"
	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/Freeeeeet/lesson_scheduler/internal/repository"
	"github.com/Freeeeeet/lesson_scheduler/internal/slots"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AvailabilityService: правила доступности учителя и расчёт свободных слотов
type AvailabilityService struct {
	rules    repository.AvailabilityStore
	sessions repository.SessionStore
	users    UserDirectory
	courses  CourseCatalog
	logger   *zap.Logger
	now      func() time.Time
}

func NewAvailabilityService(
	rules repository.AvailabilityStore,
	sessions repository.SessionStore,
	users UserDirectory,
	courses CourseCatalog,
	logger *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		rules:    rules,
		sessions: sessions,
		users:    users,
		courses:  courses,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateRule создаёт еженедельное окно доступности учителя
func (s *AvailabilityService) CreateRule(ctx context.Context, teacherID uuid.UUID, rule *model.AvailabilityRule) (*model.AvailabilityRule, error) {
	// Проверяем что пользователь учитель
	teacher, err := s.users.GetByID(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if teacher == nil || !teacher.IsTeacher {
		return nil, apperrors.PermissionDenied("only teachers can manage availability")
	}

	rule.ID = uuid.New()
	rule.TeacherID = teacherID
	applyRuleDefaults(rule)

	if err := validateRule(rule); err != nil {
		return nil, err
	}

	if err := s.rules.Create(ctx, rule); err != nil {
		return nil, fmt.Errorf("create availability rule: %w", err)
	}

	s.logger.Info("Availability rule created",
		zap.String("rule_id", rule.ID.String()),
		zap.String("teacher_id", teacherID.String()),
		zap.Stringer("day_of_week", rule.DayOfWeek),
		zap.Stringer("start", rule.StartTime),
		zap.Stringer("end", rule.EndTime),
	)

	return rule, nil
}

// UpdateRule изменяет правило. Забронированные ранее сессии остаются как есть.
func (s *AvailabilityService) UpdateRule(ctx context.Context, actorID uuid.UUID, rule *model.AvailabilityRule) (*model.AvailabilityRule, error) {
	existing, err := s.getOwned(ctx, actorID, rule.ID)
	if err != nil {
		return nil, err
	}

	rule.TeacherID = existing.TeacherID
	rule.CreatedAt = existing.CreatedAt
	applyRuleDefaults(rule)

	if err := validateRule(rule); err != nil {
		return nil, err
	}

	if err := s.rules.Update(ctx, rule); err != nil {
		return nil, fmt.Errorf("update availability rule: %w", err)
	}

	s.logger.Info("Availability rule updated",
		zap.String("rule_id", rule.ID.String()),
		zap.String("teacher_id", rule.TeacherID.String()),
	)

	return rule, nil
}

// DeleteRule удаляет правило. Забронированные ранее сессии остаются как есть.
func (s *AvailabilityService) DeleteRule(ctx context.Context, actorID, ruleID uuid.UUID) error {
	if _, err := s.getOwned(ctx, actorID, ruleID); err != nil {
		return err
	}

	if err := s.rules.Delete(ctx, ruleID); err != nil {
		return fmt.Errorf("delete availability rule: %w", err)
	}

	s.logger.Info("Availability rule deleted",
		zap.String("rule_id", ruleID.String()),
		zap.String("teacher_id", actorID.String()),
	)

	return nil
}

// ListRules возвращает все правила учителя
func (s *AvailabilityService) ListRules(ctx context.Context, teacherID uuid.UUID) ([]*model.AvailabilityRule, error) {
	return s.rules.ListByTeacher(ctx, teacherID)
}

// GetAvailableSlots: свободные слоты учителя на дату: развёртка правил минус
// занятые интервалы, заполненные окна и уже начавшиеся слоты.
// Если указан курс, длительность слота берётся из него.
func (s *AvailabilityService) GetAvailableSlots(ctx context.Context, teacherID uuid.UUID, date time.Time, courseID uuid.UUID) ([]model.Slot, error) {
	teacher, err := s.users.GetByID(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("get teacher: %w", err)
	}
	if teacher == nil || !teacher.IsTeacher {
		return nil, apperrors.NotFound("teacher not found")
	}

	slotMinutes := 0
	if courseID != uuid.Nil {
		course, err := s.courses.GetByID(ctx, courseID)
		if err != nil {
			return nil, fmt.Errorf("get course: %w", err)
		}
		if course == nil {
			return nil, apperrors.NotFound("course not found")
		}
		slotMinutes = course.SessionDurationMinutes
	}

	date = model.DateOf(date)

	rules, err := s.rules.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("list availability rules: %w", err)
	}

	sessions, err := s.sessions.ListByTeacher(ctx, teacherID, date, date)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	free := slots.FilterFree(slots.Expand(rules, date, slotMinutes), sessions)

	byID := make(map[uuid.UUID]*model.AvailabilityRule, len(rules))
	for _, rule := range rules {
		byID[rule.ID] = rule
	}

	loc := teacher.Location()
	now := s.now()

	available := make([]model.Slot, 0, len(free))
	for _, slot := range free {
		if !model.At(slot.Date, slot.Start, loc).After(now) {
			continue
		}
		rule := byID[slot.RuleID]
		if rule.MaxSessions > 0 && slots.CountInWindow(rule, sessions, uuid.Nil) >= rule.MaxSessions {
			continue
		}
		available = append(available, slot)
	}

	return available, nil
}

func (s *AvailabilityService) getOwned(ctx context.Context, actorID, ruleID uuid.UUID) (*model.AvailabilityRule, error) {
	existing, err := s.rules.GetByID(ctx, ruleID)
	if err != nil {
		return nil, fmt.Errorf("get availability rule: %w", err)
	}
	if existing == nil {
		return nil, apperrors.NotFound("availability rule not found")
	}
	if existing.TeacherID != actorID {
		return nil, apperrors.PermissionDenied("only the owning teacher can change this rule")
	}
	return existing, nil
}

func applyRuleDefaults(rule *model.AvailabilityRule) {
	if rule.SlotMinutes == 0 {
		rule.SlotMinutes = model.DefaultSlotMinutes
	}
	if rule.MaxSessions == 0 {
		rule.MaxSessions = model.DefaultMaxSessions
	}
}

func validateRule(rule *model.AvailabilityRule) error {
	if !rule.DayOfWeek.Valid() {
		return apperrors.Validation(fmt.Sprintf("day of week %d is out of range", int(rule.DayOfWeek)))
	}
	if !rule.StartTime.Valid() || !rule.EndTime.Valid() || rule.StartTime >= rule.EndTime {
		return apperrors.InvalidInterval("rule start must be before its end")
	}
	if rule.SlotMinutes < model.MinSessionMinutes || rule.SlotMinutes > model.MaxSessionMinutes {
		return apperrors.Validation(fmt.Sprintf("slot duration must be between %d and %d minutes", model.MinSessionMinutes, model.MaxSessionMinutes))
	}
	if rule.BreakMinutes < 0 {
		return apperrors.Validation("break duration cannot be negative")
	}
	if rule.MaxSessions < 0 {
		return apperrors.Validation("max sessions cannot be negative")
	}
	return nil
}
