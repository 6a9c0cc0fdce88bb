package slots

import (
	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/google/uuid"
)

// FindConflict возвращает первую неотменённую сессию той же даты, пересекающуюся
// с кандидатом. Сессия с идентификатором skipID (переносимая) не учитывается.
func FindConflict(candidate model.TimeSlot, sessions []*model.Session, skipID uuid.UUID) *model.Session {
	for _, s := range sessions {
		if s == nil || !s.Status.BlocksSlot() {
			continue
		}
		if skipID != uuid.Nil && s.ID == skipID {
			continue
		}
		if candidate.Overlaps(s.Interval()) {
			return s
		}
	}
	return nil
}

// FilterFree убирает слоты, пересекающиеся с активными сессиями
func FilterFree(slots []model.Slot, sessions []*model.Session) []model.Slot {
	free := make([]model.Slot, 0, len(slots))
	for _, slot := range slots {
		if FindConflict(slot.TimeSlot, sessions, uuid.Nil) == nil {
			free = append(free, slot)
		}
	}
	return free
}

// WithinRule ищет активное правило, окно которого целиком содержит кандидата
func WithinRule(candidate model.TimeSlot, rules []*model.AvailabilityRule) *model.AvailabilityRule {
	for _, rule := range rules {
		if rule == nil || !rule.AppliesTo(candidate.Date) {
			continue
		}
		if candidate.Within(rule.StartTime, rule.EndTime) {
			return rule
		}
	}
	return nil
}

// CountInWindow: сколько активных сессий уже занимают окно правила на дату
func CountInWindow(rule *model.AvailabilityRule, sessions []*model.Session, skipID uuid.UUID) int {
	count := 0
	for _, s := range sessions {
		if s == nil || !s.Status.BlocksSlot() {
			continue
		}
		if skipID != uuid.Nil && s.ID == skipID {
			continue
		}
		if rule.AppliesTo(s.Date) && s.Interval().Within(rule.StartTime, rule.EndTime) {
			count++
		}
	}
	return count
}
