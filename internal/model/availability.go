package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultSlotMinutes  = 30
	DefaultBreakMinutes = 10
	DefaultMaxSessions  = 10
)

// DayOfWeek: день недели правила, 0 = понедельник, 6 = воскресенье.
// В таком виде он хранится в БД и передаётся в API.
type DayOfWeek int

// DayOfWeekOf переводит time.Weekday (0 = воскресенье) в DayOfWeek
func DayOfWeekOf(w time.Weekday) DayOfWeek {
	return DayOfWeek((int(w) + 6) % 7)
}

// Weekday: обратное преобразование в time.Weekday
func (d DayOfWeek) Weekday() time.Weekday {
	return time.Weekday((int(d) + 1) % 7)
}

func (d DayOfWeek) Valid() bool {
	return d >= 0 && d <= 6
}

func (d DayOfWeek) String() string {
	if !d.Valid() {
		return fmt.Sprintf("DayOfWeek(%d)", int(d))
	}
	return d.Weekday().String()
}

// AvailabilityRule: еженедельное окно доступности учителя
type AvailabilityRule struct {
	ID           uuid.UUID `json:"id"`
	TeacherID    uuid.UUID `json:"teacher_id"`
	DayOfWeek    DayOfWeek `json:"day_of_week"`
	StartTime    Clock     `json:"start_time"`
	EndTime      Clock     `json:"end_time"`
	IsActive     bool      `json:"is_active"`
	MaxSessions  int       `json:"max_sessions"`  // сколько сессий помещается в окно за день
	BreakMinutes int       `json:"break_minutes"` // перерыв между сгенерированными слотами
	SlotMinutes  int       `json:"slot_minutes"`
	Notes        string    `json:"notes"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Window возвращает окно правила на конкретную дату
func (r *AvailabilityRule) Window(date time.Time) TimeSlot {
	return TimeSlot{Date: DateOf(date), Start: r.StartTime, End: r.EndTime}
}

// AppliesTo: правило активно и совпадает по дню недели
func (r *AvailabilityRule) AppliesTo(date time.Time) bool {
	return r.IsActive && r.DayOfWeek == DayOfWeekOf(date.Weekday())
}
