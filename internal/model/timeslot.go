package model

import (
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_scheduler/internal/apperrors"
	"github.com/google/uuid"
)

// DateLayout: формат даты в API и логах
const DateLayout = "2006-01-02"

// DateOf приводит момент к календарной дате (полночь UTC), как она хранится в БД
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate разбирает дату формата 2006-01-02
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return d, nil
}

// At возвращает абсолютный момент для даты и локального времени в часовом поясе loc
func At(date time.Time, c Clock, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(date.Year(), date.Month(), date.Day(), c.Hour(), c.Minute(), 0, 0, loc)
}

// TimeSlot: полуоткрытый интервал [Start, End) внутри одной календарной даты
type TimeSlot struct {
	Date  time.Time `json:"date"`
	Start Clock     `json:"start"`
	End   Clock     `json:"end"`
}

// NewTimeSlot строит интервал от start длительностью minutes.
// Интервалы через полночь запрещены.
func NewTimeSlot(date time.Time, start Clock, minutes int) (TimeSlot, error) {
	if minutes <= 0 {
		return TimeSlot{}, apperrors.InvalidInterval("duration must be positive")
	}
	if start < 0 || start >= MinutesPerDay {
		return TimeSlot{}, apperrors.InvalidInterval(fmt.Sprintf("start time %s is out of range", start))
	}
	end := start.Add(minutes)
	if end > MinutesPerDay {
		return TimeSlot{}, apperrors.InvalidInterval("session may not cross midnight")
	}
	return TimeSlot{Date: DateOf(date), Start: start, End: end}, nil
}

// Minutes: длительность интервала
func (t TimeSlot) Minutes() int {
	return int(t.End - t.Start)
}

// Overlaps: start < other.end && other.start < end. Касание концами не пересечение.
func (t TimeSlot) Overlaps(other TimeSlot) bool {
	if !t.Date.Equal(other.Date) {
		return false
	}
	return t.Start < other.End && other.Start < t.End
}

// Contains проверяет, попадает ли момент c в [Start, End)
func (t TimeSlot) Contains(c Clock) bool {
	return t.Start <= c && c < t.End
}

// Within: интервал целиком лежит внутри окна [start, end)
func (t TimeSlot) Within(start, end Clock) bool {
	return start <= t.Start && t.End <= end
}

func (t TimeSlot) String() string {
	return fmt.Sprintf("%s %s-%s", t.Date.Format(DateLayout), t.Start, t.End)
}

// Slot: вычисляемый кандидат на бронирование, в БД не хранится
type Slot struct {
	TimeSlot
	RuleID uuid.UUID `json:"rule_id"`
}

// Equal сравнивает слоты по (date, start, end), правило не учитывается
func (s Slot) Equal(other Slot) bool {
	return s.Date.Equal(other.Date) && s.Start == other.Start && s.End == other.End
}
