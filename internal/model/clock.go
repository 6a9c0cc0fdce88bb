package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// MinutesPerDay: верхняя граница Clock (24:00 допускается только как конец интервала)
const MinutesPerDay = 24 * 60

const clockLayout = "15:04"

// Clock: локальное время суток в минутах от полуночи (в часовом поясе учителя)
type Clock int

// NewClock собирает Clock из часов и минут
func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// ParseClock разбирает строку формата "15:04". "24:00" допускается как конец суток.
func ParseClock(s string) (Clock, error) {
	if s == "24:00" {
		return MinutesPerDay, nil
	}
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", s, err)
	}
	return ClockOf(t), nil
}

// ClockOf возвращает время суток момента t в его часовом поясе
func ClockOf(t time.Time) Clock {
	return NewClock(t.Hour(), t.Minute())
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

// Add сдвигает время на указанное количество минут (без перехода через сутки)
func (c Clock) Add(minutes int) Clock {
	return c + Clock(minutes)
}

// Valid: время лежит в пределах суток
func (c Clock) Valid() bool {
	return c >= 0 && c <= MinutesPerDay
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

func (c Clock) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Clock) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ScanTime позволяет pgx читать колонку TIME напрямую в Clock
func (c *Clock) ScanTime(v pgtype.Time) error {
	if !v.Valid {
		return fmt.Errorf("cannot scan NULL into Clock")
	}
	*c = Clock(v.Microseconds / int64(time.Minute/time.Microsecond))
	return nil
}

// TimeValue позволяет передавать Clock параметром в колонку TIME
func (c Clock) TimeValue() (pgtype.Time, error) {
	return pgtype.Time{
		Microseconds: int64(c) * int64(time.Minute/time.Microsecond),
		Valid:        true,
	}, nil
}
