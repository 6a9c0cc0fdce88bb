package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	MinSessionMinutes = 15
	MaxSessionMinutes = 180
)

type Course struct {
	ID                     uuid.UUID `json:"id"`
	Title                  string    `json:"title"`
	SessionDurationMinutes int       `json:"session_duration_minutes"` // длительность одного занятия
	TotalLessons           int       `json:"total_lessons"`            // для расчёта прогресса
	IsActive               bool      `json:"is_active"`
	CreatedAt              time.Time `json:"created_at"`
}
