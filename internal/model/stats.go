package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SessionStats: свёртка истории сессий учителя или студента за период
type SessionStats struct {
	PeriodStart    time.Time       `json:"period_start"`
	PeriodEnd      time.Time       `json:"period_end"`
	SessionCount   int             `json:"session_count"`
	CompletedCount int             `json:"completed_count"`
	CancelledCount int             `json:"cancelled_count"`
	NoShowCount    int             `json:"no_show_count"`
	UpcomingCount  int             `json:"upcoming_count"`
	PastCount      int             `json:"past_count"`
	CompletionRate decimal.Decimal `json:"completion_rate"` // в процентах
	AttendanceRate decimal.Decimal `json:"attendance_rate"` // в процентах
	AverageRating  decimal.Decimal `json:"average_rating"`
	RatedCount     int             `json:"rated_count"`
	// дата последней завершённой сессии, nil если таких нет
	LastSessionDate *time.Time `json:"last_session_date"`
}

type TeacherStats struct {
	SessionStats
	ActiveStudents int `json:"active_students"`
	TotalStudents  int `json:"total_students"`
}

type StudentStats struct {
	SessionStats
	LearningStreak int `json:"learning_streak"` // дней подряд с завершённым занятием
}
