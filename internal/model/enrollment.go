package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EnrollmentStatus string

const (
	EnrollmentStatusPending   EnrollmentStatus = "pending"
	EnrollmentStatusActive    EnrollmentStatus = "active"
	EnrollmentStatusCompleted EnrollmentStatus = "completed"
	EnrollmentStatusCancelled EnrollmentStatus = "cancelled"
)

// Enrollment: запись студента на курс; активная означает оплаченный доступ
type Enrollment struct {
	StudentID          uuid.UUID        `json:"student_id"`
	CourseID           uuid.UUID        `json:"course_id"`
	Status             EnrollmentStatus `json:"status"`
	CompletedLessons   []string         `json:"completed_lessons"`
	ProgressPercentage decimal.Decimal  `json:"progress_percentage"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// LessonKey: синтетический маркер урока для завершённой сессии
func LessonKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("session_%s", sessionID)
}

// RecordLesson добавляет урок (без дублей) и пересчитывает процент прохождения.
// Возвращает false, если урок уже был учтён.
func (e *Enrollment) RecordLesson(key string, totalLessons int) bool {
	for _, existing := range e.CompletedLessons {
		if existing == key {
			return false
		}
	}
	e.CompletedLessons = append(e.CompletedLessons, key)
	e.ProgressPercentage = Progress(len(e.CompletedLessons), totalLessons)
	return true
}

// Progress = completed / total * 100, не больше 100, два знака
func Progress(completed, total int) decimal.Decimal {
	if total <= 0 {
		return decimal.Zero
	}
	p := decimal.NewFromInt(int64(completed)).
		Div(decimal.NewFromInt(int64(total))).
		Mul(decimal.NewFromInt(100))
	if p.GreaterThan(decimal.NewFromInt(100)) {
		p = decimal.NewFromInt(100)
	}
	return p.Round(2)
}
