package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/lesson_scheduler/internal/apperrors"
	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/Freeeeeet/lesson_scheduler/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// EnrollmentRepository: записи студентов на курсы и прогресс прохождения
type EnrollmentRepository struct {
	*base.Repository
}

func NewEnrollmentRepository(pool *pgxpool.Pool) *EnrollmentRepository {
	return &EnrollmentRepository{Repository: base.NewRepository(pool)}
}

// Upsert создаёт или обновляет запись на курс
func (r *EnrollmentRepository) Upsert(ctx context.Context, e *model.Enrollment) error {
	if e.CompletedLessons == nil {
		e.CompletedLessons = []string{}
	}

	query := `
		INSERT INTO enrollments (student_id, course_id, status, completed_lessons, progress_percentage)
		VALUES ($1, $2, $3, $4, $5::text::numeric)
		ON CONFLICT (student_id, course_id) DO UPDATE
		SET status = EXCLUDED.status,
			completed_lessons = EXCLUDED.completed_lessons,
			progress_percentage = EXCLUDED.progress_percentage,
			updated_at = NOW()
		RETURNING updated_at
	`

	err := r.Pool().QueryRow(
		ctx, query,
		e.StudentID,
		e.CourseID,
		e.Status,
		e.CompletedLessons,
		e.ProgressPercentage.String(),
	).Scan(&e.UpdatedAt)

	if err != nil {
		return fmt.Errorf("upsert enrollment: %w", err)
	}

	return nil
}

// Get получает запись студента на курс
func (r *EnrollmentRepository) Get(ctx context.Context, studentID, courseID uuid.UUID) (*model.Enrollment, error) {
	e, err := getEnrollment(ctx, r.Pool(), studentID, courseID, false)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get enrollment: %w", err)
	}
	return e, nil
}

// RecordLesson атомарно добавляет урок в прогресс и пересчитывает процент
func (r *EnrollmentRepository) RecordLesson(ctx context.Context, studentID, courseID uuid.UUID, lessonKey string, totalLessons int) (*model.Enrollment, error) {
	var result *model.Enrollment

	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		e, err := getEnrollment(ctx, tx, studentID, courseID, true)
		if err != nil {
			if base.IsNotFound(err) {
				return apperrors.NotFound("enrollment not found")
			}
			return fmt.Errorf("get enrollment: %w", err)
		}

		if !e.RecordLesson(lessonKey, totalLessons) {
			result = e
			return nil
		}

		query := `
			UPDATE enrollments
			SET completed_lessons = $3, progress_percentage = $4::text::numeric, updated_at = NOW()
			WHERE student_id = $1 AND course_id = $2
			RETURNING updated_at
		`
		err = tx.QueryRow(ctx, query, studentID, courseID, e.CompletedLessons, e.ProgressPercentage.String()).
			Scan(&e.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update enrollment progress: %w", err)
		}

		result = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func getEnrollment(ctx context.Context, db base.DBTX, studentID, courseID uuid.UUID, forUpdate bool) (*model.Enrollment, error) {
	query := `
		SELECT student_id, course_id, status, completed_lessons, progress_percentage::text, updated_at
		FROM enrollments
		WHERE student_id = $1 AND course_id = $2
	`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var (
		e        model.Enrollment
		progress string
	)
	err := db.QueryRow(ctx, query, studentID, courseID).Scan(
		&e.StudentID,
		&e.CourseID,
		&e.Status,
		&e.CompletedLessons,
		&progress,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.ProgressPercentage, err = decimal.NewFromString(progress)
	if err != nil {
		return nil, fmt.Errorf("parse progress %q: %w", progress, err)
	}

	return &e, nil
}
