package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// CourseRepository: каталог курсов (только то, что нужно расписанию)
type CourseRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewCourseRepository(pool *pgxpool.Pool, logger *zap.Logger) *CourseRepository {
	return &CourseRepository{
		pool:   pool,
		logger: logger,
	}
}

// Upsert создаёт или обновляет курс
func (r *CourseRepository) Upsert(ctx context.Context, course *model.Course) error {
	if course.SessionDurationMinutes == 0 {
		course.SessionDurationMinutes = model.DefaultSlotMinutes
	}

	query := `
		INSERT INTO courses (id, title, session_duration_minutes, total_lessons, is_active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title,
			session_duration_minutes = EXCLUDED.session_duration_minutes,
			total_lessons = EXCLUDED.total_lessons,
			is_active = EXCLUDED.is_active
		RETURNING created_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		course.ID,
		course.Title,
		course.SessionDurationMinutes,
		course.TotalLessons,
		course.IsActive,
	).Scan(&course.CreatedAt)

	if err != nil {
		r.logger.Error("Failed to upsert course",
			zap.String("course_id", course.ID.String()),
			zap.Error(err))
		return fmt.Errorf("upsert course: %w", err)
	}

	return nil
}

// GetByID получает курс по ID
func (r *CourseRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	query := `
		SELECT id, title, session_duration_minutes, total_lessons, is_active, created_at
		FROM courses
		WHERE id = $1
	`

	var course model.Course
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&course.ID,
		&course.Title,
		&course.SessionDurationMinutes,
		&course.TotalLessons,
		&course.IsActive,
		&course.CreatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get course by id: %w", err)
	}

	return &course, nil
}
