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
	"go.uber.org/zap"
)

const availabilityWindowKey = "availability_rules_window_key"

// AvailabilityRepository управляет правилами доступности в базе данных
type AvailabilityRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewAvailabilityRepository создаёт новый репозиторий
func NewAvailabilityRepository(pool *pgxpool.Pool, logger *zap.Logger) *AvailabilityRepository {
	return &AvailabilityRepository{
		pool:   pool,
		logger: logger,
	}
}

// Create создаёт новое правило
func (r *AvailabilityRepository) Create(ctx context.Context, rule *model.AvailabilityRule) error {
	query := `
		INSERT INTO availability_rules (id, teacher_id, day_of_week, start_time, end_time, is_active, max_sessions, break_minutes, slot_minutes, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(
		ctx,
		query,
		rule.ID,
		rule.TeacherID,
		int(rule.DayOfWeek),
		rule.StartTime,
		rule.EndTime,
		rule.IsActive,
		rule.MaxSessions,
		rule.BreakMinutes,
		rule.SlotMinutes,
		rule.Notes,
	).Scan(&rule.CreatedAt, &rule.UpdatedAt)

	if err != nil {
		if base.IsUniqueViolation(err, availabilityWindowKey) {
			return apperrors.Validation("availability rule with the same window already exists")
		}
		return fmt.Errorf("create availability rule: %w", err)
	}

	r.logger.Debug("Availability rule stored",
		zap.String("rule_id", rule.ID.String()),
		zap.String("teacher_id", rule.TeacherID.String()),
	)

	return nil
}

// GetByID получает правило по ID
func (r *AvailabilityRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.AvailabilityRule, error) {
	query := `
		SELECT id, teacher_id, day_of_week, start_time, end_time, is_active, max_sessions, break_minutes, slot_minutes, notes, created_at, updated_at
		FROM availability_rules
		WHERE id = $1
	`

	rule, err := scanRule(r.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get availability rule: %w", err)
	}

	return rule, nil
}

// ListByTeacher получает все правила учителя, включая неактивные
func (r *AvailabilityRepository) ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]*model.AvailabilityRule, error) {
	query := `
		SELECT id, teacher_id, day_of_week, start_time, end_time, is_active, max_sessions, break_minutes, slot_minutes, notes, created_at, updated_at
		FROM availability_rules
		WHERE teacher_id = $1
		ORDER BY day_of_week, start_time
	`

	rows, err := r.pool.Query(ctx, query, teacherID)
	if err != nil {
		return nil, fmt.Errorf("list availability rules: %w", err)
	}
	defer rows.Close()

	var rules []*model.AvailabilityRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan availability rule: %w", err)
		}
		rules = append(rules, rule)
	}

	return rules, rows.Err()
}

// Update обновляет правило
func (r *AvailabilityRepository) Update(ctx context.Context, rule *model.AvailabilityRule) error {
	query := `
		UPDATE availability_rules
		SET day_of_week = $2, start_time = $3, end_time = $4, is_active = $5,
			max_sessions = $6, break_minutes = $7, slot_minutes = $8, notes = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.pool.QueryRow(
		ctx,
		query,
		rule.ID,
		int(rule.DayOfWeek),
		rule.StartTime,
		rule.EndTime,
		rule.IsActive,
		rule.MaxSessions,
		rule.BreakMinutes,
		rule.SlotMinutes,
		rule.Notes,
	).Scan(&rule.UpdatedAt)

	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NotFound("availability rule not found")
		}
		if base.IsUniqueViolation(err, availabilityWindowKey) {
			return apperrors.Validation("availability rule with the same window already exists")
		}
		return fmt.Errorf("update availability rule: %w", err)
	}

	return nil
}

// Delete удаляет правило. Уже забронированные сессии не затрагиваются.
func (r *AvailabilityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM availability_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete availability rule: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.NotFound("availability rule not found")
	}

	return nil
}

func scanRule(row pgx.Row) (*model.AvailabilityRule, error) {
	var (
		rule      model.AvailabilityRule
		dayOfWeek int16
	)
	err := row.Scan(
		&rule.ID,
		&rule.TeacherID,
		&dayOfWeek,
		&rule.StartTime,
		&rule.EndTime,
		&rule.IsActive,
		&rule.MaxSessions,
		&rule.BreakMinutes,
		&rule.SlotMinutes,
		&rule.Notes,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rule.DayOfWeek = model.DayOfWeek(dayOfWeek)
	return &rule, nil
}
