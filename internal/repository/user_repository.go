package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository: локальная проекция профилей пользователей
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Upsert создаёт или обновляет пользователя (синхронизация с сервисом профилей)
func (r *UserRepository) Upsert(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, telegram_id, first_name, last_name, is_teacher, time_zone)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET telegram_id = EXCLUDED.telegram_id,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			is_teacher = EXCLUDED.is_teacher,
			time_zone = EXCLUDED.time_zone
		RETURNING created_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		user.ID,
		user.TelegramID,
		user.FirstName,
		user.LastName,
		user.IsTeacher,
		user.TimeZone,
	).Scan(&user.CreatedAt)

	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}

	return nil
}

const userColumns = `id, telegram_id, first_name, last_name, is_teacher, time_zone, created_at`

// GetByID получает пользователя по ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

// GetByTelegramID ищет пользователя по привязанному чату
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	if telegramID == 0 {
		return nil, nil
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE telegram_id = $1 LIMIT 1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, telegramID))
	if err != nil {
		return nil, fmt.Errorf("get user by telegram id: %w", err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.TelegramID,
		&user.FirstName,
		&user.LastName,
		&user.IsTeacher,
		&user.TimeZone,
		&user.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}
