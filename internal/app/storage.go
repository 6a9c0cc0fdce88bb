package app

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/Freeeeeet/lesson_scheduler/internal/repository"
	"github.com/Freeeeeet/lesson_scheduler/internal/repository/memory"
	"github.com/Freeeeeet/lesson_scheduler/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type (
	UserStore interface {
		service.UserDirectory
		UserWriter
		GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	}
	CourseStore interface {
		service.CourseCatalog
		CourseWriter
	}
	EnrollmentStore interface {
		service.EnrollmentStore
		EnrollmentWriter
	}
)

// Stores: набор хранилищ одного драйвера
type Stores struct {
	Sessions    repository.SessionStore
	Rules       repository.AvailabilityStore
	Users       UserStore
	Courses     CourseStore
	Enrollments EnrollmentStore

	close func()
}

// Close освобождает соединения
func (s *Stores) Close() {
	if s.close != nil {
		s.close()
	}
}

// NewMemoryStores: хранилища в памяти процесса
func NewMemoryStores() *Stores {
	return &Stores{
		Sessions:    memory.NewSessionStore(),
		Rules:       memory.NewAvailabilityStore(),
		Users:       memory.NewUserStore(),
		Courses:     memory.NewCourseStore(),
		Enrollments: memory.NewEnrollmentStore(),
	}
}

// NewPostgresStores открывает пул, применяет миграции и собирает репозитории.
// Пустой migrationsDir: встроенные миграции.
func NewPostgresStores(ctx context.Context, dsn, migrationsDir string, logger *zap.Logger) (*Stores, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	migrator, err := NewMigrator(pool, MigrationSource(migrationsDir), logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	defer migrator.Close()

	if err := migrator.Run(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &Stores{
		Sessions:    repository.NewSessionRepository(pool),
		Rules:       repository.NewAvailabilityRepository(pool, logger),
		Users:       repository.NewUserRepository(pool),
		Courses:     repository.NewCourseRepository(pool, logger),
		Enrollments: repository.NewEnrollmentRepository(pool),
		close:       pool.Close,
	}, nil
}
