package app

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"

	"github.com/Freeeeeet/lesson_scheduler/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// MigrationSource: каталог миграций; пустой путь означает встроенные в бинарник
func MigrationSource(dir string) fs.FS {
	if dir == "" {
		return migrations.FS
	}
	return os.DirFS(dir)
}

// Migrator применяет схему планировщика через goose Provider
type Migrator struct {
	db       *sql.DB
	provider *goose.Provider
	logger   *zap.Logger
}

func NewMigrator(pool *pgxpool.Pool, source fs.FS, logger *zap.Logger) (*Migrator, error) {
	// goose работает с *sql.DB, пул остаётся под управлением вызывающего
	db := stdlib.OpenDBFromPool(pool)

	provider, err := goose.NewProvider(goose.DialectPostgres, db, source)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create migration provider: %w", err)
	}

	return &Migrator{db: db, provider: provider, logger: logger}, nil
}

// Run применяет недостающие миграции и логирует каждую
func (m *Migrator) Run(ctx context.Context) error {
	pending, err := m.provider.HasPending(ctx)
	if err != nil {
		return fmt.Errorf("check pending migrations: %w", err)
	}
	if !pending {
		version, err := m.provider.GetDBVersion(ctx)
		if err != nil {
			return fmt.Errorf("get schema version: %w", err)
		}
		m.logger.Info("Schema is up to date", zap.Int64("version", version))
		return nil
	}

	results, err := m.provider.Up(ctx)
	for _, r := range results {
		if r.Source == nil {
			continue
		}
		m.logger.Info("Migration applied",
			zap.Int64("version", r.Source.Version),
			zap.String("file", r.Source.Path),
			zap.Duration("took", r.Duration),
		)
	}
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (m *Migrator) Close() error {
	return m.provider.Close()
}
