package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"splitit/pkg/config"
	"splitit/pkg/logger"
)

// Migrator применяет SQL миграции goose из встроенной файловой системы
type Migrator struct {
	pool       *pgxpool.Pool
	migrations fs.FS
	dir        string
}

// NewMigrator создаёт мигратор. dir - каталог миграций внутри migrations.
func NewMigrator(pool *pgxpool.Pool, migrations fs.FS, dir string) *Migrator {
	return &Migrator{
		pool:       pool,
		migrations: migrations,
		dir:        dir,
	}
}

// run открывает database/sql поверх пула и настраивает goose
func (m *Migrator) run(fn func(db *sql.DB) error) error {
	db := stdlib.OpenDBFromPool(m.pool)
	defer db.Close()

	goose.SetBaseFS(m.migrations)
	goose.SetLogger(gooseLogger{})

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	return fn(db)
}

// Up применяет все новые миграции
func (m *Migrator) Up(ctx context.Context) error {
	return m.run(func(db *sql.DB) error {
		if err := goose.UpContext(ctx, db, m.dir); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Log.Info("Migrations applied")
		return nil
	})
}

// Down откатывает последнюю миграцию
func (m *Migrator) Down(ctx context.Context) error {
	return m.run(func(db *sql.DB) error {
		if err := goose.DownContext(ctx, db, m.dir); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
		logger.Log.Info("Migration rolled back")
		return nil
	})
}

// Status пишет состояние миграций в лог
func (m *Migrator) Status(ctx context.Context) error {
	return m.run(func(db *sql.DB) error {
		return goose.StatusContext(ctx, db, m.dir)
	})
}

// Version возвращает номер последней применённой миграции
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	var version int64
	err := m.run(func(db *sql.DB) error {
		v, err := goose.GetDBVersionContext(ctx, db)
		version = v
		return err
	})
	return version, err
}

// RunMigrations применяет миграции, если включена auto_migrate
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, cfg *config.DatabaseConfig, migrations fs.FS, dir string) error {
	if !cfg.AutoMigrate {
		logger.Log.Info("Auto-migration is disabled")
		return nil
	}
	return NewMigrator(pool, migrations, dir).Up(ctx)
}

// gooseLogger направляет вывод goose в общий логгер
type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...any) {
	logger.Log.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (gooseLogger) Fatalf(format string, v ...any) {
	logger.Fatal(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
