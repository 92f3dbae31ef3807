package postgres

import (
	"context"
	"fmt"

	ierr "github.com/ispbilling/ispbilling/internal/errors"
	"github.com/ispbilling/ispbilling/internal/logger"
	"github.com/ispbilling/ispbilling/migrations"
	"github.com/pressly/goose/v3"
)

const migrationsTable = "schema_migrations"

// Migrate applies every pending embedded migration
func Migrate(ctx context.Context, db *DB, log *logger.Logger) error {
	if err := setupGoose(log); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db.DB.DB, "."); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to apply database migrations").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

// Rollback reverts the most recent migration
func Rollback(ctx context.Context, db *DB, log *logger.Logger) error {
	if err := setupGoose(log); err != nil {
		return err
	}
	if err := goose.DownContext(ctx, db.DB.DB, "."); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to roll back the last migration").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

// MigrationStatus logs the applied state of every migration
func MigrationStatus(ctx context.Context, db *DB, log *logger.Logger) error {
	if err := setupGoose(log); err != nil {
		return err
	}
	return goose.StatusContext(ctx, db.DB.DB, ".")
}

func setupGoose(log *logger.Logger) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(&gooseLogger{log: log})
	goose.SetTableName(migrationsTable)
	if err := goose.SetDialect("postgres"); err != nil {
		return ierr.WithError(err).Mark(ierr.ErrSystem)
	}
	return nil
}

// gooseLogger routes goose's Printf style output through the structured logger
type gooseLogger struct {
	log *logger.Logger
}

func (l *gooseLogger) Fatalf(format string, v ...interface{}) {
	l.log.Errorw("migration failed", "detail", fmt.Sprintf(format, v...))
}

func (l *gooseLogger) Printf(format string, v ...interface{}) {
	l.log.Infow("migration", "detail", fmt.Sprintf(format, v...))
}
