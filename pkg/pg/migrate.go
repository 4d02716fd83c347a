package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// logger is the logging surface this package needs. *slog.Logger satisfies it.
type logger interface {
	InfoContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// Migrate applies the catalog schema migrations through goose, bridging
// the pgx pool to the database/sql interface goose expects.
func Migrate(ctx context.Context, pool *pgxpool.Pool, cfg Config, log logger) error {
	if cfg.MigrationsPath == "" {
		return errors.Join(ErrFailedToApplyMigrations, ErrMigrationPathNotProvided)
	}
	db := stdlib.OpenDBFromPool(pool)
	defer closeDB(ctx, db, log)
	return up(ctx, db, cfg.MigrationsPath, cfg.MigrationsTable, log)
}

// MigrateDatabase applies migrations from dir to the database reached by
// dsn. Used by tenant provisioning, where the target database did not
// exist until moments before and has no pool yet.
func MigrateDatabase(ctx context.Context, dsn, dir, table string, log logger) error {
	if dir == "" {
		return errors.Join(ErrFailedToApplyMigrations, ErrMigrationPathNotProvided)
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	defer closeDB(ctx, db, log)
	return up(ctx, db, dir, table, log)
}

func up(ctx context.Context, db *sql.DB, dir, table string, log logger) error {
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return errors.Join(ErrMigrationsDirNotFound, err)
		}
		return errors.Join(ErrFailedToApplyMigrations, err)
	}

	goose.SetLogger(gooseAdapter{log: log})
	if table != "" {
		goose.SetTableName(table)
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	if err := goose.UpContext(ctx, db, dir); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	return nil
}

func closeDB(ctx context.Context, db *sql.DB, log logger) {
	if err := db.Close(); err != nil && log != nil {
		log.ErrorContext(ctx, "failed to close database handle", "error", err)
	}
}

// gooseAdapter routes goose's Printf-style output through the structured
// logger.
type gooseAdapter struct {
	log logger
}

func (a gooseAdapter) Fatalf(format string, v ...any) {
	if a.log != nil {
		a.log.ErrorContext(context.Background(), fmt.Sprintf(format, v...))
	}
}

func (a gooseAdapter) Printf(format string, v ...any) {
	if a.log != nil {
		a.log.InfoContext(context.Background(), fmt.Sprintf(format, v...))
	}
}
