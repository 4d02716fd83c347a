package tenant

import (
	"context"
	"log/slog"

	"github.com/gestionescolar/tenancy/pkg/pg"
)

// GooseMigrator applies the per-tenant schema through goose.
type GooseMigrator struct {
	dir   string
	table string
	log   *slog.Logger
}

// NewGooseMigrator creates a migrator reading SQL migrations from dir.
func NewGooseMigrator(dir string, log *slog.Logger) *GooseMigrator {
	if log == nil {
		log = slog.Default()
	}
	return &GooseMigrator{dir: dir, table: "schema_migrations", log: log}
}

func (m *GooseMigrator) Migrate(ctx context.Context, dsn string) error {
	return pg.MigrateDatabase(ctx, dsn, m.dir, m.table, m.log)
}
