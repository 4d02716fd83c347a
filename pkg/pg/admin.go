package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Admin performs server-level operations through a master connection:
// checking for, creating and dropping databases. CREATE/DROP DATABASE
// cannot run inside a transaction, so statements execute directly on a
// pool connection.
type Admin struct {
	pool *pgxpool.Pool
}

// NewAdmin wraps a pool connected with server-level privileges.
func NewAdmin(pool *pgxpool.Pool) *Admin {
	return &Admin{pool: pool}
}

// Exists reports whether a database with the given name exists.
func (a *Admin) Exists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := a.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)`, name).Scan(&exists)
	if err != nil {
		return false, errors.Join(ErrDatabaseAdminFailed, err)
	}
	return exists, nil
}

// Create creates the database if it does not already exist. Creation is
// idempotent by guard, not by statement: Postgres has no CREATE DATABASE
// IF NOT EXISTS.
func (a *Admin) Create(ctx context.Context, name string) error {
	exists, err := a.Exists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	// Identifiers cannot be bound as parameters; sanitize instead.
	if _, err := a.pool.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{name}.Sanitize()); err != nil {
		return errors.Join(ErrDatabaseAdminFailed, err)
	}
	return nil
}

// Drop removes the database, disconnecting current sessions first. Only
// the provisioning failure path uses this, and only when cleanup is
// explicitly enabled.
func (a *Admin) Drop(ctx context.Context, name string) error {
	if _, err := a.pool.Exec(ctx, "DROP DATABASE IF EXISTS "+pgx.Identifier{name}.Sanitize()+" WITH (FORCE)"); err != nil {
		return errors.Join(ErrDatabaseAdminFailed, err)
	}
	return nil
}
