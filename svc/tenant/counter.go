package tenant

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// PgUsageCounter reads usage numbers directly from a tenant's database.
type PgUsageCounter struct{}

func NewPgUsageCounter() *PgUsageCounter {
	return &PgUsageCounter{}
}

func (c *PgUsageCounter) Count(ctx context.Context, dsn string) (students, users int, err error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return 0, 0, fmt.Errorf("connecting to tenant database: %w", err)
	}
	defer conn.Close(context.WithoutCancel(ctx))

	if err := conn.QueryRow(ctx, `SELECT count(*) FROM students`).Scan(&students); err != nil {
		return 0, 0, err
	}
	if err := conn.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&users); err != nil {
		return 0, 0, err
	}
	return students, users, nil
}
