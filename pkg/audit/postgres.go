package audit

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStorage appends audit entries to the catalog database.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresStorage(pool *pgxpool.Pool) *PostgresStorage {
	return &PostgresStorage{pool: pool}
}

func (s *PostgresStorage) Store(ctx context.Context, entry Entry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tenant_audit_log (id, tenant_id, tenant_code, action, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.TenantID, entry.TenantCode, entry.Action, entry.Description, entry.CreatedAt,
	)
	if err != nil {
		return errors.Join(ErrStorageNotAvailable, err)
	}
	return nil
}

func (s *PostgresStorage) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, tenant_id, tenant_code, action, description, created_at
		FROM tenant_audit_log
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		tenantID, limit,
	)
	if err != nil {
		return nil, errors.Join(ErrStorageNotAvailable, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.TenantID, &e.TenantCode, &e.Action, &e.Description, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
