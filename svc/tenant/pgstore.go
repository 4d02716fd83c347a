package tenant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gestionescolar/tenancy/pkg/pg"
	coretenant "github.com/gestionescolar/tenancy/pkg/tenant"
)

// PostgresStore is the Store backed by the catalog database.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const tenantColumns = `
	id, code, name, subdomain, COALESCE(custom_domain, ''), database_name, conn_string,
	COALESCE(logo_url, ''), COALESCE(primary_color, ''),
	COALESCE(contact_name, ''), COALESCE(contact_email, ''), COALESCE(contact_phone, ''),
	plan_id, max_students, max_users, status, provision_step,
	contract_date, expiration_date, last_access_at, created_at, updated_at`

func scanTenant(row pgx.Row) (*coretenant.Tenant, error) {
	var t coretenant.Tenant
	err := row.Scan(
		&t.ID, &t.Code, &t.Name, &t.Subdomain, &t.CustomDomain, &t.DatabaseName, &t.ConnString,
		&t.LogoURL, &t.PrimaryColor,
		&t.ContactName, &t.ContactEmail, &t.ContactPhone,
		&t.PlanID, &t.MaxStudents, &t.MaxUsers, &t.Status, &t.ProvisionStep,
		&t.ContractDate, &t.ExpirationDate, &t.LastAccessAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, coretenant.ErrTenantNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (s *PostgresStore) Create(ctx context.Context, t *coretenant.Tenant) error {
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tenants (
			id, code, name, subdomain, custom_domain, database_name, conn_string,
			logo_url, primary_color, contact_name, contact_email, contact_phone,
			plan_id, max_students, max_users, status, provision_step,
			contract_date, expiration_date, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, NULLIF($5, ''), $6, $7,
			NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''), NULLIF($11, ''), NULLIF($12, ''),
			$13, $14, $15, $16, $17,
			$18, $19, $20, $21
		)`,
		t.ID, t.Code, t.Name, t.Subdomain, t.CustomDomain, t.DatabaseName, t.ConnString,
		t.LogoURL, t.PrimaryColor, t.ContactName, t.ContactEmail, t.ContactPhone,
		t.PlanID, t.MaxStudents, t.MaxUsers, t.Status, t.ProvisionStep,
		t.ContractDate, t.ExpirationDate, t.CreatedAt, t.UpdatedAt,
	)
	return err
}

func (s *PostgresStore) Update(ctx context.Context, t *coretenant.Tenant) error {
	t.UpdatedAt = time.Now()
	tag, err := s.pool.Exec(ctx, `
		UPDATE tenants SET
			name = $2, custom_domain = NULLIF($3, ''), conn_string = $4,
			logo_url = NULLIF($5, ''), primary_color = NULLIF($6, ''),
			contact_name = NULLIF($7, ''), contact_email = NULLIF($8, ''), contact_phone = NULLIF($9, ''),
			plan_id = $10, max_students = $11, max_users = $12,
			contract_date = $13, expiration_date = $14, updated_at = $15
		WHERE id = $1`,
		t.ID, t.Name, t.CustomDomain, t.ConnString,
		t.LogoURL, t.PrimaryColor,
		t.ContactName, t.ContactEmail, t.ContactPhone,
		t.PlanID, t.MaxStudents, t.MaxUsers,
		t.ContractDate, t.ExpirationDate, t.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return coretenant.ErrTenantNotFound
	}
	return nil
}

func (s *PostgresStore) SetStatus(ctx context.Context, id uuid.UUID, from, to coretenant.Status) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tenants SET status = $3, updated_at = now() WHERE id = $1 AND status = $2`, id, from, to)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM tenants WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return ErrStatusConflict
		}
		return coretenant.ErrTenantNotFound
	}
	return nil
}

func (s *PostgresStore) SetProvisionStep(ctx context.Context, id uuid.UUID, step coretenant.Step) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tenants SET provision_step = $2, updated_at = now() WHERE id = $1`, id, step)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return coretenant.ErrTenantNotFound
	}
	return nil
}

func (s *PostgresStore) TouchLastAccess(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE tenants SET last_access_at = now() WHERE id = $1`, id)
	return err
}

func (s *PostgresStore) GetByID(ctx context.Context, id uuid.UUID) (*coretenant.Tenant, error) {
	row := s.pool.QueryRow(ctx, `SELECT`+tenantColumns+` FROM tenants WHERE id = $1`, id)
	return scanTenant(row)
}

func (s *PostgresStore) GetByCode(ctx context.Context, code string) (*coretenant.Tenant, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT`+tenantColumns+` FROM tenants WHERE lower(code) = lower($1)`, strings.TrimSpace(code))
	return scanTenant(row)
}

func (s *PostgresStore) GetByIdentifier(ctx context.Context, identifier string) (*coretenant.Tenant, error) {
	id := coretenant.NormalizeSubdomain(identifier)
	if id == "" {
		return nil, coretenant.ErrTenantNotFound
	}
	row := s.pool.QueryRow(ctx, `
		SELECT`+tenantColumns+`
		FROM tenants
		WHERE lower(subdomain) = $1 OR lower(code) = $1 OR lower(custom_domain) = $1`, id)
	return scanTenant(row)
}

func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]coretenant.Tenant, int, error) {
	filter.normalize()

	where := make([]string, 0, 2)
	args := make([]any, 0, 4)
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR code ILIKE $%d OR subdomain ILIKE $%d)", n, n, n))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	args = append(args, filter.PerPage, (filter.Page-1)*filter.PerPage)
	query := fmt.Sprintf(`
		SELECT count(*) OVER(),%s
		FROM tenants%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		tenantColumns, clause, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		tenants []coretenant.Tenant
		total   int
	)
	for rows.Next() {
		var t coretenant.Tenant
		err := rows.Scan(
			&total,
			&t.ID, &t.Code, &t.Name, &t.Subdomain, &t.CustomDomain, &t.DatabaseName, &t.ConnString,
			&t.LogoURL, &t.PrimaryColor,
			&t.ContactName, &t.ContactEmail, &t.ContactPhone,
			&t.PlanID, &t.MaxStudents, &t.MaxUsers, &t.Status, &t.ProvisionStep,
			&t.ContractDate, &t.ExpirationDate, &t.LastAccessAt, &t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		tenants = append(tenants, t)
	}
	return tenants, total, rows.Err()
}

func (s *PostgresStore) GetPlan(ctx context.Context, id uuid.UUID) (*LicensePlan, error) {
	return scanPlan(s.pool.QueryRow(ctx, `
		SELECT id, code, name, max_students, max_users, monthly_price, features, created_at
		FROM license_plans WHERE id = $1`, id))
}

func (s *PostgresStore) GetPlanByCode(ctx context.Context, code string) (*LicensePlan, error) {
	return scanPlan(s.pool.QueryRow(ctx, `
		SELECT id, code, name, max_students, max_users, monthly_price, features, created_at
		FROM license_plans WHERE lower(code) = lower($1)`, strings.TrimSpace(code)))
}

func scanPlan(row pgx.Row) (*LicensePlan, error) {
	var p LicensePlan
	if err := row.Scan(&p.ID, &p.Code, &p.Name, &p.MaxStudents, &p.MaxUsers, &p.MonthlyPrice, &p.Features, &p.CreatedAt); err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &p, nil
}
