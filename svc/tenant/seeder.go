package tenant

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AdminRoleName is the role granted to the initial administrator.
const AdminRoleName = "Admin"

// Reference catalogs seeded into every new tenant database. Seeding is
// idempotent: existing rows are left untouched.
var (
	educationLevels = []string{"Preescolar", "Primaria", "Secundaria", "Preparatoria"}
	periodicities   = []string{"Mensual", "Bimestral", "Trimestral", "Semestral", "Anual"}
	genders         = []string{"Masculino", "Femenino"}
	maritalStatuses = []string{"Soltero(a)", "Casado(a)", "Divorciado(a)", "Viudo(a)", "Unión libre"}
	contactSources  = []string{"Referencia", "Redes sociales", "Sitio web", "Publicidad", "Otro"}
	applicantStates = []string{"Nuevo", "Contactado", "En proceso", "Inscrito", "Descartado"}
)

// PgSeeder seeds freshly provisioned tenant databases over a direct pgx
// connection. Pools are pointless here: each database is touched exactly
// once per provisioning run.
type PgSeeder struct{}

func NewPgSeeder() *PgSeeder {
	return &PgSeeder{}
}

// SeedAdmin ensures the Admin role exists, creates the administrator
// identity with the supplied password hash, and binds the role to it.
// Re-running against the same database is a no-op.
func (s *PgSeeder) SeedAdmin(ctx context.Context, dsn, email string, passwordHash []byte) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connecting to tenant database: %w", err)
	}
	defer conn.Close(context.WithoutCancel(ctx))

	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(context.WithoutCancel(ctx))

	var roleID uuid.UUID
	err = tx.QueryRow(ctx, `
		INSERT INTO roles (id, name) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`,
		uuid.New(), AdminRoleName,
	).Scan(&roleID)
	if err != nil {
		return fmt.Errorf("ensuring admin role: %w", err)
	}

	var userID uuid.UUID
	err = tx.QueryRow(ctx, `
		INSERT INTO users (id, email, password_hash, full_name)
		VALUES ($1, lower($2), $3, 'Administrador')
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING id`,
		uuid.New(), email, passwordHash,
	).Scan(&userID)
	if err != nil {
		return fmt.Errorf("creating administrator: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`,
		userID, roleID,
	); err != nil {
		return fmt.Errorf("binding admin role: %w", err)
	}

	return tx.Commit(ctx)
}

// SeedReference populates the lookup catalogs. Existing rows are skipped
// silently, so re-running produces no duplicates.
func (s *PgSeeder) SeedReference(ctx context.Context, dsn string) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connecting to tenant database: %w", err)
	}
	defer conn.Close(context.WithoutCancel(ctx))

	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(context.WithoutCancel(ctx))

	catalogs := []struct {
		table  string
		values []string
	}{
		{"education_levels", educationLevels},
		{"periodicities", periodicities},
		{"genders", genders},
		{"marital_statuses", maritalStatuses},
		{"contact_sources", contactSources},
		{"applicant_statuses", applicantStates},
	}
	for _, c := range catalogs {
		for _, name := range c.values {
			query := fmt.Sprintf(
				`INSERT INTO %s (id, name) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
				pgx.Identifier{c.table}.Sanitize(),
			)
			if _, err := tx.Exec(ctx, query, uuid.New(), name); err != nil {
				return fmt.Errorf("seeding %s: %w", c.table, err)
			}
		}
	}

	return tx.Commit(ctx)
}
