package tenant

import (
	"context"

	"github.com/google/uuid"

	coretenant "github.com/gestionescolar/tenancy/pkg/tenant"
)

// Store is the persistent tenant catalog: one row per customer plus the
// license plan reference data. It is the single source of truth; unique
// indexes on code and subdomain are the authoritative duplicate guard
// behind the provisioner's advisory pre-check.
//
// Lookups that find nothing return coretenant.ErrTenantNotFound (or
// ErrPlanNotFound); absence is an expected outcome, not a failure.
type Store interface {
	// Create inserts a new tenant row. Unique violations surface as
	// duplicate-key errors from the backend.
	Create(ctx context.Context, t *coretenant.Tenant) error

	// Update persists the mutable fields of t and stamps UpdatedAt.
	Update(ctx context.Context, t *coretenant.Tenant) error

	// SetStatus changes the lifecycle status as a compare-and-swap: the
	// update applies only while the stored status still equals from.
	// Returns ErrStatusConflict when a concurrent writer moved the tenant
	// first, so transition checks made against a stale read never commit.
	SetStatus(ctx context.Context, id uuid.UUID, from, to coretenant.Status) error

	// SetProvisionStep records the provisioning checkpoint.
	SetProvisionStep(ctx context.Context, id uuid.UUID, step coretenant.Step) error

	// TouchLastAccess stamps the tenant's last resolution time.
	TouchLastAccess(ctx context.Context, id uuid.UUID) error

	GetByID(ctx context.Context, id uuid.UUID) (*coretenant.Tenant, error)

	// GetByCode finds a tenant by its normalized code, case-insensitively.
	GetByCode(ctx context.Context, code string) (*coretenant.Tenant, error)

	// GetByIdentifier finds a tenant whose subdomain, code or custom
	// domain equals the normalized identifier.
	GetByIdentifier(ctx context.Context, identifier string) (*coretenant.Tenant, error)

	List(ctx context.Context, filter ListFilter) ([]coretenant.Tenant, int, error)

	GetPlan(ctx context.Context, id uuid.UUID) (*LicensePlan, error)
	GetPlanByCode(ctx context.Context, code string) (*LicensePlan, error)
}
