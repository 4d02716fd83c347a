package admin

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gestionescolar/tenancy/pkg/audit"
	coretenant "github.com/gestionescolar/tenancy/pkg/tenant"
	tenantsvc "github.com/gestionescolar/tenancy/svc/tenant"
)

// TenantService is the administrative surface the router exposes.
// *svc/tenant.Service is the production implementation.
type TenantService interface {
	Provision(ctx context.Context, req tenantsvc.CreateTenantRequest) (*tenantsvc.ProvisionResult, error)
	Update(ctx context.Context, id uuid.UUID, req tenantsvc.UpdateTenantRequest) (*coretenant.Tenant, error)
	ChangeStatus(ctx context.Context, id uuid.UUID, target coretenant.Status, reason string) (*coretenant.Tenant, error)
	Get(ctx context.Context, id uuid.UUID) (*coretenant.Tenant, error)
	List(ctx context.Context, filter tenantsvc.ListFilter) (*tenantsvc.ListResult, error)
	Stats(ctx context.Context) ([]tenantsvc.TenantStats, error)
	BulkImport(ctx context.Context, r io.Reader) (*tenantsvc.ImportReport, error)
	ImportTemplate() []byte
	AuditTrail(ctx context.Context, id uuid.UUID, limit int) ([]audit.Entry, error)
}

// Module bundles the tenant administration endpoints. The surrounding
// application decides where to mount it and how to authenticate callers.
type Module struct {
	svc TenantService
}

func New(svc TenantService) *Module {
	return &Module{svc: svc}
}

// Handle returns the admin router:
//
//	POST   /tenants                  create (provision) a tenant
//	GET    /tenants                  list tenants
//	GET    /tenants/stats            usage report
//	GET    /tenants/import/template  CSV import template
//	POST   /tenants/import           bulk import from CSV
//	GET    /tenants/{id}             tenant detail
//	PATCH  /tenants/{id}             partial update
//	POST   /tenants/{id}/status      change lifecycle status
//	GET    /tenants/{id}/audit       audit trail
func (m *Module) Handle() http.Handler {
	r := chi.NewRouter()

	r.Route("/tenants", func(r chi.Router) {
		r.Post("/", m.createTenant)
		r.Get("/", m.listTenants)
		r.Get("/stats", m.stats)
		r.Get("/import/template", m.importTemplate)
		r.Post("/import", m.bulkImport)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", m.getTenant)
			r.Patch("/", m.updateTenant)
			r.Post("/status", m.changeStatus)
			r.Get("/audit", m.auditTrail)
		})
	})

	return r
}
