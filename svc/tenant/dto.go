package tenant

import (
	"time"

	"github.com/google/uuid"

	coretenant "github.com/gestionescolar/tenancy/pkg/tenant"
)

// CreateTenantRequest describes one tenant to provision. The caller
// supplies the initial administrator's credentials; the temporary password
// is echoed back in the result so the administrator can sign in once and
// change it.
type CreateTenantRequest struct {
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Subdomain    string    `json:"subdomain"`
	CustomDomain string    `json:"custom_domain,omitempty"`
	PlanID       uuid.UUID `json:"plan_id"`

	AdminEmail    string `json:"admin_email"`
	AdminPassword string `json:"admin_password"`

	ContactName  string `json:"contact_name,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`

	ContractDate   *time.Time `json:"contract_date,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
}

// ProvisionResult is returned after a successful provisioning run.
type ProvisionResult struct {
	TenantID      uuid.UUID `json:"tenant_id"`
	Code          string    `json:"code"`
	URL           string    `json:"url"`
	AdminEmail    string    `json:"admin_email"`
	AdminPassword string    `json:"admin_password"`
}

// UpdateTenantRequest carries a partial update: nil means leave the field
// unchanged. Code, Subdomain and DatabaseName are immutable and therefore
// absent.
type UpdateTenantRequest struct {
	Name         *string    `json:"name,omitempty"`
	CustomDomain *string    `json:"custom_domain,omitempty"`
	LogoURL      *string    `json:"logo_url,omitempty"`
	PrimaryColor *string    `json:"primary_color,omitempty"`
	ContactName  *string    `json:"contact_name,omitempty"`
	ContactEmail *string    `json:"contact_email,omitempty"`
	ContactPhone *string    `json:"contact_phone,omitempty"`
	PlanID       *uuid.UUID `json:"plan_id,omitempty"`
	MaxStudents  *int       `json:"max_students,omitempty"`
	MaxUsers     *int       `json:"max_users,omitempty"`

	ContractDate   *time.Time `json:"contract_date,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
}

// ListFilter narrows and pages the tenant list.
type ListFilter struct {
	Status  *coretenant.Status `json:"status,omitempty"`
	Search  string             `json:"search,omitempty"` // matches name, code or subdomain
	Page    int                `json:"page"`
	PerPage int                `json:"per_page"`
}

func (f *ListFilter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 || f.PerPage > 200 {
		f.PerPage = 50
	}
}

// ListResult is one page of tenants.
type ListResult struct {
	Tenants []coretenant.Tenant `json:"tenants"`
	Total   int                 `json:"total"`
	Page    int                 `json:"page"`
	PerPage int                 `json:"per_page"`
}

// TenantStats is one tenant's usage snapshot for the dashboard.
type TenantStats struct {
	TenantID    uuid.UUID         `json:"tenant_id"`
	Code        string            `json:"code"`
	Name        string            `json:"name"`
	Status      coretenant.Status `json:"status"`
	Students    int               `json:"students"`
	Users       int               `json:"users"`
	MaxStudents int               `json:"max_students"`
	MaxUsers    int               `json:"max_users"`
}

// ImportRowError records one failed row of a bulk import.
type ImportRowError struct {
	Line    int    `json:"line"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// ImportReport summarizes a bulk import: rows provisioned (with their
// generated admin passwords) and rows that failed. A failed row never
// aborts the batch.
type ImportReport struct {
	Created  []ProvisionResult `json:"created"`
	Failures []ImportRowError  `json:"failures"`
}
