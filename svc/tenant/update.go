package tenant

import (
	"context"

	"github.com/google/uuid"

	"github.com/gestionescolar/tenancy/pkg/audit"
	coretenant "github.com/gestionescolar/tenancy/pkg/tenant"
)

// Update applies a partial administrative update: only non-nil fields
// change, an update timestamp is stamped, and the tenant's cache entries
// are evicted before the call returns. This is the only mutation path
// besides status transitions and follows the same invalidation discipline.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateTenantRequest) (*coretenant.Tenant, error) {
	t, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// The custom domain may change; remember the old keys so both the old
	// and new domains stop resolving stale data.
	before := *t

	if req.Name != nil {
		t.Name = *req.Name
	}
	if req.CustomDomain != nil {
		t.CustomDomain = coretenant.NormalizeSubdomain(*req.CustomDomain)
	}
	if req.LogoURL != nil {
		t.LogoURL = *req.LogoURL
	}
	if req.PrimaryColor != nil {
		t.PrimaryColor = *req.PrimaryColor
	}
	if req.ContactName != nil {
		t.ContactName = *req.ContactName
	}
	if req.ContactEmail != nil {
		t.ContactEmail = *req.ContactEmail
	}
	if req.ContactPhone != nil {
		t.ContactPhone = *req.ContactPhone
	}
	if req.PlanID != nil {
		plan, err := s.store.GetPlan(ctx, *req.PlanID)
		if err != nil {
			return nil, err
		}
		t.PlanID = plan.ID
		t.MaxStudents = plan.MaxStudents
		t.MaxUsers = plan.MaxUsers
	}
	if req.MaxStudents != nil {
		t.MaxStudents = *req.MaxStudents
	}
	if req.MaxUsers != nil {
		t.MaxUsers = *req.MaxUsers
	}
	if req.ContractDate != nil {
		t.ContractDate = req.ContractDate
	}
	if req.ExpirationDate != nil {
		t.ExpirationDate = req.ExpirationDate
	}

	if err := s.store.Update(ctx, t); err != nil {
		return nil, err
	}

	if err := s.auditLog.Log(ctx, t.ID, t.Code, audit.ActionTenantUpdated, "Tenant settings updated"); err != nil {
		s.log.ErrorContext(ctx, "failed to append update audit entry",
			"tenant_id", t.ID.String(), "error", err)
	}

	s.resolver.Evict(ctx, &before)
	s.resolver.Evict(ctx, t)

	return t, nil
}
