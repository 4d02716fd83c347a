package tenant

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gestionescolar/tenancy/pkg/audit"
	"github.com/gestionescolar/tenancy/pkg/statemachine"
	coretenant "github.com/gestionescolar/tenancy/pkg/tenant"
)

// DefaultStatusReason is recorded when a status change carries no reason.
const DefaultStatusReason = "not specified"

// ChangeStatus performs an administrative lifecycle transition. Only
// Active <-> Suspended is reachable here; Pending -> Active happens solely
// at the end of a successful provisioning run. Every transition appends an
// audit entry with the old status, new status and reason, and evicts the
// tenant's cache entries before returning.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, target coretenant.Status, reason string) (*coretenant.Tenant, error) {
	if !target.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidStatusChange, target)
	}

	t, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Pending tenants leave Pending only through a completed provisioning
	// run, never through the administrative surface.
	if t.Status == coretenant.StatusPending {
		return nil, fmt.Errorf("%w: tenant is still provisioning", ErrInvalidStatusChange)
	}

	event, ok := eventForTarget(target)
	if !ok || target == t.Status {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusChange, t.Status, target)
	}

	next, err := s.fsm.Fire(ctx, statemachine.State(t.Status), event, t)
	if err != nil {
		var noTransition *statemachine.ErrNoTransitionAvailable
		if errors.As(err, &noTransition) || statemachine.IsTransitionRejectedError(err) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusChange, t.Status, target)
		}
		return nil, err
	}

	if err := s.store.SetStatus(ctx, id, t.Status, coretenant.Status(next)); err != nil {
		if errors.Is(err, ErrStatusConflict) {
			return nil, fmt.Errorf("%w: status changed concurrently", ErrInvalidStatusChange)
		}
		return nil, err
	}

	old := t.Status
	t.Status = coretenant.Status(next)

	if reason == "" {
		reason = DefaultStatusReason
	}
	desc := fmt.Sprintf("Status changed from %s to %s. Reason: %s", statusLabel(old), statusLabel(t.Status), reason)
	if err := s.auditLog.Log(ctx, t.ID, t.Code, audit.ActionTenantStatusChanged, desc); err != nil {
		// The transition is already durable; a missing audit entry is a
		// logged defect, not a rollback trigger.
		s.log.ErrorContext(ctx, "failed to append status-change audit entry",
			"tenant_id", t.ID.String(), "error", err)
	}

	// Invalidate before returning so no read after this call sees the old
	// status within the TTL window.
	s.resolver.Evict(ctx, t)

	s.log.InfoContext(ctx, "tenant status changed",
		"tenant_id", t.ID.String(), "code", t.Code,
		"from", string(old), "to", string(t.Status), "reason", reason)
	return t, nil
}

// Suspend blocks a tenant's access for a billing or policy reason.
func (s *Service) Suspend(ctx context.Context, id uuid.UUID, reason string) (*coretenant.Tenant, error) {
	return s.ChangeStatus(ctx, id, coretenant.StatusSuspended, reason)
}

// Reactivate reverses a suspension.
func (s *Service) Reactivate(ctx context.Context, id uuid.UUID, reason string) (*coretenant.Tenant, error) {
	return s.ChangeStatus(ctx, id, coretenant.StatusActive, reason)
}

func eventForTarget(target coretenant.Status) (statemachine.Event, bool) {
	switch target {
	case coretenant.StatusActive:
		return eventActivate, true
	case coretenant.StatusSuspended:
		return eventSuspend, true
	}
	return "", false
}
