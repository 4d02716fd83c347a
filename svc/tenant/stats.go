package tenant

import (
	"context"

	coretenant "github.com/gestionescolar/tenancy/pkg/tenant"
)

// Stats builds the dashboard usage report: one row per tenant with student
// and user counts read from the tenant's own database. The report is best
// effort: a tenant whose database is unreachable is skipped with a logged
// warning so one broken tenant never empties the whole report.
func (s *Service) Stats(ctx context.Context) ([]TenantStats, error) {
	var tenants []coretenant.Tenant

	// Page through the whole catalog; the report covers every tenant, not
	// just the first store page.
	filter := ListFilter{Page: 1, PerPage: 200}
	for {
		page, _, err := s.store.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, page...)
		if len(page) < filter.PerPage {
			break
		}
		filter.Page++
	}

	stats := make([]TenantStats, 0, len(tenants))
	for i := range tenants {
		t := &tenants[i]
		row := TenantStats{
			TenantID:    t.ID,
			Code:        t.Code,
			Name:        t.Name,
			Status:      t.Status,
			MaxStudents: t.MaxStudents,
			MaxUsers:    t.MaxUsers,
		}

		students, users, err := s.counter.Count(ctx, t.ConnString)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.log.WarnContext(ctx, "skipping tenant in usage report",
				"tenant_id", t.ID.String(), "code", t.Code, "error", err)
			continue
		}
		row.Students = students
		row.Users = users
		stats = append(stats, row)
	}
	return stats, nil
}
