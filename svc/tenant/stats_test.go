package tenant_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coretenant "github.com/gestionescolar/tenancy/pkg/tenant"
	tenantsvc "github.com/gestionescolar/tenancy/svc/tenant"
)

func TestServiceStats(t *testing.T) {
	t.Parallel()

	t.Run("reports usage against plan quotas", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, tenantsvc.WithUsageCounter(&fakeCounter{students: 120, users: 8}))
		ctx := context.Background()

		result, err := e.svc.Provision(ctx, e.createRequest())
		require.NoError(t, err)

		stats, err := e.svc.Stats(ctx)
		require.NoError(t, err)
		require.Len(t, stats, 1)

		row := stats[0]
		assert.Equal(t, result.TenantID, row.TenantID)
		assert.Equal(t, "DEMO", row.Code)
		assert.Equal(t, 120, row.Students)
		assert.Equal(t, 8, row.Users)
		assert.Equal(t, 200, row.MaxStudents)
		assert.Equal(t, 20, row.MaxUsers)
	})

	t.Run("skips tenants whose database is unreachable", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, tenantsvc.WithUsageCounter(&fakeCounter{students: 10, users: 2, failFor: "GestionEscolar_DEMO"}))
		ctx := context.Background()

		_, err := e.svc.Provision(ctx, e.createRequest())
		require.NoError(t, err)

		second := e.createRequest()
		second.Code = "OTRO"
		second.Subdomain = "otro"
		_, err = e.svc.Provision(ctx, second)
		require.NoError(t, err)

		stats, err := e.svc.Stats(ctx)
		require.NoError(t, err)
		require.Len(t, stats, 1)
		assert.Equal(t, "OTRO", stats[0].Code)
	})

	t.Run("covers catalogs larger than one store page", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, tenantsvc.WithUsageCounter(&fakeCounter{students: 5, users: 1}))
		ctx := context.Background()

		const total = 205
		for i := range total {
			code := fmt.Sprintf("ESC%03d", i)
			err := e.store.Create(ctx, &coretenant.Tenant{
				ID:            uuid.New(),
				Code:          code,
				Name:          "Escuela " + code,
				Subdomain:     fmt.Sprintf("esc%03d", i),
				DatabaseName:  coretenant.DatabaseNameFor(code),
				ConnString:    "postgres://app@db.local:5432/" + coretenant.DatabaseNameFor(code),
				PlanID:        e.plan.ID,
				MaxStudents:   200,
				MaxUsers:      20,
				Status:        coretenant.StatusActive,
				ProvisionStep: coretenant.StepCompleted,
			})
			require.NoError(t, err)
		}

		stats, err := e.svc.Stats(ctx)
		require.NoError(t, err)
		assert.Len(t, stats, total)
	})

	t.Run("canceled context aborts the report", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, tenantsvc.WithUsageCounter(&fakeCounter{failFor: "GestionEscolar_DEMO"}))

		_, err := e.svc.Provision(context.Background(), e.createRequest())
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err = e.svc.Stats(ctx)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestServiceList(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.Provision(ctx, e.createRequest())
	require.NoError(t, err)

	second := e.createRequest()
	second.Code = "OTRO"
	second.Subdomain = "otro"
	second.Name = "Colegio Otro"
	_, err = e.svc.Provision(ctx, second)
	require.NoError(t, err)

	t.Run("lists everything by default", func(t *testing.T) {
		t.Parallel()
		result, err := e.svc.List(ctx, tenantsvc.ListFilter{})
		require.NoError(t, err)
		assert.Equal(t, 2, result.Total)
		assert.Equal(t, 1, result.Page)
		assert.Equal(t, 50, result.PerPage)
	})

	t.Run("filters by search term", func(t *testing.T) {
		t.Parallel()
		result, err := e.svc.List(ctx, tenantsvc.ListFilter{Search: "otro"})
		require.NoError(t, err)
		require.Equal(t, 1, result.Total)
		assert.Equal(t, "OTRO", result.Tenants[0].Code)
	})
}
