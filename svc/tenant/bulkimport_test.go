package tenant_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coretenant "github.com/gestionescolar/tenancy/pkg/tenant"
	tenantsvc "github.com/gestionescolar/tenancy/svc/tenant"
)

func TestServiceBulkImport(t *testing.T) {
	t.Parallel()

	const header = "code,name,subdomain,plan_code,admin_email,contact_name,contact_email,contact_phone\n"

	t.Run("provisions every valid row", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, tenantsvc.WithPasswordGenerator(func() (string, error) { return "temporal-abc", nil }))
		ctx := context.Background()

		csv := header +
			"DEMO,Colegio Demo,demo,standard,admin@colegiodemo.edu,María García,contacto@colegiodemo.edu,+52 55 0000 0000\n" +
			"OTRO,Colegio Otro,otro,standard,admin@colegiootro.edu,,,\n"

		report, err := e.svc.BulkImport(ctx, strings.NewReader(csv))
		require.NoError(t, err)
		require.Len(t, report.Created, 2)
		assert.Empty(t, report.Failures)

		assert.Equal(t, "DEMO", report.Created[0].Code)
		assert.Equal(t, "temporal-abc", report.Created[0].AdminPassword)
		assert.Equal(t, "OTRO", report.Created[1].Code)

		demo, err := e.store.GetByCode(ctx, "DEMO")
		require.NoError(t, err)
		assert.Equal(t, coretenant.StatusActive, demo.Status)
		assert.Equal(t, "María García", demo.ContactName)
	})

	t.Run("a failed row never aborts the batch", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)
		ctx := context.Background()

		csv := header +
			"DEMO,Colegio Demo,demo,standard,admin@colegiodemo.edu,,,\n" +
			"DEMO,Colegio Duplicado,duplicado,standard,admin@duplicado.edu,,,\n" +
			"MALO,Colegio Malo,malo,no-such-plan,admin@malo.edu,,,\n" +
			"OTRO,Colegio Otro,otro,standard,admin@colegiootro.edu,,,\n"

		report, err := e.svc.BulkImport(ctx, strings.NewReader(csv))
		require.NoError(t, err)

		require.Len(t, report.Created, 2)
		assert.Equal(t, "DEMO", report.Created[0].Code)
		assert.Equal(t, "OTRO", report.Created[1].Code)

		require.Len(t, report.Failures, 2)
		assert.Equal(t, 3, report.Failures[0].Line)
		assert.Equal(t, "DEMO", report.Failures[0].Code)
		assert.Equal(t, 4, report.Failures[1].Line)
		assert.Contains(t, report.Failures[1].Message, "no-such-plan")
	})

	t.Run("plan codes match case-insensitively", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)

		csv := header + "DEMO,Colegio Demo,demo,STANDARD,admin@colegiodemo.edu,,,\n"
		report, err := e.svc.BulkImport(context.Background(), strings.NewReader(csv))
		require.NoError(t, err)
		require.Len(t, report.Created, 1)
		assert.Empty(t, report.Failures)
	})

	t.Run("missing required column rejects the file", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)

		csv := "code,name,subdomain\nDEMO,Colegio Demo,demo\n"
		_, err := e.svc.BulkImport(context.Background(), strings.NewReader(csv))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "plan_code")
	})

	t.Run("columns may appear in any order", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)

		csv := "admin_email,plan_code,subdomain,name,code\n" +
			"admin@colegiodemo.edu,standard,demo,Colegio Demo,DEMO\n"
		report, err := e.svc.BulkImport(context.Background(), strings.NewReader(csv))
		require.NoError(t, err)
		require.Len(t, report.Created, 1)
		assert.Equal(t, "DEMO", report.Created[0].Code)
	})

	t.Run("canceled context aborts", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		csv := header + "DEMO,Colegio Demo,demo,standard,admin@colegiodemo.edu,,,\n"
		_, err := e.svc.BulkImport(ctx, strings.NewReader(csv))
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestServiceImportTemplate(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	template := string(e.svc.ImportTemplate())

	lines := strings.Split(strings.TrimSpace(template), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "code,name,subdomain,plan_code,admin_email,contact_name,contact_email,contact_phone", lines[0])
	assert.Contains(t, lines[1], "DEMO")

	// The template round-trips through the importer itself.
	report, err := e.svc.BulkImport(context.Background(), strings.NewReader(template))
	require.NoError(t, err)
	require.Len(t, report.Created, 1)
	assert.Equal(t, "DEMO", report.Created[0].Code)
}
