package tenant_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestionescolar/tenancy/pkg/tenant"
)

func requestWithHost(host string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "http://placeholder/", nil)
	r.Host = host
	return r
}

func TestNewHostResolver(t *testing.T) {
	t.Parallel()

	resolve := tenant.NewHostResolver(".gestionescolar.app")

	tests := []struct {
		name    string
		host    string
		want    string
		wantErr bool
	}{
		{name: "platform subdomain", host: "demo.gestionescolar.app", want: "demo"},
		{name: "uppercase host", host: "DEMO.GestionEscolar.APP", want: "demo"},
		{name: "with port", host: "demo.gestionescolar.app:8080", want: "demo"},
		{name: "www prefixed subdomain", host: "www.demo.gestionescolar.app", want: "demo"},
		{name: "nested labels take the first", host: "demo.mx.gestionescolar.app", want: "demo"},
		{name: "bare apex", host: "gestionescolar.app", want: ""},
		{name: "www apex", host: "www.gestionescolar.app", want: ""},
		{name: "custom domain passes whole", host: "colegiodemo.edu", want: "colegiodemo.edu"},
		{name: "custom domain with port", host: "colegiodemo.edu:443", want: "colegiodemo.edu"},
		{name: "empty host", host: "", want: ""},
		{name: "oversized host", host: strings.Repeat("a", 300) + ".gestionescolar.app", want: ""},
		{name: "invalid label", host: "-demo.gestionescolar.app", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := resolve(requestWithHost(tt.host))
			if tt.wantErr {
				require.ErrorIs(t, err, tenant.ErrInvalidIdentifier)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewHeaderResolver(t *testing.T) {
	t.Parallel()

	t.Run("reads the default header", func(t *testing.T) {
		t.Parallel()
		resolve := tenant.NewHeaderResolver("")
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Tenant-ID", "  demo  ")

		got, err := resolve(r)
		require.NoError(t, err)
		assert.Equal(t, "demo", got)
	})

	t.Run("custom header name", func(t *testing.T) {
		t.Parallel()
		resolve := tenant.NewHeaderResolver("X-School")
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-School", "demo")

		got, err := resolve(r)
		require.NoError(t, err)
		assert.Equal(t, "demo", got)
	})

	t.Run("missing header yields empty", func(t *testing.T) {
		t.Parallel()
		resolve := tenant.NewHeaderResolver("")
		got, err := resolve(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("oversized value is invalid", func(t *testing.T) {
		t.Parallel()
		resolve := tenant.NewHeaderResolver("")
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Tenant-ID", strings.Repeat("a", 300))

		_, err := resolve(r)
		require.ErrorIs(t, err, tenant.ErrInvalidIdentifier)
	})
}

func TestNewChainResolver(t *testing.T) {
	t.Parallel()

	host := tenant.NewHostResolver(".gestionescolar.app")
	header := tenant.NewHeaderResolver("")
	resolve := tenant.NewChainResolver(host, header)

	t.Run("first non-empty wins", func(t *testing.T) {
		t.Parallel()
		r := requestWithHost("demo.gestionescolar.app")
		r.Header.Set("X-Tenant-ID", "otro")

		got, err := resolve(r)
		require.NoError(t, err)
		assert.Equal(t, "demo", got)
	})

	t.Run("falls through to the next resolver", func(t *testing.T) {
		t.Parallel()
		r := requestWithHost("gestionescolar.app")
		r.Header.Set("X-Tenant-ID", "otro")

		got, err := resolve(r)
		require.NoError(t, err)
		assert.Equal(t, "otro", got)
	})

	t.Run("errors stop the chain", func(t *testing.T) {
		t.Parallel()
		r := requestWithHost("-demo.gestionescolar.app")
		r.Header.Set("X-Tenant-ID", "otro")

		_, err := resolve(r)
		require.ErrorIs(t, err, tenant.ErrInvalidIdentifier)
	})

	t.Run("all empty", func(t *testing.T) {
		t.Parallel()
		got, err := resolve(requestWithHost("gestionescolar.app"))
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
