package tenant

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// Provider is the read path the middleware resolves identifiers through.
// Implemented by svc/tenant.Resolver, which adds catalog access and caching.
type Provider interface {
	// ResolveBySubdomain maps a normalized identifier (subdomain, code or
	// custom domain) to a tenant. Returns ErrTenantNotFound on no match.
	ResolveBySubdomain(ctx context.Context, identifier string) (*Tenant, error)
}

// Middleware resolves the tenant for each inbound request and binds it to
// the request context, where every downstream collaborator reads it via
// FromContext. Requests without an identifier pass through unbound.
func Middleware(resolve Resolver, provider Provider, opts ...Option) func(http.Handler) http.Handler {
	cfg := &options{
		errorHandler:  defaultErrorHandler,
		requireActive: true,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.skipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			identifier, err := resolve(r)
			if err != nil {
				cfg.errorHandler(w, r, err)
				return
			}
			if identifier == "" {
				next.ServeHTTP(w, r)
				return
			}

			t, err := provider.ResolveBySubdomain(r.Context(), identifier)
			if err != nil {
				if cfg.logger != nil && !errors.Is(err, ErrTenantNotFound) {
					cfg.logger.ErrorContext(r.Context(), "tenant resolution failed",
						"identifier", identifier, "error", err)
				}
				cfg.errorHandler(w, r, err)
				return
			}
			if cfg.requireActive && !t.Active() {
				cfg.errorHandler(w, r, ErrInactiveTenant)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithTenant(r.Context(), t)))
		})
	}
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrTenantNotFound):
		http.Error(w, "Tenant not found", http.StatusNotFound)
	case errors.Is(err, ErrInactiveTenant):
		http.Error(w, "Tenant is suspended", http.StatusForbidden)
	case errors.Is(err, ErrInvalidIdentifier):
		http.Error(w, "Invalid tenant identifier", http.StatusBadRequest)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
