package tenant

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// ctxKey is a private type to prevent collisions with other context keys.
type ctxKey struct{}

// WithTenant binds a tenant to the given context. The binding travels with
// the context along the asynchronous call chain and is visible only to the
// logical flow that owns the context; concurrently executing flows each
// carry their own binding.
func WithTenant(ctx context.Context, t *Tenant) context.Context {
	return context.WithValue(ctx, ctxKey{}, t)
}

// FromContext returns the tenant bound to the context, or false when none
// is bound (unauthenticated or public paths).
func FromContext(ctx context.Context) (*Tenant, bool) {
	t, ok := ctx.Value(ctxKey{}).(*Tenant)
	return t, ok && t != nil
}

// IDFromContext returns just the bound tenant's ID.
func IDFromContext(ctx context.Context) (uuid.UUID, bool) {
	t, ok := FromContext(ctx)
	if !ok {
		return uuid.UUID{}, false
	}
	return t.ID, true
}

// ConnStringFromContext returns the bound tenant's isolated connection
// string. Downstream collaborators use this to reach the tenant's database
// without explicit parameter threading.
func ConnStringFromContext(ctx context.Context) (string, bool) {
	t, ok := FromContext(ctx)
	if !ok {
		return "", false
	}
	return t.ConnString, true
}

// MustFromContext returns the bound tenant or panics. Use only in code
// paths that cannot be reached without a resolved tenant.
func MustFromContext(ctx context.Context) *Tenant {
	t, ok := FromContext(ctx)
	if !ok {
		panic(ErrNoTenantInContext)
	}
	return t
}

// LoggerExtractor returns a logger context extractor that annotates log
// records with the bound tenant's ID and code.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if t, ok := FromContext(ctx); ok {
			return slog.Group("tenant",
				slog.String("id", t.ID.String()),
				slog.String("code", t.Code),
			), true
		}
		return slog.Attr{}, false
	}
}
