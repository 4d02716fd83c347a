package tenant

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	coretenant "github.com/gestionescolar/tenancy/pkg/tenant"
)

// DefaultCacheTTL bounds how stale a cached resolution may get when an
// eviction is missed.
const DefaultCacheTTL = 10 * time.Minute

// Resolver is the read path: it maps external identifiers (subdomain,
// code, custom domain) and tenant IDs to catalog rows, caching results
// under a fixed TTL. Cache fills race freely: two concurrent misses may
// both hit the store and both write; the last write wins, which is safe
// because entries are idempotent to recompute.
//
// The Resolver never invalidates on its own. Every component that mutates
// a tenant row must call Evict as part of the same operation, otherwise a
// just-suspended tenant keeps resolving as active for up to the TTL.
type Resolver struct {
	store Store
	cache coretenant.Cache
	ttl   time.Duration
	log   *slog.Logger
}

// NewResolver creates a Resolver. A nil cache disables caching; a
// non-positive TTL falls back to DefaultCacheTTL.
func NewResolver(store Store, cache coretenant.Cache, ttl time.Duration, log *slog.Logger) *Resolver {
	if cache == nil {
		cache = coretenant.NewNoopCache()
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{store: store, cache: cache, ttl: ttl, log: log}
}

// ResolveBySubdomain maps an identifier to a tenant. The identifier is
// lowercased and matched against subdomain, code and exact custom domain.
// Returns coretenant.ErrTenantNotFound when nothing matches; misses are
// not cached.
func (r *Resolver) ResolveBySubdomain(ctx context.Context, identifier string) (*coretenant.Tenant, error) {
	id := coretenant.NormalizeSubdomain(identifier)
	if id == "" {
		return nil, coretenant.ErrTenantNotFound
	}

	key := subKey(id)
	if t, ok := r.cache.Get(ctx, key); ok {
		return t, nil
	}

	t, err := r.store.GetByIdentifier(ctx, id)
	if err != nil {
		return nil, err
	}
	r.cache.Set(ctx, key, t, r.ttl)
	r.touch(ctx, t)
	return t, nil
}

// ResolveByID maps a tenant ID to its catalog row with the same caching
// discipline as ResolveBySubdomain.
func (r *Resolver) ResolveByID(ctx context.Context, id uuid.UUID) (*coretenant.Tenant, error) {
	key := idKey(id)
	if t, ok := r.cache.Get(ctx, key); ok {
		return t, nil
	}

	t, err := r.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.cache.Set(ctx, key, t, r.ttl)
	return t, nil
}

// Evict removes every cache key the tenant can resolve through: its ID,
// subdomain, code and custom domain. Mutation paths call this before they
// return so reads issued after the mutation never observe stale data.
func (r *Resolver) Evict(ctx context.Context, t *coretenant.Tenant) {
	if t == nil {
		return
	}
	r.cache.Delete(ctx, idKey(t.ID))
	r.cache.Delete(ctx, subKey(t.Subdomain))
	r.cache.Delete(ctx, subKey(strings.ToLower(t.Code)))
	if t.CustomDomain != "" {
		r.cache.Delete(ctx, subKey(strings.ToLower(t.CustomDomain)))
	}
}

// touch stamps last access once per cache fill. Purely advisory; a failed
// stamp never fails the resolution.
func (r *Resolver) touch(ctx context.Context, t *coretenant.Tenant) {
	if err := r.store.TouchLastAccess(ctx, t.ID); err != nil && !errors.Is(err, context.Canceled) {
		r.log.WarnContext(ctx, "failed to stamp tenant last access",
			slog.String("tenant_id", t.ID.String()), slog.Any("error", err))
	}
}

func subKey(identifier string) string { return "sub:" + identifier }

func idKey(id uuid.UUID) string { return "id:" + id.String() }
