// Package tenant defines the tenant model and the request-scoped machinery
// that makes the resolved tenant ambiently available to one logical flow.
//
// A tenant is one isolated customer (a school) with its own database. The
// package provides:
//
//   - The Tenant catalog model with its lifecycle Status and the
//     provisioning checkpoint Step.
//   - Context binding: WithTenant / FromContext propagate the resolved
//     tenant along the request's context so downstream code obtains the
//     tenant's isolated connection string without parameter threading.
//     Bindings are per-context and therefore isolated between concurrent
//     flows by construction.
//   - Caching: a TTL+LRU in-memory cache and a Redis-backed cache, both
//     behind the Cache interface. Mutating components are responsible for
//     evicting a tenant's keys as part of the mutation.
//   - HTTP resolution: Resolver implementations extract a lookup
//     identifier from the request (host subdomain, custom domain, header),
//     and Middleware binds the resolved tenant into the request context.
//
// # Usage
//
//	resolve := tenant.NewHostResolver(".gestionescolar.app")
//	mw := tenant.Middleware(resolve, resolverSvc)
//	r.Use(mw)
//
//	// downstream:
//	t, ok := tenant.FromContext(ctx)
package tenant
