// Package tenant implements tenant resolution and provisioning for the
// school-management platform.
//
// The read path (Resolver) maps subdomains, short codes and custom domains
// to catalog rows through a TTL cache. The write path (Service) provisions
// new tenants end to end (catalog row, isolated database, schema
// migrations, initial administrator, reference data, activation, audit)
// as a resumable workflow checkpointed on the tenant row, and handles
// administrative updates, lifecycle transitions, listing, usage statistics
// and CSV bulk import.
//
// Every mutation evicts the resolver's cache entries for the affected
// tenant before returning; the catalog's unique indexes are the
// authoritative guard against duplicate tenants.
package tenant
