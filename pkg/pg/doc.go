// Package pg wraps pgx with the plumbing the tenancy service needs:
// pooled connections with startup retries, goose schema migrations (for
// the catalog and for freshly created tenant databases), server-level
// database administration (create/drop, used by provisioning), and error
// classification helpers for unique-key and foreign-key violations.
package pg
