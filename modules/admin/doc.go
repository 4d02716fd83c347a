// Package admin exposes tenant administration as a mountable JSON API:
// provisioning, partial updates, lifecycle transitions, listing, usage
// statistics, CSV bulk import and the audit trail.
//
// The module carries no authentication of its own; the host application
// mounts it behind whatever operator authentication it uses.
//
//	svc := tenant.NewService(cfg, store, resolver, auditLog, dbadmin, migrator, seeder)
//	r.Mount("/admin", admin.New(svc).Handle())
package admin
