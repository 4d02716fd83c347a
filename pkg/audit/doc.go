// Package audit records the append-only trail of tenant state changes.
//
// Every state-changing operation on a tenant (creation, administrative
// update, status transition) appends one Entry. Entries denormalize the
// tenant code so the trail remains readable independently of later changes
// to the tenant row. Nothing ever mutates or deletes an entry.
//
//	store := audit.NewPostgresStorage(pool)
//	log := audit.NewLogger(store)
//	_ = log.Log(ctx, t.ID, t.Code, audit.ActionTenantCreated, "tenant DEMO created")
package audit
