package tenant

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/gestionescolar/tenancy/pkg/audit"
	"github.com/gestionescolar/tenancy/pkg/pg"
	"github.com/gestionescolar/tenancy/pkg/statemachine"
	coretenant "github.com/gestionescolar/tenancy/pkg/tenant"
)

// DatabaseAdmin allocates and removes isolated tenant databases through a
// server-level connection. *pg.Admin is the production implementation.
type DatabaseAdmin interface {
	Exists(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, name string) error
	Drop(ctx context.Context, name string) error
}

// SchemaMigrator applies the tenant schema to a freshly created database.
type SchemaMigrator interface {
	Migrate(ctx context.Context, dsn string) error
}

// Seeder populates a new tenant database: the initial administrator
// identity and the reference catalogs. Both operations are idempotent so
// a resumed provisioning run can repeat them safely.
type Seeder interface {
	SeedAdmin(ctx context.Context, dsn, email string, passwordHash []byte) error
	SeedReference(ctx context.Context, dsn string) error
}

// UsageCounter reads usage numbers out of one tenant's database.
type UsageCounter interface {
	Count(ctx context.Context, dsn string) (students, users int, err error)
}

type noopCounter struct{}

func (noopCounter) Count(ctx context.Context, dsn string) (int, int, error) { return 0, 0, nil }

// Provision creates a tenant end to end: validation, identifier
// derivation, catalog persistence, database allocation, schema migration,
// administrator and reference seeding, activation, audit.
//
// The workflow is resumable. Each completed step, activation included, is
// checkpointed on the tenant row; when a run fails, the row keeps its
// checkpoint and a later call with the same code picks up where it left
// off instead of tripping the duplicate-code check. Validation rejects a
// duplicate code only when the existing tenant is not resumable.
func (s *Service) Provision(ctx context.Context, req CreateTenantRequest) (*ProvisionResult, error) {
	req.Code = coretenant.NormalizeCode(req.Code)
	req.Subdomain = coretenant.NormalizeSubdomain(req.Subdomain)
	req.CustomDomain = coretenant.NormalizeSubdomain(req.CustomDomain)

	if err := req.validate(); err != nil {
		return nil, provisionErr(KindInvalidRequest, coretenant.StepNone, err)
	}

	// Step 1: advisory validation. The catalog's unique indexes remain
	// the authoritative guard; this only produces early, friendly errors.
	resumed, err := s.findResumable(ctx, req)
	if err != nil {
		return nil, err
	}

	plan, err := s.store.GetPlan(ctx, req.PlanID)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			return nil, provisionErr(KindUnknownPlan, coretenant.StepNone, fmt.Errorf("license plan %s does not exist", req.PlanID))
		}
		return nil, provisionErr(KindStoreFailed, coretenant.StepNone, err)
	}

	// Step 2: derived identifiers. Never recomputed after creation.
	dbName := coretenant.DatabaseNameFor(req.Code)
	dsn := strings.ReplaceAll(s.cfg.TenantDSNTemplate, "{database}", dbName)

	// Step 3: first durable side effect.
	t := resumed
	if t == nil {
		t = &coretenant.Tenant{
			ID:             uuid.New(),
			Code:           req.Code,
			Name:           req.Name,
			Subdomain:      req.Subdomain,
			CustomDomain:   req.CustomDomain,
			DatabaseName:   dbName,
			ConnString:     dsn,
			ContactName:    req.ContactName,
			ContactEmail:   req.ContactEmail,
			ContactPhone:   req.ContactPhone,
			PlanID:         plan.ID,
			MaxStudents:    plan.MaxStudents,
			MaxUsers:       plan.MaxUsers,
			Status:         coretenant.StatusPending,
			ProvisionStep:  coretenant.StepPersisted,
			ContractDate:   req.ContractDate,
			ExpirationDate: req.ExpirationDate,
		}
		if err := s.store.Create(ctx, t); err != nil {
			if pg.IsDuplicateKeyError(err) {
				return nil, provisionErr(KindDuplicateCode, coretenant.StepNone, fmt.Errorf("tenant code or subdomain already exists: %w", err))
			}
			return nil, provisionErr(KindStoreFailed, coretenant.StepNone, err)
		}
	}

	// A resumed tenant keeps the connection string computed when it was
	// first persisted; the template is never re-applied.
	if t.ConnString != "" {
		dsn = t.ConnString
	}

	// Steps 4-7 run from the recorded checkpoint forward.
	if err := s.runProvisionSteps(ctx, t, dsn, req); err != nil {
		return nil, s.failProvision(ctx, t, err)
	}

	// Step 8: Pending -> Active through the lifecycle machine. Activation
	// is checkpointed like every other step so a run that fails afterwards
	// resumes without re-firing the transition.
	if t.Status == coretenant.StatusPending {
		next, err := s.fsm.Fire(ctx, statemachine.State(t.Status), eventActivate, t)
		if err != nil {
			return nil, s.failProvision(ctx, t, provisionErr(KindStoreFailed, t.ProvisionStep, err))
		}
		if err := s.store.SetStatus(ctx, t.ID, t.Status, coretenant.Status(next)); err != nil {
			return nil, s.failProvision(ctx, t, provisionErr(KindStoreFailed, t.ProvisionStep, err))
		}
		t.Status = coretenant.Status(next)
	}
	if t.ProvisionStep < coretenant.StepActivated {
		if err := s.checkpoint(ctx, t, coretenant.StepActivated); err != nil {
			return nil, s.failProvision(ctx, t, err)
		}
	}

	// Step 9: audit before declaring success.
	desc := fmt.Sprintf("Tenant %s (%s) created with database %s", t.Code, t.Name, t.DatabaseName)
	if err := s.auditLog.Log(ctx, t.ID, t.Code, audit.ActionTenantCreated, desc); err != nil {
		return nil, s.failProvision(ctx, t, provisionErr(KindAuditFailed, t.ProvisionStep, err))
	}

	if err := s.checkpoint(ctx, t, coretenant.StepCompleted); err != nil {
		return nil, s.failProvision(ctx, t, err)
	}

	// A resumed tenant may have been cached while Pending.
	s.resolver.Evict(ctx, t)

	s.log.InfoContext(ctx, "tenant provisioned",
		"tenant_id", t.ID.String(), "code", t.Code, "database", t.DatabaseName)

	return &ProvisionResult{
		TenantID:      t.ID,
		Code:          t.Code,
		URL:           strings.ReplaceAll(s.cfg.PublicURLTemplate, "{subdomain}", t.Subdomain),
		AdminEmail:    req.AdminEmail,
		AdminPassword: req.AdminPassword,
	}, nil
}

// runProvisionSteps executes steps 4-7, skipping everything at or before
// the tenant's recorded checkpoint.
func (s *Service) runProvisionSteps(ctx context.Context, t *coretenant.Tenant, dsn string, req CreateTenantRequest) error {
	// Step 4: isolated database, idempotent by existence guard.
	if t.ProvisionStep < coretenant.StepDatabaseCreated {
		if err := s.dbadmin.Create(ctx, t.DatabaseName); err != nil {
			return provisionErr(KindDatabaseCreateFailed, t.ProvisionStep, err)
		}
		if err := s.settle(ctx); err != nil {
			return provisionErr(KindDatabaseCreateFailed, t.ProvisionStep, err)
		}
		if err := s.checkpoint(ctx, t, coretenant.StepDatabaseCreated); err != nil {
			return err
		}
	}

	// Step 5: tenant schema.
	if t.ProvisionStep < coretenant.StepSchemaMigrated {
		if err := s.migrator.Migrate(ctx, dsn); err != nil {
			return provisionErr(KindMigrationFailed, t.ProvisionStep, err)
		}
		if err := s.checkpoint(ctx, t, coretenant.StepSchemaMigrated); err != nil {
			return err
		}
	}

	// Step 6: initial administrator.
	if t.ProvisionStep < coretenant.StepAdminSeeded {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.AdminPassword), s.bcryptCost())
		if err != nil {
			return provisionErr(KindSeedFailed, t.ProvisionStep, err)
		}
		if err := s.seeder.SeedAdmin(ctx, dsn, req.AdminEmail, hash); err != nil {
			return provisionErr(KindSeedFailed, t.ProvisionStep, err)
		}
		if err := s.checkpoint(ctx, t, coretenant.StepAdminSeeded); err != nil {
			return err
		}
	}

	// Step 7: reference catalogs, idempotent.
	if t.ProvisionStep < coretenant.StepReferenceSeeded {
		if err := s.seeder.SeedReference(ctx, dsn); err != nil {
			return provisionErr(KindSeedFailed, t.ProvisionStep, err)
		}
		if err := s.checkpoint(ctx, t, coretenant.StepReferenceSeeded); err != nil {
			return err
		}
	}

	return nil
}

// findResumable looks for an existing tenant with the requested code or
// subdomain. A match whose checkpoint is below StepCompleted is returned
// for resumption; that covers tenants stuck in StatusPending and tenants
// already activated whose final audit or checkpoint write failed. Any
// other match is a duplicate.
func (s *Service) findResumable(ctx context.Context, req CreateTenantRequest) (*coretenant.Tenant, error) {
	existing, err := s.store.GetByCode(ctx, req.Code)
	switch {
	case err == nil:
		if existing.ProvisionStep < coretenant.StepCompleted &&
			(existing.Status == coretenant.StatusPending || existing.Status == coretenant.StatusActive) {
			s.log.InfoContext(ctx, "resuming stuck provisioning",
				"tenant_id", existing.ID.String(), "code", existing.Code, "checkpoint", existing.ProvisionStep.String())
			return existing, nil
		}
		return nil, provisionErr(KindDuplicateCode, coretenant.StepNone, fmt.Errorf("tenant code %q already exists", req.Code))
	case !errors.Is(err, coretenant.ErrTenantNotFound):
		return nil, provisionErr(KindStoreFailed, coretenant.StepNone, err)
	}

	other, err := s.store.GetByIdentifier(ctx, req.Subdomain)
	switch {
	case err == nil:
		return nil, provisionErr(KindDuplicateSubdomain, coretenant.StepNone, fmt.Errorf("subdomain %q is taken by tenant %s", req.Subdomain, other.Code))
	case !errors.Is(err, coretenant.ErrTenantNotFound):
		return nil, provisionErr(KindStoreFailed, coretenant.StepNone, err)
	}
	return nil, nil
}

// failProvision converts a step failure into the structured result the
// administrative surface reports. The tenant row keeps its checkpoint; the
// isolated database is dropped only when cleanup is explicitly enabled and
// the tenant never left StatusPending.
func (s *Service) failProvision(ctx context.Context, t *coretenant.Tenant, err error) error {
	pe, ok := AsProvisionError(err)
	if !ok {
		pe = provisionErr(KindStoreFailed, t.ProvisionStep, err)
	}

	s.log.ErrorContext(ctx, "tenant provisioning failed",
		"tenant_id", t.ID.String(), "code", t.Code,
		"kind", string(pe.Kind), "checkpoint", t.ProvisionStep.String(), "error", pe.Err)

	if s.cfg.DropDatabaseOnFailure && t.Status == coretenant.StatusPending && t.ProvisionStep >= coretenant.StepDatabaseCreated {
		// Best effort; the tenant row keeps its checkpoint either way.
		if dropErr := s.dbadmin.Drop(context.WithoutCancel(ctx), t.DatabaseName); dropErr != nil {
			s.log.ErrorContext(ctx, "failed to drop tenant database after provisioning failure",
				"database", t.DatabaseName, "error", dropErr)
		} else if stepErr := s.checkpoint(context.WithoutCancel(ctx), t, coretenant.StepPersisted); stepErr != nil {
			s.log.ErrorContext(ctx, "failed to rewind provisioning checkpoint",
				"tenant_id", t.ID.String(), "error", stepErr)
		}
	}
	return pe
}

func (s *Service) checkpoint(ctx context.Context, t *coretenant.Tenant, step coretenant.Step) error {
	if err := s.store.SetProvisionStep(ctx, t.ID, step); err != nil {
		return provisionErr(KindStoreFailed, t.ProvisionStep, err)
	}
	t.ProvisionStep = step
	return nil
}

// settle waits briefly after CREATE DATABASE; the engine may need a moment
// before accepting connections to the new database.
func (s *Service) settle(ctx context.Context) error {
	if s.cfg.SettleDelay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.cfg.SettleDelay):
		return nil
	}
}

func (s *Service) bcryptCost() int {
	if s.cfg.BcryptCost < bcrypt.MinCost || s.cfg.BcryptCost > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}
	return s.cfg.BcryptCost
}

func (req *CreateTenantRequest) validate() error {
	switch {
	case req.Code == "":
		return errors.New("code is required")
	case req.Name == "":
		return errors.New("name is required")
	case req.Subdomain == "":
		return errors.New("subdomain is required")
	case req.PlanID == uuid.Nil:
		return errors.New("plan id is required")
	case req.AdminEmail == "":
		return errors.New("admin email is required")
	case req.AdminPassword == "":
		return errors.New("admin password is required")
	}
	return nil
}

// randomPassword generates the temporary admin password for bulk-imported
// rows: 80 bits of entropy rendered as lowercase base32.
func randomPassword() (string, error) {
	buf := make([]byte, 10)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return strings.ToLower(base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf)), nil
}
