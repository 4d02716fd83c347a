package tenant

import (
	"errors"
	"fmt"

	coretenant "github.com/gestionescolar/tenancy/pkg/tenant"
)

var (
	// ErrPlanNotFound is returned when a referenced license plan does not
	// exist.
	ErrPlanNotFound = errors.New("license plan not found")

	// ErrInvalidStatusChange is returned when a requested lifecycle
	// transition is not allowed by the state machine.
	ErrInvalidStatusChange = errors.New("invalid status change")

	// ErrBadImportFile is returned when a bulk-import file cannot be read
	// at all: unparseable header or missing required columns. Row-level
	// failures are reported per row instead.
	ErrBadImportFile = errors.New("invalid import file")

	// ErrStatusConflict is returned by Store.SetStatus when the tenant's
	// stored status no longer matches the status the transition was checked
	// against. A concurrent writer got there first.
	ErrStatusConflict = errors.New("tenant status changed concurrently")
)

// FailureKind classifies a provisioning failure so callers can distinguish
// a duplicate code from an unreachable database engine from a failed
// migration.
type FailureKind string

const (
	KindInvalidRequest       FailureKind = "invalid_request"
	KindDuplicateCode        FailureKind = "duplicate_code"
	KindDuplicateSubdomain   FailureKind = "duplicate_subdomain"
	KindUnknownPlan          FailureKind = "unknown_plan"
	KindStoreFailed          FailureKind = "store_failed"
	KindDatabaseCreateFailed FailureKind = "database_create_failed"
	KindMigrationFailed      FailureKind = "migration_failed"
	KindSeedFailed           FailureKind = "seed_failed"
	KindAuditFailed          FailureKind = "audit_failed"
)

// ProvisionError is the structured failure a provisioning run returns.
// Step records the checkpoint the tenant row was left at: a tenant that
// failed past persistence keeps that checkpoint and resumes from it on
// the next attempt with the same code.
type ProvisionError struct {
	Kind FailureKind
	Step coretenant.Step
	Err  error
}

func (e *ProvisionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("provisioning failed (%s) at step %s", e.Kind, e.Step)
	}
	return fmt.Sprintf("provisioning failed (%s) at step %s: %v", e.Kind, e.Step, e.Err)
}

func (e *ProvisionError) Unwrap() error { return e.Err }

// AsProvisionError unwraps err into a *ProvisionError when possible.
func AsProvisionError(err error) (*ProvisionError, bool) {
	var pe *ProvisionError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

func provisionErr(kind FailureKind, step coretenant.Step, err error) *ProvisionError {
	return &ProvisionError{Kind: kind, Step: step, Err: err}
}
