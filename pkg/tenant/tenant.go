package tenant

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a tenant.
type Status string

const (
	// StatusPending marks a tenant whose row exists but whose provisioning
	// has not been confirmed complete.
	StatusPending Status = "pending"
	// StatusActive marks a tenant that is serving traffic.
	StatusActive Status = "active"
	// StatusSuspended marks a tenant whose access is blocked for a billing
	// or policy reason. Suspension is reversible.
	StatusSuspended Status = "suspended"
)

// IsValid reports whether the status is one of the known lifecycle states.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusActive, StatusSuspended:
		return true
	}
	return false
}

// Step is the provisioning checkpoint recorded on a tenant row. A tenant
// whose checkpoint is below StepCompleted resumes provisioning from the
// first step after its recorded checkpoint instead of starting over.
type Step int

const (
	StepNone Step = iota
	StepPersisted
	StepDatabaseCreated
	StepSchemaMigrated
	StepAdminSeeded
	StepReferenceSeeded
	StepActivated
	StepCompleted
)

func (s Step) String() string {
	switch s {
	case StepNone:
		return "none"
	case StepPersisted:
		return "persisted"
	case StepDatabaseCreated:
		return "database_created"
	case StepSchemaMigrated:
		return "schema_migrated"
	case StepAdminSeeded:
		return "admin_seeded"
	case StepReferenceSeeded:
		return "reference_seeded"
	case StepActivated:
		return "activated"
	case StepCompleted:
		return "completed"
	}
	return "unknown"
}

// DatabaseNamePrefix is prepended to the normalized tenant code to derive
// the name of the tenant's isolated database.
const DatabaseNamePrefix = "GestionEscolar_"

// DatabaseNameFor derives the isolated database name for a tenant code.
// The derivation is deterministic and is never recomputed after creation.
func DatabaseNameFor(code string) string {
	return DatabaseNamePrefix + NormalizeCode(code)
}

// NormalizeCode uppercases and trims a tenant code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NormalizeSubdomain lowercases and trims a subdomain or lookup identifier.
func NormalizeSubdomain(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Tenant is one isolated customer (a school) in the catalog. Code,
// Subdomain and DatabaseName are immutable once set; everything else may
// change through the administrative update and status paths.
type Tenant struct {
	ID           uuid.UUID `json:"id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Subdomain    string    `json:"subdomain"`
	CustomDomain string    `json:"custom_domain,omitempty"`
	DatabaseName string    `json:"database_name"`
	ConnString   string    `json:"-"`

	LogoURL      string `json:"logo_url,omitempty"`
	PrimaryColor string `json:"primary_color,omitempty"`

	ContactName  string `json:"contact_name,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`

	PlanID      uuid.UUID `json:"plan_id"`
	MaxStudents int       `json:"max_students"`
	MaxUsers    int       `json:"max_users"`

	Status        Status `json:"status"`
	ProvisionStep Step   `json:"-"`

	ContractDate   *time.Time `json:"contract_date,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
	LastAccessAt   *time.Time `json:"last_access_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Active reports whether the tenant may serve traffic.
func (t *Tenant) Active() bool {
	return t.Status == StatusActive
}

// Matches reports whether the normalized identifier refers to this tenant
// by subdomain, code or exact custom domain.
func (t *Tenant) Matches(identifier string) bool {
	id := NormalizeSubdomain(identifier)
	if id == "" {
		return false
	}
	return id == t.Subdomain || id == strings.ToLower(t.Code) || (t.CustomDomain != "" && id == strings.ToLower(t.CustomDomain))
}
