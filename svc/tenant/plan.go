package tenant

import (
	"time"

	"github.com/google/uuid"
)

// LicensePlan is the quota and feature template a tenant subscribes to.
// Read-mostly reference data; quotas are copied onto the tenant row at
// provisioning time so later plan edits do not retroactively change
// existing tenants.
type LicensePlan struct {
	ID           uuid.UUID `json:"id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	MaxStudents  int       `json:"max_students"`
	MaxUsers     int       `json:"max_users"`
	MonthlyPrice float64   `json:"monthly_price"`
	Features     []string  `json:"features,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
