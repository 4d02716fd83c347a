package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Well-known action tags for tenant lifecycle events.
const (
	ActionTenantCreated       = "tenant.created"
	ActionTenantUpdated       = "tenant.updated"
	ActionTenantStatusChanged = "tenant.status_changed"
)

// Entry is one immutable audit record. The tenant code is denormalized so
// the trail stays readable even if the tenant row changes later. Entries
// are append-only; nothing updates or deletes them.
type Entry struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	TenantCode  string    `json:"tenant_code"`
	Action      string    `json:"action"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate checks required fields before storage.
func (e *Entry) Validate() error {
	if e.TenantID == uuid.Nil {
		return fmt.Errorf("%w: tenant id is required", ErrEntryValidation)
	}
	if e.Action == "" {
		return fmt.Errorf("%w: action is required", ErrEntryValidation)
	}
	return nil
}

// Storage persists audit entries.
type Storage interface {
	// Store appends one entry.
	Store(ctx context.Context, entry Entry) error

	// ListByTenant returns the newest entries for a tenant, newest first,
	// up to limit.
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]Entry, error)
}

// Logger records audit entries against a Storage backend.
type Logger struct {
	storage Storage
	now     func() time.Time
}

// NewLogger creates an audit logger. Panics on nil storage: an audit trail
// that silently drops entries is worse than failing fast at startup.
func NewLogger(storage Storage, opts ...LoggerOption) *Logger {
	if storage == nil {
		panic("audit: storage cannot be nil")
	}
	l := &Logger{storage: storage, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoggerOption configures a Logger.
type LoggerOption func(*Logger)

// WithClock overrides the timestamp source. Used by tests.
func WithClock(now func() time.Time) LoggerOption {
	return func(l *Logger) {
		if now != nil {
			l.now = now
		}
	}
}

// Log appends one entry for the given tenant.
func (l *Logger) Log(ctx context.Context, tenantID uuid.UUID, tenantCode, action, description string) error {
	entry := Entry{
		ID:          uuid.New(),
		TenantID:    tenantID,
		TenantCode:  tenantCode,
		Action:      action,
		Description: description,
		CreatedAt:   l.now(),
	}
	if err := entry.Validate(); err != nil {
		return err
	}
	return l.storage.Store(ctx, entry)
}

// List returns the newest entries for a tenant.
func (l *Logger) List(ctx context.Context, tenantID uuid.UUID, limit int) ([]Entry, error) {
	return l.storage.ListByTenant(ctx, tenantID, limit)
}
