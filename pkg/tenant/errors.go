package tenant

import "errors"

var (
	// ErrTenantNotFound is returned when no tenant matches an identifier.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrInvalidIdentifier is returned when an identifier is malformed.
	ErrInvalidIdentifier = errors.New("invalid tenant identifier")

	// ErrInactiveTenant is returned when a resolved tenant is not active.
	ErrInactiveTenant = errors.New("tenant is not active")

	// ErrNoTenantInContext is returned when a tenant is required but none
	// is bound to the context.
	ErrNoTenantInContext = errors.New("no tenant in context")
)
