package audit

import "errors"

var (
	// ErrEntryValidation indicates an entry is missing required fields.
	ErrEntryValidation = errors.New("audit entry validation failed")

	// ErrStorageNotAvailable indicates the storage backend is unavailable.
	ErrStorageNotAvailable = errors.New("audit storage is unavailable")
)
