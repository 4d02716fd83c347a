package audit

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStorage keeps entries in memory. Intended for tests and local
// development; production uses PostgresStorage.
type MemoryStorage struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) Store(ctx context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *MemoryStorage) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entry
	// Newest first.
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].TenantID != tenantID {
			continue
		}
		out = append(out, s.entries[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// All returns every stored entry in append order. Test helper.
func (s *MemoryStorage) All() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}
