package tenant_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gestionescolar/tenancy/pkg/audit"
	coretenant "github.com/gestionescolar/tenancy/pkg/tenant"
	tenantsvc "github.com/gestionescolar/tenancy/svc/tenant"
)

// memStore is an in-memory Store for tests. Mirrors the catalog's
// case-insensitive uniqueness on code and subdomain.
type memStore struct {
	mu      sync.Mutex
	tenants map[uuid.UUID]*coretenant.Tenant
	plans   map[uuid.UUID]*tenantsvc.LicensePlan

	failCreate error

	// beforeSetStatus runs ahead of every SetStatus call, letting a test
	// interleave a competing write between read and swap.
	beforeSetStatus func()
}

func newMemStore() *memStore {
	return &memStore{
		tenants: make(map[uuid.UUID]*coretenant.Tenant),
		plans:   make(map[uuid.UUID]*tenantsvc.LicensePlan),
	}
}

func (s *memStore) addPlan(p tenantsvc.LicensePlan) *tenantsvc.LicensePlan {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[p.ID] = &p
	return &p
}

func (s *memStore) Create(ctx context.Context, t *coretenant.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate != nil {
		return s.failCreate
	}
	for _, existing := range s.tenants {
		if strings.EqualFold(existing.Code, t.Code) || strings.EqualFold(existing.Subdomain, t.Subdomain) {
			return duplicateKeyErr()
		}
	}
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	clone := *t
	s.tenants[t.ID] = &clone
	return nil
}

func (s *memStore) Update(ctx context.Context, t *coretenant.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tenants[t.ID]; !ok {
		return coretenant.ErrTenantNotFound
	}
	t.UpdatedAt = time.Now()
	clone := *t
	s.tenants[t.ID] = &clone
	return nil
}

func (s *memStore) SetStatus(ctx context.Context, id uuid.UUID, from, to coretenant.Status) error {
	if s.beforeSetStatus != nil {
		s.beforeSetStatus()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenants[id]
	if !ok {
		return coretenant.ErrTenantNotFound
	}
	if t.Status != from {
		return tenantsvc.ErrStatusConflict
	}
	t.Status = to
	t.UpdatedAt = time.Now()
	return nil
}

// setStatusDirect overwrites a tenant's status bypassing the compare-and-
// swap, standing in for a concurrent writer.
func (s *memStore) setStatusDirect(id uuid.UUID, status coretenant.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tenants[id]; ok {
		t.Status = status
	}
}

func (s *memStore) SetProvisionStep(ctx context.Context, id uuid.UUID, step coretenant.Step) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenants[id]
	if !ok {
		return coretenant.ErrTenantNotFound
	}
	t.ProvisionStep = step
	return nil
}

func (s *memStore) TouchLastAccess(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tenants[id]; ok {
		now := time.Now()
		t.LastAccessAt = &now
	}
	return nil
}

func (s *memStore) GetByID(ctx context.Context, id uuid.UUID) (*coretenant.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenants[id]
	if !ok {
		return nil, coretenant.ErrTenantNotFound
	}
	clone := *t
	return &clone, nil
}

func (s *memStore) GetByCode(ctx context.Context, code string) (*coretenant.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tenants {
		if strings.EqualFold(t.Code, code) {
			clone := *t
			return &clone, nil
		}
	}
	return nil, coretenant.ErrTenantNotFound
}

func (s *memStore) GetByIdentifier(ctx context.Context, identifier string) (*coretenant.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := coretenant.NormalizeSubdomain(identifier)
	for _, t := range s.tenants {
		if t.Matches(id) {
			clone := *t
			return &clone, nil
		}
	}
	return nil, coretenant.ErrTenantNotFound
}

func (s *memStore) List(ctx context.Context, filter tenantsvc.ListFilter) ([]coretenant.Tenant, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []coretenant.Tenant
	for _, t := range s.tenants {
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(t.Name), needle) &&
				!strings.Contains(strings.ToLower(t.Code), needle) &&
				!strings.Contains(strings.ToLower(t.Subdomain), needle) {
				continue
			}
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Code < out[j].Code
	})

	// Same paging rules the catalog store applies.
	page, per := filter.Page, filter.PerPage
	if page < 1 {
		page = 1
	}
	if per < 1 || per > 200 {
		per = 50
	}
	total := len(out)
	start := (page - 1) * per
	if start >= total {
		return nil, total, nil
	}
	end := start + per
	if end > total {
		end = total
	}
	return out[start:end], total, nil
}

func (s *memStore) GetPlan(ctx context.Context, id uuid.UUID) (*tenantsvc.LicensePlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[id]
	if !ok {
		return nil, tenantsvc.ErrPlanNotFound
	}
	clone := *p
	return &clone, nil
}

func (s *memStore) GetPlanByCode(ctx context.Context, code string) (*tenantsvc.LicensePlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.plans {
		if strings.EqualFold(p.Code, code) {
			clone := *p
			return &clone, nil
		}
	}
	return nil, tenantsvc.ErrPlanNotFound
}

// duplicateKeyErr mimics the unique constraint violation the catalog
// backend surfaces.
func duplicateKeyErr() error {
	return &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
}

// fakeAdmin records database operations in memory.
type fakeAdmin struct {
	mu        sync.Mutex
	databases map[string]bool
	createErr error
	creates   int
	drops     int
}

func newFakeAdmin() *fakeAdmin {
	return &fakeAdmin{databases: make(map[string]bool)}
}

func (a *fakeAdmin) Exists(ctx context.Context, name string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.databases[name], nil
}

func (a *fakeAdmin) Create(ctx context.Context, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.createErr != nil {
		return a.createErr
	}
	if !a.databases[name] {
		a.databases[name] = true
		a.creates++
	}
	return nil
}

func (a *fakeAdmin) Drop(ctx context.Context, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.databases, name)
	a.drops++
	return nil
}

func (a *fakeAdmin) has(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.databases[name]
}

// fakeMigrator records migration calls per DSN.
type fakeMigrator struct {
	mu   sync.Mutex
	runs []string
	fail error
}

func (m *fakeMigrator) Migrate(ctx context.Context, dsn string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.runs = append(m.runs, dsn)
	return nil
}

// fakeSeeder records seeding calls.
type fakeSeeder struct {
	mu           sync.Mutex
	admins       map[string]string // dsn -> email
	hashes       map[string][]byte // dsn -> password hash
	references   map[string]int    // dsn -> seed count
	adminErr     error
	referenceErr error
}

func newFakeSeeder() *fakeSeeder {
	return &fakeSeeder{
		admins:     make(map[string]string),
		hashes:     make(map[string][]byte),
		references: make(map[string]int),
	}
}

func (s *fakeSeeder) SeedAdmin(ctx context.Context, dsn, email string, passwordHash []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.adminErr != nil {
		return s.adminErr
	}
	if len(passwordHash) == 0 {
		return errors.New("empty password hash")
	}
	s.admins[dsn] = email
	s.hashes[dsn] = passwordHash
	return nil
}

func (s *fakeSeeder) SeedReference(ctx context.Context, dsn string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.referenceErr != nil {
		return s.referenceErr
	}
	s.references[dsn]++
	return nil
}

// fakeCounter returns fixed usage numbers, failing for marked DSNs.
type fakeCounter struct {
	students int
	users    int
	failFor  string
}

func (c *fakeCounter) Count(ctx context.Context, dsn string) (int, int, error) {
	if c.failFor != "" && strings.Contains(dsn, c.failFor) {
		return 0, 0, fmt.Errorf("connection refused")
	}
	return c.students, c.users, nil
}

// flakyAuditStorage persists to the wrapped memory storage but fails
// writes on demand.
type flakyAuditStorage struct {
	*audit.MemoryStorage
	mu   sync.Mutex
	fail error
}

func (s *flakyAuditStorage) setFail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

func (s *flakyAuditStorage) Store(ctx context.Context, entry audit.Entry) error {
	s.mu.Lock()
	err := s.fail
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.MemoryStorage.Store(ctx, entry)
}

// env bundles a fully wired service over in-memory collaborators.
type env struct {
	store      *memStore
	admin      *fakeAdmin
	migrator   *fakeMigrator
	seeder     *fakeSeeder
	audit      *audit.MemoryStorage
	auditStore *flakyAuditStorage
	resolver   *tenantsvc.Resolver
	svc        *tenantsvc.Service
	plan       *tenantsvc.LicensePlan
}

func newEnv(t *testing.T, opts ...tenantsvc.ServiceOption) *env {
	t.Helper()

	store := newMemStore()
	cache := coretenant.NewMemoryCache()
	t.Cleanup(func() { _ = cache.Close() })

	resolver := tenantsvc.NewResolver(store, cache, 10*time.Minute, slog.Default())
	auditStorage := audit.NewMemoryStorage()
	auditStore := &flakyAuditStorage{MemoryStorage: auditStorage}
	admin := newFakeAdmin()
	migrator := &fakeMigrator{}
	seeder := newFakeSeeder()

	cfg := tenantsvc.Config{
		TenantDSNTemplate: "postgres://app@db.local:5432/{database}",
		PublicURLTemplate: "https://{subdomain}.gestionescolar.app",
		CacheTTL:          10 * time.Minute,
		SettleDelay:       0,
		BcryptCost:        4, // keep test runs fast
	}

	svc := tenantsvc.NewService(cfg, store, resolver, audit.NewLogger(auditStore), admin, migrator, seeder, opts...)

	plan := store.addPlan(tenantsvc.LicensePlan{
		ID:          uuid.New(),
		Code:        "standard",
		Name:        "Standard",
		MaxStudents: 200,
		MaxUsers:    20,
	})

	return &env{
		store:      store,
		admin:      admin,
		migrator:   migrator,
		seeder:     seeder,
		audit:      auditStorage,
		auditStore: auditStore,
		resolver:   resolver,
		svc:        svc,
		plan:       plan,
	}
}

func (e *env) createRequest() tenantsvc.CreateTenantRequest {
	return tenantsvc.CreateTenantRequest{
		Code:          "DEMO",
		Name:          "Colegio Demo",
		Subdomain:     "demo",
		PlanID:        e.plan.ID,
		AdminEmail:    "admin@colegiodemo.edu",
		AdminPassword: "temporal-123",
	}
}
