package di

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/swarajreddy10/Resume-Canvas-sub000/cache"
)

// Profile is a test model for integration tests
type Profile struct {
	ID       string `json:"id" bun:"id,pk"`
	Name     string `json:"name" bun:"name"`
	Headline string `json:"headline" bun:"headline"`
}

var errProfileNotFound = errors.New("profile not found")

// memoryProfileRepository is a map backed repository that counts calls
type memoryProfileRepository struct {
	mu        sync.RWMutex
	profiles  map[string]Profile
	callCount map[string]int
}

func newMemoryProfileRepository(profiles ...Profile) *memoryProfileRepository {
	m := &memoryProfileRepository{
		profiles:  make(map[string]Profile),
		callCount: make(map[string]int),
	}
	for _, p := range profiles {
		m.profiles[p.ID] = p
	}
	return m
}

func (m *memoryProfileRepository) trackCall(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount[method]++
}

func (m *memoryProfileRepository) getCallCount(method string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.callCount[method]
}

func (m *memoryProfileRepository) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (Profile, error) {
	m.trackCall("GetByID")
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[id]
	if !ok {
		return Profile{}, errProfileNotFound
	}
	return p, nil
}

func (m *memoryProfileRepository) Get(ctx context.Context, criteria ...repository.SelectCriteria) (Profile, error) {
	m.trackCall("Get")
	list, _, _ := m.snapshot()
	if len(list) == 0 {
		return Profile{}, errProfileNotFound
	}
	return list[0], nil
}

func (m *memoryProfileRepository) List(ctx context.Context, criteria ...repository.SelectCriteria) ([]Profile, int, error) {
	m.trackCall("List")
	return m.snapshot()
}

func (m *memoryProfileRepository) Count(ctx context.Context, criteria ...repository.SelectCriteria) (int, error) {
	m.trackCall("Count")
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.profiles), nil
}

func (m *memoryProfileRepository) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (Profile, error) {
	m.trackCall("GetByIdentifier")
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.profiles {
		if p.Name == identifier {
			return p, nil
		}
	}
	return Profile{}, errProfileNotFound
}

func (m *memoryProfileRepository) Create(ctx context.Context, p Profile, criteria ...repository.InsertCriteria) (Profile, error) {
	m.trackCall("Create")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.ID] = p
	return p, nil
}

func (m *memoryProfileRepository) Update(ctx context.Context, p Profile, criteria ...repository.UpdateCriteria) (Profile, error) {
	m.trackCall("Update")
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[p.ID]; !ok {
		return Profile{}, errProfileNotFound
	}
	m.profiles[p.ID] = p
	return p, nil
}

func (m *memoryProfileRepository) Delete(ctx context.Context, p Profile) error {
	m.trackCall("Delete")
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.profiles, p.ID)
	return nil
}

func (m *memoryProfileRepository) snapshot() ([]Profile, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := make([]Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, len(list), nil
}

func (m *memoryProfileRepository) CreateTx(ctx context.Context, tx bun.IDB, record Profile, criteria ...repository.InsertCriteria) (Profile, error) {
	return m.Create(ctx, record)
}
func (m *memoryProfileRepository) CreateMany(ctx context.Context, records []Profile, criteria ...repository.InsertCriteria) ([]Profile, error) {
	for _, r := range records {
		_, _ = m.Create(ctx, r)
	}
	return records, nil
}
func (m *memoryProfileRepository) CreateManyTx(ctx context.Context, tx bun.IDB, records []Profile, criteria ...repository.InsertCriteria) ([]Profile, error) {
	return m.CreateMany(ctx, records)
}
func (m *memoryProfileRepository) GetOrCreate(ctx context.Context, record Profile) (Profile, error) {
	if p, err := m.GetByID(ctx, record.ID); err == nil {
		return p, nil
	}
	return m.Create(ctx, record)
}
func (m *memoryProfileRepository) GetOrCreateTx(ctx context.Context, tx bun.IDB, record Profile) (Profile, error) {
	return m.GetOrCreate(ctx, record)
}
func (m *memoryProfileRepository) UpdateTx(ctx context.Context, tx bun.IDB, record Profile, criteria ...repository.UpdateCriteria) (Profile, error) {
	return m.Update(ctx, record)
}
func (m *memoryProfileRepository) UpdateMany(ctx context.Context, records []Profile, criteria ...repository.UpdateCriteria) ([]Profile, error) {
	for _, r := range records {
		if _, err := m.Update(ctx, r); err != nil {
			return nil, err
		}
	}
	return records, nil
}
func (m *memoryProfileRepository) UpdateManyTx(ctx context.Context, tx bun.IDB, records []Profile, criteria ...repository.UpdateCriteria) ([]Profile, error) {
	return m.UpdateMany(ctx, records)
}
func (m *memoryProfileRepository) Upsert(ctx context.Context, record Profile, criteria ...repository.UpdateCriteria) (Profile, error) {
	return m.Create(ctx, record)
}
func (m *memoryProfileRepository) UpsertTx(ctx context.Context, tx bun.IDB, record Profile, criteria ...repository.UpdateCriteria) (Profile, error) {
	return m.Create(ctx, record)
}
func (m *memoryProfileRepository) UpsertMany(ctx context.Context, records []Profile, criteria ...repository.UpdateCriteria) ([]Profile, error) {
	return m.CreateMany(ctx, records)
}
func (m *memoryProfileRepository) UpsertManyTx(ctx context.Context, tx bun.IDB, records []Profile, criteria ...repository.UpdateCriteria) ([]Profile, error) {
	return m.CreateMany(ctx, records)
}
func (m *memoryProfileRepository) DeleteTx(ctx context.Context, tx bun.IDB, record Profile) error {
	return m.Delete(ctx, record)
}
func (m *memoryProfileRepository) DeleteMany(ctx context.Context, criteria ...repository.DeleteCriteria) error {
	m.trackCall("DeleteMany")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles = make(map[string]Profile)
	return nil
}
func (m *memoryProfileRepository) DeleteManyTx(ctx context.Context, tx bun.IDB, criteria ...repository.DeleteCriteria) error {
	return m.DeleteMany(ctx, criteria...)
}
func (m *memoryProfileRepository) DeleteWhere(ctx context.Context, criteria ...repository.DeleteCriteria) error {
	return m.DeleteMany(ctx, criteria...)
}
func (m *memoryProfileRepository) DeleteWhereTx(ctx context.Context, tx bun.IDB, criteria ...repository.DeleteCriteria) error {
	return m.DeleteMany(ctx, criteria...)
}
func (m *memoryProfileRepository) ForceDelete(ctx context.Context, record Profile) error {
	return m.Delete(ctx, record)
}
func (m *memoryProfileRepository) ForceDeleteTx(ctx context.Context, tx bun.IDB, record Profile) error {
	return m.Delete(ctx, record)
}
func (m *memoryProfileRepository) GetTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) (Profile, error) {
	return m.Get(ctx, criteria...)
}
func (m *memoryProfileRepository) GetByIDTx(ctx context.Context, tx bun.IDB, id string, criteria ...repository.SelectCriteria) (Profile, error) {
	return m.GetByID(ctx, id, criteria...)
}
func (m *memoryProfileRepository) ListTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) ([]Profile, int, error) {
	return m.List(ctx, criteria...)
}
func (m *memoryProfileRepository) CountTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) (int, error) {
	return m.Count(ctx, criteria...)
}
func (m *memoryProfileRepository) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (Profile, error) {
	return m.GetByIdentifier(ctx, identifier, criteria...)
}
func (m *memoryProfileRepository) Raw(ctx context.Context, sql string, args ...any) ([]Profile, error) {
	return nil, errors.New("raw queries not supported in mock")
}
func (m *memoryProfileRepository) RawTx(ctx context.Context, tx bun.IDB, sql string, args ...any) ([]Profile, error) {
	return nil, errors.New("raw queries not supported in mock")
}
func (m *memoryProfileRepository) Handlers() repository.ModelHandlers[Profile] {
	return repository.ModelHandlers[Profile]{}
}

func TestEndToEndCachedRepositoryFlow(t *testing.T) {
	for _, backend := range []cache.Backend{cache.BackendMemory, cache.BackendSharded} {
		t.Run(string(backend), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Queries.Backend = backend
			container := newTestContainer(t, cfg)

			base := newMemoryProfileRepository(Profile{ID: "p-1", Name: "ada", Headline: "Engineer"})
			cached := NewCachedRepository[Profile](container, base)
			ctx := context.Background()

			for i := 0; i < 3; i++ {
				p, err := cached.GetByID(ctx, "p-1")
				if err != nil {
					t.Fatalf("GetByID #%d failed: %v", i, err)
				}
				if p.Headline != "Engineer" {
					t.Errorf("GetByID #%d returned %+v", i, p)
				}
			}
			if n := base.getCallCount("GetByID"); n != 1 {
				t.Errorf("expected one base GetByID call, got %d", n)
			}

			for i := 0; i < 2; i++ {
				list, total, err := cached.List(ctx)
				if err != nil {
					t.Fatalf("List failed: %v", err)
				}
				if len(list) != 1 || total != 1 {
					t.Errorf("List returned %d records, total %d", len(list), total)
				}
			}
			if n := base.getCallCount("List"); n != 1 {
				t.Errorf("expected one base List call, got %d", n)
			}

			// Update must drop the cached record so the next read sees it.
			if _, err := cached.Update(ctx, Profile{ID: "p-1", Name: "ada", Headline: "Staff Engineer"}); err != nil {
				t.Fatalf("Update failed: %v", err)
			}
			p, err := cached.GetByID(ctx, "p-1")
			if err != nil {
				t.Fatalf("GetByID after update failed: %v", err)
			}
			if p.Headline != "Staff Engineer" {
				t.Errorf("expected updated headline, got %q", p.Headline)
			}

			// Create must drop List and Count.
			if _, err := cached.Create(ctx, Profile{ID: "p-2", Name: "grace"}); err != nil {
				t.Fatalf("Create failed: %v", err)
			}
			count, err := cached.Count(ctx)
			if err != nil {
				t.Fatalf("Count failed: %v", err)
			}
			if count != 2 {
				t.Errorf("expected count 2 after create, got %d", count)
			}
			if _, total, _ := cached.List(ctx); total != 2 {
				t.Errorf("expected list total 2 after create, got %d", total)
			}
		})
	}
}

func TestCacheExpiryFlow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Queries.DefaultTTL = 100 * time.Millisecond
	container := newTestContainer(t, cfg)

	base := newMemoryProfileRepository(Profile{ID: "expiring"})
	cached := NewCachedRepository[Profile](container, base)
	ctx := context.Background()

	_, _ = cached.GetByID(ctx, "expiring")
	_, _ = cached.GetByID(ctx, "expiring")
	if n := base.getCallCount("GetByID"); n != 1 {
		t.Fatalf("expected cache hit before expiry, got %d base calls", n)
	}

	time.Sleep(150 * time.Millisecond)

	_, _ = cached.GetByID(ctx, "expiring")
	if n := base.getCallCount("GetByID"); n != 2 {
		t.Errorf("expected refetch after TTL, got %d base calls", n)
	}
}

func TestErrorPropagation(t *testing.T) {
	container := newTestContainer(t, DefaultConfig())
	base := newMemoryProfileRepository()
	cached := NewCachedRepository[Profile](container, base)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := cached.GetByID(ctx, "missing"); !errors.Is(err, errProfileNotFound) {
			t.Errorf("expected errProfileNotFound, got %v", err)
		}
	}
	if n := base.getCallCount("GetByID"); n != 2 {
		t.Errorf("errors must not be cached, got %d base calls", n)
	}
}

func TestDifferentRepositoryTypes(t *testing.T) {
	type Skill struct {
		ID   string
		Name string
	}

	container := newTestContainer(t, DefaultConfig())
	profiles := NewCachedRepository[Profile](container, newMemoryProfileRepository(Profile{ID: "1"}))

	if profiles.Namespace() != "profile" {
		t.Errorf("unexpected namespace %q", profiles.Namespace())
	}

	// Same id, different record types: keys must not collide.
	ctx := context.Background()
	if _, err := profiles.GetByID(ctx, "1"); err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	_, err := cache.GetOrFetch(ctx, container.Queries(), "skill"+cache.KeySeparator+"GetByID::1", func(ctx context.Context) (Skill, error) {
		return Skill{ID: "1", Name: "Go"}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error for distinct namespace: %v", err)
	}
}

func TestConcurrentCachedReads(t *testing.T) {
	container := newTestContainer(t, DefaultConfig())
	base := newMemoryProfileRepository(Profile{ID: "hot", Name: "hot"})
	cached := NewCachedRepository[Profile](container, base)
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers*10)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				if _, err := cached.GetByID(ctx, "hot"); err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent read failed: %v", err)
	}
	if n := base.getCallCount("GetByID"); n > 2 {
		t.Errorf("expected concurrent misses to collapse, got %d base calls", n)
	}
}
