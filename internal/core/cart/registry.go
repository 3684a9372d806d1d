package cart

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// HydrateTimeout bounds a single store hydration.
const HydrateTimeout = 10 * time.Second

// A HydrateFunc fills a freshly created store, e.g. from persisted state.
type HydrateFunc func(ctx context.Context, id string, s *Store) error

type entry struct {
	once sync.Once
	err  error

	// guarded by Registry.mu, set once hydration succeeds
	store     *Store
	lastUsed  time.Time
	persisted uint64
}

// A Registry owns one [Store] per cart owner id.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Acquire returns the store of the id, creating it on first use.
//
// The hydrate func runs once per id outside the registry lock,
// concurrent callers for the same id wait for it. Hydration is not
// cancelled with the first caller ctx, it is bounded by [HydrateTimeout].
// A failed hydration forgets the store so the next call retries.
func (r *Registry) Acquire(
	ctx context.Context, id string, hydrate HydrateFunc,
) (*Store, error) {
	const op = "Registry.Acquire"

	e := r.entry(id)
	e.once.Do(func() {
		s := NewStore()
		if hydrate != nil {
			hctx, cancel := context.WithTimeout(
				context.WithoutCancel(ctx), HydrateTimeout,
			)
			defer cancel()
			if err := hydrate(hctx, id, s); err != nil {
				e.err = err
				return
			}
		}
		r.mu.Lock()
		e.store = s
		r.mu.Unlock()
	})

	if e.err != nil {
		r.forget(id, e)
		return nil, fmt.Errorf("%s: %w", op, e.err)
	}
	return e.store, nil
}

// MarkPersisted records that the cart of the id is stored
// at least up to the version.
func (r *Registry) MarkPersisted(id string, version uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[id]; ok {
		e.persisted = max(e.persisted, version)
	}
}

// Evict forgets stores not acquired for at least idle whose every
// change is persisted, and returns how many were forgotten.
func (r *Registry) Evict(idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var n int
	for id, e := range r.entries {
		if e.store == nil || now.Sub(e.lastUsed) < idle {
			continue
		}
		if e.store.Version() > e.persisted {
			continue
		}
		delete(r.entries, id)
		n++
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) entry(id string) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		e = new(entry)
		r.entries[id] = e
	}
	e.lastUsed = r.now()
	return e
}

func (r *Registry) forget(id string, e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries[id] == e {
		delete(r.entries, id)
	}
}
