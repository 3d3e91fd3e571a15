package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"daily-problem-service/internal/app"
	"daily-problem-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// ProblemCache collapses concurrent loads of the same bundle and, with a
// positive TTL, keeps loaded bundles for that long. A zero TTL re-reads the
// backing store on every request. Failed loads are never cached.
type ProblemCache struct {
	store app.ProblemStore
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[int]cachedProblem
}

type cachedProblem struct {
	problem   domain.Problem
	expiresAt time.Time
}

func NewProblemCache(store app.ProblemStore, ttl time.Duration) *ProblemCache {
	return &ProblemCache{
		store: store,
		ttl:   ttl,
		clock: time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		cache: make(map[int]cachedProblem),
	}
}

func (c *ProblemCache) LoadProblem(ctx context.Context, index int) (domain.Problem, error) {
	if problem, ok := c.lookup(index); ok {
		return problem, nil
	}

	result, err, _ := c.sf.Do(strconv.Itoa(index), func() (interface{}, error) {
		// Re-check in case another goroutine filled it.
		if problem, ok := c.lookup(index); ok {
			return problem, nil
		}

		problem, err := c.store.LoadProblem(ctx, index)
		if err != nil {
			return domain.Problem{}, err
		}

		if c.ttl > 0 {
			c.mu.Lock()
			c.cache[index] = cachedProblem{
				problem:   problem,
				expiresAt: c.clock().Add(c.ttlWithJitter()),
			}
			c.mu.Unlock()
		}
		return problem, nil
	})
	if err != nil {
		return domain.Problem{}, err
	}
	return result.(domain.Problem), nil
}

// Invalidate drops the cached bundle for index.
func (c *ProblemCache) Invalidate(index int) {
	c.mu.Lock()
	delete(c.cache, index)
	c.mu.Unlock()
}

// Purge drops every cached bundle.
func (c *ProblemCache) Purge() {
	c.mu.Lock()
	c.cache = make(map[int]cachedProblem)
	c.mu.Unlock()
}

func (c *ProblemCache) lookup(index int) (domain.Problem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[index]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return domain.Problem{}, false
	}
	return entry.problem, true
}

func (c *ProblemCache) ttlWithJitter() time.Duration {
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// StaticProblemStore is a simple store backed by an in-memory map (useful for tests/demos).
type StaticProblemStore struct {
	mu       sync.RWMutex
	problems map[int]domain.Problem
}

func NewStaticProblemStore(problems map[int]domain.Problem) *StaticProblemStore {
	copied := make(map[int]domain.Problem, len(problems))
	for index, problem := range problems {
		problem.Index = index
		copied[index] = problem
	}
	return &StaticProblemStore{problems: copied}
}

func (s *StaticProblemStore) LoadProblem(_ context.Context, index int) (domain.Problem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if problem, ok := s.problems[index]; ok {
		return problem, nil
	}
	return domain.Problem{}, domain.ErrProblemNotFound
}

// Put adds or replaces a bundle.
func (s *StaticProblemStore) Put(problem domain.Problem) {
	s.mu.Lock()
	s.problems[problem.Index] = problem
	s.mu.Unlock()
}

// Remove deletes a bundle, simulating content removed from storage.
func (s *StaticProblemStore) Remove(index int) {
	s.mu.Lock()
	delete(s.problems, index)
	s.mu.Unlock()
}
