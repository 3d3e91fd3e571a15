package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"daily-problem-service/internal/domain"
)

func TestProblemCacheCachesWithTTL(t *testing.T) {
	store := &countingStore{ProblemStoreFunc: NewStaticProblemStore(sampleProblems()).LoadProblem}
	cache := NewProblemCache(store, time.Minute)

	if _, err := cache.LoadProblem(context.Background(), 1); err != nil {
		t.Fatalf("load problem: %v", err)
	}
	if _, err := cache.LoadProblem(context.Background(), 1); err != nil {
		t.Fatalf("load problem 2: %v", err)
	}
	if store.calls.Load() != 1 {
		t.Fatalf("expected cache hit, store calls %d", store.calls.Load())
	}

	cache.Invalidate(1)
	if _, err := cache.LoadProblem(context.Background(), 1); err != nil {
		t.Fatalf("load after invalidate: %v", err)
	}
	if store.calls.Load() != 2 {
		t.Fatalf("expected reload after invalidate, store calls %d", store.calls.Load())
	}
}

func TestProblemCacheZeroTTLRereads(t *testing.T) {
	static := NewStaticProblemStore(sampleProblems())
	store := &countingStore{ProblemStoreFunc: static.LoadProblem}
	cache := NewProblemCache(store, 0)

	first, err := cache.LoadProblem(context.Background(), 1)
	if err != nil {
		t.Fatalf("load problem: %v", err)
	}
	static.Put(domain.Problem{Index: 1, Image: first.Image, Description: "edited", Hint: first.Hint, Answer: first.Answer})

	second, err := cache.LoadProblem(context.Background(), 1)
	if err != nil {
		t.Fatalf("load problem 2: %v", err)
	}
	if second.Description != "edited" {
		t.Fatalf("expected edited description, got %q", second.Description)
	}
	if store.calls.Load() != 2 {
		t.Fatalf("expected two store reads, got %d", store.calls.Load())
	}
}

func TestProblemCacheDoesNotCacheFailures(t *testing.T) {
	static := NewStaticProblemStore(nil)
	cache := NewProblemCache(static, time.Minute)

	if _, err := cache.LoadProblem(context.Background(), 3); !errors.Is(err, domain.ErrProblemNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	static.Put(domain.Problem{Index: 3, Answer: "x"})
	if _, err := cache.LoadProblem(context.Background(), 3); err != nil {
		t.Fatalf("expected bundle after it appeared, got %v", err)
	}
}

func TestProblemCacheCollapsesConcurrentLoads(t *testing.T) {
	release := make(chan struct{})
	store := &countingStore{ProblemStoreFunc: func(ctx context.Context, index int) (domain.Problem, error) {
		<-release
		return domain.Problem{Index: index}, nil
	}}
	cache := NewProblemCache(store, 0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = cache.LoadProblem(context.Background(), 1)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if store.calls.Load() >= 8 {
		t.Fatalf("expected concurrent loads to be collapsed, got %d calls", store.calls.Load())
	}
}

type countingStore struct {
	ProblemStoreFunc func(ctx context.Context, index int) (domain.Problem, error)
	calls            atomic.Int32
}

func (s *countingStore) LoadProblem(ctx context.Context, index int) (domain.Problem, error) {
	s.calls.Add(1)
	return s.ProblemStoreFunc(ctx, index)
}

func sampleProblems() map[int]domain.Problem {
	return map[int]domain.Problem{
		1: {Image: "/problems/1/problem.png", Description: "What is 2 + 2?", Hint: "even", Answer: "4"},
		2: {Image: "/problems/2/problem.png", Description: "Capital of France?", Hint: "Paris", Answer: "Paris"},
	}
}
