package redis

import (
	"context"
	"errors"
	"testing"

	"daily-problem-service/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestIndexLedgerPersistsInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ledger := NewIndexLedger(newClient(mr), "")
	ctx := context.Background()

	if _, err := ledger.Load(ctx); !errors.Is(err, domain.ErrIndexNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := ledger.Save(ctx, 2); err != nil {
		t.Fatalf("save: %v", err)
	}
	raw, err := mr.Get("problem:index")
	if err != nil {
		t.Fatalf("get key: %v", err)
	}
	if raw != `{"index":2}` {
		t.Fatalf("unexpected stored record %s", raw)
	}
	if index, err := ledger.Load(ctx); err != nil || index != 2 {
		t.Fatalf("expected 2, got %d (%v)", index, err)
	}
}

func TestIndexLedgerCorruptValue(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	if err := mr.Set("daily:index", "seven"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	ledger := NewIndexLedger(newClient(mr), "daily")
	if _, err := ledger.Load(context.Background()); !errors.Is(err, domain.ErrIndexCorrupt) {
		t.Fatalf("expected corrupt, got %v", err)
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
