package filesystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"daily-problem-service/internal/domain"
)

func TestIndexLedgerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", DefaultIndexFile)
	ledger := NewIndexLedger(path)

	if _, err := ledger.Load(context.Background()); !errors.Is(err, domain.ErrIndexNotFound) {
		t.Fatalf("expected not found before first save, got %v", err)
	}
	if err := ledger.Save(context.Background(), 3); err != nil {
		t.Fatalf("save: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}
	if string(raw) != `{"index":3}` {
		t.Fatalf("unexpected ledger content %s", raw)
	}
	index, err := ledger.Load(context.Background())
	if err != nil || index != 3 {
		t.Fatalf("expected 3, got %d (%v)", index, err)
	}
}

func TestIndexLedgerCorruptContent(t *testing.T) {
	for name, content := range map[string]string{
		"garbage":  "not json",
		"missing":  `{}`,
		"zero":     `{"index":0}`,
		"string":   `{"index":"2"}`,
		"fraction": `{"index":1.5}`,
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), DefaultIndexFile)
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			if _, err := NewIndexLedger(path).Load(context.Background()); !errors.Is(err, domain.ErrIndexCorrupt) {
				t.Fatalf("expected corrupt, got %v", err)
			}
		})
	}
}

func TestIndexLedgerRejectsInvalidIndex(t *testing.T) {
	ledger := NewIndexLedger(filepath.Join(t.TempDir(), DefaultIndexFile))
	if err := ledger.Save(context.Background(), 0); !errors.Is(err, domain.ErrInvalidIndex) {
		t.Fatalf("expected invalid index, got %v", err)
	}
}
