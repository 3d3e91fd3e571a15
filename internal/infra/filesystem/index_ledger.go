package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"daily-problem-service/internal/domain"
	"github.com/moby/sys/atomicwriter"
)

// DefaultIndexFile is where the file ledger keeps the active index.
const DefaultIndexFile = "currentProblemIndex.json"

// IndexLedger persists the active index as a small JSON file. Writes go to
// a temp file that is synced and renamed over the old one.
type IndexLedger struct {
	path string
}

func NewIndexLedger(path string) *IndexLedger {
	if path == "" {
		path = DefaultIndexFile
	}
	return &IndexLedger{path: path}
}

// Path returns the ledger file location.
func (l *IndexLedger) Path() string {
	return l.path
}

func (l *IndexLedger) Load(_ context.Context) (int, error) {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("%w: %s", domain.ErrIndexNotFound, l.path)
	}
	if err != nil {
		return 0, fmt.Errorf("read index ledger: %w", err)
	}
	return domain.DecodeIndex(data)
}

func (l *IndexLedger) Save(_ context.Context, index int) error {
	data, err := domain.EncodeIndex(index)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(l.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create ledger dir: %w", err)
		}
	}
	if err := atomicwriter.WriteFile(l.path, data, 0o644); err != nil {
		return fmt.Errorf("write index ledger: %w", err)
	}
	return nil
}
