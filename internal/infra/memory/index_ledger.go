package memory

import (
	"context"
	"sync"

	"daily-problem-service/internal/domain"
)

// IndexLedger keeps the active index in process memory.
type IndexLedger struct {
	mu      sync.Mutex
	index   int
	set     bool
	saves   int
	saveErr error
}

func NewIndexLedger() *IndexLedger {
	return &IndexLedger{}
}

// NewIndexLedgerAt returns a ledger that already holds index.
func NewIndexLedgerAt(index int) *IndexLedger {
	return &IndexLedger{index: index, set: true}
}

func (l *IndexLedger) Load(_ context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.set {
		return 0, domain.ErrIndexNotFound
	}
	return l.index, nil
}

func (l *IndexLedger) Save(_ context.Context, index int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.saveErr != nil {
		return l.saveErr
	}
	l.index = index
	l.set = true
	l.saves++
	return nil
}

// Saves returns how many successful writes the ledger has seen.
func (l *IndexLedger) Saves() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.saves
}

// FailSaves makes every following Save return err; nil restores normal writes.
func (l *IndexLedger) FailSaves(err error) {
	l.mu.Lock()
	l.saveErr = err
	l.mu.Unlock()
}
