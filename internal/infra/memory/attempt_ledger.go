package memory

import (
	"context"
	"sync"

	"daily-problem-service/internal/domain"
)

// AttemptLedger is an in-memory implementation of app.AttemptLedger.
type AttemptLedger struct {
	mu      sync.RWMutex
	records map[string]*domain.Attempt
}

func NewAttemptLedger() *AttemptLedger {
	return &AttemptLedger{
		records: make(map[string]*domain.Attempt),
	}
}

func (l *AttemptLedger) GetOrCreate(_ context.Context, clientID, nickname string) (domain.Attempt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	record, ok := l.records[clientID]
	if !ok {
		record = &domain.Attempt{ClientID: clientID}
		l.records[clientID] = record
	}
	if nickname != "" {
		record.Nickname = nickname
	}
	return *record, nil
}

func (l *AttemptLedger) Get(_ context.Context, clientID string) (domain.Attempt, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	record, ok := l.records[clientID]
	if !ok {
		return domain.Attempt{}, false, nil
	}
	return *record, true, nil
}

func (l *AttemptLedger) RecordAttempt(_ context.Context, clientID string) (domain.Attempt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	record := l.recordLocked(clientID)
	record.Attempts++
	return *record, nil
}

func (l *AttemptLedger) MarkSuccess(_ context.Context, clientID string) (domain.Attempt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	record := l.recordLocked(clientID)
	record.Success = true
	return *record, nil
}

// ClearAll swaps in an empty map, so readers see either the old cycle or the new one.
func (l *AttemptLedger) ClearAll(_ context.Context) error {
	l.mu.Lock()
	l.records = make(map[string]*domain.Attempt)
	l.mu.Unlock()
	return nil
}

// Len returns the number of clients tracked this cycle.
func (l *AttemptLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

func (l *AttemptLedger) recordLocked(clientID string) *domain.Attempt {
	record, ok := l.records[clientID]
	if !ok {
		record = &domain.Attempt{ClientID: clientID}
		l.records[clientID] = record
	}
	return record
}
