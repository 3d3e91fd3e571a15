package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"daily-problem-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// AttemptLedger keeps the current cycle's attempt records in a single Redis
// hash, HSET <prefix>:attempts {clientID} {json record}, so ClearAll is one DEL.
// Callers serialize read-modify-write sequences; the ledger does not lock.
type AttemptLedger struct {
	client *redis.Client
	prefix string
}

func NewAttemptLedger(client *redis.Client, prefix string) *AttemptLedger {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &AttemptLedger{client: client, prefix: prefix}
}

func (l *AttemptLedger) GetOrCreate(ctx context.Context, clientID, nickname string) (domain.Attempt, error) {
	record, ok, err := l.Get(ctx, clientID)
	if err != nil {
		return domain.Attempt{}, err
	}
	if !ok {
		record = domain.Attempt{ClientID: clientID}
	}
	if ok && (nickname == "" || nickname == record.Nickname) {
		return record, nil
	}
	if nickname != "" {
		record.Nickname = nickname
	}
	return record, l.put(ctx, record)
}

func (l *AttemptLedger) Get(ctx context.Context, clientID string) (domain.Attempt, bool, error) {
	raw, err := l.client.HGet(ctx, l.key(), clientID).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Attempt{}, false, nil
	}
	if err != nil {
		return domain.Attempt{}, false, fmt.Errorf("load attempt: %w", err)
	}
	var record domain.Attempt
	if err := json.Unmarshal(raw, &record); err != nil {
		return domain.Attempt{}, false, fmt.Errorf("decode attempt for %s: %w", clientID, err)
	}
	record.ClientID = clientID
	return record, true, nil
}

func (l *AttemptLedger) RecordAttempt(ctx context.Context, clientID string) (domain.Attempt, error) {
	return l.update(ctx, clientID, func(record *domain.Attempt) { record.Attempts++ })
}

func (l *AttemptLedger) MarkSuccess(ctx context.Context, clientID string) (domain.Attempt, error) {
	return l.update(ctx, clientID, func(record *domain.Attempt) { record.Success = true })
}

func (l *AttemptLedger) ClearAll(ctx context.Context) error {
	if err := l.client.Del(ctx, l.key()).Err(); err != nil {
		return fmt.Errorf("clear attempts: %w", err)
	}
	return nil
}

func (l *AttemptLedger) update(ctx context.Context, clientID string, mutate func(*domain.Attempt)) (domain.Attempt, error) {
	record, ok, err := l.Get(ctx, clientID)
	if err != nil {
		return domain.Attempt{}, err
	}
	if !ok {
		record = domain.Attempt{ClientID: clientID}
	}
	mutate(&record)
	return record, l.put(ctx, record)
}

func (l *AttemptLedger) put(ctx context.Context, record domain.Attempt) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode attempt: %w", err)
	}
	if err := l.client.HSet(ctx, l.key(), record.ClientID, data).Err(); err != nil {
		return fmt.Errorf("store attempt: %w", err)
	}
	return nil
}

func (l *AttemptLedger) key() string {
	return l.prefix + ":attempts"
}
