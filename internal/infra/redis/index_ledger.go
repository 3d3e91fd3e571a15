package redis

import (
	"context"
	"errors"
	"fmt"

	"daily-problem-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key this service writes.
const DefaultPrefix = "problem"

// IndexLedger stores the active index as the JSON record {"index": n} under <prefix>:index.
// The key has no TTL.
type IndexLedger struct {
	client *redis.Client
	prefix string
}

func NewIndexLedger(client *redis.Client, prefix string) *IndexLedger {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &IndexLedger{client: client, prefix: prefix}
}

func (l *IndexLedger) Load(ctx context.Context) (int, error) {
	raw, err := l.client.Get(ctx, l.key()).Bytes()
	if errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("%w: key %s", domain.ErrIndexNotFound, l.key())
	}
	if err != nil {
		return 0, fmt.Errorf("load index: %w", err)
	}
	return domain.DecodeIndex(raw)
}

func (l *IndexLedger) Save(ctx context.Context, index int) error {
	data, err := domain.EncodeIndex(index)
	if err != nil {
		return err
	}
	if err := l.client.Set(ctx, l.key(), data, 0).Err(); err != nil {
		return fmt.Errorf("save index: %w", err)
	}
	return nil
}

func (l *IndexLedger) key() string {
	return l.prefix + ":index"
}
