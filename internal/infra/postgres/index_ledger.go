package postgres

import (
	"context"
	"errors"
	"fmt"

	"daily-problem-service/internal/domain"
	"github.com/jackc/pgx/v4"
)

// IndexLedger keeps the active index in the single-row problem_index table.
type IndexLedger struct {
	db DB
}

func NewIndexLedger(db DB) *IndexLedger {
	return &IndexLedger{db: db}
}

func (l *IndexLedger) Load(ctx context.Context) (int, error) {
	var index int
	err := l.db.QueryRow(ctx, `SELECT idx FROM problem_index WHERE id=1`).Scan(&index)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrIndexNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("load index: %w", err)
	}
	if index < domain.FirstIndex {
		return 0, fmt.Errorf("%w: index %d", domain.ErrIndexCorrupt, index)
	}
	return index, nil
}

func (l *IndexLedger) Save(ctx context.Context, index int) error {
	if index < domain.FirstIndex {
		return fmt.Errorf("%w: %d", domain.ErrInvalidIndex, index)
	}
	_, err := l.db.Exec(ctx,
		`INSERT INTO problem_index (id, idx) VALUES (1, $1) ON CONFLICT (id) DO UPDATE SET idx=EXCLUDED.idx`,
		index)
	if err != nil {
		return fmt.Errorf("save index: %w", err)
	}
	return nil
}
