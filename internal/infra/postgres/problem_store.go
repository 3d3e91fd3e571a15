package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"daily-problem-service/internal/domain"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
)

// DB is the part of *pgxpool.Pool the stores use.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
}

// ProblemStore loads bundles from the problems table. A row with any NULL
// artifact is an incomplete bundle.
type ProblemStore struct {
	db DB
}

func NewProblemStore(db DB) *ProblemStore {
	return &ProblemStore{db: db}
}

func (s *ProblemStore) LoadProblem(ctx context.Context, index int) (domain.Problem, error) {
	if index < domain.FirstIndex {
		return domain.Problem{}, fmt.Errorf("%w: index %d: %v", domain.ErrProblemNotFound, index, domain.ErrInvalidIndex)
	}

	var image, description, hint, answer *string
	err := s.db.QueryRow(ctx,
		`SELECT image, description, hint, answer FROM problems WHERE idx=$1`, index,
	).Scan(&image, &description, &hint, &answer)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Problem{}, fmt.Errorf("%w: index %d", domain.ErrProblemNotFound, index)
	}
	if err != nil {
		return domain.Problem{}, fmt.Errorf("%w: index %d: %v", domain.ErrProblemNotFound, index, err)
	}
	if image == nil || description == nil || hint == nil || answer == nil {
		return domain.Problem{}, fmt.Errorf("%w: index %d: incomplete bundle", domain.ErrProblemNotFound, index)
	}

	return domain.Problem{
		Index:       index,
		Image:       *image,
		Description: *description,
		Hint:        *hint,
		Answer:      strings.TrimSpace(*answer),
	}, nil
}

// PutProblem inserts or replaces a bundle. Used to seed content.
func (s *ProblemStore) PutProblem(ctx context.Context, problem domain.Problem) error {
	if problem.Index < domain.FirstIndex {
		return fmt.Errorf("%w: %d", domain.ErrInvalidIndex, problem.Index)
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO problems (idx, image, description, hint, answer)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (idx) DO UPDATE SET
			image=EXCLUDED.image, description=EXCLUDED.description,
			hint=EXCLUDED.hint, answer=EXCLUDED.answer`,
		problem.Index, problem.Image, problem.Description, problem.Hint, problem.Answer)
	if err != nil {
		return fmt.Errorf("put problem %d: %w", problem.Index, err)
	}
	return nil
}
