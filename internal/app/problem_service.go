package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"daily-problem-service/internal/domain"
)

// ProblemStore loads problem bundles by index. Implementations must report
// every missing or incomplete bundle as domain.ErrProblemNotFound.
type ProblemStore interface {
	LoadProblem(ctx context.Context, index int) (domain.Problem, error)
}

// IndexLedger persists the active problem index across restarts.
type IndexLedger interface {
	Load(ctx context.Context) (int, error)
	Save(ctx context.Context, index int) error
}

// AttemptLedger abstracts where per-client attempt state for the current cycle lives (in-memory, Redis).
type AttemptLedger interface {
	GetOrCreate(ctx context.Context, clientID, nickname string) (domain.Attempt, error)
	Get(ctx context.Context, clientID string) (domain.Attempt, bool, error)
	RecordAttempt(ctx context.Context, clientID string) (domain.Attempt, error)
	MarkSuccess(ctx context.Context, clientID string) (domain.Attempt, error)
	ClearAll(ctx context.Context) error
}

// Options tune a ProblemService. Zero values fall back to defaults.
type Options struct {
	MaxAttempts int
	Logger      *slog.Logger
	Clock       func() time.Time
}

// ProblemService owns the active index and the attempt ledger. Every
// sequence that touches both runs under mu.
type ProblemService struct {
	store       ProblemStore
	ledger      IndexLedger
	attempts    AttemptLedger
	maxAttempts int
	logger      *slog.Logger
	now         func() time.Time

	mu     sync.Mutex
	active int

	subMu       sync.Mutex
	subscribers map[chan domain.Rotation]struct{}
}

// NewProblemService recovers the active index from the ledger and returns a
// ready service. The attempt ledger is cleared when recovery resets the index.
func NewProblemService(ctx context.Context, store ProblemStore, ledger IndexLedger, attempts AttemptLedger, opts Options) *ProblemService {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = domain.DefaultMaxAttempts
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	s := &ProblemService{
		store:       store,
		ledger:      ledger,
		attempts:    attempts,
		maxAttempts: opts.MaxAttempts,
		logger:      opts.Logger,
		now:         opts.Clock,
		subscribers: make(map[chan domain.Rotation]struct{}),
	}
	var reset bool
	s.active, reset = RecoverIndex(ctx, ledger, store, s.logger)
	if reset {
		// Records in a durable attempt ledger belong to whatever index was there before.
		if err := attempts.ClearAll(ctx); err != nil {
			s.logger.Error("failed to clear attempts after index reset", "index", s.active, "error", err)
		}
	}
	activeIndexGauge.Set(float64(s.active))
	s.logger.Info("serving problem", "index", s.active)
	return s
}

// ActiveIndex returns the index of the problem currently served.
func (s *ProblemService) ActiveIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// MaxAttempts returns the per-cycle attempt cap.
func (s *ProblemService) MaxAttempts() int {
	return s.maxAttempts
}

// CurrentProblem loads the active bundle. The lock is held only while the index is read.
func (s *ProblemService) CurrentProblem(ctx context.Context) (domain.Problem, error) {
	return s.loadActive(ctx, s.ActiveIndex())
}

// Hint returns the hint text of the active bundle.
func (s *ProblemService) Hint(ctx context.Context) (string, error) {
	problem, err := s.CurrentProblem(ctx)
	if err != nil {
		return "", err
	}
	return problem.Hint, nil
}

// Attempt returns the caller's record for the current cycle without creating one.
func (s *ProblemService) Attempt(ctx context.Context, clientID string) (domain.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok, err := s.attempts.Get(ctx, clientID)
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("load attempts: %w", err)
	}
	if !ok {
		return domain.Attempt{ClientID: clientID}, nil
	}
	return record, nil
}

// Remaining reports how many submissions the record still allows this cycle.
func (s *ProblemService) Remaining(record domain.Attempt) int {
	if record.Success || record.Attempts >= s.maxAttempts {
		return 0
	}
	return s.maxAttempts - record.Attempts
}

// Submit evaluates an answer for clientID against the active problem.
// Policy rejections are verdicts, not errors; an error means the store or
// ledger failed.
func (s *ProblemService) Submit(ctx context.Context, clientID, nickname, answer string) (domain.SubmissionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.attempts.GetOrCreate(ctx, clientID, nickname)
	if err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("load attempts: %w", err)
	}
	if record.Success {
		return s.result(record, domain.VerdictAlreadySolved), nil
	}
	if record.Attempts >= s.maxAttempts {
		return s.result(record, domain.VerdictMaxAttempts), nil
	}

	// The attempt is consumed before the comparison, even if the bundle load fails.
	record, err = s.attempts.RecordAttempt(ctx, clientID)
	if err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("record attempt: %w", err)
	}

	problem, err := s.loadActive(ctx, s.active)
	if err != nil {
		return domain.SubmissionResult{}, err
	}

	if answer != problem.Answer {
		return s.result(record, domain.VerdictIncorrect), nil
	}
	record, err = s.attempts.MarkSuccess(ctx, clientID)
	if err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("mark success: %w", err)
	}
	return s.result(record, domain.VerdictCorrect), nil
}

// Rotate advances to the next bundle, wrapping to the first when the next
// one is unavailable, and clears every attempt record. If the ledger cannot
// be cleared the index stays where it is.
func (s *ProblemService) Rotate(ctx context.Context) (domain.Rotation, error) {
	s.mu.Lock()

	from := s.active
	next := from + 1
	if _, err := s.store.LoadProblem(ctx, next); err != nil {
		s.logger.Info("no bundle after current problem, wrapping around", "index", next, "error", err)
		next = domain.FirstIndex
	}

	if err := s.attempts.ClearAll(ctx); err != nil {
		s.mu.Unlock()
		rotationFailures.Inc()
		s.logger.Error("rotation aborted, attempt ledger not cleared", "index", from, "error", err)
		return domain.Rotation{}, fmt.Errorf("clear attempts: %w", err)
	}
	s.active = next

	if err := s.ledger.Save(ctx, next); err != nil {
		persistFailures.Inc()
		s.logger.Error("failed to persist problem index", "index", next, "error", err)
	}

	event := domain.Rotation{From: from, To: next, At: s.now()}
	s.mu.Unlock()

	rotationsTotal.Inc()
	activeIndexGauge.Set(float64(next))
	s.logger.Info("problem rotated", "from", from, "to", next)
	s.broadcast(event)
	return event, nil
}

// RunRotation rotates on every scheduler tick until ctx is done.
func (s *ProblemService) RunRotation(ctx context.Context, scheduler Scheduler) error {
	return scheduler.Run(ctx, func(ctx context.Context) {
		_, _ = s.Rotate(ctx)
	})
}

// Subscribe returns a channel that receives rotation events.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *ProblemService) Subscribe() (<-chan domain.Rotation, func()) {
	ch := make(chan domain.Rotation, 8)

	s.subMu.Lock()
	s.subscribers[ch] = struct{}{}
	s.subMu.Unlock()

	cancel := func() {
		s.subMu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.subMu.Unlock()
	}
	return ch, cancel
}

func (s *ProblemService) broadcast(event domain.Rotation) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			// Slow subscriber: drop the oldest event so the broadcast never blocks.
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
}

func (s *ProblemService) loadActive(ctx context.Context, index int) (domain.Problem, error) {
	problem, err := s.store.LoadProblem(ctx, index)
	if err != nil {
		problemLoadFailures.Inc()
		s.logger.Error("active problem unavailable", "index", index, "error", err)
		return domain.Problem{}, err
	}
	return problem, nil
}

func (s *ProblemService) result(record domain.Attempt, verdict domain.Verdict) domain.SubmissionResult {
	submissionsTotal.WithLabelValues(string(verdict)).Inc()
	return domain.SubmissionResult{
		Verdict:   verdict,
		Attempts:  record.Attempts,
		Remaining: s.Remaining(record),
	}
}
