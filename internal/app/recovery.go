package app

import (
	"context"
	"log/slog"

	"daily-problem-service/internal/domain"
)

// RecoverIndex returns the persisted active index. A ledger that is missing,
// unparsable or names a bundle the store cannot load is reset to the first
// index and rewritten, and reset reports true; recovery never fails startup.
func RecoverIndex(ctx context.Context, ledger IndexLedger, store ProblemStore, logger *slog.Logger) (index int, reset bool) {
	if logger == nil {
		logger = slog.Default()
	}

	index, err := ledger.Load(ctx)
	if err == nil {
		if _, err = store.LoadProblem(ctx, index); err == nil {
			return index, false
		}
		logger.Warn("persisted problem index has no usable bundle, defaulting to first problem",
			"index", index,
			"error", err)
	} else {
		logger.Warn("could not load problem index, defaulting to first problem", "error", err)
	}

	if err := ledger.Save(ctx, domain.FirstIndex); err != nil {
		persistFailures.Inc()
		logger.Error("failed to persist problem index", "index", domain.FirstIndex, "error", err)
	}
	if _, err := store.LoadProblem(ctx, domain.FirstIndex); err != nil {
		logger.Error("first problem bundle unavailable", "index", domain.FirstIndex, "error", err)
	}
	return domain.FirstIndex, true
}
