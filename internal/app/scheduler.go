package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler invokes tick until ctx is done. Ticks never overlap.
type Scheduler interface {
	Run(ctx context.Context, tick func(context.Context)) error
}

// TickerScheduler fires on a fixed period.
type TickerScheduler struct {
	Period time.Duration
}

func (s TickerScheduler) Run(ctx context.Context, tick func(context.Context)) error {
	if s.Period <= 0 {
		return fmt.Errorf("rotation period must be positive, got %s", s.Period)
	}
	ticker := time.NewTicker(s.Period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			tick(ctx)
		}
	}
}

// CronScheduler fires on a standard five-field cron expression, e.g. "0 0 * * *" for midnight.
type CronScheduler struct {
	Spec     string
	Location *time.Location
	Logger   *slog.Logger
}

func (s CronScheduler) Run(ctx context.Context, tick func(context.Context)) error {
	loc := s.Location
	if loc == nil {
		loc = time.Local
	}
	logger := cronLogger{logger: s.Logger}
	if logger.logger == nil {
		logger.logger = slog.Default()
	}

	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(s.Spec, func() { tick(ctx) }); err != nil {
		return fmt.Errorf("parse rotation schedule %q: %w", s.Spec, err)
	}

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}

// ManualScheduler fires only when Fire is called.
type ManualScheduler struct {
	mu    sync.Mutex
	tick  func(context.Context)
	ready chan struct{}
	once  sync.Once
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{ready: make(chan struct{})}
}

func (m *ManualScheduler) Run(ctx context.Context, tick func(context.Context)) error {
	m.mu.Lock()
	m.tick = tick
	m.mu.Unlock()
	m.once.Do(func() { close(m.ready) })

	<-ctx.Done()

	m.mu.Lock()
	m.tick = nil
	m.mu.Unlock()
	return nil
}

// Ready is closed once Run has registered its tick.
func (m *ManualScheduler) Ready() <-chan struct{} {
	return m.ready
}

// Fire runs one tick synchronously. It reports false if Run is not active.
func (m *ManualScheduler) Fire(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tick == nil {
		return false
	}
	m.tick(ctx)
	return true
}
