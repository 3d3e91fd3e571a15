package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"daily-problem-service/internal/app"
	"daily-problem-service/internal/config"
	"daily-problem-service/internal/infra/filesystem"
	transport "daily-problem-service/internal/transport/http"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the problem server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, os.Stdout)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "3000"
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := openBackends(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		return err
	}
	defer b.Close()

	service := app.NewProblemService(ctx, b.store, b.ledger, b.attempts, app.Options{
		MaxAttempts: cfg.Rotation.MaxAttempts,
		Logger:      logger,
	})

	if b.files != nil && config.TTLDuration(cfg.Problems.CacheTTL, 0) > 0 {
		watcher, err := filesystem.NewWatcher(b.files.Dir(), b.cache.Invalidate, logger)
		if err != nil {
			return err
		}
		if err := watcher.Start(ctx); err != nil {
			logger.Warn("problem watcher disabled", "error", err)
		}
		defer watcher.Stop()
	}

	scheduler, err := newScheduler(cfg, logger)
	if err != nil {
		return err
	}
	go func() {
		if err := service.RunRotation(ctx, scheduler); err != nil {
			logger.Error("rotation scheduler stopped", "error", err)
		}
	}()

	routerOpts := transport.RouterOptions{
		AssetPrefix: cfg.Problems.AssetPrefix,
		TrustProxy:  cfg.Server.TrustProxy,
		Logger:      logger,
	}
	if b.files != nil {
		routerOpts.ProblemsDir = b.files.Dir()
	}
	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(service, routerOpts),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting problem service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to start server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newScheduler(cfg config.Config, logger *slog.Logger) (app.Scheduler, error) {
	if cfg.Rotation.Cron != "" {
		loc, err := cfg.Location()
		if err != nil {
			return nil, err
		}
		logger.Info("rotation scheduled", "cron", cfg.Rotation.Cron, "timezone", loc.String())
		return app.CronScheduler{Spec: cfg.Rotation.Cron, Location: loc, Logger: logger}, nil
	}
	period := config.TTLDuration(cfg.Rotation.Period, 24*time.Hour)
	logger.Info("rotation scheduled", "period", period)
	return app.TickerScheduler{Period: period}, nil
}
