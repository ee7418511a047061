package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/charmbracelet/log"
	"github.com/yieldvault/ledger/infra/initializer"
	"github.com/yieldvault/ledger/pkg/app"
	"github.com/yieldvault/ledger/pkg/config"
	"github.com/yieldvault/ledger/pkg/service/accrual"
	"github.com/yieldvault/ledger/webapi"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}

	deps, cleanup, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer cleanup()
	logger := deps.Logger

	core := app.New(deps, cfg)
	sched, err := core.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create accrual scheduler: %w", err)
	}
	if sched != nil {
		if err := sched.Start(); err != nil {
			return err
		}
	} else {
		logger.Warn("Accrual scheduler disabled")
	}

	fiberApp := webapi.SetupApp(core)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Starting server",
		"env", cfg.Env,
		"address", addr,
		"scheme", cfg.Server.Scheme,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() { serveErr <- fiberApp.Listen(addr) }()

	select {
	case err := <-serveErr:
		stopScheduler(sched, logger)
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	stopScheduler(sched, logger)
	if err := fiberApp.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-serveErr
}

// stopScheduler waits for an in-flight tick, bounded by shutdownTimeout.
func stopScheduler(s *accrual.Scheduler, logger *slog.Logger) {
	if s == nil {
		return
	}
	select {
	case <-s.Stop().Done():
	case <-time.After(shutdownTimeout):
		logger.Warn("Accrual tick still running at shutdown")
	}
}
