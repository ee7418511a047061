// Package initializer builds the application dependencies from config.
package initializer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/yieldvault/ledger/infra"
	infra_eventbus "github.com/yieldvault/ledger/infra/eventbus"
	"github.com/yieldvault/ledger/infra/lock"
	infra_repository "github.com/yieldvault/ledger/infra/repository"
	"github.com/yieldvault/ledger/pkg/app"
	"github.com/yieldvault/ledger/pkg/config"
	"github.com/yieldvault/ledger/pkg/domain/plan"
	"github.com/yieldvault/ledger/pkg/eventbus"
	"gorm.io/gorm"
)

const (
	accrualLockKey = "accrual:lease"
	defaultLockTTL = 30 * time.Second
)

// InitializeDependencies initializes all the application dependencies.
// The returned cleanup closes every connection that was opened and must be
// called once the application stops.
func InitializeDependencies(cfg *config.App) (deps *app.Deps, cleanup func(), err error) {
	logger := setupLogger(cfg.Log)
	deps = &app.Deps{Logger: logger}

	var closers []io.Closer
	cleanup = func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if cerr := closers[i].Close(); cerr != nil {
				logger.Warn("Failed to close dependency", "error", cerr)
			}
		}
	}
	defer func() {
		if err != nil {
			cleanup()
		}
	}()

	deps.Catalog, err = loadCatalog(cfg.PlansFile, logger)
	if err != nil {
		return nil, nil, err
	}

	db, err := openDatabase(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	closers = append(closers, sqlDB)
	deps.Uow = infra_repository.NewUoW(db)

	var primary eventbus.Bus
	if cfg.Redis != nil && cfg.Redis.URL != "" {
		client, err := infra.NewRedisClient(context.Background(), cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		closers = append(closers, client)
		bus, err := infra_eventbus.NewWithRedis(client, cfg.Redis.KeyPrefix, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Redis event bus: %w", err)
		}
		closers = append(closers, bus)
		primary = bus
		deps.Lock = lock.NewRedisLock(client, cfg.Redis.KeyPrefix+accrualLockKey, lockTTL(cfg))
		logger.Info("Using Redis event bus and accrual lease")
	} else {
		primary = infra_eventbus.NewWithMemory(logger)
		deps.Lock = lock.NewLocalLock()
		logger.Info("Using in-memory event bus and local accrual lock")
	}

	deps.EventBus = primary
	if cfg.Kafka != nil && cfg.Kafka.Brokers != "" {
		sink, err := infra_eventbus.NewWithKafka(cfg.Kafka.Brokers, logger, &infra_eventbus.KafkaEventBusConfig{
			GroupID:     cfg.Kafka.GroupID,
			TopicPrefix: cfg.Kafka.TopicPrefix,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Kafka event stream: %w", err)
		}
		closers = append(closers, sink)
		deps.EventBus = infra_eventbus.NewFanout(primary, sink)
		logger.Info("Mirroring events to Kafka", "brokers", cfg.Kafka.Brokers)
	}
	return deps, cleanup, nil
}

func loadCatalog(path string, logger *slog.Logger) (*plan.Catalog, error) {
	if path == "" {
		return plan.DefaultCatalog(), nil
	}
	catalog, err := plan.LoadFile(path)
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded plan catalog", "path", path, "plans", len(catalog.Plans()))
	return catalog, nil
}

// openDatabase connects and brings PostgreSQL schemas up to date.
func openDatabase(cfg *config.App, logger *slog.Logger) (*gorm.DB, error) {
	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		return nil, err
	}
	if db.Dialector.Name() == "postgres" {
		if err := infra.MigrateUp(db); err != nil {
			return nil, errors.Join(err, closeDB(db))
		}
	}
	return db, nil
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func lockTTL(cfg *config.App) time.Duration {
	if cfg.Accrual != nil && cfg.Accrual.LockTTL > 0 {
		return cfg.Accrual.LockTTL
	}
	return defaultLockTTL
}
