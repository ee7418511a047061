// Package app wires the services together from their dependencies.
package app

import (
	"log/slog"

	"github.com/yieldvault/ledger/pkg/config"
	"github.com/yieldvault/ledger/pkg/domain/plan"
	"github.com/yieldvault/ledger/pkg/eventbus"
	"github.com/yieldvault/ledger/pkg/repository"
	"github.com/yieldvault/ledger/pkg/service/account"
	"github.com/yieldvault/ledger/pkg/service/accrual"
	"github.com/yieldvault/ledger/pkg/service/admin"
	"github.com/yieldvault/ledger/pkg/service/auth"
	"github.com/yieldvault/ledger/pkg/service/investment"
	"github.com/yieldvault/ledger/pkg/service/reconcile"
)

// Deps contains the infrastructure the services are built from.
type Deps struct {
	Uow      repository.UnitOfWork
	EventBus eventbus.Bus
	Catalog  *plan.Catalog
	// Lock guards the accrual scheduler; nil disables scheduling.
	Lock   accrual.Locker
	Logger *slog.Logger
}

type App struct {
	Deps              *Deps
	Config            *config.App
	AuthService       *auth.Service
	AccountService    *account.Service
	ReconcileService  *reconcile.Service
	InvestmentService *investment.Service
	AdminService      *admin.Service
	Clock             *accrual.Clock
}

func New(deps *Deps, cfg *config.App) *App {
	retries := 0
	if cfg.Reconcile != nil {
		retries = cfg.Reconcile.MaxRetries
	}
	release := cfg.Accrual != nil && cfg.Accrual.ReleasePrincipal
	catalog := deps.Catalog
	if catalog == nil {
		catalog = plan.DefaultCatalog()
	}
	return &App{
		Deps:              deps,
		Config:            cfg,
		AuthService:       auth.New(deps.Uow, cfg.Auth, deps.Logger),
		AccountService:    account.NewService(deps.Uow, deps.EventBus, deps.Logger, retries),
		ReconcileService:  reconcile.NewService(deps.Uow, deps.EventBus, deps.Logger, retries),
		InvestmentService: investment.NewService(deps.Uow, deps.EventBus, catalog, deps.Logger, retries),
		AdminService:      admin.NewService(deps.Uow, deps.EventBus, deps.Logger),
		Clock:             accrual.NewClock(deps.Uow, deps.EventBus, deps.Logger, release),
	}
}

// NewScheduler builds the accrual scheduler from the configured interval
// and lease. It returns nil when accrual is disabled.
func (a *App) NewScheduler() (*accrual.Scheduler, error) {
	cfg := a.Config.Accrual
	if cfg == nil || !cfg.Enabled || a.Deps.Lock == nil {
		return nil, nil
	}
	return accrual.NewScheduler(a.Clock, a.Deps.Lock, cfg.Interval, cfg.LockTTL, a.Deps.Logger)
}
