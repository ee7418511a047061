// Package accrual credits investment profit on a fixed server-side schedule.
//
// A Clock advances every active contract to "now" and a Scheduler drives the
// Clock from a cron job guarded by a leader lease, so only one process
// accrues at a time and ticks never overlap.
package accrual

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yieldvault/ledger/pkg/domain"
	"github.com/yieldvault/ledger/pkg/domain/investment"
	"github.com/yieldvault/ledger/pkg/domain/transaction"
	"github.com/yieldvault/ledger/pkg/eventbus"
	"github.com/yieldvault/ledger/pkg/ledger"
	"github.com/yieldvault/ledger/pkg/metrics"
	"github.com/yieldvault/ledger/pkg/repository"
	"github.com/yieldvault/ledger/pkg/service"
	"github.com/yieldvault/ledger/pkg/service/reconcile"
)

// MethodMaturity marks the deposit that returns principal at maturity.
const MethodMaturity = "investment_maturity"

// TickResult summarises one pass over the active contracts.
type TickResult struct {
	Contracts int
	Accrued   int
	Matured   int
	// Skipped counts contracts another writer advanced first.
	Skipped int
	Failed  int
	Profit  decimal.Decimal
}

type Clock struct {
	uow              repository.UnitOfWork
	bus              eventbus.Bus
	logger           *slog.Logger
	releasePrincipal bool
}

// NewClock creates a Clock. With releasePrincipal set, a matured contract's
// amount is credited back to the main balance.
func NewClock(uow repository.UnitOfWork, bus eventbus.Bus, logger *slog.Logger, releasePrincipal bool) *Clock {
	return &Clock{
		uow:              uow,
		bus:              bus,
		logger:           logger.With("service", "accrual"),
		releasePrincipal: releasePrincipal,
	}
}

// Tick advances every active contract to now. Each contract is written in
// its own unit of work: the contract's accrued profit and clock, and the
// account's profit balance, move together or not at all.
func (c *Clock) Tick(ctx context.Context, now time.Time) (TickResult, error) {
	start := time.Now()
	defer func() { metrics.AccrualDuration.Observe(time.Since(start).Seconds()) }()

	repo, err := c.uow.InvestmentRepository()
	if err != nil {
		return TickResult{}, err
	}
	contracts, err := repo.ListActive(ctx)
	if err != nil {
		return TickResult{}, fmt.Errorf("list active contracts: %w", err)
	}
	metrics.ActiveContracts.Set(float64(len(contracts)))

	res := TickResult{Contracts: len(contracts), Profit: decimal.Zero}
	var errs []error
	for _, contract := range contracts {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		step, err := c.advance(ctx, contract, now)
		switch {
		case errors.Is(err, domain.ErrConcurrentModification):
			res.Skipped++
			c.logger.Debug("Contract advanced elsewhere", "contract_id", contract.ID)
			continue
		case err != nil:
			res.Failed++
			errs = append(errs, fmt.Errorf("contract %s: %w", contract.ID, err))
			c.logger.Error("Accrual failed", "contract_id", contract.ID, "error", err)
			continue
		}
		if step.inc.IsPositive() {
			res.Accrued++
			res.Profit = res.Profit.Add(step.inc)
		}
		if step.matured {
			res.Matured++
		}
		c.published(ctx, contract, step)
	}
	return res, errors.Join(errs...)
}

type step struct {
	inc      decimal.Decimal
	matured  bool
	released *reconcile.Outcome
}

func (c *Clock) advance(ctx context.Context, contract *investment.Contract, now time.Time) (step, error) {
	var st step
	err := c.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		prev := contract.LastAccruedAt
		inc, matured, err := ledger.Accrue(contract, now)
		if err != nil {
			return err
		}
		if inc.IsZero() && !matured {
			return nil
		}
		investments, err := uow.InvestmentRepository()
		if err != nil {
			return err
		}
		if err := investments.SaveAccrual(ctx, contract, prev); err != nil {
			return err
		}
		if inc.IsPositive() {
			accounts, err := uow.AccountRepository()
			if err != nil {
				return err
			}
			if err := accounts.IncrementProfit(ctx, contract.AccountID, inc); err != nil {
				return err
			}
		}
		st = step{inc: inc, matured: matured}
		if matured && c.releasePrincipal {
			tx, err := transaction.New(contract.AccountID, contract.UserID, transaction.TypeDeposit, contract.Amount, MethodMaturity)
			if err != nil {
				return err
			}
			tx.WithDetails("principal of contract " + contract.ID.String())
			out, err := reconcile.Post(ctx, uow, tx)
			if err != nil {
				return err
			}
			st.released = &out
		}
		return nil
	})
	if err != nil {
		return step{}, err
	}
	return st, nil
}

func (c *Clock) published(ctx context.Context, contract *investment.Contract, st step) {
	var events []eventbus.Event
	if st.inc.IsPositive() {
		metrics.ProfitAccrued.Add(st.inc.InexactFloat64())
		e := eventbus.NewEvent(eventbus.ProfitAccrued, contract.AccountID)
		e.ContractID = contract.ID
		e.Amount = st.inc
		events = append(events, e)
	}
	if st.matured {
		metrics.ContractsMatured.Inc()
		e := eventbus.NewEvent(eventbus.InvestmentMatured, contract.AccountID)
		e.ContractID = contract.ID
		e.Amount = contract.AccruedProfit
		events = append(events, e)
		c.logger.Info("Contract matured", "contract_id", contract.ID, "profit", contract.AccruedProfit)
	}
	if st.released != nil {
		metrics.TransactionsCreated.WithLabelValues(string(transaction.TypeDeposit), string(transaction.StatusCompleted)).Inc()
		e := eventbus.NewEvent(eventbus.BalanceChanged, contract.AccountID)
		e.TransactionID = st.released.Transaction.ID
		e.Amount = st.released.Account.MainBalance
		events = append(events, e)
	}
	service.Emit(ctx, c.bus, c.logger, events...)
}
