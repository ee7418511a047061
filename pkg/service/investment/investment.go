// Package investment sells plan contracts and projects their returns.
package investment

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yieldvault/ledger/pkg/domain/account"
	"github.com/yieldvault/ledger/pkg/domain/investment"
	"github.com/yieldvault/ledger/pkg/domain/plan"
	"github.com/yieldvault/ledger/pkg/domain/transaction"
	"github.com/yieldvault/ledger/pkg/eventbus"
	"github.com/yieldvault/ledger/pkg/ledger"
	"github.com/yieldvault/ledger/pkg/metrics"
	"github.com/yieldvault/ledger/pkg/repository"
	"github.com/yieldvault/ledger/pkg/service"
	"github.com/yieldvault/ledger/pkg/service/auth"
	"github.com/yieldvault/ledger/pkg/service/reconcile"
)

// AutoPlan asks Project to pick the tier from the principal.
const AutoPlan = "auto"

type Service struct {
	uow        repository.UnitOfWork
	bus        eventbus.Bus
	catalog    *plan.Catalog
	logger     *slog.Logger
	maxRetries int
	now        func() time.Time
}

// NewService creates a new investment Service selling the plans in catalog.
func NewService(
	uow repository.UnitOfWork,
	bus eventbus.Bus,
	catalog *plan.Catalog,
	logger *slog.Logger,
	maxRetries int,
) *Service {
	if maxRetries < 1 {
		maxRetries = service.DefaultMaxRetries
	}
	return &Service{
		uow:        uow,
		bus:        bus,
		catalog:    catalog,
		logger:     logger.With("service", "investment"),
		maxRetries: maxRetries,
		now:        time.Now,
	}
}

// Plans returns the catalog, lowest tier first.
func (s *Service) Plans() []plan.Plan {
	return s.catalog.Plans()
}

// Project returns the expected payout of principal. An empty planID or
// AutoPlan selects the tier whose deposit range contains principal.
func (s *Service) Project(principal float64, planID string, compounding bool) (ledger.Projection, error) {
	var (
		p   plan.Plan
		err error
	)
	if planID == "" || strings.EqualFold(planID, AutoPlan) {
		p, err = s.catalog.PlanFor(principal)
	} else {
		p, err = s.catalog.ByID(planID)
	}
	if err != nil {
		return ledger.Projection{}, err
	}
	return ledger.ProjectReturn(principal, p, compounding, s.now())
}

// Invest opens a contract on planID and debits amount from the main balance
// through a completed investment transaction. Both writes share one unit of
// work.
func (s *Service) Invest(ctx context.Context, sess *auth.Session, planID string, amount decimal.Decimal) (*investment.Contract, error) {
	if err := auth.RequireUser(sess); err != nil {
		return nil, err
	}
	p, err := s.catalog.ByID(planID)
	if err != nil {
		return nil, err
	}

	var (
		contract *investment.Contract
		out      reconcile.Outcome
	)
	err = service.Retry(ctx, "invest", s.maxRetries, func() error {
		return s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
			accounts, err := uow.AccountRepository()
			if err != nil {
				return err
			}
			acc, err := accounts.Get(ctx, sess.AccountID)
			if err != nil {
				return err
			}
			if err := acc.ValidateDebit(account.BucketMain, amount); err != nil {
				return err
			}
			contract, err = investment.New(acc.ID, acc.UserID, p, amount, s.now())
			if err != nil {
				return err
			}
			tx, err := transaction.New(acc.ID, acc.UserID, transaction.TypeInvestment, amount, "plan:"+p.ID)
			if err != nil {
				return err
			}
			if out, err = reconcile.Post(ctx, uow, tx); err != nil {
				return err
			}
			contract.TransactionID = tx.ID
			investments, err := uow.InvestmentRepository()
			if err != nil {
				return err
			}
			return investments.Create(ctx, contract)
		})
	})
	if err != nil {
		s.logger.Info("Investment refused", "account_id", sess.AccountID, "plan_id", planID, "amount", amount, "error", err)
		return nil, err
	}

	metrics.TransactionsCreated.WithLabelValues(string(transaction.TypeInvestment), string(transaction.StatusCompleted)).Inc()
	opened := eventbus.NewEvent(eventbus.InvestmentOpened, contract.AccountID)
	opened.ContractID = contract.ID
	opened.TransactionID = contract.TransactionID
	opened.Amount = amount
	balance := eventbus.NewEvent(eventbus.BalanceChanged, contract.AccountID)
	balance.TransactionID = contract.TransactionID
	balance.Amount = out.Account.MainBalance
	service.Emit(ctx, s.bus, s.logger, opened, balance)
	s.logger.Info("Investment opened", "contract_id", contract.ID, "plan_id", p.ID, "amount", amount)
	return contract, nil
}

// List returns the caller's contracts, newest first.
func (s *Service) List(ctx context.Context, sess *auth.Session) ([]*investment.Contract, error) {
	if err := auth.RequireUser(sess); err != nil {
		return nil, err
	}
	repo, err := s.uow.InvestmentRepository()
	if err != nil {
		return nil, err
	}
	return repo.ListByAccount(ctx, sess.AccountID)
}

// Cancel stops an active contract and reverses the investment transaction
// that funded it. Profit already accrued stays on the profit balance.
func (s *Service) Cancel(ctx context.Context, sess *auth.Session, contractID uuid.UUID, reason string) (*investment.Contract, error) {
	if err := auth.RequireAdmin(sess); err != nil {
		return nil, err
	}
	var (
		contract *investment.Contract
		out      reconcile.Outcome
	)
	err := service.Retry(ctx, "cancel_investment", s.maxRetries, func() error {
		return s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
			investments, err := uow.InvestmentRepository()
			if err != nil {
				return err
			}
			contract, err = investments.Get(ctx, contractID)
			if err != nil {
				return err
			}
			if err := contract.Cancel(); err != nil {
				return err
			}
			// reverting the funding transaction cancels the contract
			if out, err = reconcile.Revert(ctx, uow, contract.TransactionID, s.now()); err != nil {
				return err
			}
			contract = out.Contract
			return service.Audit(ctx, uow, sess.UserID, "investment.cancel", "investment", contract.ID, reason)
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.Reversals.Inc()
	cancelled := eventbus.NewEvent(eventbus.InvestmentCancelled, contract.AccountID)
	cancelled.ContractID = contract.ID
	cancelled.Amount = contract.Amount
	reversed := eventbus.NewEvent(eventbus.TransactionReversed, contract.AccountID)
	reversed.TransactionID = contract.TransactionID
	reversed.Amount = contract.Amount
	balance := eventbus.NewEvent(eventbus.BalanceChanged, contract.AccountID)
	balance.Amount = out.Account.MainBalance
	service.Emit(ctx, s.bus, s.logger, cancelled, reversed, balance)
	s.logger.Info("Investment cancelled", "contract_id", contract.ID, "refund", contract.Amount)
	return contract, nil
}
