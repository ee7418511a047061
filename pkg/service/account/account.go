// Package account provides the user-facing account operations: reading the
// balance, requesting deposits and withdrawals and swapping profit into the
// main balance.
package account

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/yieldvault/ledger/pkg/domain"
	"github.com/yieldvault/ledger/pkg/domain/account"
	"github.com/yieldvault/ledger/pkg/domain/transaction"
	"github.com/yieldvault/ledger/pkg/eventbus"
	"github.com/yieldvault/ledger/pkg/metrics"
	"github.com/yieldvault/ledger/pkg/repository"
	"github.com/yieldvault/ledger/pkg/service"
	"github.com/yieldvault/ledger/pkg/service/auth"
)

// Service provides account operations for the session's own account.
type Service struct {
	uow        repository.UnitOfWork
	bus        eventbus.Bus
	logger     *slog.Logger
	maxRetries int
}

// NewService creates a new Service with the provided dependencies.
func NewService(uow repository.UnitOfWork, bus eventbus.Bus, logger *slog.Logger, maxRetries int) *Service {
	if maxRetries < 1 {
		maxRetries = service.DefaultMaxRetries
	}
	return &Service{uow: uow, bus: bus, logger: logger.With("service", "account"), maxRetries: maxRetries}
}

// Get returns the caller's account.
func (s *Service) Get(ctx context.Context, sess *auth.Session) (*account.Account, error) {
	if err := auth.RequireUser(sess); err != nil {
		return nil, err
	}
	repo, err := s.uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	return repo.Get(ctx, sess.AccountID)
}

// RequestDeposit records a pending deposit. Balances do not move until an
// admin completes it.
func (s *Service) RequestDeposit(ctx context.Context, sess *auth.Session, amount decimal.Decimal, method string) (*transaction.Transaction, error) {
	if err := auth.RequireUser(sess); err != nil {
		return nil, err
	}
	tx, err := transaction.New(sess.AccountID, sess.UserID, transaction.TypeDeposit, amount, method)
	if err != nil {
		return nil, err
	}
	if err := s.record(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// RequestWithdrawal records a pending withdrawal after checking the stored
// main balance and the frozen flag.
func (s *Service) RequestWithdrawal(
	ctx context.Context,
	sess *auth.Session,
	amount decimal.Decimal,
	method, details string,
) (*transaction.Transaction, error) {
	if err := auth.RequireUser(sess); err != nil {
		return nil, err
	}
	tx, err := transaction.New(sess.AccountID, sess.UserID, transaction.TypeWithdrawal, amount, method)
	if err != nil {
		return nil, err
	}
	tx.WithDetails(details)

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
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
		txs, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		return txs.Create(ctx, tx)
	})
	if err != nil {
		s.logger.Info("Withdrawal request rejected", "account_id", sess.AccountID, "amount", amount, "error", err)
		return nil, err
	}
	s.created(ctx, tx)
	return tx, nil
}

// SwapProfit moves amount from the profit balance to the main balance.
func (s *Service) SwapProfit(ctx context.Context, sess *auth.Session, amount decimal.Decimal) (*account.Account, error) {
	if err := auth.RequireUser(sess); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, domain.NewInvalidInput("amount", "must be positive")
	}
	var acc *account.Account
	err := service.Retry(ctx, "swap", s.maxRetries, func() error {
		return s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
			accounts, err := uow.AccountRepository()
			if err != nil {
				return err
			}
			acc, err = accounts.Get(ctx, sess.AccountID)
			if err != nil {
				return err
			}
			if err := acc.ValidateDebit(account.BucketProfit, amount); err != nil {
				return err
			}
			if err := acc.Apply(account.BucketProfit, amount.Neg()); err != nil {
				return err
			}
			if err := acc.Apply(account.BucketMain, amount); err != nil {
				return err
			}
			return accounts.UpdateBalances(ctx, acc)
		})
	})
	if err != nil {
		return nil, err
	}
	e := eventbus.NewEvent(eventbus.BalanceChanged, acc.ID)
	e.Amount = amount
	service.Emit(ctx, s.bus, s.logger, e)
	s.logger.Info("Profit swapped", "account_id", acc.ID, "amount", amount)
	return acc, nil
}

// ListTransactions returns the caller's transactions, newest first.
func (s *Service) ListTransactions(ctx context.Context, sess *auth.Session) ([]*transaction.Transaction, error) {
	if err := auth.RequireUser(sess); err != nil {
		return nil, err
	}
	repo, err := s.uow.TransactionRepository()
	if err != nil {
		return nil, err
	}
	return repo.ListByAccount(ctx, sess.AccountID)
}

func (s *Service) record(ctx context.Context, tx *transaction.Transaction) error {
	repo, err := s.uow.TransactionRepository()
	if err != nil {
		return err
	}
	if err := repo.Create(ctx, tx); err != nil {
		s.logger.Error("Failed to record transaction", "type", tx.Type, "error", err)
		return err
	}
	s.created(ctx, tx)
	return nil
}

func (s *Service) created(ctx context.Context, tx *transaction.Transaction) {
	metrics.TransactionsCreated.WithLabelValues(string(tx.Type), string(tx.Status)).Inc()
	e := eventbus.NewEvent(eventbus.TransactionCreated, tx.AccountID)
	e.TransactionID = tx.ID
	e.Amount = tx.Amount
	e.Status = string(tx.Status)
	service.Emit(ctx, s.bus, s.logger, e)
	s.logger.Info("Transaction requested", "type", tx.Type, "transaction_id", tx.ID, "amount", tx.Amount)
}
