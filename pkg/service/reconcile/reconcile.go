// Package reconcile owns every balance-moving status change: admin approvals
// and rejections, reversals, manual adjustments and simulated bot trades.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yieldvault/ledger/pkg/domain"
	"github.com/yieldvault/ledger/pkg/domain/account"
	"github.com/yieldvault/ledger/pkg/domain/transaction"
	"github.com/yieldvault/ledger/pkg/eventbus"
	"github.com/yieldvault/ledger/pkg/metrics"
	"github.com/yieldvault/ledger/pkg/repository"
	"github.com/yieldvault/ledger/pkg/service"
	"github.com/yieldvault/ledger/pkg/service/auth"
	"golang.org/x/sync/singleflight"
)

// MethodAdjustment marks transactions created by Adjust.
const MethodAdjustment = "admin_adjustment"

// Service applies admin reconciliation operations.
type Service struct {
	uow        repository.UnitOfWork
	bus        eventbus.Bus
	logger     *slog.Logger
	maxRetries int
	inflight   singleflight.Group
}

// NewService creates a new reconciliation Service.
func NewService(uow repository.UnitOfWork, bus eventbus.Bus, logger *slog.Logger, maxRetries int) *Service {
	if maxRetries < 1 {
		maxRetries = service.DefaultMaxRetries
	}
	return &Service{
		uow:        uow,
		bus:        bus,
		logger:     logger.With("service", "reconcile"),
		maxRetries: maxRetries,
	}
}

// Transition moves transaction txID to next. Completing a transaction
// applies its delta exactly once; completing an already completed one is a
// no-op. Concurrent calls for the same transaction and target collapse into
// one execution.
func (s *Service) Transition(
	ctx context.Context,
	sess *auth.Session,
	txID uuid.UUID,
	next transaction.Status,
	reason string,
) (*transaction.Transaction, error) {
	if err := auth.RequireAdmin(sess); err != nil {
		return nil, err
	}
	if !next.Valid() {
		return nil, domain.NewInvalidInput("status", fmt.Sprintf("%q is not a transaction status", next))
	}

	key := txID.String() + ":" + string(next)
	v, err, shared := s.inflight.Do(key, func() (any, error) {
		var out Outcome
		err := service.Retry(ctx, "transition", s.maxRetries, func() error {
			return s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
				var err error
				out, err = Apply(ctx, uow, txID, next, reason)
				if err != nil || out.Previous == next {
					return err
				}
				return service.Audit(ctx, uow, sess.UserID, "transaction."+string(next), "transaction", txID,
					fmt.Sprintf("%s -> %s %s", out.Previous, next, reason))
			})
		})
		if err != nil {
			return nil, err
		}
		s.published(ctx, out)
		return out.Transaction, nil
	})
	if err != nil {
		s.logger.Info("Transition refused", "transaction_id", txID, "to", next, "error", err)
		return nil, err
	}
	if shared {
		s.logger.Debug("Transition shared with a concurrent caller", "transaction_id", txID)
	}
	return v.(*transaction.Transaction), nil
}

func (s *Service) published(ctx context.Context, out Outcome) {
	tx := out.Transaction
	if out.Previous == tx.Status {
		return
	}
	metrics.StatusTransitions.WithLabelValues(string(out.Previous), string(tx.Status)).Inc()
	e := eventbus.NewEvent(eventbus.TransactionStatusChanged, tx.AccountID)
	e.TransactionID = tx.ID
	e.Amount = tx.Amount
	e.Status = string(tx.Status)
	events := []eventbus.Event{e}
	if out.Applied() {
		events = append(events, balanceChanged(out))
	}
	service.Emit(ctx, s.bus, s.logger, events...)
	s.logger.Info("Transaction transitioned",
		"transaction_id", tx.ID, "from", out.Previous, "to", tx.Status, "applied", out.Applied())
}

// Reverse issues the compensating credit for a completed withdrawal or
// investment. It succeeds once per transaction.
func (s *Service) Reverse(ctx context.Context, sess *auth.Session, txID uuid.UUID, reason string) (*transaction.Transaction, error) {
	if err := auth.RequireAdmin(sess); err != nil {
		return nil, err
	}
	var out Outcome
	err := service.Retry(ctx, "reverse", s.maxRetries, func() error {
		return s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
			var err error
			out, err = Revert(ctx, uow, txID, time.Now())
			if err != nil {
				return err
			}
			return service.Audit(ctx, uow, sess.UserID, "transaction.reverse", "transaction", txID, reason)
		})
	})
	if err != nil {
		return nil, err
	}
	metrics.Reversals.Inc()
	e := eventbus.NewEvent(eventbus.TransactionReversed, out.Transaction.AccountID)
	e.TransactionID = txID
	e.Amount = out.Transaction.Amount
	events := []eventbus.Event{e, balanceChanged(out)}
	if out.Contract != nil {
		cancelled := eventbus.NewEvent(eventbus.InvestmentCancelled, out.Contract.AccountID)
		cancelled.ContractID = out.Contract.ID
		cancelled.Amount = out.Contract.Amount
		events = append(events, cancelled)
		s.logger.Info("Investment cancelled by reversal", "contract_id", out.Contract.ID)
	}
	service.Emit(ctx, s.bus, s.logger, events...)
	s.logger.Info("Transaction reversed", "transaction_id", txID, "amount", out.Transaction.Amount)
	return out.Transaction, nil
}

// Adjust credits or debits an account by a signed amount. Main balance
// credits are recorded as bonus and debits as withdrawal; profit balance
// credits are recorded as profit. The profit balance cannot be debited here.
func (s *Service) Adjust(
	ctx context.Context,
	sess *auth.Session,
	accountID uuid.UUID,
	bucket account.Bucket,
	amount decimal.Decimal,
	note string,
) (*transaction.Transaction, error) {
	if err := auth.RequireAdmin(sess); err != nil {
		return nil, err
	}
	txType, err := adjustmentType(bucket, amount)
	if err != nil {
		return nil, err
	}
	return s.post(ctx, sess, "account.adjust", func() (*transaction.Transaction, error) {
		tx, err := transaction.New(accountID, uuid.Nil, txType, amount.Abs(), MethodAdjustment)
		if err != nil {
			return nil, err
		}
		return tx.WithDetails(note), nil
	})
}

func adjustmentType(bucket account.Bucket, amount decimal.Decimal) (transaction.Type, error) {
	if amount.IsZero() {
		return "", domain.NewInvalidInput("amount", "must not be zero")
	}
	switch bucket {
	case account.BucketMain:
		if amount.IsPositive() {
			return transaction.TypeBonus, nil
		}
		return transaction.TypeWithdrawal, nil
	case account.BucketProfit:
		if amount.IsPositive() {
			return transaction.TypeProfit, nil
		}
		return "", domain.NewInvalidInput("amount", "profit balance only accepts credits")
	}
	return "", domain.NewInvalidInput("bucket", fmt.Sprintf("%q is not a balance", bucket))
}

// RecordBotTrade books a simulated trade result against the main balance.
func (s *Service) RecordBotTrade(
	ctx context.Context,
	sess *auth.Session,
	accountID uuid.UUID,
	amount decimal.Decimal,
	outcome transaction.Outcome,
) (*transaction.Transaction, error) {
	if err := auth.RequireAdmin(sess); err != nil {
		return nil, err
	}
	if outcome != transaction.OutcomeWin && outcome != transaction.OutcomeLoss {
		return nil, domain.NewInvalidInput("outcome", "must be win or loss")
	}
	return s.post(ctx, sess, "account.bot_trade", func() (*transaction.Transaction, error) {
		tx, err := transaction.New(accountID, uuid.Nil, transaction.TypeBotTrade, amount, "bot")
		if err != nil {
			return nil, err
		}
		return tx.WithOutcome(outcome), nil
	})
}

// post builds a fresh transaction per attempt so that a retried write never
// reuses an id from a rolled-back attempt.
func (s *Service) post(
	ctx context.Context,
	sess *auth.Session,
	action string,
	build func() (*transaction.Transaction, error),
) (*transaction.Transaction, error) {
	var out Outcome
	err := service.Retry(ctx, action, s.maxRetries, func() error {
		tx, err := build()
		if err != nil {
			return err
		}
		return s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
			accounts, err := uow.AccountRepository()
			if err != nil {
				return err
			}
			acc, err := accounts.Get(ctx, tx.AccountID)
			if err != nil {
				return err
			}
			tx.UserID = acc.UserID
			out, err = Post(ctx, uow, tx)
			if err != nil {
				return err
			}
			return service.Audit(ctx, uow, sess.UserID, action, "account", tx.AccountID,
				fmt.Sprintf("%s %s %s", tx.Type, tx.Amount, tx.Outcome))
		})
	})
	if err != nil {
		return nil, err
	}
	tx := out.Transaction
	metrics.TransactionsCreated.WithLabelValues(string(tx.Type), string(tx.Status)).Inc()
	created := eventbus.NewEvent(eventbus.TransactionCreated, tx.AccountID)
	created.TransactionID = tx.ID
	created.Amount = tx.Amount
	created.Status = string(tx.Status)
	service.Emit(ctx, s.bus, s.logger, created, balanceChanged(out))
	s.logger.Info("Transaction posted", "action", action, "transaction_id", tx.ID, "type", tx.Type, "amount", tx.Amount)
	return tx, nil
}

func balanceChanged(out Outcome) eventbus.Event {
	e := eventbus.NewEvent(eventbus.BalanceChanged, out.Transaction.AccountID)
	e.TransactionID = out.Transaction.ID
	e.Amount = out.Account.MainBalance
	return e
}
