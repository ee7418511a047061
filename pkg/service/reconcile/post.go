package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yieldvault/ledger/pkg/domain"
	"github.com/yieldvault/ledger/pkg/domain/account"
	"github.com/yieldvault/ledger/pkg/domain/investment"
	"github.com/yieldvault/ledger/pkg/domain/transaction"
	"github.com/yieldvault/ledger/pkg/ledger"
	"github.com/yieldvault/ledger/pkg/repository"
)

// Outcome describes the writes one reconciliation step made.
type Outcome struct {
	Transaction *transaction.Transaction
	Previous    transaction.Status
	// Account is nil when no balance moved.
	Account *account.Account
	// Contract is the investment cancelled by reverting its funding
	// transaction, nil otherwise.
	Contract *investment.Contract
}

// Applied reports whether the step changed a balance.
func (o Outcome) Applied() bool {
	return o.Account != nil
}

// Post stores tx as completed and applies its effect to the owning account,
// all inside uow. tx must be a freshly built pending transaction.
func Post(ctx context.Context, uow repository.UnitOfWork, tx *transaction.Transaction) (Outcome, error) {
	if tx.Status != transaction.StatusPending {
		return Outcome{}, fmt.Errorf("post %s transaction: %w", tx.Status, domain.ErrInvalidTransition)
	}
	accounts, err := uow.AccountRepository()
	if err != nil {
		return Outcome{}, err
	}
	txs, err := uow.TransactionRepository()
	if err != nil {
		return Outcome{}, err
	}
	acc, err := accounts.Get(ctx, tx.AccountID)
	if err != nil {
		return Outcome{}, err
	}
	updated, _, err := ledger.ApplyIfCompleted(tx.Status, transaction.StatusCompleted, tx, *acc)
	if err != nil {
		return Outcome{}, err
	}
	tx.Status = transaction.StatusCompleted
	if err := txs.Create(ctx, tx); err != nil {
		return Outcome{}, err
	}
	if err := accounts.UpdateBalances(ctx, &updated); err != nil {
		return Outcome{}, err
	}
	return Outcome{Transaction: tx, Previous: transaction.StatusPending, Account: &updated}, nil
}

// Apply moves the stored transaction id to next inside uow. The status write
// is conditional on the status read, and a completing transition writes the
// balance with a versioned compare-and-swap, so a lost race surfaces as
// domain.ErrConcurrentModification and nothing is committed.
func Apply(
	ctx context.Context,
	uow repository.UnitOfWork,
	id uuid.UUID,
	next transaction.Status,
	reason string,
) (Outcome, error) {
	txs, err := uow.TransactionRepository()
	if err != nil {
		return Outcome{}, err
	}
	tx, err := txs.Get(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	prev := tx.Status
	if !transaction.CanTransition(prev, next) {
		return Outcome{}, fmt.Errorf("transaction %s %s -> %s: %w", id, prev, next, domain.ErrInvalidTransition)
	}
	out := Outcome{Transaction: tx, Previous: prev}
	if prev == next {
		return out, nil
	}

	accounts, err := uow.AccountRepository()
	if err != nil {
		return Outcome{}, err
	}
	acc, err := accounts.Get(ctx, tx.AccountID)
	if err != nil {
		return Outcome{}, err
	}
	updated, applied, err := ledger.ApplyIfCompleted(prev, next, tx, *acc)
	if err != nil {
		return Outcome{}, err
	}

	tx.Status = next
	if next == transaction.StatusRejected || next == transaction.StatusFailed {
		tx.RejectionReason = reason
	}
	if err := txs.UpdateStatus(ctx, tx, prev); err != nil {
		return Outcome{}, err
	}
	if applied {
		if err := accounts.UpdateBalances(ctx, &updated); err != nil {
			return Outcome{}, err
		}
		out.Account = &updated
	}
	return out, nil
}

// Revert issues the compensating credit for the stored transaction id inside
// uow and stamps it reversed. A second call fails with
// domain.ErrInvalidTransition.
//
// Reverting an investment transaction cancels the contract it funded, so the
// refunded principal stops accruing and is never released again at maturity.
// A contract that is no longer active cannot be refunded.
func Revert(ctx context.Context, uow repository.UnitOfWork, id uuid.UUID, now time.Time) (Outcome, error) {
	txs, err := uow.TransactionRepository()
	if err != nil {
		return Outcome{}, err
	}
	accounts, err := uow.AccountRepository()
	if err != nil {
		return Outcome{}, err
	}
	tx, err := txs.Get(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	acc, err := accounts.Get(ctx, tx.AccountID)
	if err != nil {
		return Outcome{}, err
	}
	updated, err := ledger.Reverse(tx, *acc, now)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{Transaction: tx, Previous: tx.Status, Account: &updated}
	if tx.Type == transaction.TypeInvestment {
		if out.Contract, err = cancelFunded(ctx, uow, tx.ID, now); err != nil {
			return Outcome{}, err
		}
	}
	if err := txs.MarkReversed(ctx, tx.ID, *tx.ReversedAt); err != nil {
		return Outcome{}, err
	}
	if err := accounts.UpdateBalances(ctx, &updated); err != nil {
		return Outcome{}, err
	}
	return out, nil
}

func cancelFunded(ctx context.Context, uow repository.UnitOfWork, txID uuid.UUID, now time.Time) (*investment.Contract, error) {
	investments, err := uow.InvestmentRepository()
	if err != nil {
		return nil, err
	}
	contract, err := investments.GetByTransactionID(ctx, txID)
	if err != nil {
		return nil, fmt.Errorf("contract funded by %s: %w", txID, err)
	}
	if err := contract.Cancel(); err != nil {
		return nil, err
	}
	if err := investments.UpdateStatus(ctx, contract.ID, investment.StatusActive, investment.StatusCancelled); err != nil {
		return nil, err
	}
	contract.UpdatedAt = now.UTC()
	return contract, nil
}
