package ledger

import (
	"fmt"
	"time"

	"github.com/yieldvault/ledger/pkg/domain"
	"github.com/yieldvault/ledger/pkg/domain/account"
	"github.com/yieldvault/ledger/pkg/domain/transaction"
)

// ApplyIfCompleted applies tx to acc when, and only when, its status moves
// from anything other than completed into completed. It returns the updated
// account and whether a change was made. The input account is not modified.
//
// Re-running it with prev == completed is a no-op, which makes repeated
// approvals of the same transaction safe.
func ApplyIfCompleted(
	prev, next transaction.Status,
	tx *transaction.Transaction,
	acc account.Account,
) (account.Account, bool, error) {
	if !transaction.CanTransition(prev, next) {
		return acc, false, fmt.Errorf("%s -> %s: %w", prev, next, domain.ErrInvalidTransition)
	}
	if prev == transaction.StatusCompleted || next != transaction.StatusCompleted {
		return acc, false, nil
	}
	effect, err := EffectFor(tx)
	if err != nil {
		return acc, false, err
	}
	if err := acc.Apply(effect.Bucket, effect.Delta); err != nil {
		return acc, false, err
	}
	return acc, true, nil
}

// Reverse issues the compensating credit for a completed withdrawal or
// investment and stamps tx.ReversedAt. A transaction is reversed at most once.
func Reverse(tx *transaction.Transaction, acc account.Account, now time.Time) (account.Account, error) {
	if !tx.Reversible() {
		return acc, fmt.Errorf(
			"%s %s transaction %s cannot be reversed: %w",
			tx.Status, tx.Type, tx.ID, domain.ErrInvalidTransition,
		)
	}
	effect, err := EffectFor(tx)
	if err != nil {
		return acc, err
	}
	if err := acc.Apply(effect.Bucket, effect.Delta.Neg()); err != nil {
		return acc, err
	}
	reversedAt := now.UTC()
	tx.ReversedAt = &reversedAt
	return acc, nil
}
