package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yieldvault/ledger/pkg/domain/account"
	"github.com/yieldvault/ledger/pkg/domain/investment"
	"github.com/yieldvault/ledger/pkg/domain/transaction"
	"github.com/yieldvault/ledger/pkg/domain/user"
	"github.com/yieldvault/ledger/pkg/dto"
)

// AccountRepository defines the interface for account data access operations.
type AccountRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*account.Account, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*account.Account, error)
	List(ctx context.Context) ([]*account.Account, error)
	Create(ctx context.Context, acc *account.Account) error
	// UpdateBalances writes both balances when the stored version equals
	// acc.Version and bumps the version. A stale version returns
	// domain.ErrConcurrentModification.
	UpdateBalances(ctx context.Context, acc *account.Account) error
	// IncrementProfit atomically adds delta to the profit balance in storage.
	IncrementProfit(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error
	SetKYCStatus(ctx context.Context, id uuid.UUID, status account.KYCStatus) error
	SetFrozen(ctx context.Context, id uuid.UUID, frozen bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// TransactionRepository defines the interface for transaction data access operations.
type TransactionRepository interface {
	Create(ctx context.Context, tx *transaction.Transaction) error
	Get(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*transaction.Transaction, error)
	List(ctx context.Context, filter dto.TransactionFilter) ([]*transaction.Transaction, error)
	// UpdateStatus moves the transaction from prev to tx.Status only if the
	// stored status still equals prev. A mismatch returns
	// domain.ErrConcurrentModification.
	UpdateStatus(ctx context.Context, tx *transaction.Transaction, prev transaction.Status) error
	// MarkReversed stamps reversed_at once; a second call returns
	// domain.ErrConcurrentModification.
	MarkReversed(ctx context.Context, id uuid.UUID, at time.Time) error
	DeleteByAccount(ctx context.Context, accountID uuid.UUID) error
}

// InvestmentRepository defines the interface for investment contract persistence.
type InvestmentRepository interface {
	Create(ctx context.Context, c *investment.Contract) error
	Get(ctx context.Context, id uuid.UUID) (*investment.Contract, error)
	// GetByTransactionID returns the contract funded by the investment
	// transaction txID.
	GetByTransactionID(ctx context.Context, txID uuid.UUID) (*investment.Contract, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*investment.Contract, error)
	ListActive(ctx context.Context) ([]*investment.Contract, error)
	// SaveAccrual persists accrued profit, last accrual time and status if the
	// stored last_accrued_at still equals prevAccruedAt.
	SaveAccrual(ctx context.Context, c *investment.Contract, prevAccruedAt time.Time) error
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to investment.Status) error
	DeleteByAccount(ctx context.Context, accountID uuid.UUID) error
}

// UserRepository defines the interface for user data access operations.
type UserRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByUsername(ctx context.Context, username string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	Create(ctx context.Context, u *user.User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AuditRepository records administrative actions.
type AuditRepository interface {
	Create(ctx context.Context, entry dto.AuditLogCreate) error
	List(ctx context.Context, limit int) ([]*dto.AuditLogRead, error)
}
