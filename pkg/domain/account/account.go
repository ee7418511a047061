package account

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yieldvault/ledger/pkg/domain"
)

var (
	// ErrUserIDRequired is returned when an account is built without an owner.
	ErrUserIDRequired = errors.New("userID is required")
	// ErrNegativeBalance is returned when an account is hydrated with a negative balance.
	ErrNegativeBalance = errors.New("balance cannot be negative")
)

// Role is the privilege level of the account owner.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// KYCStatus tracks identity verification.
type KYCStatus string

const (
	KYCUnverified KYCStatus = "unverified"
	KYCPending    KYCStatus = "pending"
	KYCVerified   KYCStatus = "verified"
	KYCRejected   KYCStatus = "rejected"
)

// Valid reports whether s is a known KYC status.
func (s KYCStatus) Valid() bool {
	switch s {
	case KYCUnverified, KYCPending, KYCVerified, KYCRejected:
		return true
	}
	return false
}

// Bucket names one of the two balances an account holds.
type Bucket string

const (
	BucketMain   Bucket = "main"
	BucketProfit Bucket = "profit"
)

// Account is the per-user ledger record.
//
// Invariants:
//   - MainBalance and ProfitBalance are never negative.
//   - Version increases by one on every balance write and is used for compare-and-swap.
type Account struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	MainBalance   decimal.Decimal
	ProfitBalance decimal.Decimal
	Role          Role
	KYCStatus     KYCStatus
	Frozen        bool
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Balance returns the balance held in bucket b.
func (a *Account) Balance(b Bucket) decimal.Decimal {
	if b == BucketProfit {
		return a.ProfitBalance
	}
	return a.MainBalance
}

// Apply adds delta to bucket b. A result below zero is rejected and leaves a untouched.
func (a *Account) Apply(b Bucket, delta decimal.Decimal) error {
	next := a.Balance(b).Add(delta)
	if next.IsNegative() {
		return domain.ErrInsufficientBalance
	}
	if b == BucketProfit {
		a.ProfitBalance = next
	} else {
		a.MainBalance = next
	}
	return nil
}

// ValidateDebit checks that amount can leave bucket b right now.
func (a *Account) ValidateDebit(b Bucket, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.NewInvalidInput("amount", "must be positive")
	}
	if a.Frozen {
		return domain.ErrAccountFrozen
	}
	if a.Balance(b).LessThan(amount) {
		return domain.ErrInsufficientBalance
	}
	return nil
}

// IsAdmin reports whether the owner holds the admin role.
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Builder provides a fluent API for constructing Account instances.
type Builder struct {
	id            uuid.UUID
	userID        uuid.UUID
	mainBalance   decimal.Decimal
	profitBalance decimal.Decimal
	role          Role
	kyc           KYCStatus
	frozen        bool
	version       int64
	createdAt     time.Time
	updatedAt     time.Time
}

// New creates a new Builder with a fresh ID, zero balances and the user role.
func New() *Builder {
	return &Builder{
		id:        uuid.New(),
		role:      RoleUser,
		kyc:       KYCUnverified,
		createdAt: time.Now().UTC(),
	}
}

// WithID sets the ID for the account being built.
func (b *Builder) WithID(id uuid.UUID) *Builder {
	b.id = id
	return b
}

// WithUserID sets the owner. This is a mandatory field.
func (b *Builder) WithUserID(userID uuid.UUID) *Builder {
	b.userID = userID
	return b
}

// WithMainBalance hydrates the main balance.
func (b *Builder) WithMainBalance(v decimal.Decimal) *Builder {
	b.mainBalance = v
	return b
}

// WithProfitBalance hydrates the profit balance.
func (b *Builder) WithProfitBalance(v decimal.Decimal) *Builder {
	b.profitBalance = v
	return b
}

func (b *Builder) WithRole(r Role) *Builder {
	b.role = r
	return b
}

func (b *Builder) WithKYCStatus(s KYCStatus) *Builder {
	b.kyc = s
	return b
}

func (b *Builder) WithFrozen(frozen bool) *Builder {
	b.frozen = frozen
	return b
}

func (b *Builder) WithVersion(v int64) *Builder {
	b.version = v
	return b
}

// WithCreatedAt sets the creation timestamp when hydrating from storage.
func (b *Builder) WithCreatedAt(t time.Time) *Builder {
	b.createdAt = t
	return b
}

// WithUpdatedAt sets the last-updated timestamp when hydrating from storage.
func (b *Builder) WithUpdatedAt(t time.Time) *Builder {
	b.updatedAt = t
	return b
}

// Build validates the invariants and returns the Account.
func (b *Builder) Build() (*Account, error) {
	if b.userID == uuid.Nil {
		return nil, ErrUserIDRequired
	}
	if b.mainBalance.IsNegative() || b.profitBalance.IsNegative() {
		return nil, ErrNegativeBalance
	}
	return &Account{
		ID:            b.id,
		UserID:        b.userID,
		MainBalance:   b.mainBalance,
		ProfitBalance: b.profitBalance,
		Role:          b.role,
		KYCStatus:     b.kyc,
		Frozen:        b.frozen,
		Version:       b.version,
		CreatedAt:     b.createdAt,
		UpdatedAt:     b.updatedAt,
	}, nil
}
