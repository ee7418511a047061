// Package transaction holds the ledger transaction entity and its status machine.
package transaction

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yieldvault/ledger/pkg/domain"
)

// Type is the kind of money movement a transaction records.
type Type string

const (
	TypeDeposit    Type = "deposit"
	TypeWithdrawal Type = "withdrawal"
	TypeInvestment Type = "investment"
	TypeProfit     Type = "profit"
	TypeBonus      Type = "bonus"
	TypeBotTrade   Type = "bot_trade"
)

// Valid reports whether t is a known transaction type.
func (t Type) Valid() bool {
	switch t {
	case TypeDeposit, TypeWithdrawal, TypeInvestment, TypeProfit, TypeBonus, TypeBotTrade:
		return true
	}
	return false
}

// Status is the lifecycle state of a transaction.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusCompleted Status = "completed"
	StatusRejected  Status = "rejected"
	StatusFailed    Status = "failed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusCompleted, StatusRejected, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transition may leave s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusRejected || s == StatusFailed
}

// Outcome is the result of a simulated bot trade.
type Outcome string

const (
	OutcomeNone Outcome = ""
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
)

var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusCompleted, StatusRejected, StatusFailed},
	StatusApproved: {StatusCompleted, StatusRejected, StatusFailed},
}

// CanTransition reports whether from -> to is a legal status change.
// completed -> completed is accepted so that repeated approvals are no-ops.
func CanTransition(from, to Status) bool {
	if from == StatusCompleted && to == StatusCompleted {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transaction is a single money movement against an account.
//
// Invariants:
//   - Amount is strictly positive; the sign comes from Type (and Outcome for bot trades).
//   - Only a transition into StatusCompleted changes balances.
//   - ReversedAt is set at most once.
type Transaction struct {
	ID              uuid.UUID
	AccountID       uuid.UUID
	UserID          uuid.UUID
	Type            Type
	Amount          decimal.Decimal
	Status          Status
	Outcome         Outcome
	Method          string
	Details         string
	RejectionReason string
	ReversedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// New creates a pending transaction after validating type, amount and outcome.
func New(
	accountID, userID uuid.UUID,
	txType Type,
	amount decimal.Decimal,
	method string,
) (*Transaction, error) {
	if !txType.Valid() {
		return nil, domain.NewInvalidInput("type", fmt.Sprintf("%q is not a transaction type", txType))
	}
	if !amount.IsPositive() {
		return nil, domain.NewInvalidInput("amount", "must be positive")
	}
	if accountID == uuid.Nil {
		return nil, domain.NewInvalidInput("account_id", "is required")
	}
	now := time.Now().UTC()
	return &Transaction{
		ID:        uuid.New(),
		AccountID: accountID,
		UserID:    userID,
		Type:      txType,
		Amount:    amount,
		Status:    StatusPending,
		Method:    method,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// WithOutcome sets the bot trade outcome.
func (t *Transaction) WithOutcome(o Outcome) *Transaction {
	t.Outcome = o
	return t
}

// WithDetails sets free-form details shown to the user.
func (t *Transaction) WithDetails(details string) *Transaction {
	t.Details = details
	return t
}

// Reversible reports whether a compensating credit may be issued for t.
func (t *Transaction) Reversible() bool {
	return t.Status == StatusCompleted &&
		t.ReversedAt == nil &&
		(t.Type == TypeWithdrawal || t.Type == TypeInvestment)
}
