// Package eventbus defines the ledger change-notification contract.
package eventbus

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types emitted by the services.
const (
	TransactionCreated       = "transaction.created"
	TransactionStatusChanged = "transaction.status_changed"
	TransactionReversed      = "transaction.reversed"
	BalanceChanged           = "account.balance_changed"
	AccountUpdated           = "account.updated"
	InvestmentOpened         = "investment.opened"
	InvestmentMatured        = "investment.matured"
	InvestmentCancelled      = "investment.cancelled"
	ProfitAccrued            = "investment.profit_accrued"

	// All subscribes a handler to every event type.
	All = "*"
)

// Types lists every concrete event type.
var Types = []string{
	TransactionCreated,
	TransactionStatusChanged,
	TransactionReversed,
	BalanceChanged,
	AccountUpdated,
	InvestmentOpened,
	InvestmentMatured,
	InvestmentCancelled,
	ProfitAccrued,
}

// Event is a change notification scoped to one account.
type Event struct {
	ID            uuid.UUID       `json:"id"`
	Type          string          `json:"type"`
	AccountID     uuid.UUID       `json:"account_id"`
	TransactionID uuid.UUID       `json:"transaction_id,omitempty"`
	ContractID    uuid.UUID       `json:"contract_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// NewEvent stamps a fresh ID and time on an event of eventType for accountID.
func NewEvent(eventType string, accountID uuid.UUID) Event {
	return Event{
		ID:         uuid.New(),
		Type:       eventType,
		AccountID:  accountID,
		Amount:     decimal.Zero,
		OccurredAt: time.Now().UTC(),
	}
}

// HandlerFunc handles a single event.
type HandlerFunc func(ctx context.Context, e Event) error

// Bus defines the contract for publishing and subscribing to ledger events.
type Bus interface {
	Emit(ctx context.Context, e Event) error
	Register(eventType string, handler HandlerFunc)
}
