package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yieldvault/ledger/pkg/domain/transaction"
)

// TransactionRead is a read-optimized DTO for transaction queries and API responses.
type TransactionRead struct {
	ID              uuid.UUID       `json:"id"`
	AccountID       uuid.UUID       `json:"account_id"`
	UserID          uuid.UUID       `json:"user_id"`
	Type            string          `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	Status          string          `json:"status"`
	Outcome         string          `json:"outcome,omitempty"`
	Method          string          `json:"method,omitempty"`
	Details         string          `json:"details,omitempty"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
	ReversedAt      *time.Time      `json:"reversed_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// TransactionFilter narrows admin transaction listings. Zero values mean "any".
type TransactionFilter struct {
	Status    transaction.Status
	Type      transaction.Type
	AccountID uuid.UUID
	Limit     int
}

// NewTransactionRead maps a domain transaction to its read model.
func NewTransactionRead(tx *transaction.Transaction) *TransactionRead {
	return &TransactionRead{
		ID:              tx.ID,
		AccountID:       tx.AccountID,
		UserID:          tx.UserID,
		Type:            string(tx.Type),
		Amount:          tx.Amount,
		Status:          string(tx.Status),
		Outcome:         string(tx.Outcome),
		Method:          tx.Method,
		Details:         tx.Details,
		RejectionReason: tx.RejectionReason,
		ReversedAt:      tx.ReversedAt,
		CreatedAt:       tx.CreatedAt,
		UpdatedAt:       tx.UpdatedAt,
	}
}

// NewTransactionReads maps a slice of domain transactions.
func NewTransactionReads(txs []*transaction.Transaction) []*TransactionRead {
	out := make([]*TransactionRead, 0, len(txs))
	for _, tx := range txs {
		out = append(out, NewTransactionRead(tx))
	}
	return out
}
