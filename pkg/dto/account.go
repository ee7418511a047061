package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yieldvault/ledger/pkg/domain/account"
)

// AccountRead is a read-optimized view of an account.
type AccountRead struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"user_id"`
	MainBalance   decimal.Decimal `json:"main_balance"`
	ProfitBalance decimal.Decimal `json:"profit_balance"`
	Role          string          `json:"role"`
	KYCStatus     string          `json:"kyc_status"`
	Frozen        bool            `json:"frozen"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NewAccountRead maps a domain account to its read model.
func NewAccountRead(a *account.Account) *AccountRead {
	return &AccountRead{
		ID:            a.ID,
		UserID:        a.UserID,
		MainBalance:   a.MainBalance,
		ProfitBalance: a.ProfitBalance,
		Role:          string(a.Role),
		KYCStatus:     string(a.KYCStatus),
		Frozen:        a.Frozen,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}
