package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yieldvault/ledger/pkg/domain/investment"
)

// InvestmentRead is the API view of a contract.
type InvestmentRead struct {
	ID                 uuid.UUID       `json:"id"`
	AccountID          uuid.UUID       `json:"account_id"`
	PlanID             string          `json:"plan_id"`
	Amount             decimal.Decimal `json:"amount"`
	DailyReturnPercent float64         `json:"daily_return_percent"`
	StartDate          time.Time       `json:"start_date"`
	EndDate            time.Time       `json:"end_date"`
	Status             string          `json:"status"`
	AccruedProfit      decimal.Decimal `json:"accrued_profit"`
	LastAccruedAt      time.Time       `json:"last_accrued_at"`
}

// NewInvestmentRead maps a contract to its read model.
func NewInvestmentRead(c *investment.Contract) *InvestmentRead {
	return &InvestmentRead{
		ID:                 c.ID,
		AccountID:          c.AccountID,
		PlanID:             c.PlanID,
		Amount:             c.Amount,
		DailyReturnPercent: c.DailyReturnPercent,
		StartDate:          c.StartDate,
		EndDate:            c.EndDate,
		Status:             string(c.Status),
		AccruedProfit:      c.AccruedProfit,
		LastAccruedAt:      c.LastAccruedAt,
	}
}
