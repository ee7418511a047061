// Package investment holds the investment contract entity.
package investment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yieldvault/ledger/pkg/domain"
	"github.com/yieldvault/ledger/pkg/domain/plan"
)

// Status is the lifecycle state of a contract.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Contract is a fixed-duration investment accruing profit against a plan.
//
// Invariants:
//   - Amount, DailyReturnPercent, StartDate and EndDate never change after creation.
//   - AccruedProfit only grows and stops growing at EndDate.
//   - completed and cancelled are terminal.
type Contract struct {
	ID                 uuid.UUID
	AccountID          uuid.UUID
	UserID             uuid.UUID
	PlanID             string
	Amount             decimal.Decimal
	DailyReturnPercent float64
	StartDate          time.Time
	EndDate            time.Time
	Status             Status
	AccruedProfit      decimal.Decimal
	LastAccruedAt      time.Time
	TransactionID      uuid.UUID
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// New opens an active contract for p starting at start.
func New(accountID, userID uuid.UUID, p plan.Plan, amount decimal.Decimal, start time.Time) (*Contract, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, domain.NewInvalidInput("amount", "must be positive")
	}
	if !p.Accepts(amount.InexactFloat64()) {
		return nil, domain.NewInvalidInput(
			"amount",
			fmt.Sprintf("must be between %.2f and %.2f for plan %s", p.MinDeposit, p.MaxDeposit, p.ID),
		)
	}
	start = start.UTC()
	return &Contract{
		ID:                 uuid.New(),
		AccountID:          accountID,
		UserID:             userID,
		PlanID:             p.ID,
		Amount:             amount,
		DailyReturnPercent: p.DailyReturnPercent,
		StartDate:          start,
		EndDate:            start.AddDate(0, 0, p.DurationDays),
		Status:             StatusActive,
		AccruedProfit:      decimal.Zero,
		LastAccruedAt:      start,
		CreatedAt:          start,
		UpdatedAt:          start,
	}, nil
}

// Active reports whether the contract still accrues.
func (c *Contract) Active() bool {
	return c.Status == StatusActive
}

// Matured reports whether now is at or past the end date.
func (c *Contract) Matured(now time.Time) bool {
	return !now.Before(c.EndDate)
}

// Complete marks an active contract as completed.
func (c *Contract) Complete() error {
	if c.Status != StatusActive {
		return fmt.Errorf("contract %s is %s: %w", c.ID, c.Status, domain.ErrInvalidTransition)
	}
	c.Status = StatusCompleted
	return nil
}

// Cancel marks an active contract as cancelled.
func (c *Contract) Cancel() error {
	if c.Status != StatusActive {
		return fmt.Errorf("contract %s is %s: %w", c.ID, c.Status, domain.ErrInvalidTransition)
	}
	c.Status = StatusCancelled
	return nil
}
