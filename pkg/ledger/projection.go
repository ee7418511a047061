// Package ledger holds the pure money rules of the platform: yield projection,
// the transaction type to balance delta table, the reconciliation rule that
// applies a completed transaction to an account exactly once, and the accrual
// arithmetic used by the scheduler.
//
// Nothing in this package touches storage or the clock; callers pass "now".
package ledger

import (
	"math"
	"time"

	"github.com/yieldvault/ledger/pkg/domain"
	"github.com/yieldvault/ledger/pkg/domain/plan"
)

// Projection is the expected outcome of investing principal in a plan.
type Projection struct {
	PlanID       string    `json:"plan_id"`
	Principal    float64   `json:"principal"`
	Compounding  bool      `json:"compounding"`
	DurationDays int       `json:"duration_days"`
	DailyProfit  float64   `json:"daily_profit"`
	TotalProfit  float64   `json:"total_profit"`
	TotalPayout  float64   `json:"total_payout"`
	ROIPercent   float64   `json:"roi_percent"`
	MaturityDate time.Time `json:"maturity_date"`
}

// ProjectReturn computes the payout of principal over p's duration.
//
// With compounding the payout is principal*(1+rate)^days, otherwise
// principal + principal*rate*days, where rate = DailyReturnPercent/100.
// DailyProfit is always the simple daily rate applied to principal.
func ProjectReturn(principal float64, p plan.Plan, compounding bool, now time.Time) (Projection, error) {
	if math.IsNaN(principal) || math.IsInf(principal, 0) || principal <= 0 {
		return Projection{}, domain.NewInvalidInput("principal", "must be a finite positive number")
	}
	if math.IsNaN(p.DailyReturnPercent) || math.IsInf(p.DailyReturnPercent, 0) || p.DailyReturnPercent < 0 {
		return Projection{}, domain.NewInvalidInput("daily_return_percent", "must be a finite non-negative number")
	}
	if p.DurationDays < 1 {
		return Projection{}, domain.NewInvalidInput("duration_days", "must be at least 1")
	}

	rate := p.DailyReturnPercent / 100
	days := float64(p.DurationDays)

	var payout float64
	if compounding {
		payout = principal * math.Pow(1+rate, days)
	} else {
		payout = principal + principal*rate*days
	}
	if math.IsInf(payout, 0) || math.IsNaN(payout) {
		return Projection{}, domain.NewInvalidInput("principal", "projection overflows")
	}

	totalProfit := payout - principal
	return Projection{
		PlanID:       p.ID,
		Principal:    principal,
		Compounding:  compounding,
		DurationDays: p.DurationDays,
		DailyProfit:  principal * rate,
		TotalProfit:  totalProfit,
		TotalPayout:  payout,
		ROIPercent:   totalProfit / principal * 100,
		MaturityDate: now.AddDate(0, 0, p.DurationDays),
	}, nil
}
