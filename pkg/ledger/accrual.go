package ledger

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/yieldvault/ledger/pkg/domain"
	"github.com/yieldvault/ledger/pkg/domain/investment"
)

// AccrualScale is the number of decimal places an accrual increment is rounded to.
// It matches the scale of the balance columns.
const AccrualScale = 8

const day = 24 * time.Hour

var (
	hundred  = decimal.NewFromInt(100)
	dayNanos = decimal.NewFromInt(int64(day))
)

// TicksPerDay is how many ticks of interval fit into one day.
func TicksPerDay(interval time.Duration) (float64, error) {
	if interval <= 0 || interval > day {
		return 0, domain.NewInvalidInput("interval", "must be within (0, 24h]")
	}
	return float64(day) / float64(interval), nil
}

// TickIncrement is the profit one tick of interval adds to a contract of
// amount at pct percent per day: amount * pct/100 / ticksPerDay.
func TickIncrement(amount decimal.Decimal, pct float64, interval time.Duration) (decimal.Decimal, error) {
	if _, err := TicksPerDay(interval); err != nil {
		return decimal.Zero, err
	}
	return AccrualFor(amount, pct, interval), nil
}

// AccrualFor is the profit accrued by amount at pct percent per day over elapsed.
// It is always derived from the contract's static fields so that rounding in
// one increment never feeds into the next.
func AccrualFor(amount decimal.Decimal, pct float64, elapsed time.Duration) decimal.Decimal {
	if elapsed <= 0 || pct <= 0 || !amount.IsPositive() {
		return decimal.Zero
	}
	return amount.
		Mul(decimal.NewFromFloat(pct)).
		Div(hundred).
		Mul(decimal.NewFromInt(int64(elapsed))).
		Div(dayNanos).
		Round(AccrualScale)
}

// Accrue advances c to now and returns the profit added. Accrual never runs
// past EndDate; once now reaches it the contract is marked completed and
// matured is true. Non-active contracts accrue nothing.
//
// The increment is the accrual owed since StartDate minus what was already
// credited, so the rounding of each tick is absorbed by the next one and the
// total never drifts from AccrualFor over the whole elapsed time.
func Accrue(c *investment.Contract, now time.Time) (inc decimal.Decimal, matured bool, err error) {
	if !c.Active() {
		return decimal.Zero, false, nil
	}
	until := now
	if until.After(c.EndDate) {
		until = c.EndDate
	}
	inc = decimal.Zero
	if until.After(c.LastAccruedAt) {
		owed := AccrualFor(c.Amount, c.DailyReturnPercent, until.Sub(c.StartDate))
		if owed.GreaterThan(c.AccruedProfit) {
			inc = owed.Sub(c.AccruedProfit)
			c.AccruedProfit = owed
		}
		c.LastAccruedAt = until
	}
	if c.Matured(now) {
		if err := c.Complete(); err != nil {
			return decimal.Zero, false, err
		}
		matured = true
	}
	c.UpdatedAt = now
	return inc, matured, nil
}
