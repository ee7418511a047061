package ledger

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yieldvault/ledger/pkg/domain"
	"github.com/yieldvault/ledger/pkg/domain/plan"
)

var goldPlan = plan.Plan{
	ID:                 "gold",
	Name:               "Gold",
	MinDeposit:         5000,
	MaxDeposit:         24999,
	DailyReturnPercent: 2.5,
	DurationDays:       60,
}

func TestProjectReturn_Compounding(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	got, err := ProjectReturn(10000, goldPlan, true, now)
	require.NoError(t, err)

	assert.InDelta(t, 10000*math.Pow(1.025, 60), got.TotalPayout, 1e-6)
	assert.InDelta(t, 43997.90, got.TotalPayout, 0.01)
	assert.InDelta(t, 339.98, got.ROIPercent, 0.01)
	assert.InDelta(t, 250, got.DailyProfit, 1e-9)
	assert.Equal(t, now.AddDate(0, 0, 60), got.MaturityDate)
	assert.True(t, got.Compounding)
}

func TestProjectReturn_Simple(t *testing.T) {
	t.Parallel()

	got, err := ProjectReturn(10000, goldPlan, false, time.Now())
	require.NoError(t, err)

	assert.InDelta(t, 25000, got.TotalPayout, 1e-9)
	assert.InDelta(t, 15000, got.TotalProfit, 1e-9)
	assert.InDelta(t, 150, got.ROIPercent, 1e-9)
}

func TestProjectReturn_CompoundingDominatesSimple(t *testing.T) {
	t.Parallel()
	principals := []float64{0.01, 1, 99.99, 5000, 1e6}
	rates := []float64{0, 0.1, 1.5, 2.5, 10}
	days := []int{1, 2, 30, 90, 365}

	for _, p := range principals {
		for _, r := range rates {
			for _, d := range days {
				pl := plan.Plan{ID: "x", DailyReturnPercent: r, DurationDays: d, MaxDeposit: math.MaxFloat64}
				c, err := ProjectReturn(p, pl, true, time.Time{})
				require.NoError(t, err)
				s, err := ProjectReturn(p, pl, false, time.Time{})
				require.NoError(t, err)

				assert.GreaterOrEqual(t, c.TotalPayout, s.TotalPayout*(1-1e-12))
				for _, proj := range []Projection{c, s} {
					assert.InDelta(t, proj.TotalPayout-p, proj.TotalProfit, math.Abs(proj.TotalPayout)*1e-9)
				}
			}
		}
	}
}

func TestProjectReturn_InvalidInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		principal float64
		plan      plan.Plan
	}{
		{"zero principal", 0, goldPlan},
		{"negative principal", -10, goldPlan},
		{"NaN principal", math.NaN(), goldPlan},
		{"infinite principal", math.Inf(1), goldPlan},
		{"negative rate", 100, plan.Plan{ID: "x", DailyReturnPercent: -1, DurationDays: 10}},
		{"NaN rate", 100, plan.Plan{ID: "x", DailyReturnPercent: math.NaN(), DurationDays: 10}},
		{"zero duration", 100, plan.Plan{ID: "x", DailyReturnPercent: 1, DurationDays: 0}},
		{"overflow", 1e300, plan.Plan{ID: "x", DailyReturnPercent: 100, DurationDays: 5000}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ProjectReturn(tt.principal, tt.plan, true, time.Now())
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.False(t, math.IsNaN(got.TotalPayout))
		})
	}
}
