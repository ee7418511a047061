// Package plan defines the investment tiers offered to users.
package plan

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/yieldvault/ledger/pkg/domain"
)

// ErrEmptyCatalog is returned when a catalog has no plans.
var ErrEmptyCatalog = errors.New("plan catalog is empty")

// Plan is an investment tier.
type Plan struct {
	ID                 string  `toml:"id" json:"id"`
	Name               string  `toml:"name" json:"name"`
	MinDeposit         float64 `toml:"min_deposit" json:"min_deposit"`
	MaxDeposit         float64 `toml:"max_deposit" json:"max_deposit"`
	DailyReturnPercent float64 `toml:"daily_return_percent" json:"daily_return_percent"`
	DurationDays       int     `toml:"duration_days" json:"duration_days"`
}

// Validate checks the plan's static fields.
func (p Plan) Validate() error {
	switch {
	case p.ID == "":
		return domain.NewInvalidInput("plan.id", "is required")
	case math.IsNaN(p.DailyReturnPercent) || math.IsInf(p.DailyReturnPercent, 0) || p.DailyReturnPercent < 0:
		return domain.NewInvalidInput("plan.daily_return_percent", "must be a finite non-negative number")
	case p.DurationDays < 1:
		return domain.NewInvalidInput("plan.duration_days", "must be at least 1")
	case p.MinDeposit < 0 || p.MaxDeposit < p.MinDeposit:
		return domain.NewInvalidInput("plan.deposit_range", "min must be >= 0 and <= max")
	}
	return nil
}

// Accepts reports whether amount lies inside the plan's deposit range.
func (p Plan) Accepts(amount float64) bool {
	return amount >= p.MinDeposit && amount <= p.MaxDeposit
}

// Catalog is an ordered set of plans, lowest tier first.
type Catalog struct {
	plans []Plan
}

// DefaultCatalog is the built-in tier table.
func DefaultCatalog() *Catalog {
	c, _ := NewCatalog([]Plan{
		{ID: "starter", Name: "Starter", MinDeposit: 100, MaxDeposit: 999, DailyReturnPercent: 1.5, DurationDays: 30},
		{ID: "silver", Name: "Silver", MinDeposit: 1000, MaxDeposit: 4999, DailyReturnPercent: 2, DurationDays: 45},
		{ID: "gold", Name: "Gold", MinDeposit: 5000, MaxDeposit: 24999, DailyReturnPercent: 2.5, DurationDays: 60},
		{ID: "platinum", Name: "Platinum", MinDeposit: 25000, MaxDeposit: 100000, DailyReturnPercent: 3, DurationDays: 90},
	})
	return c
}

// NewCatalog validates plans and orders them by minimum deposit.
func NewCatalog(plans []Plan) (*Catalog, error) {
	if len(plans) == 0 {
		return nil, ErrEmptyCatalog
	}
	sorted := make([]Plan, len(plans))
	copy(sorted, plans)
	seen := make(map[string]struct{}, len(sorted))
	for _, p := range sorted {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("duplicate plan id %q: %w", p.ID, domain.ErrAlreadyExists)
		}
		seen[p.ID] = struct{}{}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinDeposit < sorted[j].MinDeposit
	})
	return &Catalog{plans: sorted}, nil
}

type catalogFile struct {
	Plans []Plan `toml:"plans"`
}

// LoadFile reads a catalog from a TOML file with one [[plans]] table per tier.
func LoadFile(path string) (*Catalog, error) {
	var f catalogFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("decode plan file %s: %w", path, err)
	}
	return NewCatalog(f.Plans)
}

// Plans returns a copy of the tiers in ascending order.
func (c *Catalog) Plans() []Plan {
	out := make([]Plan, len(c.plans))
	copy(out, c.plans)
	return out
}

// ByID looks a plan up by its identifier.
func (c *Catalog) ByID(id string) (Plan, error) {
	for _, p := range c.plans {
		if p.ID == id {
			return p, nil
		}
	}
	return Plan{}, fmt.Errorf("plan %q: %w", id, domain.ErrNotFound)
}

// PlanFor selects the tier whose range contains principal.
// Amounts above every maximum get the highest tier and amounts below every
// minimum get the lowest, so the calculator always has a plan to show.
func (c *Catalog) PlanFor(principal float64) (Plan, error) {
	if math.IsNaN(principal) || math.IsInf(principal, 0) || principal <= 0 {
		return Plan{}, domain.NewInvalidInput("principal", "must be a finite positive number")
	}
	for _, p := range c.plans {
		if p.Accepts(principal) {
			return p, nil
		}
	}
	highest := c.plans[len(c.plans)-1]
	if principal > highest.MaxDeposit {
		return highest, nil
	}
	if principal < c.plans[0].MinDeposit {
		return c.plans[0], nil
	}
	// principal falls in a gap between two tiers: use the highest tier below it
	best := c.plans[0]
	for _, p := range c.plans {
		if p.MinDeposit <= principal {
			best = p
		}
	}
	return best, nil
}
