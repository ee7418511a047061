package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yieldvault/ledger/pkg/domain"
	"github.com/yieldvault/ledger/pkg/domain/investment"
	"github.com/yieldvault/ledger/pkg/domain/plan"
)

func newContract(t *testing.T, accountID uuid.UUID, start time.Time) *investment.Contract {
	t.Helper()
	p, err := plan.DefaultCatalog().ByID("silver")
	require.NoError(t, err)
	c, err := investment.New(accountID, uuid.New(), p, decimal.NewFromInt(2000), start)
	require.NoError(t, err)
	return c
}

func TestInvestmentRepository_CreateAndList(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewInvestmentRepository(db)
	ctx := context.Background()
	accountID := uuid.New()

	c := newContract(t, accountID, time.Now().Add(-time.Hour))
	c.TransactionID = uuid.New()
	require.NoError(t, repo.Create(ctx, c))

	funded, err := repo.GetByTransactionID(ctx, c.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, funded.ID)
	_, err = repo.GetByTransactionID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := repo.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "silver", got.PlanID)
	assert.Equal(t, investment.StatusActive, got.Status)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(2000)))
	assert.True(t, got.EndDate.Equal(dbTime(c.EndDate)))

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	mine, err := repo.ListByAccount(ctx, accountID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	_, err = repo.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInvestmentRepository_SaveAccrualRejectsStaleClock(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewInvestmentRepository(db)
	ctx := context.Background()
	c := newContract(t, uuid.New(), time.Now().Add(-time.Hour))
	require.NoError(t, repo.Create(ctx, c))

	stored, err := repo.Get(ctx, c.ID)
	require.NoError(t, err)
	prev := stored.LastAccruedAt

	stored.AccruedProfit = decimal.RequireFromString("1.5")
	stored.LastAccruedAt = prev.Add(30 * time.Minute)
	require.NoError(t, repo.SaveAccrual(ctx, stored, prev))

	// Replaying the same tick from the old clock must not double count.
	stored.AccruedProfit = decimal.NewFromInt(3)
	err = repo.SaveAccrual(ctx, stored, prev)
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)

	got, err := repo.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, got.AccruedProfit.Equal(decimal.RequireFromString("1.5")))
	assert.True(t, got.LastAccruedAt.Equal(dbTime(prev.Add(30*time.Minute))))
}

func TestInvestmentRepository_UpdateStatus(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewInvestmentRepository(db)
	ctx := context.Background()
	c := newContract(t, uuid.New(), time.Now())
	require.NoError(t, repo.Create(ctx, c))

	require.NoError(t, repo.UpdateStatus(ctx, c.ID, investment.StatusActive, investment.StatusCancelled))
	assert.ErrorIs(t,
		repo.UpdateStatus(ctx, c.ID, investment.StatusActive, investment.StatusCompleted),
		domain.ErrConcurrentModification,
	)

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	require.NoError(t, repo.DeleteByAccount(ctx, c.AccountID))
	_, err = repo.Get(ctx, c.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
