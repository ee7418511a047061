package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yieldvault/ledger/pkg/domain"
	"github.com/yieldvault/ledger/pkg/domain/account"
)

func TestAccountRepository_CreateAndGet(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewAccountRepository(db)
	acc := seedAccount(t, db, "250.5")

	got, err := repo.Get(context.Background(), acc.ID)
	require.NoError(t, err)
	assert.Equal(t, acc.UserID, got.UserID)
	assert.True(t, got.MainBalance.Equal(decimal.RequireFromString("250.5")))
	assert.True(t, got.ProfitBalance.IsZero())
	assert.Equal(t, account.KYCUnverified, got.KYCStatus)

	byUser, err := repo.GetByUserID(context.Background(), acc.UserID)
	require.NoError(t, err)
	assert.Equal(t, acc.ID, byUser.ID)

	_, err = repo.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAccountRepository_DuplicateUser(t *testing.T) {
	db := newSQLiteDB(t)
	acc := seedAccount(t, db, "0")

	dup, err := account.New().WithUserID(acc.UserID).Build()
	require.NoError(t, err)
	err = NewAccountRepository(db).Create(context.Background(), dup)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestAccountRepository_UpdateBalancesIsVersioned(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewAccountRepository(db)
	acc := seedAccount(t, db, "100")
	ctx := context.Background()

	stale := *acc
	acc.MainBalance = decimal.NewFromInt(150)
	require.NoError(t, repo.UpdateBalances(ctx, acc))
	assert.Equal(t, int64(1), acc.Version)

	stale.MainBalance = decimal.NewFromInt(999)
	err := repo.UpdateBalances(ctx, &stale)
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)

	got, err := repo.Get(ctx, acc.ID)
	require.NoError(t, err)
	assert.True(t, got.MainBalance.Equal(decimal.NewFromInt(150)), "stale write must not land")
	assert.Equal(t, int64(1), got.Version)
}

func TestAccountRepository_IncrementProfit(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewAccountRepository(db)
	acc := seedAccount(t, db, "0")
	ctx := context.Background()

	require.NoError(t, repo.IncrementProfit(ctx, acc.ID, decimal.RequireFromString("1.25")))
	require.NoError(t, repo.IncrementProfit(ctx, acc.ID, decimal.RequireFromString("0.75")))

	got, err := repo.Get(ctx, acc.ID)
	require.NoError(t, err)
	assert.True(t, got.ProfitBalance.Equal(decimal.NewFromInt(2)), "got %s", got.ProfitBalance)
	assert.Equal(t, int64(2), got.Version)

	assert.ErrorIs(t, repo.IncrementProfit(ctx, uuid.New(), decimal.NewFromInt(1)), domain.ErrConcurrentModification)
}

func TestAccountRepository_AdminFlags(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewAccountRepository(db)
	acc := seedAccount(t, db, "0")
	ctx := context.Background()

	require.NoError(t, repo.SetKYCStatus(ctx, acc.ID, account.KYCVerified))
	require.NoError(t, repo.SetFrozen(ctx, acc.ID, true))
	got, err := repo.Get(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, account.KYCVerified, got.KYCStatus)
	assert.True(t, got.Frozen)

	assert.ErrorIs(t, repo.SetFrozen(ctx, uuid.New(), true), domain.ErrNotFound)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, repo.Delete(ctx, acc.ID))
	assert.ErrorIs(t, repo.Delete(ctx, acc.ID), domain.ErrNotFound)
}

func TestAccountRepository_UpdateBalancesMock(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepository(db)
	acc, err := account.New().WithUserID(uuid.New()).WithVersion(4).Build()
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "accounts" SET .*version.*WHERE .*version = \$`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	assert.ErrorIs(t, repo.UpdateBalances(context.Background(), acc), domain.ErrConcurrentModification)
	assert.Equal(t, int64(4), acc.Version)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "accounts" SET`).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()
	assert.EqualError(t, repo.UpdateBalances(context.Background(), acc), "connection reset")

	assert.NoError(t, mock.ExpectationsWereMet())
}
