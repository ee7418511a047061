package admin_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	infraeventbus "github.com/yieldvault/ledger/infra/eventbus"
	infrarepo "github.com/yieldvault/ledger/infra/repository"
	"github.com/yieldvault/ledger/pkg/domain"
	"github.com/yieldvault/ledger/pkg/domain/account"
	"github.com/yieldvault/ledger/pkg/domain/transaction"
	"github.com/yieldvault/ledger/pkg/dto"
	"github.com/yieldvault/ledger/pkg/eventbus"
	"github.com/yieldvault/ledger/pkg/service/admin"
	"github.com/yieldvault/ledger/pkg/service/auth"
	"github.com/yieldvault/ledger/pkg/testutils"
)

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	os.Exit(m.Run())
}

type fixture struct {
	svc   *admin.Service
	uow   *infrarepo.UoW
	bus   *infraeventbus.MemoryEventBus
	admin *auth.Session
	user  *auth.Session
	acc   *account.Account
}

func setup(t *testing.T) fixture {
	t.Helper()
	_, uow := testutils.NewSQLiteUoW(t)
	a, adminAcc := testutils.SeedAccount(t, uow, account.RoleAdmin, "0", "0")
	u, acc := testutils.SeedAccount(t, uow, account.RoleUser, "100", "0")
	bus := infraeventbus.NewWithMemory(testutils.QuietLogger())
	return fixture{
		svc:   admin.NewService(uow, bus, testutils.QuietLogger()),
		uow:   uow,
		bus:   bus,
		admin: &auth.Session{UserID: a.ID, AccountID: adminAcc.ID, Role: account.RoleAdmin},
		user:  &auth.Session{UserID: u.ID, AccountID: acc.ID, Role: account.RoleUser},
		acc:   acc,
	}
}

func TestAdminOnly(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.ListAccounts(ctx, f.user)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.ErrorIs(t, f.svc.SetFrozen(ctx, f.user, f.acc.ID, true), domain.ErrUnauthorized)
	assert.ErrorIs(t, f.svc.SetKYC(ctx, nil, f.acc.ID, account.KYCVerified), domain.ErrUnauthorized)
	assert.ErrorIs(t, f.svc.DeleteAccount(ctx, f.user, f.acc.ID), domain.ErrUnauthorized)
	_, err = f.svc.ListTransactions(ctx, f.user, dto.TransactionFilter{})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = f.svc.AuditLog(ctx, f.user, 10)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestSetKYCAndFrozen(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SetKYC(ctx, f.admin, f.acc.ID, account.KYCVerified))
	require.NoError(t, f.svc.SetFrozen(ctx, f.admin, f.acc.ID, true))
	assert.ErrorIs(t, f.svc.SetKYC(ctx, f.admin, f.acc.ID, account.KYCStatus("maybe")), domain.ErrInvalidInput)
	assert.ErrorIs(t, f.svc.SetFrozen(ctx, f.admin, uuid.New(), true), domain.ErrNotFound)

	accounts, err := f.svc.ListAccounts(ctx, f.admin)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	for _, a := range accounts {
		if a.ID == f.acc.ID {
			assert.Equal(t, account.KYCVerified, a.KYCStatus)
			assert.True(t, a.Frozen)
		}
	}

	entries, err := f.svc.AuditLog(ctx, f.admin, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "account.frozen", entries[0].Action)
	assert.Equal(t, "true", entries[0].Details)
	assert.Equal(t, f.admin.UserID, entries[0].ActorID)

	published := f.bus.Published()
	require.Len(t, published, 2)
	assert.Equal(t, eventbus.AccountUpdated, published[0].Type)
}

func TestDeleteAccount(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	txs, err := f.uow.TransactionRepository()
	require.NoError(t, err)
	tx, err := transaction.New(f.acc.ID, f.acc.UserID, transaction.TypeDeposit, decimal.NewFromInt(5), "")
	require.NoError(t, err)
	require.NoError(t, txs.Create(ctx, tx))

	assert.ErrorIs(t, f.svc.DeleteAccount(ctx, f.admin, f.admin.AccountID), domain.ErrInvalidInput)
	require.NoError(t, f.svc.DeleteAccount(ctx, f.admin, f.acc.ID))
	assert.ErrorIs(t, f.svc.DeleteAccount(ctx, f.admin, f.acc.ID), domain.ErrNotFound)

	accounts, err := f.svc.ListAccounts(ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, accounts, 1)

	users, err := f.uow.UserRepository()
	require.NoError(t, err)
	_, err = users.Get(ctx, f.acc.UserID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = txs.Get(ctx, tx.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListTransactions(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	txs, err := f.uow.TransactionRepository()
	require.NoError(t, err)
	for _, typ := range []transaction.Type{transaction.TypeDeposit, transaction.TypeWithdrawal} {
		tx, err := transaction.New(f.acc.ID, f.acc.UserID, typ, decimal.NewFromInt(5), "")
		require.NoError(t, err)
		require.NoError(t, txs.Create(ctx, tx))
	}

	all, err := f.svc.ListTransactions(ctx, f.admin, dto.TransactionFilter{Status: transaction.StatusPending})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	deposits, err := f.svc.ListTransactions(ctx, f.admin, dto.TransactionFilter{Type: transaction.TypeDeposit})
	require.NoError(t, err)
	assert.Len(t, deposits, 1)

	_, err = f.svc.ListTransactions(ctx, f.admin, dto.TransactionFilter{Status: "paid"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
