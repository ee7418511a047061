package account_test

import (
	"io"
	"log"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yieldvault/ledger/pkg/domain"
	domainaccount "github.com/yieldvault/ledger/pkg/domain/account"
)

// TestMain runs before any tests and applies globally for all tests in the package.
func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	log.SetOutput(io.Discard)

	exitVal := m.Run()
	os.Exit(exitVal)
}

func TestNewAccount(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	acc, err := domainaccount.New().WithUserID(uuid.New()).Build()
	require.NoError(err)
	assert.NotEmpty(t, acc.ID, "Account ID should not be empty")
	assert.Equal(t, domainaccount.RoleUser, acc.Role)
	assert.Equal(t, domainaccount.KYCUnverified, acc.KYCStatus)
	assert.True(t, acc.MainBalance.IsZero())

	_, err = domainaccount.New().Build()
	require.ErrorIs(err, domainaccount.ErrUserIDRequired)

	_, err = domainaccount.New().
		WithUserID(uuid.New()).
		WithMainBalance(decimal.NewFromInt(-1)).
		Build()
	require.ErrorIs(err, domainaccount.ErrNegativeBalance)
}

func TestApply(t *testing.T) {
	t.Parallel()
	acc, err := domainaccount.New().
		WithUserID(uuid.New()).
		WithMainBalance(decimal.NewFromInt(1000)).
		Build()
	require.NoError(t, err)

	t.Run("credit main", func(t *testing.T) {
		a := *acc
		require.NoError(t, a.Apply(domainaccount.BucketMain, decimal.NewFromInt(250)))
		assert.True(t, a.MainBalance.Equal(decimal.NewFromInt(1250)))
		assert.True(t, a.ProfitBalance.IsZero())
	})

	t.Run("credit profit", func(t *testing.T) {
		a := *acc
		require.NoError(t, a.Apply(domainaccount.BucketProfit, decimal.NewFromInt(5)))
		assert.True(t, a.ProfitBalance.Equal(decimal.NewFromInt(5)))
		assert.True(t, a.MainBalance.Equal(decimal.NewFromInt(1000)))
	})

	t.Run("overdraft rejected", func(t *testing.T) {
		a := *acc
		err := a.Apply(domainaccount.BucketMain, decimal.NewFromInt(-1001))
		assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
		assert.True(t, a.MainBalance.Equal(decimal.NewFromInt(1000)), "balance must be untouched")
	})
}

func TestValidateDebit(t *testing.T) {
	t.Parallel()
	acc, err := domainaccount.New().
		WithUserID(uuid.New()).
		WithMainBalance(decimal.NewFromInt(100)).
		Build()
	require.NoError(t, err)

	assert.NoError(t, acc.ValidateDebit(domainaccount.BucketMain, decimal.NewFromInt(50)))
	assert.ErrorIs(t, acc.ValidateDebit(domainaccount.BucketMain, decimal.NewFromInt(200)), domain.ErrInsufficientBalance)
	assert.ErrorIs(t, acc.ValidateDebit(domainaccount.BucketProfit, decimal.NewFromInt(1)), domain.ErrInsufficientBalance)
	assert.ErrorIs(t, acc.ValidateDebit(domainaccount.BucketMain, decimal.Zero), domain.ErrInvalidInput)

	frozen := *acc
	frozen.Frozen = true
	assert.ErrorIs(t, frozen.ValidateDebit(domainaccount.BucketMain, decimal.NewFromInt(1)), domain.ErrAccountFrozen)
}
