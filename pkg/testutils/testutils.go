// Package testutils builds real, in-memory wiring for service tests.
package testutils

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	infrarepo "github.com/yieldvault/ledger/infra/repository"
	"github.com/yieldvault/ledger/pkg/domain/account"
	"github.com/yieldvault/ledger/pkg/domain/user"
	"github.com/yieldvault/ledger/pkg/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// QuietLogger discards everything.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewSQLiteUoW opens an isolated in-memory SQLite database with the schema
// applied and returns it with a unit of work over it.
func NewSQLiteUoW(t testing.TB) (*gorm.DB, *infrarepo.UoW) {
	t.Helper()
	utils.PasswordCost = bcrypt.MinCost
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, infrarepo.AutoMigrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db, infrarepo.NewUoW(db)
}

// SeedAccount stores a user and an account holding the given balances.
func SeedAccount(t testing.TB, uow *infrarepo.UoW, role account.Role, main, profit string) (*user.User, *account.Account) {
	t.Helper()
	ctx := context.Background()
	name := "user_" + uuid.NewString()[:8]
	u, err := user.NewUser(name, name+"@example.com", "password123")
	require.NoError(t, err)
	u.Role = role
	acc, err := account.New().
		WithUserID(u.ID).
		WithRole(role).
		WithMainBalance(decimal.RequireFromString(main)).
		WithProfitBalance(decimal.RequireFromString(profit)).
		Build()
	require.NoError(t, err)

	users, err := uow.UserRepository()
	require.NoError(t, err)
	accounts, err := uow.AccountRepository()
	require.NoError(t, err)
	require.NoError(t, users.Create(ctx, u))
	require.NoError(t, accounts.Create(ctx, acc))
	return u, acc
}
