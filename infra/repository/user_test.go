package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yieldvault/ledger/pkg/domain"
	"github.com/yieldvault/ledger/pkg/domain/user"
	"github.com/yieldvault/ledger/pkg/dto"
	"github.com/yieldvault/ledger/pkg/utils"
	"golang.org/x/crypto/bcrypt"
)

func TestUserRepository(t *testing.T) {
	utils.PasswordCost = bcrypt.MinCost
	db := newSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u, err := user.NewUser("alice", "Alice@Example.com", "secret123")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, u))

	byID, err := repo.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	byEmail, err := repo.GetByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byName, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, utils.CheckPasswordHash("secret123", byName.Password))

	dup, err := user.NewUser("alice", "other@example.com", "secret123")
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Create(ctx, dup), domain.ErrAlreadyExists)

	_, err = repo.GetByUsername(ctx, "bob")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, u.ID))
	assert.ErrorIs(t, repo.Delete(ctx, u.ID), domain.ErrNotFound)
}

func TestAuditRepository(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewAuditRepository(db)
	ctx := context.Background()
	actor := uuid.New()

	for _, action := range []string{"account.freeze", "transaction.approve", "transaction.reverse"} {
		require.NoError(t, repo.Create(ctx, dto.AuditLogCreate{
			ActorID:    actor,
			Action:     action,
			TargetType: "account",
			TargetID:   uuid.New(),
		}))
	}

	entries, err := repo.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	all, err := repo.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, actor, all[0].ActorID)
}
