package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/yieldvault/ledger/pkg/domain/account"
	"github.com/yieldvault/ledger/pkg/domain/user"
	"github.com/yieldvault/ledger/pkg/repository"
	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository using the provided *gorm.DB.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{db: db}
}

// Get implements repository.UserRepository.
func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return r.first(ctx, "id = ?", id)
}

// GetByUsername implements repository.UserRepository.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	return r.first(ctx, "username = ?", username)
}

// GetByEmail implements repository.UserRepository.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.first(ctx, "email = ?", strings.ToLower(email))
}

func (r *userRepository) first(ctx context.Context, query string, arg any) (*user.User, error) {
	var m User
	if err := r.db.WithContext(ctx).First(&m, query, arg).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return &user.User{
		ID:        m.ID,
		Username:  m.Username,
		Email:     m.Email,
		Password:  m.Password,
		Role:      account.Role(m.Role),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}, nil
}

// Create implements repository.UserRepository.
func (r *userRepository) Create(ctx context.Context, u *user.User) error {
	m := User{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Password:  u.Password,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(&m).Error
	})
}

// Delete implements repository.UserRepository.
func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return notFoundIfNoRows(r.db.WithContext(ctx).Delete(&User{}, "id = ?", id))
}
