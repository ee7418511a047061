package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/yieldvault/ledger/pkg/domain/user"
)

// UserRead represents a read-optimized view of a user.
type UserRead struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserRead maps a domain user without its password hash.
func NewUserRead(u *user.User) *UserRead {
	return &UserRead{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}
