package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yieldvault/ledger/pkg/domain"
	"github.com/yieldvault/ledger/pkg/domain/account"
	"github.com/yieldvault/ledger/pkg/utils"
)

// User represents a user in the system.
type User struct {
	ID        uuid.UUID    `json:"id"`
	Username  string       `json:"username"`
	Email     string       `json:"email"`
	Password  string       `json:"-"`
	Role      account.Role `json:"role"`
	CreatedAt time.Time    `json:"created"`
	UpdatedAt time.Time    `json:"updated"`
}

// NewUser creates a new User with a hashed password and current timestamps.
func NewUser(username, email, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, domain.NewInvalidInput("username", "cannot be empty")
	}
	if !utils.IsEmail(email) {
		return nil, domain.NewInvalidInput("email", "is not a valid address")
	}
	if len(password) < 6 {
		return nil, domain.NewInvalidInput("password", "must be at least 6 characters")
	}
	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &User{
		ID:        uuid.New(),
		Username:  username,
		Email:     strings.ToLower(email),
		Password:  hashedPassword,
		Role:      account.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == account.RoleAdmin
}
