// Package auth signs users up, logs them in and turns verified tokens into
// explicit sessions that every other service takes as an argument.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/yieldvault/ledger/pkg/config"
	"github.com/yieldvault/ledger/pkg/domain"
	"github.com/yieldvault/ledger/pkg/domain/account"
	"github.com/yieldvault/ledger/pkg/domain/user"
	"github.com/yieldvault/ledger/pkg/repository"
	"github.com/yieldvault/ledger/pkg/utils"
)

// dummyHash is compared against when the identity is unknown so that
// failed lookups take as long as failed passwords.
const dummyHash = "$2a$10$7zFqzDbD3RrlkMTczbXG9OWZ0FLOXjIxXzSZ.QZxkVXjXcx7QZQiC"

// Session identifies the caller of a service operation.
type Session struct {
	UserID    uuid.UUID
	AccountID uuid.UUID
	Username  string
	Role      account.Role
}

// IsAdmin reports whether the session carries the admin role.
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == account.RoleAdmin
}

// RequireAdmin returns domain.ErrUnauthorized unless s is an admin session.
func RequireAdmin(s *Session) error {
	if !s.IsAdmin() {
		return domain.ErrUnauthorized
	}
	return nil
}

// RequireUser returns domain.ErrUnauthorized for a nil session.
func RequireUser(s *Session) error {
	if s == nil || s.AccountID == uuid.Nil {
		return domain.ErrUnauthorized
	}
	return nil
}

type Service struct {
	uow    repository.UnitOfWork
	cfg    *config.Auth
	logger *slog.Logger
}

func New(uow repository.UnitOfWork, cfg *config.Auth, logger *slog.Logger) *Service {
	return &Service{uow: uow, cfg: cfg, logger: logger.With("service", "auth")}
}

// Signup creates a user and its empty account in one unit of work. Emails
// listed in the admin allow-list are given the admin role.
func (s *Service) Signup(ctx context.Context, username, email, password string) (u *user.User, acc *account.Account, err error) {
	log := s.logger.With("username", username)
	u, err = user.NewUser(username, email, password)
	if err != nil {
		return nil, nil, err
	}
	if s.isAdminEmail(u.Email) {
		u.Role = account.RoleAdmin
	}
	acc, err = account.New().WithUserID(u.ID).WithRole(u.Role).Build()
	if err != nil {
		return nil, nil, err
	}

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		users, err := uow.UserRepository()
		if err != nil {
			return err
		}
		accounts, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		if err := users.Create(ctx, u); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		return accounts.Create(ctx, acc)
	})
	if err != nil {
		log.Error("Signup failed", "error", err)
		return nil, nil, err
	}
	log.Info("Signup successful", "userID", u.ID, "role", u.Role)
	return u, acc, nil
}

func (s *Service) isAdminEmail(email string) bool {
	if s.cfg == nil {
		return false
	}
	return slices.ContainsFunc(s.cfg.AdminEmails, func(e string) bool {
		return strings.EqualFold(strings.TrimSpace(e), email)
	})
}

// Login checks identity (email or username) and password and returns a
// signed token for the resulting session.
func (s *Service) Login(ctx context.Context, identity, password string) (string, *Session, error) {
	log := s.logger.With("identity", identity)
	users, err := s.uow.UserRepository()
	if err != nil {
		return "", nil, err
	}
	var u *user.User
	if utils.IsEmail(identity) {
		u, err = users.GetByEmail(ctx, identity)
	} else {
		u, err = users.GetByUsername(ctx, identity)
	}
	if err != nil {
		_ = utils.CheckPasswordHash(password, dummyHash)
		if errors.Is(err, domain.ErrNotFound) {
			log.Info("Login failed", "reason", "unknown identity")
			return "", nil, domain.ErrUnauthorized
		}
		return "", nil, err
	}
	if !utils.CheckPasswordHash(password, u.Password) {
		log.Info("Login failed", "reason", "bad password")
		return "", nil, domain.ErrUnauthorized
	}

	accounts, err := s.uow.AccountRepository()
	if err != nil {
		return "", nil, err
	}
	acc, err := accounts.GetByUserID(ctx, u.ID)
	if err != nil {
		return "", nil, fmt.Errorf("load account: %w", err)
	}
	sess := &Session{UserID: u.ID, AccountID: acc.ID, Username: u.Username, Role: acc.Role}
	token, err := s.GenerateToken(sess)
	if err != nil {
		return "", nil, err
	}
	log.Info("Login successful", "userID", u.ID)
	return token, sess, nil
}

// GenerateToken signs sess as an HS256 JWT.
func (s *Service) GenerateToken(sess *Session) (string, error) {
	if s.cfg == nil || s.cfg.Jwt == nil || s.cfg.Jwt.Secret == "" {
		return "", errors.New("jwt secret is not configured")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":    sess.UserID.String(),
		"account_id": sess.AccountID.String(),
		"username":   sess.Username,
		"role":       string(sess.Role),
		"exp":        time.Now().Add(s.cfg.Jwt.Expiry).Unix(),
	})
	return token.SignedString([]byte(s.cfg.Jwt.Secret))
}

// SessionFrom builds a session from a token the JWT middleware already verified.
func (s *Service) SessionFrom(token *jwt.Token) (*Session, error) {
	if token == nil {
		return nil, domain.ErrUnauthorized
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	userID, err := uuidClaim(claims, "user_id")
	if err != nil {
		return nil, err
	}
	accountID, err := uuidClaim(claims, "account_id")
	if err != nil {
		return nil, err
	}
	role, _ := claims["role"].(string)
	username, _ := claims["username"].(string)
	return &Session{
		UserID:    userID,
		AccountID: accountID,
		Username:  username,
		Role:      account.Role(role),
	}, nil
}

func uuidClaim(claims jwt.MapClaims, key string) (uuid.UUID, error) {
	raw, ok := claims[key].(string)
	if !ok {
		return uuid.Nil, domain.ErrUnauthorized
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.ErrUnauthorized
	}
	return id, nil
}
