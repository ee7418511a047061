// Package admin provides the back-office operations: account listing, KYC,
// freezing, deletion and read access to transactions and the audit log.
// Every mutation is written to the audit log in the same unit of work.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/yieldvault/ledger/pkg/domain"
	"github.com/yieldvault/ledger/pkg/domain/account"
	"github.com/yieldvault/ledger/pkg/domain/transaction"
	"github.com/yieldvault/ledger/pkg/dto"
	"github.com/yieldvault/ledger/pkg/eventbus"
	"github.com/yieldvault/ledger/pkg/repository"
	"github.com/yieldvault/ledger/pkg/service"
	"github.com/yieldvault/ledger/pkg/service/auth"
)

type Service struct {
	uow    repository.UnitOfWork
	bus    eventbus.Bus
	logger *slog.Logger
}

func NewService(uow repository.UnitOfWork, bus eventbus.Bus, logger *slog.Logger) *Service {
	return &Service{uow: uow, bus: bus, logger: logger.With("service", "admin")}
}

// ListAccounts returns every account, newest first.
func (s *Service) ListAccounts(ctx context.Context, sess *auth.Session) ([]*account.Account, error) {
	if err := auth.RequireAdmin(sess); err != nil {
		return nil, err
	}
	repo, err := s.uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	return repo.List(ctx)
}

// SetKYC records the outcome of identity verification.
func (s *Service) SetKYC(ctx context.Context, sess *auth.Session, accountID uuid.UUID, status account.KYCStatus) error {
	if err := auth.RequireAdmin(sess); err != nil {
		return err
	}
	if !status.Valid() {
		return domain.NewInvalidInput("kyc_status", fmt.Sprintf("%q is not a KYC status", status))
	}
	return s.mutate(ctx, sess, "account.kyc", accountID, string(status), func(repo repository.AccountRepository) error {
		return repo.SetKYCStatus(ctx, accountID, status)
	})
}

// SetFrozen freezes or unfreezes an account. A frozen account cannot
// request withdrawals or open investments.
func (s *Service) SetFrozen(ctx context.Context, sess *auth.Session, accountID uuid.UUID, frozen bool) error {
	if err := auth.RequireAdmin(sess); err != nil {
		return err
	}
	return s.mutate(ctx, sess, "account.frozen", accountID, strconv.FormatBool(frozen), func(repo repository.AccountRepository) error {
		return repo.SetFrozen(ctx, accountID, frozen)
	})
}

func (s *Service) mutate(
	ctx context.Context,
	sess *auth.Session,
	action string,
	accountID uuid.UUID,
	details string,
	fn func(repo repository.AccountRepository) error,
) error {
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		if err := fn(repo); err != nil {
			return err
		}
		return service.Audit(ctx, uow, sess.UserID, action, "account", accountID, details)
	})
	if err != nil {
		return err
	}
	e := eventbus.NewEvent(eventbus.AccountUpdated, accountID)
	e.Status = details
	service.Emit(ctx, s.bus, s.logger, e)
	s.logger.Info("Account updated", "action", action, "account_id", accountID, "value", details, "actor_id", sess.UserID)
	return nil
}

// DeleteAccount removes an account together with its owner, contracts and
// transactions. Admins cannot delete their own account.
func (s *Service) DeleteAccount(ctx context.Context, sess *auth.Session, accountID uuid.UUID) error {
	if err := auth.RequireAdmin(sess); err != nil {
		return err
	}
	if accountID == sess.AccountID {
		return domain.NewInvalidInput("account_id", "cannot delete the signed-in account")
	}
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accounts, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		acc, err := accounts.Get(ctx, accountID)
		if err != nil {
			return err
		}
		investments, err := uow.InvestmentRepository()
		if err != nil {
			return err
		}
		if err := investments.DeleteByAccount(ctx, accountID); err != nil {
			return err
		}
		txs, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		if err := txs.DeleteByAccount(ctx, accountID); err != nil {
			return err
		}
		if err := accounts.Delete(ctx, accountID); err != nil {
			return err
		}
		users, err := uow.UserRepository()
		if err != nil {
			return err
		}
		if err := users.Delete(ctx, acc.UserID); err != nil {
			return err
		}
		return service.Audit(ctx, uow, sess.UserID, "account.delete", "account", accountID, acc.UserID.String())
	})
	if err != nil {
		return err
	}
	s.logger.Warn("Account deleted", "account_id", accountID, "actor_id", sess.UserID)
	return nil
}

// ListTransactions returns transactions across all accounts matching filter.
func (s *Service) ListTransactions(ctx context.Context, sess *auth.Session, filter dto.TransactionFilter) ([]*transaction.Transaction, error) {
	if err := auth.RequireAdmin(sess); err != nil {
		return nil, err
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.NewInvalidInput("status", fmt.Sprintf("%q is not a transaction status", filter.Status))
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, domain.NewInvalidInput("type", fmt.Sprintf("%q is not a transaction type", filter.Type))
	}
	repo, err := s.uow.TransactionRepository()
	if err != nil {
		return nil, err
	}
	return repo.List(ctx, filter)
}

// AuditLog returns the most recent limit entries.
func (s *Service) AuditLog(ctx context.Context, sess *auth.Session, limit int) ([]*dto.AuditLogRead, error) {
	if err := auth.RequireAdmin(sess); err != nil {
		return nil, err
	}
	repo, err := s.uow.AuditRepository()
	if err != nil {
		return nil, err
	}
	return repo.List(ctx, limit)
}
