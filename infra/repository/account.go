package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yieldvault/ledger/pkg/domain/account"
	"github.com/yieldvault/ledger/pkg/repository"
	"gorm.io/gorm"
)

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new AccountRepository using the provided *gorm.DB.
func NewAccountRepository(db *gorm.DB) repository.AccountRepository {
	return &accountRepository{db: db}
}

// Get implements repository.AccountRepository.
func (r *accountRepository) Get(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	var m Account
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return mapAccountModelToDomain(&m), nil
}

// GetByUserID implements repository.AccountRepository.
func (r *accountRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*account.Account, error) {
	var m Account
	if err := r.db.WithContext(ctx).First(&m, "user_id = ?", userID).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return mapAccountModelToDomain(&m), nil
}

// List implements repository.AccountRepository.
func (r *accountRepository) List(ctx context.Context) ([]*account.Account, error) {
	var ms []Account
	if err := r.db.WithContext(ctx).Order("created_at desc").Find(&ms).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	out := make([]*account.Account, 0, len(ms))
	for i := range ms {
		out = append(out, mapAccountModelToDomain(&ms[i]))
	}
	return out, nil
}

// Create implements repository.AccountRepository.
func (r *accountRepository) Create(ctx context.Context, acc *account.Account) error {
	m := mapAccountDomainToModel(acc)
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(&m).Error
	})
}

// UpdateBalances implements repository.AccountRepository.
func (r *accountRepository) UpdateBalances(ctx context.Context, acc *account.Account) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&Account{}).
		Where("id = ? AND version = ?", acc.ID, acc.Version).
		Updates(map[string]any{
			"main_balance":   acc.MainBalance,
			"profit_balance": acc.ProfitBalance,
			"version":        gorm.Expr("version + 1"),
			"updated_at":     now,
		})
	if err := expectOneRow(res); err != nil {
		return err
	}
	acc.Version++
	acc.UpdatedAt = now
	return nil
}

// IncrementProfit implements repository.AccountRepository.
func (r *accountRepository) IncrementProfit(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	res := r.db.WithContext(ctx).
		Model(&Account{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"profit_balance": gorm.Expr("profit_balance + ?", delta),
			"version":        gorm.Expr("version + 1"),
			"updated_at":     time.Now().UTC(),
		})
	return expectOneRow(res)
}

// SetKYCStatus implements repository.AccountRepository.
func (r *accountRepository) SetKYCStatus(ctx context.Context, id uuid.UUID, status account.KYCStatus) error {
	res := r.db.WithContext(ctx).Model(&Account{}).Where("id = ?", id).
		Updates(map[string]any{"kyc_status": string(status), "updated_at": time.Now().UTC()})
	return notFoundIfNoRows(res)
}

// SetFrozen implements repository.AccountRepository.
func (r *accountRepository) SetFrozen(ctx context.Context, id uuid.UUID, frozen bool) error {
	res := r.db.WithContext(ctx).Model(&Account{}).Where("id = ?", id).
		Updates(map[string]any{"frozen": frozen, "updated_at": time.Now().UTC()})
	return notFoundIfNoRows(res)
}

// Delete implements repository.AccountRepository.
func (r *accountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return notFoundIfNoRows(r.db.WithContext(ctx).Delete(&Account{}, "id = ?", id))
}

func notFoundIfNoRows(res *gorm.DB) error {
	if res.Error != nil {
		return MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return MapGormErrorToDomain(gorm.ErrRecordNotFound)
	}
	return nil
}

func mapAccountDomainToModel(a *account.Account) Account {
	return Account{
		ID:            a.ID,
		UserID:        a.UserID,
		MainBalance:   a.MainBalance,
		ProfitBalance: a.ProfitBalance,
		Role:          string(a.Role),
		KYCStatus:     string(a.KYCStatus),
		Frozen:        a.Frozen,
		Version:       a.Version,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func mapAccountModelToDomain(m *Account) *account.Account {
	return &account.Account{
		ID:            m.ID,
		UserID:        m.UserID,
		MainBalance:   m.MainBalance,
		ProfitBalance: m.ProfitBalance,
		Role:          account.Role(m.Role),
		KYCStatus:     account.KYCStatus(m.KYCStatus),
		Frozen:        m.Frozen,
		Version:       m.Version,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
