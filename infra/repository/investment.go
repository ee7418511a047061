package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yieldvault/ledger/pkg/domain/investment"
	"github.com/yieldvault/ledger/pkg/repository"
	"gorm.io/gorm"
)

type investmentRepository struct {
	db *gorm.DB
}

// NewInvestmentRepository creates a new InvestmentRepository using the provided *gorm.DB.
func NewInvestmentRepository(db *gorm.DB) repository.InvestmentRepository {
	return &investmentRepository{db: db}
}

// Create implements repository.InvestmentRepository.
func (r *investmentRepository) Create(ctx context.Context, c *investment.Contract) error {
	m := mapInvestmentDomainToModel(c)
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(&m).Error
	})
}

// Get implements repository.InvestmentRepository.
func (r *investmentRepository) Get(ctx context.Context, id uuid.UUID) (*investment.Contract, error) {
	var m Investment
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return mapInvestmentModelToDomain(&m), nil
}

// GetByTransactionID implements repository.InvestmentRepository.
func (r *investmentRepository) GetByTransactionID(ctx context.Context, txID uuid.UUID) (*investment.Contract, error) {
	var m Investment
	if err := r.db.WithContext(ctx).First(&m, "transaction_id = ?", txID).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return mapInvestmentModelToDomain(&m), nil
}

// ListByAccount implements repository.InvestmentRepository.
func (r *investmentRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*investment.Contract, error) {
	return r.find(r.db.WithContext(ctx).Where("account_id = ?", accountID).Order("created_at desc"))
}

// ListActive implements repository.InvestmentRepository.
func (r *investmentRepository) ListActive(ctx context.Context) ([]*investment.Contract, error) {
	return r.find(r.db.WithContext(ctx).Where("status = ?", string(investment.StatusActive)).Order("start_date"))
}

func (r *investmentRepository) find(q *gorm.DB) ([]*investment.Contract, error) {
	var ms []Investment
	if err := q.Find(&ms).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	out := make([]*investment.Contract, 0, len(ms))
	for i := range ms {
		out = append(out, mapInvestmentModelToDomain(&ms[i]))
	}
	return out, nil
}

// SaveAccrual implements repository.InvestmentRepository.
func (r *investmentRepository) SaveAccrual(ctx context.Context, c *investment.Contract, prevAccruedAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&Investment{}).
		Where("id = ? AND status = ? AND last_accrued_at = ?",
			c.ID, string(investment.StatusActive), dbTime(prevAccruedAt)).
		Updates(map[string]any{
			"accrued_profit":  c.AccruedProfit,
			"last_accrued_at": dbTime(c.LastAccruedAt),
			"status":          string(c.Status),
			"updated_at":      time.Now().UTC(),
		})
	return expectOneRow(res)
}

// UpdateStatus implements repository.InvestmentRepository.
func (r *investmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to investment.Status) error {
	res := r.db.WithContext(ctx).
		Model(&Investment{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(map[string]any{"status": string(to), "updated_at": time.Now().UTC()})
	return expectOneRow(res)
}

// DeleteByAccount implements repository.InvestmentRepository.
func (r *investmentRepository) DeleteByAccount(ctx context.Context, accountID uuid.UUID) error {
	return WrapError(func() error {
		return r.db.WithContext(ctx).Where("account_id = ?", accountID).Delete(&Investment{}).Error
	})
}

func mapInvestmentDomainToModel(c *investment.Contract) Investment {
	return Investment{
		ID:                 c.ID,
		AccountID:          c.AccountID,
		UserID:             c.UserID,
		PlanID:             c.PlanID,
		Amount:             c.Amount,
		DailyReturnPercent: c.DailyReturnPercent,
		StartDate:          dbTime(c.StartDate),
		EndDate:            dbTime(c.EndDate),
		Status:             string(c.Status),
		AccruedProfit:      c.AccruedProfit,
		LastAccruedAt:      dbTime(c.LastAccruedAt),
		TransactionID:      c.TransactionID,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

func mapInvestmentModelToDomain(m *Investment) *investment.Contract {
	return &investment.Contract{
		ID:                 m.ID,
		AccountID:          m.AccountID,
		UserID:             m.UserID,
		PlanID:             m.PlanID,
		Amount:             m.Amount,
		DailyReturnPercent: m.DailyReturnPercent,
		StartDate:          m.StartDate.UTC(),
		EndDate:            m.EndDate.UTC(),
		Status:             investment.Status(m.Status),
		AccruedProfit:      m.AccruedProfit,
		LastAccruedAt:      m.LastAccruedAt.UTC(),
		TransactionID:      m.TransactionID,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}
