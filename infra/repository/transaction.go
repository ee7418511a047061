package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yieldvault/ledger/pkg/domain/transaction"
	"github.com/yieldvault/ledger/pkg/dto"
	"github.com/yieldvault/ledger/pkg/repository"
	"gorm.io/gorm"
)

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new TransactionRepository using the provided *gorm.DB.
func NewTransactionRepository(db *gorm.DB) repository.TransactionRepository {
	return &transactionRepository{db: db}
}

// Create implements repository.TransactionRepository.
func (r *transactionRepository) Create(ctx context.Context, tx *transaction.Transaction) error {
	m := mapTransactionDomainToModel(tx)
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(&m).Error
	})
}

// Get implements repository.TransactionRepository.
func (r *transactionRepository) Get(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	var m Transaction
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return mapTransactionModelToDomain(&m), nil
}

// ListByAccount implements repository.TransactionRepository.
func (r *transactionRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*transaction.Transaction, error) {
	return r.List(ctx, dto.TransactionFilter{AccountID: accountID})
}

// List implements repository.TransactionRepository.
func (r *transactionRepository) List(ctx context.Context, filter dto.TransactionFilter) ([]*transaction.Transaction, error) {
	q := r.db.WithContext(ctx).Model(&Transaction{})
	if filter.AccountID != uuid.Nil {
		q = q.Where("account_id = ?", filter.AccountID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if filter.Type != "" {
		q = q.Where("type = ?", string(filter.Type))
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	var ms []Transaction
	if err := q.Order("created_at desc").Find(&ms).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	out := make([]*transaction.Transaction, 0, len(ms))
	for i := range ms {
		out = append(out, mapTransactionModelToDomain(&ms[i]))
	}
	return out, nil
}

// UpdateStatus implements repository.TransactionRepository.
func (r *transactionRepository) UpdateStatus(ctx context.Context, tx *transaction.Transaction, prev transaction.Status) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&Transaction{}).
		Where("id = ? AND status = ?", tx.ID, string(prev)).
		Updates(map[string]any{
			"status":           string(tx.Status),
			"rejection_reason": tx.RejectionReason,
			"updated_at":       now,
		})
	if err := expectOneRow(res); err != nil {
		return err
	}
	tx.UpdatedAt = now
	return nil
}

// MarkReversed implements repository.TransactionRepository.
func (r *transactionRepository) MarkReversed(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&Transaction{}).
		Where("id = ? AND reversed_at IS NULL", id).
		Updates(map[string]any{"reversed_at": dbTime(at), "updated_at": time.Now().UTC()})
	return expectOneRow(res)
}

// DeleteByAccount implements repository.TransactionRepository.
func (r *transactionRepository) DeleteByAccount(ctx context.Context, accountID uuid.UUID) error {
	return WrapError(func() error {
		return r.db.WithContext(ctx).Where("account_id = ?", accountID).Delete(&Transaction{}).Error
	})
}

func mapTransactionDomainToModel(tx *transaction.Transaction) Transaction {
	return Transaction{
		ID:              tx.ID,
		AccountID:       tx.AccountID,
		UserID:          tx.UserID,
		Type:            string(tx.Type),
		Amount:          tx.Amount,
		Status:          string(tx.Status),
		Outcome:         string(tx.Outcome),
		Method:          tx.Method,
		Details:         tx.Details,
		RejectionReason: tx.RejectionReason,
		ReversedAt:      tx.ReversedAt,
		CreatedAt:       tx.CreatedAt,
		UpdatedAt:       tx.UpdatedAt,
	}
}

func mapTransactionModelToDomain(m *Transaction) *transaction.Transaction {
	return &transaction.Transaction{
		ID:              m.ID,
		AccountID:       m.AccountID,
		UserID:          m.UserID,
		Type:            transaction.Type(m.Type),
		Amount:          m.Amount,
		Status:          transaction.Status(m.Status),
		Outcome:         transaction.Outcome(m.Outcome),
		Method:          m.Method,
		Details:         m.Details,
		RejectionReason: m.RejectionReason,
		ReversedAt:      m.ReversedAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
