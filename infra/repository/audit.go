package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yieldvault/ledger/pkg/dto"
	"github.com/yieldvault/ledger/pkg/repository"
	"gorm.io/gorm"
)

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new AuditRepository using the provided *gorm.DB.
func NewAuditRepository(db *gorm.DB) repository.AuditRepository {
	return &auditRepository{db: db}
}

// Create implements repository.AuditRepository.
func (r *auditRepository) Create(ctx context.Context, entry dto.AuditLogCreate) error {
	m := AuditLog{
		ID:         uuid.New(),
		ActorID:    entry.ActorID,
		Action:     entry.Action,
		TargetType: entry.TargetType,
		TargetID:   entry.TargetID,
		Details:    entry.Details,
		CreatedAt:  time.Now().UTC(),
	}
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(&m).Error
	})
}

// List implements repository.AuditRepository.
func (r *auditRepository) List(ctx context.Context, limit int) ([]*dto.AuditLogRead, error) {
	if limit <= 0 {
		limit = 100
	}
	var ms []AuditLog
	if err := r.db.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&ms).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	out := make([]*dto.AuditLogRead, 0, len(ms))
	for _, m := range ms {
		out = append(out, &dto.AuditLogRead{
			ID:         m.ID,
			ActorID:    m.ActorID,
			Action:     m.Action,
			TargetType: m.TargetType,
			TargetID:   m.TargetID,
			Details:    m.Details,
			CreatedAt:  m.CreatedAt,
		})
	}
	return out, nil
}
