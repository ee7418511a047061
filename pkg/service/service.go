// Package service holds helpers shared by the application services.
// The services themselves live in sub-packages:
//
//	import "github.com/yieldvault/ledger/pkg/service/account"
//	import "github.com/yieldvault/ledger/pkg/service/accrual"
//	import "github.com/yieldvault/ledger/pkg/service/admin"
//	import "github.com/yieldvault/ledger/pkg/service/auth"
//	import "github.com/yieldvault/ledger/pkg/service/investment"
//	import "github.com/yieldvault/ledger/pkg/service/reconcile"
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/yieldvault/ledger/pkg/domain"
	"github.com/yieldvault/ledger/pkg/dto"
	"github.com/yieldvault/ledger/pkg/eventbus"
	"github.com/yieldvault/ledger/pkg/metrics"
	"github.com/yieldvault/ledger/pkg/repository"
)

// DefaultMaxRetries bounds how often an operation that lost an optimistic
// write is re-run from scratch.
const DefaultMaxRetries = 3

// Retry runs fn until it returns anything other than
// domain.ErrConcurrentModification, up to attempts times. The last conflict
// is returned when the budget runs out.
func Retry(ctx context.Context, operation string, attempts int, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		err = fn()
		if !errors.Is(err, domain.ErrConcurrentModification) {
			return err
		}
		if i < attempts-1 {
			metrics.ConflictRetries.WithLabelValues(operation).Inc()
		}
	}
	return err
}

// Emit publishes events after a committed write. A failed publish is logged;
// the ledger write it describes has already happened.
func Emit(ctx context.Context, bus eventbus.Bus, logger *slog.Logger, events ...eventbus.Event) {
	if bus == nil {
		return
	}
	for _, e := range events {
		if err := bus.Emit(ctx, e); err != nil {
			logger.Warn("event publish failed", "type", e.Type, "account_id", e.AccountID, "error", err)
		}
	}
}

// Audit records an administrative action inside uow so that it commits or
// rolls back with the change it describes.
func Audit(
	ctx context.Context,
	uow repository.UnitOfWork,
	actorID uuid.UUID,
	action, targetType string,
	targetID uuid.UUID,
	details string,
) error {
	repo, err := uow.AuditRepository()
	if err != nil {
		return err
	}
	return repo.Create(ctx, dto.AuditLogCreate{
		ActorID:    actorID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    details,
	})
}
