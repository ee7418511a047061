package dto

import (
	"time"

	"github.com/google/uuid"
)

// AuditLogCreate is a DTO for recording an administrative action.
type AuditLogCreate struct {
	ActorID    uuid.UUID
	Action     string // e.g. transaction.complete, account.freeze
	TargetType string // account, transaction, investment
	TargetID   uuid.UUID
	Details    string
}

// AuditLogRead is a read-optimized view of an audit entry.
type AuditLogRead struct {
	ID         uuid.UUID `json:"id"`
	ActorID    uuid.UUID `json:"actor_id"`
	Action     string    `json:"action"`
	TargetType string    `json:"target_type"`
	TargetID   uuid.UUID `json:"target_id"`
	Details    string    `json:"details,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
