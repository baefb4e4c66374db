package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditLog is an append-only record of privileged mutations.
type AuditLog struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ActorID    *uuid.UUID      `gorm:"type:uuid;column:actor_id"`
	Action     string          `gorm:"column:action;not null;index"`
	TargetType string          `gorm:"column:target_type;not null"`
	TargetID   uuid.UUID       `gorm:"type:uuid;column:target_id;not null;index"`
	Metadata   json.RawMessage `gorm:"column:metadata;type:jsonb"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}
