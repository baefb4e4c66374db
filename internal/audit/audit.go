package audit

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nyumbahq/nyumba-backend/pkg/db/models"
)

// Entry describes one privileged mutation to record.
type Entry struct {
	ActorID    *uuid.UUID
	Action     string
	TargetType string
	TargetID   uuid.UUID
	Metadata   any
}

// Recorder appends audit rows. Workflows call RecordTx inside the same
// transaction that performs the mutation so the trail cannot drift from
// the data.
type Recorder interface {
	RecordTx(tx *gorm.DB, entry Entry) error
	Record(ctx context.Context, entry Entry) error
}

// Repository persists audit log rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to audit writes.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func buildRow(entry Entry) (*models.AuditLog, error) {
	row := &models.AuditLog{
		ID:         uuid.New(),
		ActorID:    entry.ActorID,
		Action:     entry.Action,
		TargetType: entry.TargetType,
		TargetID:   entry.TargetID,
	}
	if entry.Metadata != nil {
		raw, err := json.Marshal(entry.Metadata)
		if err != nil {
			return nil, err
		}
		row.Metadata = raw
	}
	return row, nil
}

// RecordTx appends an audit row using the caller's transaction.
func (r *Repository) RecordTx(tx *gorm.DB, entry Entry) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	row, err := buildRow(entry)
	if err != nil {
		return err
	}
	return tx.Create(row).Error
}

// Record appends an audit row outside any transaction.
func (r *Repository) Record(ctx context.Context, entry Entry) error {
	row, err := buildRow(entry)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(row).Error
}

// List returns the most recent entries for a target, newest first.
func (r *Repository) List(ctx context.Context, targetType string, targetID uuid.UUID, limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.AuditLog
	err := r.db.WithContext(ctx).
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
