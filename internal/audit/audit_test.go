package audit

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupAuditTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS audit_logs (
  id TEXT PRIMARY KEY,
  actor_id TEXT,
  action TEXT NOT NULL,
  target_type TEXT NOT NULL,
  target_id TEXT NOT NULL,
  metadata TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func TestRecordAndList(t *testing.T) {
	db := setupAuditTestDB(t)
	repo := NewRepository(db)

	actor := uuid.New()
	target := uuid.New()

	err := repo.Record(context.Background(), Entry{
		ActorID:    &actor,
		Action:     "role.assigned",
		TargetType: "profile",
		TargetID:   target,
		Metadata:   map[string]string{"role": "property_manager"},
	})
	require.NoError(t, err)

	rows, err := repo.List(context.Background(), "profile", target, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "role.assigned", rows[0].Action)
	require.JSONEq(t, `{"role":"property_manager"}`, string(rows[0].Metadata))
}

func TestRecordTxRollsBackWithTransaction(t *testing.T) {
	db := setupAuditTestDB(t)
	repo := NewRepository(db)
	target := uuid.New()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := repo.RecordTx(tx, Entry{
			Action:     "tenancy.assigned",
			TargetType: "unit",
			TargetID:   target,
		}); err != nil {
			return err
		}
		return gorm.ErrInvalidData
	})
	require.Error(t, err)

	rows, err := repo.List(context.Background(), "unit", target, 10)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestRecordTxRequiresTransaction(t *testing.T) {
	db := setupAuditTestDB(t)
	repo := NewRepository(db)

	err := repo.RecordTx(nil, Entry{Action: "x", TargetType: "unit", TargetID: uuid.New()})
	require.ErrorIs(t, err, gorm.ErrInvalidTransaction)
}
