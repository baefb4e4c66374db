package reconciler

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nyumbahq/nyumba-backend/pkg/enums"
)

func setupReconcilerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL DEFAULT '',
  first_name TEXT NOT NULL DEFAULT '',
  last_name TEXT NOT NULL DEFAULT '',
  phone TEXT,
  role TEXT NOT NULL DEFAULT 'unassigned',
  user_type TEXT NOT NULL DEFAULT 'tenant',
  status TEXT NOT NULL DEFAULT 'active',
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS property_managers (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  license_number TEXT,
  experience_years INTEGER NOT NULL DEFAULT 0,
  specializations TEXT,
  is_available INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS tenants (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  property_id TEXT,
  unit_id TEXT,
  status TEXT NOT NULL DEFAULT 'active',
  move_in_date DATETIME,
  id_number TEXT,
  employment_status TEXT,
  employer_name TEXT,
  emergency_contact_name TEXT,
  emergency_contact_phone TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS units (
  id TEXT PRIMARY KEY,
  property_id TEXT NOT NULL,
  unit_type_id TEXT,
  unit_number TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'vacant',
  price TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS tenant_leases (
  id TEXT PRIMARY KEY,
  unit_id TEXT NOT NULL,
  tenant_id TEXT NOT NULL,
  start_date DATETIME NOT NULL,
  end_date DATETIME,
  rent_amount TEXT NOT NULL DEFAULT '0',
  status TEXT NOT NULL DEFAULT 'active',
  created_at DATETIME,
  updated_at DATETIME
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedUnit(t *testing.T, db *gorm.DB, status enums.UnitStatus) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, db.Exec(
		`INSERT INTO units (id, property_id, unit_number, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id.String(), uuid.NewString(), "A-1", string(status), time.Now(), time.Now(),
	).Error)
	return id
}

func seedLease(t *testing.T, db *gorm.DB, unitID uuid.UUID, status enums.LeaseStatus) {
	t.Helper()
	require.NoError(t, db.Exec(
		`INSERT INTO tenant_leases (id, unit_id, tenant_id, start_date, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), unitID.String(), uuid.NewString(), time.Now(), string(status), time.Now(), time.Now(),
	).Error)
}

func seedProfileRow(t *testing.T, db *gorm.DB, role enums.UserRole) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, db.Exec(
		`INSERT INTO profiles (id, email, role, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id.String(), id.String()+"@example.com", string(role), time.Now(), time.Now(),
	).Error)
	return id
}

func TestListOccupiedWithoutLease(t *testing.T) {
	db := setupReconcilerTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	drifted := seedUnit(t, db, enums.UnitStatusOccupied)
	leased := seedUnit(t, db, enums.UnitStatusOccupied)
	seedLease(t, db, leased, enums.LeaseStatusActive)
	terminated := seedUnit(t, db, enums.UnitStatusOccupied)
	seedLease(t, db, terminated, enums.LeaseStatusTerminated)
	seedUnit(t, db, enums.UnitStatusVacant)

	units, err := repo.ListOccupiedWithoutLease(ctx, 10)
	require.NoError(t, err)
	require.Len(t, units, 2)
	ids := []uuid.UUID{units[0].ID, units[1].ID}
	require.Contains(t, ids, drifted)
	require.Contains(t, ids, terminated)
}

func TestListLeasedNotOccupied(t *testing.T) {
	db := setupReconcilerTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	drifted := seedUnit(t, db, enums.UnitStatusVacant)
	seedLease(t, db, drifted, enums.LeaseStatusActive)
	inMaintenance := seedUnit(t, db, enums.UnitStatusMaintenance)
	seedLease(t, db, inMaintenance, enums.LeaseStatusActive)

	units, err := repo.ListLeasedNotOccupied(ctx, 10)
	require.NoError(t, err)
	require.Len(t, units, 1)
	require.Equal(t, drifted, units[0].ID)
}

func TestListOrphanAuxRows(t *testing.T) {
	db := setupReconcilerTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	demoted := seedProfileRow(t, db, enums.UserRoleUnassigned)
	require.NoError(t, db.Exec(
		`INSERT INTO property_managers (id, user_id, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), demoted.String(), time.Now(), time.Now(),
	).Error)

	current := seedProfileRow(t, db, enums.UserRolePropertyManager)
	require.NoError(t, db.Exec(
		`INSERT INTO property_managers (id, user_id, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), current.String(), time.Now(), time.Now(),
	).Error)

	rows, err := repo.ListOrphanManagerRows(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, demoted, rows[0].UserID)
}

func TestListTenantsWithMissingUnit(t *testing.T) {
	db := setupReconcilerTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	liveUnit := seedUnit(t, db, enums.UnitStatusOccupied)
	attached := seedProfileRow(t, db, enums.UserRoleTenant)
	require.NoError(t, db.Exec(
		`INSERT INTO tenants (id, user_id, unit_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), attached.String(), liveUnit.String(), time.Now(), time.Now(),
	).Error)

	orphan := seedProfileRow(t, db, enums.UserRoleTenant)
	orphanRowID := uuid.New()
	require.NoError(t, db.Exec(
		`INSERT INTO tenants (id, user_id, unit_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		orphanRowID.String(), orphan.String(), uuid.NewString(), time.Now(), time.Now(),
	).Error)

	rows, err := repo.ListTenantsWithMissingUnit(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, orphanRowID, rows[0].ID)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return repo.ClearTenantUnitTx(tx, orphanRowID)
	}))
	rows, err = repo.ListTenantsWithMissingUnit(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, rows)
}
