package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nyumbahq/nyumba-backend/pkg/db/models"
	"github.com/nyumbahq/nyumba-backend/pkg/enums"
	"github.com/nyumbahq/nyumba-backend/pkg/outbox"
	"github.com/nyumbahq/nyumba-backend/pkg/pagination"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type recordingEmitter struct {
	events []outbox.DomainEvent
}

func (r *recordingEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	r.events = append(r.events, event)
	return nil
}

func setupUsersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
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
  specializations TEXT NOT NULL DEFAULT '{}',
  is_available BOOLEAN NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS property_manager_assignments (
  id TEXT PRIMARY KEY,
  property_id TEXT NOT NULL,
  manager_id TEXT NOT NULL,
  created_at DATETIME,
  UNIQUE (property_id, manager_id)
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
  floor_number INTEGER,
  status TEXT NOT NULL DEFAULT 'vacant',
  price NUMERIC,
  description TEXT,
  features TEXT NOT NULL DEFAULT '{}',
  image_url TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedProfile(t *testing.T, db *gorm.DB, email string) *models.Profile {
	t.Helper()
	profile := CreateProfileDTO{
		Email:        email,
		PasswordHash: "x",
		FirstName:    "Wanjiru",
		LastName:     "Kamau",
	}.ToModel()
	require.NoError(t, db.Create(profile).Error)
	return profile
}

// Role swings through unassigned and back must never stack duplicate tenant
// rows for a user; the row is keyed by user_id and recreated at most once.
func TestRoleSwingsKeepSingleTenantRow(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	emitter := &recordingEmitter{}
	svc, err := NewService(repo, gormTxRunner{db: db}, emitter, nil)
	require.NoError(t, err)

	profile := seedProfile(t, db, "wanjiru@example.com")
	actor := Actor{UserID: uuid.New(), Role: enums.UserRoleSuperAdmin}
	ctx := context.Background()

	unitID := uuid.New()
	require.NoError(t, db.Exec(
		`INSERT INTO units (id, property_id, unit_number, status) VALUES (?, ?, 'B-2', 'vacant')`,
		unitID, uuid.New(),
	).Error)

	_, err = svc.AssignRole(ctx, actor, profile.ID, enums.UserRoleTenant, RoleData{UnitID: &unitID})
	require.NoError(t, err)
	_, err = svc.AssignRole(ctx, actor, profile.ID, enums.UserRoleUnassigned, RoleData{})
	require.NoError(t, err)
	_, err = svc.AssignRole(ctx, actor, profile.ID, enums.UserRoleTenant, RoleData{UnitID: &unitID})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Tenant{}).Where("user_id = ?", profile.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)

	var stored models.Profile
	require.NoError(t, db.First(&stored, "id = ?", profile.ID).Error)
	require.Equal(t, enums.UserRoleTenant, stored.Role)
	require.Equal(t, enums.UserTypeTenant, stored.UserType)

	var status string
	require.NoError(t, db.Raw(`SELECT status FROM units WHERE id = ?`, unitID).Scan(&status).Error)
	require.Equal(t, "occupied", status)

	require.Len(t, emitter.events, 3)
	require.Equal(t, enums.EventRoleUnassigned, emitter.events[1].EventType)
}

func TestUnassignRemovesManagerRow(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo, gormTxRunner{db: db}, &recordingEmitter{}, nil)
	require.NoError(t, err)

	profile := seedProfile(t, db, "otieno@example.com")
	actor := Actor{UserID: uuid.New(), Role: enums.UserRoleSuperAdmin}
	ctx := context.Background()

	license := "PM-2041"
	_, err = svc.AssignRole(ctx, actor, profile.ID, enums.UserRolePropertyManager, RoleData{LicenseNumber: &license})
	require.NoError(t, err)

	var managers int64
	require.NoError(t, db.Model(&models.PropertyManager{}).Where("user_id = ?", profile.ID).Count(&managers).Error)
	require.EqualValues(t, 1, managers)

	_, err = svc.AssignRole(ctx, actor, profile.ID, enums.UserRoleUnassigned, RoleData{})
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.PropertyManager{}).Where("user_id = ?", profile.ID).Count(&managers).Error)
	require.EqualValues(t, 0, managers)
}

func TestUnassignRefusedWhileAssignmentsExist(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo, gormTxRunner{db: db}, &recordingEmitter{}, nil)
	require.NoError(t, err)

	profile := seedProfile(t, db, "njeri@example.com")
	actor := Actor{UserID: uuid.New(), Role: enums.UserRoleSuperAdmin}
	ctx := context.Background()

	_, err = svc.AssignRole(ctx, actor, profile.ID, enums.UserRolePropertyManager, RoleData{})
	require.NoError(t, err)

	var manager models.PropertyManager
	require.NoError(t, db.First(&manager, "user_id = ?", profile.ID).Error)
	require.NoError(t, db.Exec(
		`INSERT INTO property_manager_assignments (id, property_id, manager_id) VALUES (?, ?, ?)`,
		uuid.New(), uuid.New(), manager.ID,
	).Error)

	_, err = svc.AssignRole(ctx, actor, profile.ID, enums.UserRoleUnassigned, RoleData{})
	require.Error(t, err)

	var managers int64
	require.NoError(t, db.Model(&models.PropertyManager{}).Where("user_id = ?", profile.ID).Count(&managers).Error)
	require.EqualValues(t, 1, managers)
}

func TestListFiltersBySearch(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)

	seedProfile(t, db, "akinyi@example.com")
	seedProfile(t, db, "baraka@example.com")

	rows, next, err := repo.List(context.Background(), pagination.Params{Limit: 10}, ListFilters{Search: "akinyi"})
	require.NoError(t, err)
	require.Nil(t, next)
	require.Len(t, rows, 1)
	require.Equal(t, "akinyi@example.com", rows[0].Email)
}
