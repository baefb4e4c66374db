package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nyumbahq/nyumba-backend/pkg/db/models"
	"github.com/nyumbahq/nyumba-backend/pkg/enums"
	pkgerrors "github.com/nyumbahq/nyumba-backend/pkg/errors"
	"github.com/nyumbahq/nyumba-backend/pkg/outbox"
	"github.com/nyumbahq/nyumba-backend/pkg/pagination"
)

type stubUserRepo struct {
	profile       *models.Profile
	profileErr    error
	manager       *models.PropertyManager
	tenant        *models.Tenant
	assignments   int64
	savedProfile  *models.Profile
	savedManager  *models.PropertyManager
	savedTenant   *models.Tenant
	deletedMgr    int64
	deletedTenant int64
	mgrDeletes    int
	tenantDeletes int
	unitStatuses  map[uuid.UUID]enums.UnitStatus
}

func (s *stubUserRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubUserRepo) CreateProfile(ctx context.Context, p *models.Profile) error { return nil }

func (s *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	if s.profileErr != nil {
		return nil, s.profileErr
	}
	if s.profile == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.profile, nil
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.Profile, error) {
	return s.FindByID(ctx, uuid.Nil)
}

func (s *stubUserRepo) List(ctx context.Context, params pagination.Params, filters ListFilters) ([]models.Profile, *string, error) {
	if s.profile == nil {
		return nil, nil, nil
	}
	return []models.Profile{*s.profile}, nil, nil
}

func (s *stubUserRepo) UpdateProfile(ctx context.Context, p *models.Profile) error {
	s.savedProfile = p
	return nil
}

func (s *stubUserRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return nil
}

func (s *stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID) error { return nil }

func (s *stubUserRepo) FindManagerByUserID(ctx context.Context, userID uuid.UUID) (*models.PropertyManager, error) {
	if s.manager == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.manager, nil
}

func (s *stubUserRepo) UpsertManager(ctx context.Context, m *models.PropertyManager) error {
	s.savedManager = m
	return nil
}

func (s *stubUserRepo) DeleteManagerByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	s.mgrDeletes++
	return s.deletedMgr, nil
}

func (s *stubUserRepo) CountManagerAssignments(ctx context.Context, managerID uuid.UUID) (int64, error) {
	return s.assignments, nil
}

func (s *stubUserRepo) FindTenantByUserID(ctx context.Context, userID uuid.UUID) (*models.Tenant, error) {
	if s.tenant == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.tenant, nil
}

func (s *stubUserRepo) SaveTenant(ctx context.Context, t *models.Tenant) error {
	s.savedTenant = t
	return nil
}

func (s *stubUserRepo) DeleteTenantByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	s.tenantDeletes++
	return s.deletedTenant, nil
}

func (s *stubUserRepo) UpdateUnitStatus(ctx context.Context, unitID uuid.UUID, status enums.UnitStatus) error {
	if s.unitStatuses == nil {
		s.unitStatuses = map[uuid.UUID]enums.UnitStatus{}
	}
	s.unitStatuses[unitID] = status
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOutboxEmitter struct {
	events []outbox.DomainEvent
}

func (s *stubOutboxEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

func newTestService(t *testing.T, repo *stubUserRepo) (Service, *stubOutboxEmitter) {
	t.Helper()
	emitter := &stubOutboxEmitter{}
	svc, err := NewService(repo, stubTxRunner{}, emitter, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, emitter
}

func activeProfile(role enums.UserRole) *models.Profile {
	return &models.Profile{
		ID:        uuid.New(),
		Email:     "amina@example.com",
		FirstName: "Amina",
		LastName:  "Otieno",
		Role:      role,
		UserType:  DeriveUserType(role),
		Status:    enums.UserStatusActive,
	}
}

func TestAssignRoleRejectsUnknownRole(t *testing.T) {
	svc, _ := newTestService(t, &stubUserRepo{})

	_, err := svc.AssignRole(context.Background(), Actor{}, uuid.New(), enums.UserRole("landlord"), RoleData{})
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", code)
	}
}

func TestAssignRoleDerivesUserType(t *testing.T) {
	repo := &stubUserRepo{profile: activeProfile(enums.UserRoleUnassigned)}
	svc, emitter := newTestService(t, repo)

	years := 4
	_, err := svc.AssignRole(context.Background(), Actor{UserID: uuid.New(), Role: enums.UserRoleSuperAdmin},
		repo.profile.ID, enums.UserRolePropertyManager, RoleData{ExperienceYears: &years})
	if err != nil {
		t.Fatalf("AssignRole: %v", err)
	}

	if repo.savedProfile.UserType != enums.UserTypePropertyManager {
		t.Errorf("user_type = %s, want property_manager", repo.savedProfile.UserType)
	}
	if repo.savedManager == nil || repo.savedManager.ExperienceYears != 4 {
		t.Fatalf("manager row not upserted: %+v", repo.savedManager)
	}
	if repo.savedManager.Specializations == nil {
		t.Error("specializations should default to empty, not nil")
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventRoleAssigned {
		t.Fatalf("expected one role_assigned event, got %+v", emitter.events)
	}
}

func TestAssignRoleTenantSwapsUnits(t *testing.T) {
	oldUnit := uuid.New()
	newUnit := uuid.New()
	repo := &stubUserRepo{
		profile: activeProfile(enums.UserRoleTenant),
		tenant: &models.Tenant{
			ID:     uuid.New(),
			UserID: uuid.New(),
			UnitID: &oldUnit,
			Status: enums.TenantStatusActive,
		},
	}
	svc, _ := newTestService(t, repo)

	_, err := svc.AssignRole(context.Background(), Actor{UserID: uuid.New(), Role: enums.UserRoleSuperAdmin},
		repo.profile.ID, enums.UserRoleTenant, RoleData{UnitID: &newUnit})
	if err != nil {
		t.Fatalf("AssignRole: %v", err)
	}

	if repo.unitStatuses[oldUnit] != enums.UnitStatusVacant {
		t.Errorf("old unit should be freed, got %s", repo.unitStatuses[oldUnit])
	}
	if repo.unitStatuses[newUnit] != enums.UnitStatusOccupied {
		t.Errorf("new unit should be occupied, got %s", repo.unitStatuses[newUnit])
	}
	if repo.savedTenant == nil || repo.savedTenant.UnitID == nil || *repo.savedTenant.UnitID != newUnit {
		t.Fatalf("tenant row should point at the new unit: %+v", repo.savedTenant)
	}
}

func TestAssignRoleUnassignedRefusedWhileManagerAssigned(t *testing.T) {
	repo := &stubUserRepo{
		profile:     activeProfile(enums.UserRolePropertyManager),
		manager:     &models.PropertyManager{ID: uuid.New()},
		assignments: 2,
	}
	svc, emitter := newTestService(t, repo)

	_, err := svc.AssignRole(context.Background(), Actor{UserID: uuid.New(), Role: enums.UserRoleSuperAdmin},
		repo.profile.ID, enums.UserRoleUnassigned, RoleData{})
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT, got %v", code)
	}
	if repo.mgrDeletes != 0 || repo.tenantDeletes != 0 {
		t.Error("no auxiliary rows may be deleted on refusal")
	}
	if len(emitter.events) != 0 {
		t.Error("no event may be emitted on refusal")
	}
}

func TestAssignRoleUnassignedRemovesAuxRows(t *testing.T) {
	repo := &stubUserRepo{
		profile:       activeProfile(enums.UserRoleTenant),
		deletedTenant: 1,
	}
	svc, emitter := newTestService(t, repo)

	_, err := svc.AssignRole(context.Background(), Actor{UserID: uuid.New(), Role: enums.UserRoleSuperAdmin},
		repo.profile.ID, enums.UserRoleUnassigned, RoleData{})
	if err != nil {
		t.Fatalf("AssignRole: %v", err)
	}

	if repo.mgrDeletes != 1 || repo.tenantDeletes != 1 {
		t.Fatalf("both aux tables should be cleared, got mgr=%d tenant=%d", repo.mgrDeletes, repo.tenantDeletes)
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventRoleUnassigned {
		t.Fatalf("expected one role_unassigned event, got %+v", emitter.events)
	}
}

func TestSuspendUserRetiresTenantRow(t *testing.T) {
	repo := &stubUserRepo{
		profile: activeProfile(enums.UserRoleTenant),
		tenant: &models.Tenant{
			ID:     uuid.New(),
			Status: enums.TenantStatusActive,
		},
	}
	svc, emitter := newTestService(t, repo)

	dto, err := svc.SuspendUser(context.Background(), Actor{UserID: uuid.New(), Role: enums.UserRoleSuperAdmin}, repo.profile.ID)
	if err != nil {
		t.Fatalf("SuspendUser: %v", err)
	}

	if dto.Status != enums.UserStatusSuspended {
		t.Errorf("status = %s, want suspended", dto.Status)
	}
	if repo.savedTenant == nil || repo.savedTenant.Status != enums.TenantStatusFormer {
		t.Fatalf("tenant row should be retired: %+v", repo.savedTenant)
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventUserSuspended {
		t.Fatalf("expected one user_suspended event, got %+v", emitter.events)
	}
}

func TestSuspendUserAlreadySuspended(t *testing.T) {
	profile := activeProfile(enums.UserRoleTenant)
	profile.Status = enums.UserStatusSuspended
	svc, _ := newTestService(t, &stubUserRepo{profile: profile})

	_, err := svc.SuspendUser(context.Background(), Actor{}, profile.ID)
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT, got %v", code)
	}
}

func TestUpdateUserRejectsBlankName(t *testing.T) {
	repo := &stubUserRepo{profile: activeProfile(enums.UserRoleTenant)}
	svc, _ := newTestService(t, repo)

	blank := "  "
	_, err := svc.UpdateUser(context.Background(), Actor{}, repo.profile.ID, UpdateUserInput{FirstName: &blank})
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", code)
	}
}
