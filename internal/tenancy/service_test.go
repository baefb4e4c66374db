package tenancy

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nyumbahq/nyumba-backend/pkg/db/models"
	"github.com/nyumbahq/nyumba-backend/pkg/enums"
	pkgerrors "github.com/nyumbahq/nyumba-backend/pkg/errors"
	"github.com/nyumbahq/nyumba-backend/pkg/outbox"
)

type stubTenancyRepo struct {
	unit        *models.Unit
	unitErr     error
	lease       *models.Lease
	leaseErr    error
	tenant      *models.Tenant
	tenantErr   error
	createdT    *models.Tenant
	updatedT    *models.Tenant
	createdL    *models.Lease
	updatedL    *models.Lease
	unitStatus  *enums.UnitStatus
	createLErr  error
}

func (s *stubTenancyRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubTenancyRepo) FindUnit(ctx context.Context, unitID uuid.UUID) (*models.Unit, error) {
	return s.unit, s.unitErr
}

func (s *stubTenancyRepo) FindActiveLeaseByUnit(ctx context.Context, unitID uuid.UUID) (*models.Lease, error) {
	if s.lease == nil {
		if s.leaseErr != nil {
			return nil, s.leaseErr
		}
		return nil, gorm.ErrRecordNotFound
	}
	return s.lease, nil
}

func (s *stubTenancyRepo) FindTenantByUserID(ctx context.Context, userID uuid.UUID) (*models.Tenant, error) {
	if s.tenant == nil {
		if s.tenantErr != nil {
			return nil, s.tenantErr
		}
		return nil, gorm.ErrRecordNotFound
	}
	return s.tenant, nil
}

func (s *stubTenancyRepo) FindTenantByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	if s.tenant == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.tenant, nil
}

func (s *stubTenancyRepo) CreateTenant(ctx context.Context, tenant *models.Tenant) error {
	s.createdT = tenant
	return nil
}

func (s *stubTenancyRepo) UpdateTenant(ctx context.Context, tenant *models.Tenant) error {
	s.updatedT = tenant
	return nil
}

func (s *stubTenancyRepo) CreateLease(ctx context.Context, lease *models.Lease) error {
	if s.createLErr != nil {
		return s.createLErr
	}
	s.createdL = lease
	return nil
}

func (s *stubTenancyRepo) UpdateLease(ctx context.Context, lease *models.Lease) error {
	s.updatedL = lease
	return nil
}

func (s *stubTenancyRepo) UpdateUnitStatus(ctx context.Context, unitID uuid.UUID, status enums.UnitStatus) error {
	s.unitStatus = &status
	return nil
}

type stubProfileFinder struct {
	profile *models.Profile
	err     error
}

func (s *stubProfileFinder) FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.profile == nil {
		return &models.Profile{ID: id, Role: enums.UserRoleTenant}, nil
	}
	return s.profile, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOutboxEmitter struct {
	called bool
	event  outbox.DomainEvent
	err    error
}

func (s *stubOutboxEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if s.err != nil {
		return s.err
	}
	s.called = true
	s.event = event
	return nil
}

func price(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func vacantUnit() *models.Unit {
	return &models.Unit{
		ID:         uuid.New(),
		PropertyID: uuid.New(),
		UnitNumber: "A-1",
		Status:     enums.UnitStatusVacant,
		Price:      price(10000),
	}
}

func actor() Actor {
	return Actor{UserID: uuid.New(), Role: enums.UserRoleSuperAdmin}
}

func newTestService(repo *stubTenancyRepo, emitter *stubOutboxEmitter) Service {
	svc, err := NewService(repo, &stubProfileFinder{}, stubTxRunner{}, emitter, nil)
	if err != nil {
		panic(err)
	}
	return svc
}

func TestAssignTenantCreatesLeaseAndOccupiesUnit(t *testing.T) {
	repo := &stubTenancyRepo{unit: vacantUnit()}
	emitter := &stubOutboxEmitter{}
	svc := newTestService(repo, emitter)

	dto, err := svc.AssignTenant(context.Background(), actor(), repo.unit.ID, uuid.New(), AssignOptions{})
	if err != nil {
		t.Fatalf("assign tenant: %v", err)
	}
	if repo.createdT == nil {
		t.Fatal("expected tenant row created")
	}
	if repo.createdL == nil {
		t.Fatal("expected lease created")
	}
	if !repo.createdL.RentAmount.Equal(decimal.NewFromInt(10000)) {
		t.Fatalf("expected rent defaulted from unit price, got %s", repo.createdL.RentAmount)
	}
	if repo.unitStatus == nil || *repo.unitStatus != enums.UnitStatusOccupied {
		t.Fatalf("expected unit marked occupied, got %v", repo.unitStatus)
	}
	if dto.Reassigned {
		t.Fatal("expected fresh assignment")
	}
	if emitter.event.EventType != enums.EventTenancyAssigned {
		t.Fatalf("unexpected event type %s", emitter.event.EventType)
	}
}

func TestAssignTenantHandoverKeepsUnitStatus(t *testing.T) {
	unit := vacantUnit()
	unit.Status = enums.UnitStatusOccupied
	sittingLease := &models.Lease{
		ID:         uuid.New(),
		UnitID:     unit.ID,
		TenantID:   uuid.New(),
		RentAmount: decimal.NewFromInt(10000),
		Status:     enums.LeaseStatusActive,
	}
	repo := &stubTenancyRepo{unit: unit, lease: sittingLease}
	emitter := &stubOutboxEmitter{}
	svc := newTestService(repo, emitter)

	dto, err := svc.AssignTenant(context.Background(), actor(), unit.ID, uuid.New(), AssignOptions{})
	if err != nil {
		t.Fatalf("assign tenant: %v", err)
	}
	if !dto.Reassigned {
		t.Fatal("expected reassignment")
	}
	if repo.updatedL == nil || repo.updatedL.TenantID != repo.createdT.ID {
		t.Fatal("expected sitting lease moved to new tenant")
	}
	if repo.createdL != nil {
		t.Fatal("expected no new lease")
	}
	if repo.unitStatus != nil {
		t.Fatal("expected unit status untouched on handover")
	}
	if emitter.event.EventType != enums.EventTenancyReassigned {
		t.Fatalf("unexpected event type %s", emitter.event.EventType)
	}
}

func TestAssignTenantRefusedWhenTenantElsewhere(t *testing.T) {
	unit := vacantUnit()
	otherProperty := uuid.New()
	repo := &stubTenancyRepo{
		unit: unit,
		tenant: &models.Tenant{
			ID:         uuid.New(),
			UserID:     uuid.New(),
			PropertyID: &otherProperty,
			Status:     enums.TenantStatusActive,
		},
	}
	svc := newTestService(repo, &stubOutboxEmitter{})

	_, gotErr := svc.AssignTenant(context.Background(), actor(), unit.ID, repo.tenant.UserID, AssignOptions{})
	if typed := pkgerrors.As(gotErr); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", gotErr)
	}
	if repo.createdL != nil || repo.unitStatus != nil {
		t.Fatal("expected no mutation on conflict")
	}
}

func TestAssignTenantUnitNotFound(t *testing.T) {
	repo := &stubTenancyRepo{unitErr: gorm.ErrRecordNotFound}
	svc := newTestService(repo, &stubOutboxEmitter{})

	_, gotErr := svc.AssignTenant(context.Background(), actor(), uuid.New(), uuid.New(), AssignOptions{})
	if typed := pkgerrors.As(gotErr); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", gotErr)
	}
}

func TestAssignTenantLeaseFailureAborts(t *testing.T) {
	repo := &stubTenancyRepo{unit: vacantUnit(), createLErr: errors.New("boom")}
	emitter := &stubOutboxEmitter{}
	svc := newTestService(repo, emitter)

	_, gotErr := svc.AssignTenant(context.Background(), actor(), repo.unit.ID, uuid.New(), AssignOptions{})
	if gotErr == nil {
		t.Fatal("expected error")
	}
	if repo.unitStatus != nil {
		t.Fatal("expected no unit status change after lease failure")
	}
	if emitter.called {
		t.Fatal("expected no event after lease failure")
	}
}

func TestVacateWithoutActiveLease(t *testing.T) {
	repo := &stubTenancyRepo{unit: vacantUnit()}
	svc := newTestService(repo, &stubOutboxEmitter{})

	gotErr := svc.VacateUnit(context.Background(), actor(), repo.unit.ID)
	if typed := pkgerrors.As(gotErr); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", gotErr)
	}
}

func TestVacateTerminatesLeaseAndFreesUnit(t *testing.T) {
	unit := vacantUnit()
	unit.Status = enums.UnitStatusOccupied
	tenant := &models.Tenant{ID: uuid.New(), UserID: uuid.New(), UnitID: &unit.ID, Status: enums.TenantStatusActive}
	lease := &models.Lease{
		ID:       uuid.New(),
		UnitID:   unit.ID,
		TenantID: tenant.ID,
		Status:   enums.LeaseStatusActive,
	}
	repo := &stubTenancyRepo{unit: unit, lease: lease, tenant: tenant}
	emitter := &stubOutboxEmitter{}
	svc := newTestService(repo, emitter)

	if err := svc.VacateUnit(context.Background(), actor(), unit.ID); err != nil {
		t.Fatalf("vacate unit: %v", err)
	}
	if repo.updatedL == nil || repo.updatedL.Status != enums.LeaseStatusTerminated {
		t.Fatal("expected lease terminated")
	}
	if repo.updatedT == nil || repo.updatedT.Status != enums.TenantStatusFormer {
		t.Fatal("expected tenant marked former")
	}
	if repo.unitStatus == nil || *repo.unitStatus != enums.UnitStatusVacant {
		t.Fatal("expected unit marked vacant")
	}
	if emitter.event.EventType != enums.EventTenancyVacated {
		t.Fatalf("unexpected event type %s", emitter.event.EventType)
	}
}
