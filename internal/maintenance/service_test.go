package maintenance

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nyumbahq/nyumba-backend/pkg/db/models"
	"github.com/nyumbahq/nyumba-backend/pkg/enums"
	pkgerrors "github.com/nyumbahq/nyumba-backend/pkg/errors"
	"github.com/nyumbahq/nyumba-backend/pkg/outbox"
	"github.com/nyumbahq/nyumba-backend/pkg/outbox/payloads"
	"github.com/nyumbahq/nyumba-backend/pkg/pagination"
)

type stubMaintRepo struct {
	request      *models.MaintenanceRequest
	created      *models.MaintenanceRequest
	updated      *models.MaintenanceRequest
	blockingOpen int64
	leased       bool
	deleted      int64
	unitStatuses map[uuid.UUID]enums.UnitStatus
}

func (s *stubMaintRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubMaintRepo) Create(ctx context.Context, r *models.MaintenanceRequest) error {
	s.created = r
	return nil
}

func (s *stubMaintRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.MaintenanceRequest, error) {
	if s.request == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.request, nil
}

func (s *stubMaintRepo) List(ctx context.Context, params pagination.Params, filters ListFilters) ([]models.MaintenanceRequest, *string, error) {
	if s.request == nil {
		return nil, nil, nil
	}
	return []models.MaintenanceRequest{*s.request}, nil, nil
}

func (s *stubMaintRepo) Update(ctx context.Context, r *models.MaintenanceRequest) error {
	s.updated = r
	return nil
}

func (s *stubMaintRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	return s.deleted, nil
}

func (s *stubMaintRepo) CountBlockingOpenForUnit(ctx context.Context, unitID, excludeID uuid.UUID) (int64, error) {
	return s.blockingOpen, nil
}

func (s *stubMaintRepo) UpdateUnitStatus(ctx context.Context, unitID uuid.UUID, status enums.UnitStatus) error {
	if s.unitStatuses == nil {
		s.unitStatuses = map[uuid.UUID]enums.UnitStatus{}
	}
	s.unitStatuses[unitID] = status
	return nil
}

func (s *stubMaintRepo) UnitHasActiveLease(ctx context.Context, unitID uuid.UUID) (bool, error) {
	return s.leased, nil
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

func newTestService(t *testing.T, repo *stubMaintRepo) (Service, *stubOutboxEmitter) {
	t.Helper()
	emitter := &stubOutboxEmitter{}
	svc, err := NewService(repo, stubTxRunner{}, emitter, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, emitter
}

func openTicket(blocking bool) *models.MaintenanceRequest {
	unitID := uuid.New()
	return &models.MaintenanceRequest{
		ID:         uuid.New(),
		PropertyID: uuid.New(),
		UnitID:     &unitID,
		Title:      "Burst pipe in kitchen",
		Priority:   enums.MaintenancePriorityHigh,
		Status:     enums.MaintenanceStatusOpen,
		Blocking:   blocking,
	}
}

func TestCreateBlockingFlipsUnitToMaintenance(t *testing.T) {
	repo := &stubMaintRepo{}
	svc, emitter := newTestService(t, repo)

	unitID := uuid.New()
	dto, err := svc.Create(context.Background(), Actor{UserID: uuid.New()}, CreateRequestInput{
		PropertyID: uuid.New(),
		UnitID:     &unitID,
		Title:      "Ceiling collapse",
		Blocking:   true,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if dto.Priority != enums.MaintenancePriorityMedium {
		t.Errorf("priority should default to medium, got %s", dto.Priority)
	}
	if repo.unitStatuses[unitID] != enums.UnitStatusMaintenance {
		t.Errorf("unit status = %s, want maintenance", repo.unitStatuses[unitID])
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventUnitStatusChanged {
		t.Fatalf("expected one unit status event, got %+v", emitter.events)
	}
}

func TestCreateBlockingWithoutUnitRejected(t *testing.T) {
	svc, _ := newTestService(t, &stubMaintRepo{})

	_, err := svc.Create(context.Background(), Actor{}, CreateRequestInput{
		PropertyID: uuid.New(),
		Title:      "Gate repair",
		Blocking:   true,
	})
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", code)
	}
}

func TestUpdateStatusEnforcesTransitions(t *testing.T) {
	repo := &stubMaintRepo{request: openTicket(false)}
	repo.request.Status = enums.MaintenanceStatusResolved
	svc, _ := newTestService(t, repo)

	_, err := svc.UpdateStatus(context.Background(), Actor{}, repo.request.ID, enums.MaintenanceStatusInProgress)
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT, got %v", code)
	}
}

func TestResolveLastBlockingRestoresOccupiedUnit(t *testing.T) {
	repo := &stubMaintRepo{request: openTicket(true), blockingOpen: 0, leased: true}
	svc, emitter := newTestService(t, repo)

	dto, err := svc.UpdateStatus(context.Background(), Actor{UserID: uuid.New()}, repo.request.ID, enums.MaintenanceStatusResolved)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	if dto.ResolvedAt == nil {
		t.Error("resolved_at should be stamped")
	}
	if repo.unitStatuses[*repo.request.UnitID] != enums.UnitStatusOccupied {
		t.Errorf("leased unit should return to occupied, got %s", repo.unitStatuses[*repo.request.UnitID])
	}
	if len(emitter.events) != 1 {
		t.Fatalf("expected one event, got %d", len(emitter.events))
	}
	data := emitter.events[0].Data.(payloads.UnitStatusChangedEvent)
	if data.To != enums.UnitStatusOccupied {
		t.Errorf("event target status = %s", data.To)
	}
}

func TestResolveKeepsUnitWhileOtherBlockingOpen(t *testing.T) {
	repo := &stubMaintRepo{request: openTicket(true), blockingOpen: 1}
	svc, emitter := newTestService(t, repo)

	_, err := svc.UpdateStatus(context.Background(), Actor{}, repo.request.ID, enums.MaintenanceStatusResolved)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if len(repo.unitStatuses) != 0 {
		t.Error("unit must stay in maintenance while other blocking tickets are open")
	}
	if len(emitter.events) != 0 {
		t.Error("no status event while the unit stays put")
	}
}

func TestResolveUnleasedUnitGoesVacant(t *testing.T) {
	repo := &stubMaintRepo{request: openTicket(true), leased: false}
	svc, _ := newTestService(t, repo)

	_, err := svc.UpdateStatus(context.Background(), Actor{}, repo.request.ID, enums.MaintenanceStatusResolved)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if repo.unitStatuses[*repo.request.UnitID] != enums.UnitStatusVacant {
		t.Errorf("unleased unit should go vacant, got %s", repo.unitStatuses[*repo.request.UnitID])
	}
}

func TestDeleteOpenBlockingRefused(t *testing.T) {
	repo := &stubMaintRepo{request: openTicket(true), deleted: 1}
	svc, _ := newTestService(t, repo)

	err := svc.Delete(context.Background(), Actor{}, repo.request.ID)
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT, got %v", code)
	}
}

func TestUpdateClosedTicketRefused(t *testing.T) {
	repo := &stubMaintRepo{request: openTicket(false)}
	repo.request.Status = enums.MaintenanceStatusClosed
	svc, _ := newTestService(t, repo)

	title := "New title"
	_, err := svc.Update(context.Background(), Actor{}, repo.request.ID, UpdateRequestInput{Title: &title})
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT, got %v", code)
	}
}
