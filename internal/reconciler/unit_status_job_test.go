package reconciler

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nyumbahq/nyumba-backend/pkg/db/models"
	"github.com/nyumbahq/nyumba-backend/pkg/enums"
	"github.com/nyumbahq/nyumba-backend/pkg/logger"
	"github.com/nyumbahq/nyumba-backend/pkg/outbox"
	"github.com/nyumbahq/nyumba-backend/pkg/outbox/payloads"
)

type stubReconcilerRepo struct {
	occupiedWithoutLease []models.Unit
	leasedNotOccupied    []models.Unit
	orphanManagers       []models.PropertyManager
	orphanTenants        []models.Tenant
	missingUnitTenants   []models.Tenant

	unitUpdates     map[uuid.UUID]enums.UnitStatus
	deletedManagers []uuid.UUID
	deletedTenants  []uuid.UUID
	clearedTenants  []uuid.UUID
}

func (s *stubReconcilerRepo) ListOccupiedWithoutLease(ctx context.Context, limit int) ([]models.Unit, error) {
	return s.occupiedWithoutLease, nil
}

func (s *stubReconcilerRepo) ListLeasedNotOccupied(ctx context.Context, limit int) ([]models.Unit, error) {
	return s.leasedNotOccupied, nil
}

func (s *stubReconcilerRepo) UpdateUnitStatusTx(tx *gorm.DB, unitID uuid.UUID, status enums.UnitStatus) error {
	if s.unitUpdates == nil {
		s.unitUpdates = map[uuid.UUID]enums.UnitStatus{}
	}
	s.unitUpdates[unitID] = status
	return nil
}

func (s *stubReconcilerRepo) ListOrphanManagerRows(ctx context.Context, limit int) ([]models.PropertyManager, error) {
	return s.orphanManagers, nil
}

func (s *stubReconcilerRepo) ListOrphanTenantRows(ctx context.Context, limit int) ([]models.Tenant, error) {
	return s.orphanTenants, nil
}

func (s *stubReconcilerRepo) DeleteManagerRowTx(tx *gorm.DB, id uuid.UUID) error {
	s.deletedManagers = append(s.deletedManagers, id)
	return nil
}

func (s *stubReconcilerRepo) DeleteTenantRowTx(tx *gorm.DB, id uuid.UUID) error {
	s.deletedTenants = append(s.deletedTenants, id)
	return nil
}

func (s *stubReconcilerRepo) ListTenantsWithMissingUnit(ctx context.Context, limit int) ([]models.Tenant, error) {
	return s.missingUnitTenants, nil
}

func (s *stubReconcilerRepo) ClearTenantUnitTx(tx *gorm.DB, tenantID uuid.UUID) error {
	s.clearedTenants = append(s.clearedTenants, tenantID)
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubEmitter struct {
	events []outbox.DomainEvent
}

func (s *stubEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubExistenceChecker struct {
	exists bool
}

func (s stubExistenceChecker) ExistsTx(tx *gorm.DB, eventType enums.OutboxEventType, aggregateType enums.OutboxAggregateType, aggregateID uuid.UUID) (bool, error) {
	return s.exists, nil
}

func newUnitStatusJob(t *testing.T, repo Repository, emitter *stubEmitter, checker stubExistenceChecker) Job {
	t.Helper()
	job, err := NewUnitStatusJob(UnitStatusJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		DB:         stubTxRunner{},
		Repository: repo,
		Outbox:     emitter,
		OutboxRepo: checker,
	})
	if err != nil {
		t.Fatalf("NewUnitStatusJob: %v", err)
	}
	return job
}

func TestUnitStatusJobVacatesUnleasedUnits(t *testing.T) {
	unit := models.Unit{ID: uuid.New(), PropertyID: uuid.New(), Status: enums.UnitStatusOccupied}
	repo := &stubReconcilerRepo{occupiedWithoutLease: []models.Unit{unit}}
	emitter := &stubEmitter{}
	job := newUnitStatusJob(t, repo, emitter, stubExistenceChecker{})

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if repo.unitUpdates[unit.ID] != enums.UnitStatusVacant {
		t.Fatalf("expected unit set vacant, got %s", repo.unitUpdates[unit.ID])
	}
	if len(emitter.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(emitter.events))
	}
	payload, ok := emitter.events[0].Data.(payloads.UnitStatusChangedEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", emitter.events[0].Data)
	}
	if payload.To != enums.UnitStatusVacant || payload.Reason != "no_active_lease" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestUnitStatusJobOccupiesLeasedUnits(t *testing.T) {
	unit := models.Unit{ID: uuid.New(), PropertyID: uuid.New(), Status: enums.UnitStatusVacant}
	repo := &stubReconcilerRepo{leasedNotOccupied: []models.Unit{unit}}
	emitter := &stubEmitter{}
	job := newUnitStatusJob(t, repo, emitter, stubExistenceChecker{})

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if repo.unitUpdates[unit.ID] != enums.UnitStatusOccupied {
		t.Fatalf("expected unit set occupied, got %s", repo.unitUpdates[unit.ID])
	}
}

func TestUnitStatusJobSkipsEventWhenOnePending(t *testing.T) {
	unit := models.Unit{ID: uuid.New(), PropertyID: uuid.New(), Status: enums.UnitStatusOccupied}
	repo := &stubReconcilerRepo{occupiedWithoutLease: []models.Unit{unit}}
	emitter := &stubEmitter{}
	job := newUnitStatusJob(t, repo, emitter, stubExistenceChecker{exists: true})

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if repo.unitUpdates[unit.ID] != enums.UnitStatusVacant {
		t.Fatalf("status fix must still apply, got %s", repo.unitUpdates[unit.ID])
	}
	if len(emitter.events) != 0 {
		t.Fatalf("expected no duplicate event, got %d", len(emitter.events))
	}
}

func TestUnitStatusJobNoDriftNoWrites(t *testing.T) {
	repo := &stubReconcilerRepo{}
	emitter := &stubEmitter{}
	job := newUnitStatusJob(t, repo, emitter, stubExistenceChecker{})

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(repo.unitUpdates) != 0 || len(emitter.events) != 0 {
		t.Fatalf("expected no writes on a converged database")
	}
}
