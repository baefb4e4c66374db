package reconciler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/nyumbahq/nyumba-backend/pkg/db/models"
	"github.com/nyumbahq/nyumba-backend/pkg/enums"
	"github.com/nyumbahq/nyumba-backend/pkg/logger"
	"github.com/nyumbahq/nyumba-backend/pkg/outbox"
	"github.com/nyumbahq/nyumba-backend/pkg/outbox/payloads"
)

// UnitStatusJobName identifies the unit status sweep in the registry.
const UnitStatusJobName = "unit-status"

const defaultSweepBatch = 100

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type outboxExistenceChecker interface {
	ExistsTx(tx *gorm.DB, eventType enums.OutboxEventType, aggregateType enums.OutboxAggregateType, aggregateID uuid.UUID) (bool, error)
}

// UnitStatusJobParams configure the unit status sweep.
type UnitStatusJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository Repository
	Outbox     outboxEmitter
	OutboxRepo outboxExistenceChecker
	BatchSize  int
}

// NewUnitStatusJob builds the sweep that reconciles unit statuses against
// their leases. Units marked occupied with no active lease go vacant; units
// carrying an active lease but still marked vacant or booked go occupied.
// Units in maintenance are left alone so blocking requests keep control.
func NewUnitStatusJob(params UnitStatusJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("reconciler repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if params.OutboxRepo == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultSweepBatch
	}
	return &unitStatusJob{
		logg:       params.Logger,
		db:         params.DB,
		repo:       params.Repository,
		outbox:     params.Outbox,
		outboxRepo: params.OutboxRepo,
		batch:      batch,
		now:        time.Now,
	}, nil
}

type unitStatusJob struct {
	logg       *logger.Logger
	db         txRunner
	repo       Repository
	outbox     outboxEmitter
	outboxRepo outboxExistenceChecker
	batch      int
	now        func() time.Time
}

func (j *unitStatusJob) Name() string { return UnitStatusJobName }

func (j *unitStatusJob) Run(ctx context.Context) error {
	var errs []error
	if err := j.vacateUnleased(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := j.occupyLeased(ctx); err != nil {
		errs = append(errs, err)
	}
	return multierr.Combine(errs...)
}

func (j *unitStatusJob) vacateUnleased(ctx context.Context) error {
	units, err := j.repo.ListOccupiedWithoutLease(ctx, j.batch)
	if err != nil {
		return fmt.Errorf("list occupied without lease: %w", err)
	}
	var errs []error
	fixed := 0
	for _, unit := range units {
		if err := j.fixUnit(ctx, unit, enums.UnitStatusVacant, "no_active_lease"); err != nil {
			errs = append(errs, err)
			continue
		}
		fixed++
	}
	if fixed > 0 {
		logCtx := j.logg.WithFields(ctx, map[string]any{"units_vacated": fixed})
		j.logg.Info(logCtx, "occupied units without a lease set vacant")
	}
	return multierr.Combine(errs...)
}

func (j *unitStatusJob) occupyLeased(ctx context.Context) error {
	units, err := j.repo.ListLeasedNotOccupied(ctx, j.batch)
	if err != nil {
		return fmt.Errorf("list leased not occupied: %w", err)
	}
	var errs []error
	fixed := 0
	for _, unit := range units {
		if err := j.fixUnit(ctx, unit, enums.UnitStatusOccupied, "active_lease_present"); err != nil {
			errs = append(errs, err)
			continue
		}
		fixed++
	}
	if fixed > 0 {
		logCtx := j.logg.WithFields(ctx, map[string]any{"units_occupied": fixed})
		j.logg.Info(logCtx, "leased units set occupied")
	}
	return multierr.Combine(errs...)
}

func (j *unitStatusJob) fixUnit(ctx context.Context, unit models.Unit, status enums.UnitStatus, reason string) error {
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := j.repo.UpdateUnitStatusTx(tx, unit.ID, status); err != nil {
			return fmt.Errorf("update unit %s: %w", unit.ID, err)
		}
		exists, err := j.outboxRepo.ExistsTx(tx, enums.EventUnitStatusChanged, enums.AggregateUnit, unit.ID)
		if err != nil {
			return fmt.Errorf("check pending events for unit %s: %w", unit.ID, err)
		}
		if exists {
			return nil
		}
		return j.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventUnitStatusChanged,
			AggregateType: enums.AggregateUnit,
			AggregateID:   unit.ID,
			Version:       1,
			Data: payloads.UnitStatusChangedEvent{
				UnitID:     unit.ID,
				PropertyID: unit.PropertyID,
				From:       unit.Status,
				To:         status,
				Reason:     reason,
			},
		})
	})
}
