package reconciler

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/nyumbahq/nyumba-backend/pkg/logger"
)

// RoleIntegrityJobName identifies the auxiliary row sweep in the registry.
const RoleIntegrityJobName = "role-integrity"

// RoleIntegrityJobParams configure the auxiliary row sweep.
type RoleIntegrityJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository Repository
	BatchSize  int
}

// NewRoleIntegrityJob builds the sweep that removes auxiliary rows whose
// profile no longer carries the matching role and detaches tenants that
// still point at deleted units.
func NewRoleIntegrityJob(params RoleIntegrityJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("reconciler repository required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultSweepBatch
	}
	return &roleIntegrityJob{
		logg:  params.Logger,
		db:    params.DB,
		repo:  params.Repository,
		batch: batch,
	}, nil
}

type roleIntegrityJob struct {
	logg  *logger.Logger
	db    txRunner
	repo  Repository
	batch int
}

func (j *roleIntegrityJob) Name() string { return RoleIntegrityJobName }

func (j *roleIntegrityJob) Run(ctx context.Context) error {
	var errs []error
	if err := j.removeOrphanManagers(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := j.removeOrphanTenants(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := j.detachMissingUnits(ctx); err != nil {
		errs = append(errs, err)
	}
	return multierr.Combine(errs...)
}

func (j *roleIntegrityJob) removeOrphanManagers(ctx context.Context) error {
	rows, err := j.repo.ListOrphanManagerRows(ctx, j.batch)
	if err != nil {
		return fmt.Errorf("list orphan manager rows: %w", err)
	}
	var errs []error
	removed := 0
	for _, row := range rows {
		err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
			return j.repo.DeleteManagerRowTx(tx, row.ID)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("delete manager row %s: %w", row.ID, err))
			continue
		}
		removed++
	}
	if removed > 0 {
		logCtx := j.logg.WithFields(ctx, map[string]any{"manager_rows_removed": removed})
		j.logg.Info(logCtx, "orphan manager rows removed")
	}
	return multierr.Combine(errs...)
}

func (j *roleIntegrityJob) removeOrphanTenants(ctx context.Context) error {
	rows, err := j.repo.ListOrphanTenantRows(ctx, j.batch)
	if err != nil {
		return fmt.Errorf("list orphan tenant rows: %w", err)
	}
	var errs []error
	removed := 0
	for _, row := range rows {
		err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
			return j.repo.DeleteTenantRowTx(tx, row.ID)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("delete tenant row %s: %w", row.ID, err))
			continue
		}
		removed++
	}
	if removed > 0 {
		logCtx := j.logg.WithFields(ctx, map[string]any{"tenant_rows_removed": removed})
		j.logg.Info(logCtx, "orphan tenant rows removed")
	}
	return multierr.Combine(errs...)
}

func (j *roleIntegrityJob) detachMissingUnits(ctx context.Context) error {
	rows, err := j.repo.ListTenantsWithMissingUnit(ctx, j.batch)
	if err != nil {
		return fmt.Errorf("list tenants with missing unit: %w", err)
	}
	var errs []error
	detached := 0
	for _, row := range rows {
		err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
			return j.repo.ClearTenantUnitTx(tx, row.ID)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("detach tenant %s: %w", row.ID, err))
			continue
		}
		detached++
	}
	if detached > 0 {
		logCtx := j.logg.WithFields(ctx, map[string]any{"tenants_detached": detached})
		j.logg.Info(logCtx, "tenants detached from deleted units")
	}
	return multierr.Combine(errs...)
}
