package tenancy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nyumbahq/nyumba-backend/internal/audit"
	dbpkg "github.com/nyumbahq/nyumba-backend/pkg/db"
	"github.com/nyumbahq/nyumba-backend/pkg/db/models"
	"github.com/nyumbahq/nyumba-backend/pkg/enums"
	pkgerrors "github.com/nyumbahq/nyumba-backend/pkg/errors"
	"github.com/nyumbahq/nyumba-backend/pkg/outbox"
	"github.com/nyumbahq/nyumba-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type profileFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

// Actor identifies the authenticated caller.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// Service exposes the tenancy workflow.
type Service interface {
	AssignTenant(ctx context.Context, actor Actor, unitID, userID uuid.UUID, opts AssignOptions) (*TenancyDTO, error)
	VacateUnit(ctx context.Context, actor Actor, unitID uuid.UUID) error
}

type service struct {
	repo     Repository
	profiles profileFinder
	tx       txRunner
	outbox   outboxEmitter
	audits   audit.Recorder
}

// NewService builds a tenancy service. The audit recorder is optional.
func NewService(repo Repository, profiles profileFinder, tx txRunner, ob outboxEmitter, audits audit.Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tenancy repository required")
	}
	if profiles == nil {
		return nil, fmt.Errorf("profile finder required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{repo: repo, profiles: profiles, tx: tx, outbox: ob, audits: audits}, nil
}

// AssignTenant places a user into a unit. The whole workflow runs in one
// transaction: tenant upsert, lease insert or handover, unit status and the
// outbox event either all commit or none do.
func (s *service) AssignTenant(ctx context.Context, actor Actor, unitID, userID uuid.UUID, opts AssignOptions) (*TenancyDTO, error) {
	if unitID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit id required")
	}
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if opts.RentAmount != nil && opts.RentAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rent amount cannot be negative")
	}

	unit, err := s.repo.FindUnit(ctx, unitID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unit not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load unit")
	}

	if _, err := s.profiles.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	existing, err := s.repo.FindTenantByUserID(ctx, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tenant record")
	}
	if existing != nil && existing.Status == enums.TenantStatusActive &&
		existing.PropertyID != nil && *existing.PropertyID != unit.PropertyID {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "user is already a tenant elsewhere")
	}

	var result *TenancyDTO
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		tenant, err := s.upsertTenant(ctx, repo, unit, userID, opts)
		if err != nil {
			return err
		}

		lease, err := repo.FindActiveLeaseByUnit(ctx, unitID)
		reassigned := false
		switch {
		case err == nil:
			// Handover: the sitting lease moves to the new tenant and the
			// unit stays occupied.
			reassigned = true
			lease.TenantID = tenant.ID
			if err := repo.UpdateLease(ctx, lease); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reassign lease")
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			rent := unit.MonthlyRent()
			if opts.RentAmount != nil {
				rent = *opts.RentAmount
			}
			start := time.Now().UTC()
			if opts.MoveInDate != nil {
				start = *opts.MoveInDate
			}
			lease = &models.Lease{
				ID:         uuid.New(),
				UnitID:     unitID,
				TenantID:   tenant.ID,
				StartDate:  start,
				RentAmount: rent,
				Status:     enums.LeaseStatusActive,
			}
			if err := repo.CreateLease(ctx, lease); err != nil {
				if dbpkg.IsUniqueViolation(err, "ux_tenant_leases_unit_active") {
					return pkgerrors.New(pkgerrors.CodeConflict, "unit already has an active lease")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create lease")
			}
			if err := repo.UpdateUnitStatus(ctx, unitID, enums.UnitStatusOccupied); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark unit occupied")
			}
		default:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active lease")
		}

		eventType := enums.EventTenancyAssigned
		if reassigned {
			eventType = enums.EventTenancyReassigned
		}
		event := outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregateUnit,
			AggregateID:   unitID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: actor.UserID, Role: actor.Role.String()},
			Data: payloads.TenancyAssignedEvent{
				UnitID:     unitID,
				PropertyID: unit.PropertyID,
				TenantID:   tenant.ID,
				UserID:     userID,
				LeaseID:    lease.ID,
				RentAmount: lease.RentAmount.String(),
				Reassigned: reassigned,
				MoveInDate: opts.MoveInDate,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit tenancy event")
		}

		if s.audits != nil {
			if err := s.audits.RecordTx(tx, audit.Entry{
				ActorID:    &actor.UserID,
				Action:     "tenancy.assigned",
				TargetType: "unit",
				TargetID:   unitID,
				Metadata:   map[string]any{"user_id": userID, "reassigned": reassigned},
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record audit entry")
			}
		}

		status := enums.UnitStatusOccupied
		result = &TenancyDTO{
			UnitID:     unitID,
			PropertyID: unit.PropertyID,
			TenantID:   tenant.ID,
			UserID:     userID,
			LeaseID:    lease.ID,
			RentAmount: lease.RentAmount,
			UnitStatus: status,
			Reassigned: reassigned,
			MoveInDate: opts.MoveInDate,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// VacateUnit ends the active lease, marks the tenant record former and frees
// the unit in a single transaction.
func (s *service) VacateUnit(ctx context.Context, actor Actor, unitID uuid.UUID) error {
	unit, err := s.repo.FindUnit(ctx, unitID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "unit not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load unit")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		lease, err := repo.FindActiveLeaseByUnit(ctx, unitID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "unit has no active lease")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active lease")
		}

		now := time.Now().UTC()
		lease.Status = enums.LeaseStatusTerminated
		lease.EndDate = &now
		if err := repo.UpdateLease(ctx, lease); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "terminate lease")
		}

		tenant, err := s.findTenantByID(ctx, repo, lease.TenantID)
		if err != nil {
			return err
		}
		if tenant != nil {
			tenant.Status = enums.TenantStatusFormer
			tenant.UnitID = nil
			if err := repo.UpdateTenant(ctx, tenant); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update tenant record")
			}
		}

		if err := repo.UpdateUnitStatus(ctx, unitID, enums.UnitStatusVacant); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark unit vacant")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventTenancyVacated,
			AggregateType: enums.AggregateUnit,
			AggregateID:   unitID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: actor.UserID, Role: actor.Role.String()},
			Data: payloads.TenancyVacatedEvent{
				UnitID:     unitID,
				PropertyID: unit.PropertyID,
				TenantID:   lease.TenantID,
				LeaseID:    lease.ID,
				VacatedAt:  now,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit tenancy vacated")
		}

		if s.audits != nil {
			if err := s.audits.RecordTx(tx, audit.Entry{
				ActorID:    &actor.UserID,
				Action:     "tenancy.vacated",
				TargetType: "unit",
				TargetID:   unitID,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record audit entry")
			}
		}
		return nil
	})
}

func (s *service) upsertTenant(ctx context.Context, repo Repository, unit *models.Unit, userID uuid.UUID, opts AssignOptions) (*models.Tenant, error) {
	tenant, err := repo.FindTenantByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tenant record")
		}
		tenant = &models.Tenant{ID: uuid.New(), UserID: userID}
		applyTenantDetails(tenant, unit, opts)
		if err := repo.CreateTenant(ctx, tenant); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create tenant record")
		}
		return tenant, nil
	}

	applyTenantDetails(tenant, unit, opts)
	if err := repo.UpdateTenant(ctx, tenant); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update tenant record")
	}
	return tenant, nil
}

func (s *service) findTenantByID(ctx context.Context, repo Repository, tenantID uuid.UUID) (*models.Tenant, error) {
	// The lease's tenant may already be gone if cleanup raced; treat it as
	// absent rather than failing the vacate.
	tenant, err := repo.FindTenantByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tenant record")
	}
	return tenant, nil
}

func applyTenantDetails(tenant *models.Tenant, unit *models.Unit, opts AssignOptions) {
	tenant.PropertyID = &unit.PropertyID
	tenant.UnitID = &unit.ID
	tenant.Status = enums.TenantStatusActive
	if opts.MoveInDate != nil {
		tenant.MoveInDate = opts.MoveInDate
	}
	if opts.IDNumber != nil {
		tenant.IDNumber = opts.IDNumber
	}
	if opts.EmploymentStatus != nil {
		tenant.EmploymentStatus = opts.EmploymentStatus
	}
	if opts.EmployerName != nil {
		tenant.EmployerName = opts.EmployerName
	}
	if opts.EmergencyContactName != nil {
		tenant.EmergencyContactName = opts.EmergencyContactName
	}
	if opts.EmergencyContactPhone != nil {
		tenant.EmergencyContactPhone = opts.EmergencyContactPhone
	}
}
