package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/nyumbahq/nyumba-backend/internal/audit"
	dbpkg "github.com/nyumbahq/nyumba-backend/pkg/db"
	"github.com/nyumbahq/nyumba-backend/pkg/db/models"
	"github.com/nyumbahq/nyumba-backend/pkg/enums"
	pkgerrors "github.com/nyumbahq/nyumba-backend/pkg/errors"
	"github.com/nyumbahq/nyumba-backend/pkg/outbox"
	"github.com/nyumbahq/nyumba-backend/pkg/outbox/payloads"
	"github.com/nyumbahq/nyumba-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Actor identifies the authenticated caller.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// RoleData carries the role-specific fields that ride along with a role
// assignment. Manager fields apply when the new role is property_manager,
// tenant fields when it is tenant.
type RoleData struct {
	LicenseNumber   *string
	ExperienceYears *int
	Specializations []string
	IsAvailable     *bool

	PropertyID *uuid.UUID
	UnitID     *uuid.UUID
	MoveInDate *time.Time
}

// UpdateUserInput patches mutable profile fields. Nil means leave as-is.
type UpdateUserInput struct {
	FirstName *string
	LastName  *string
	Phone     *string
	Email     *string
}

// Service exposes user and role management.
type Service interface {
	GetByID(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*UserList, error)
	AssignRole(ctx context.Context, actor Actor, userID uuid.UUID, role enums.UserRole, data RoleData) (*UserDTO, error)
	UpdateUser(ctx context.Context, actor Actor, userID uuid.UUID, input UpdateUserInput) (*UserDTO, error)
	SuspendUser(ctx context.Context, actor Actor, userID uuid.UUID) (*UserDTO, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxEmitter
	audits audit.Recorder
}

// NewService builds a users service. The audit recorder is optional.
func NewService(repo Repository, tx txRunner, ob outboxEmitter, audits audit.Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{repo: repo, tx: tx, outbox: ob, audits: audits}, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	profile, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	dto := FromModel(profile)
	if profile.Role == enums.UserRolePropertyManager {
		manager, err := s.repo.FindManagerByUserID(ctx, id)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load manager record")
		}
		dto.Manager = managerFromModel(manager)
	}
	return dto, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) (*UserList, error) {
	rows, next, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	items := make([]UserDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}
	return &UserList{Items: items, NextCursor: next}, nil
}

// AssignRole moves a profile to a new role. The role columns, the auxiliary
// row for the new role and the outbox event commit in one transaction.
func (s *service) AssignRole(ctx context.Context, actor Actor, userID uuid.UUID, role enums.UserRole, data RoleData) (*UserDTO, error) {
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown role %q", role))
	}

	profile, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	previous := profile.Role

	if role == enums.UserRoleUnassigned && previous == enums.UserRolePropertyManager {
		manager, err := s.repo.FindManagerByUserID(ctx, userID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load manager record")
		}
		if manager != nil {
			// Assignments key on the manager's profile id.
			count, err := s.repo.CountManagerAssignments(ctx, manager.UserID)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count property assignments")
			}
			if count > 0 {
				return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "manager still has property assignments")
			}
		}
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		profile.Role = role
		profile.UserType = DeriveUserType(role)
		if profile.Status == enums.UserStatusPending {
			profile.Status = enums.UserStatusActive
		}
		if err := repo.UpdateProfile(ctx, profile); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
		}

		var removed []string
		switch role {
		case enums.UserRolePropertyManager:
			if err := s.upsertManagerTx(ctx, repo, userID, data); err != nil {
				return err
			}
		case enums.UserRoleTenant:
			if err := s.upsertTenantTx(ctx, repo, userID, data); err != nil {
				return err
			}
		case enums.UserRoleUnassigned:
			removed, err = s.clearAuxRowsTx(ctx, repo, userID)
			if err != nil {
				return err
			}
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventRoleAssigned,
			AggregateType: enums.AggregateProfile,
			AggregateID:   userID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: actor.UserID, Role: actor.Role.String()},
			Data: payloads.RoleAssignedEvent{
				UserID:       userID,
				Email:        profile.Email,
				FirstName:    profile.FirstName,
				Role:         role,
				UserType:     profile.UserType,
				PreviousRole: previous,
			},
		}
		if role == enums.UserRoleUnassigned {
			event.EventType = enums.EventRoleUnassigned
			event.Data = payloads.RoleUnassignedEvent{
				UserID:       userID,
				PreviousRole: previous,
				RemovedRows:  removed,
			}
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit role event")
		}

		if s.audits != nil {
			if err := s.audits.RecordTx(tx, audit.Entry{
				ActorID:    &actor.UserID,
				Action:     "user.role_assigned",
				TargetType: "profile",
				TargetID:   userID,
				Metadata:   map[string]any{"role": role, "previous_role": previous},
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record audit entry")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, userID)
}

func (s *service) upsertManagerTx(ctx context.Context, repo Repository, userID uuid.UUID, data RoleData) error {
	manager, err := repo.FindManagerByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load manager record")
		}
		manager = &models.PropertyManager{
			ID:          uuid.New(),
			UserID:      userID,
			IsAvailable: true,
		}
	}
	if data.LicenseNumber != nil {
		manager.LicenseNumber = data.LicenseNumber
	}
	if data.ExperienceYears != nil {
		if *data.ExperienceYears < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "experience years cannot be negative")
		}
		manager.ExperienceYears = *data.ExperienceYears
	}
	if data.Specializations != nil {
		manager.Specializations = pq.StringArray(data.Specializations)
	}
	if manager.Specializations == nil {
		manager.Specializations = pq.StringArray{}
	}
	if data.IsAvailable != nil {
		manager.IsAvailable = *data.IsAvailable
	}
	if err := repo.UpsertManager(ctx, manager); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert manager record")
	}
	return nil
}

// upsertTenantTx keys the tenant row by user_id, so repeated role swings
// never stack duplicate rows. Unit moves free the old unit and occupy the
// new one in the same transaction.
func (s *service) upsertTenantTx(ctx context.Context, repo Repository, userID uuid.UUID, data RoleData) error {
	tenant, err := repo.FindTenantByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tenant record")
		}
		tenant = &models.Tenant{ID: uuid.New(), UserID: userID}
	}

	previousUnit := tenant.UnitID
	tenant.Status = enums.TenantStatusActive
	if data.PropertyID != nil {
		tenant.PropertyID = data.PropertyID
	}
	if data.UnitID != nil {
		tenant.UnitID = data.UnitID
	}
	if data.MoveInDate != nil {
		tenant.MoveInDate = data.MoveInDate
	}
	if err := repo.SaveTenant(ctx, tenant); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert tenant record")
	}

	if data.UnitID != nil && (previousUnit == nil || *previousUnit != *data.UnitID) {
		if previousUnit != nil {
			if err := repo.UpdateUnitStatus(ctx, *previousUnit, enums.UnitStatusVacant); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "free previous unit")
			}
		}
		if err := repo.UpdateUnitStatus(ctx, *data.UnitID, enums.UnitStatusOccupied); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "occupy new unit")
		}
	}
	return nil
}

func (s *service) clearAuxRowsTx(ctx context.Context, repo Repository, userID uuid.UUID) ([]string, error) {
	var removed []string
	if n, err := repo.DeleteManagerByUserID(ctx, userID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete manager record")
	} else if n > 0 {
		removed = append(removed, "property_managers")
	}
	if n, err := repo.DeleteTenantByUserID(ctx, userID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete tenant record")
	} else if n > 0 {
		removed = append(removed, "tenants")
	}
	return removed, nil
}

func (s *service) UpdateUser(ctx context.Context, actor Actor, userID uuid.UUID, input UpdateUserInput) (*UserDTO, error) {
	profile, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	if input.FirstName != nil {
		if strings.TrimSpace(*input.FirstName) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "first name cannot be blank")
		}
		profile.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		if strings.TrimSpace(*input.LastName) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "last name cannot be blank")
		}
		profile.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Phone != nil {
		profile.Phone = input.Phone
	}
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if !strings.Contains(email, "@") {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid email address")
		}
		profile.Email = email
	}

	if err := s.repo.UpdateProfile(ctx, profile); err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
	}
	return s.GetByID(ctx, userID)
}

// SuspendUser marks the profile suspended and retires any tenant row in the
// same transaction so listings stop treating the occupant as current.
func (s *service) SuspendUser(ctx context.Context, actor Actor, userID uuid.UUID) (*UserDTO, error) {
	profile, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if profile.Status == enums.UserStatusSuspended {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "user is already suspended")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		profile.Status = enums.UserStatusSuspended
		if err := repo.UpdateProfile(ctx, profile); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
		}

		tenant, err := repo.FindTenantByUserID(ctx, userID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tenant record")
		}
		if tenant != nil && tenant.Status == enums.TenantStatusActive {
			tenant.Status = enums.TenantStatusFormer
			if err := repo.SaveTenant(ctx, tenant); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "retire tenant record")
			}
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventUserSuspended,
			AggregateType: enums.AggregateProfile,
			AggregateID:   userID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: actor.UserID, Role: actor.Role.String()},
			Data: payloads.UserSuspendedEvent{
				UserID:      userID,
				Role:        profile.Role,
				SuspendedAt: time.Now().UTC(),
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit suspension event")
		}

		if s.audits != nil {
			if err := s.audits.RecordTx(tx, audit.Entry{
				ActorID:    &actor.UserID,
				Action:     "user.suspended",
				TargetType: "profile",
				TargetID:   userID,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record audit entry")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return FromModel(profile), nil
}
