package maintenance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nyumbahq/nyumba-backend/internal/audit"
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

// CreateRequestInput carries a new ticket.
type CreateRequestInput struct {
	PropertyID  uuid.UUID
	UnitID      *uuid.UUID
	TenantID    *uuid.UUID
	Title       string
	Description *string
	Category    *string
	Priority    enums.MaintenancePriority
	Blocking    bool
}

// UpdateRequestInput patches ticket fields other than status.
type UpdateRequestInput struct {
	Title       *string
	Description *string
	Category    *string
	Priority    *enums.MaintenancePriority
	AssignedTo  *uuid.UUID
}

// Service exposes the maintenance ticket workflow.
type Service interface {
	Create(ctx context.Context, actor Actor, input CreateRequestInput) (*RequestDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*RequestDTO, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*RequestList, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, input UpdateRequestInput) (*RequestDTO, error)
	UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, next enums.MaintenanceStatus) (*RequestDTO, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxEmitter
	audits audit.Recorder
}

// NewService builds a maintenance service. The audit recorder is optional.
func NewService(repo Repository, tx txRunner, ob outboxEmitter, audits audit.Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("maintenance repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{repo: repo, tx: tx, outbox: ob, audits: audits}, nil
}

// Create opens a ticket. A blocking ticket against a unit pulls the unit
// into maintenance status in the same transaction.
func (s *service) Create(ctx context.Context, actor Actor, input CreateRequestInput) (*RequestDTO, error) {
	if input.PropertyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "property id required")
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}
	priority := input.Priority
	if priority == "" {
		priority = enums.MaintenancePriorityMedium
	}
	if !priority.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown priority %q", priority))
	}
	if input.Blocking && input.UnitID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "blocking requests need a unit")
	}

	request := &models.MaintenanceRequest{
		ID:          uuid.New(),
		PropertyID:  input.PropertyID,
		UnitID:      input.UnitID,
		TenantID:    input.TenantID,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Category:    input.Category,
		Priority:    priority,
		Status:      enums.MaintenanceStatusOpen,
		Blocking:    input.Blocking,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create request")
		}
		if request.Blocking {
			if err := s.flipUnit(ctx, repo, tx, actor, *request.UnitID, request.PropertyID,
				enums.UnitStatusMaintenance, "blocking_request_opened"); err != nil {
				return err
			}
		}
		if s.audits != nil {
			if err := s.audits.RecordTx(tx, audit.Entry{
				ActorID:    &actor.UserID,
				Action:     "maintenance.opened",
				TargetType: "maintenance_request",
				TargetID:   request.ID,
				Metadata:   map[string]any{"blocking": request.Blocking},
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record audit entry")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fromModel(request), nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*RequestDTO, error) {
	request, err := s.loadRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	return fromModel(request), nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) (*RequestList, error) {
	rows, next, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list requests")
	}
	items := make([]RequestDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *fromModel(&rows[i]))
	}
	return &RequestList{Items: items, NextCursor: next}, nil
}

func (s *service) Update(ctx context.Context, actor Actor, id uuid.UUID, input UpdateRequestInput) (*RequestDTO, error) {
	request, err := s.loadRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.Status == enums.MaintenanceStatusClosed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "closed requests cannot be edited")
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title cannot be blank")
		}
		request.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		request.Description = input.Description
	}
	if input.Category != nil {
		request.Category = input.Category
	}
	if input.Priority != nil {
		if !input.Priority.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown priority %q", *input.Priority))
		}
		request.Priority = *input.Priority
	}
	if input.AssignedTo != nil {
		request.AssignedTo = input.AssignedTo
	}

	if err := s.repo.Update(ctx, request); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update request")
	}
	return fromModel(request), nil
}

// UpdateStatus advances a ticket along open -> in_progress -> resolved ->
// closed. Finishing the last blocking ticket on a unit releases the unit
// from maintenance status in the same transaction.
func (s *service) UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, next enums.MaintenanceStatus) (*RequestDTO, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown status %q", next))
	}
	request, err := s.loadRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if !request.Status.CanTransitionTo(next) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move request from %s to %s", request.Status, next))
	}

	finished := next == enums.MaintenanceStatusResolved || next == enums.MaintenanceStatusClosed

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		request.Status = next
		if finished && request.ResolvedAt == nil {
			now := time.Now().UTC()
			request.ResolvedAt = &now
		}
		if err := repo.Update(ctx, request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update request")
		}

		if finished && request.Blocking && request.UnitID != nil {
			remaining, err := repo.CountBlockingOpenForUnit(ctx, *request.UnitID, request.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count blocking requests")
			}
			if remaining == 0 {
				restored := enums.UnitStatusVacant
				leased, err := repo.UnitHasActiveLease(ctx, *request.UnitID)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check unit lease")
				}
				if leased {
					restored = enums.UnitStatusOccupied
				}
				if err := s.flipUnit(ctx, repo, tx, actor, *request.UnitID, request.PropertyID,
					restored, "blocking_request_finished"); err != nil {
					return err
				}
			}
		}

		if s.audits != nil {
			if err := s.audits.RecordTx(tx, audit.Entry{
				ActorID:    &actor.UserID,
				Action:     "maintenance.status_changed",
				TargetType: "maintenance_request",
				TargetID:   request.ID,
				Metadata:   map[string]any{"status": next},
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record audit entry")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fromModel(request), nil
}

func (s *service) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	request, err := s.loadRequest(ctx, id)
	if err != nil {
		return err
	}
	if request.Blocking && request.Status != enums.MaintenanceStatusClosed {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "close the blocking request before deleting it")
	}
	n, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete request")
	}
	if n == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
	}
	return nil
}

func (s *service) loadRequest(ctx context.Context, id uuid.UUID) (*models.MaintenanceRequest, error) {
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load request")
	}
	return request, nil
}

func (s *service) flipUnit(ctx context.Context, repo Repository, tx *gorm.DB, actor Actor,
	unitID, propertyID uuid.UUID, to enums.UnitStatus, reason string) error {
	if err := repo.UpdateUnitStatus(ctx, unitID, to); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update unit status")
	}
	event := outbox.DomainEvent{
		EventType:     enums.EventUnitStatusChanged,
		AggregateType: enums.AggregateUnit,
		AggregateID:   unitID,
		Version:       1,
		Actor:         &outbox.ActorRef{UserID: actor.UserID, Role: actor.Role.String()},
		Data: payloads.UnitStatusChangedEvent{
			UnitID:     unitID,
			PropertyID: propertyID,
			To:         to,
			Reason:     reason,
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit unit status event")
	}
	return nil
}
