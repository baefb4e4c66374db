package properties

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/nyumbahq/nyumba-backend/internal/audit"
	"github.com/nyumbahq/nyumba-backend/pkg/db/models"
	"github.com/nyumbahq/nyumba-backend/pkg/enums"
	pkgerrors "github.com/nyumbahq/nyumba-backend/pkg/errors"
	"github.com/nyumbahq/nyumba-backend/pkg/outbox"
	"github.com/nyumbahq/nyumba-backend/pkg/outbox/payloads"
	"github.com/nyumbahq/nyumba-backend/pkg/pagination"
)

type propertyRepository interface {
	Create(ctx context.Context, dto CreatePropertyDTO) (*models.Property, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Property, error)
	List(ctx context.Context, params pagination.Params, managerID *uuid.UUID) ([]models.Property, *string, error)
	Update(ctx context.Context, property *models.Property) error
	DeleteTx(tx *gorm.DB, id uuid.UUID) error
	AssignManager(ctx context.Context, propertyID, managerID uuid.UUID) error
	UnassignManager(ctx context.Context, propertyID, managerID uuid.UUID) (int64, error)
	ManagerProfileExists(ctx context.Context, userID uuid.UUID) (bool, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type imageStore interface {
	Upload(ctx context.Context, objectName, contentType string, data io.Reader) (string, error)
}

// Actor identifies the authenticated caller for scoping and auditing.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// UpdatePropertyInput captures the allowed property fields for mutation.
type UpdatePropertyInput struct {
	Name           *string
	Location       *string
	Type           *string
	NumberOfFloors *int
	Description    *string
	Amenities      *[]string
}

// Service exposes property catalog operations.
type Service interface {
	Create(ctx context.Context, actor Actor, input CreatePropertyDTO) (*PropertyDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*PropertyDTO, error)
	List(ctx context.Context, actor Actor, params pagination.Params) (*PropertyList, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, input UpdatePropertyInput) (*PropertyDTO, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
	AttachImage(ctx context.Context, actor Actor, id uuid.UUID, filename, contentType string, data io.Reader) (*PropertyDTO, error)
	AssignManager(ctx context.Context, actor Actor, propertyID, managerID uuid.UUID) error
	UnassignManager(ctx context.Context, actor Actor, propertyID, managerID uuid.UUID) error
}

type service struct {
	repo   propertyRepository
	tx     txRunner
	outbox outboxEmitter
	images imageStore
	audits audit.Recorder
}

// NewService builds a property service with the provided dependencies. The
// image store and audit recorder are optional.
func NewService(repo propertyRepository, tx txRunner, ob outboxEmitter, images imageStore, audits audit.Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("property repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{repo: repo, tx: tx, outbox: ob, images: images, audits: audits}, nil
}

func (s *service) Create(ctx context.Context, actor Actor, input CreatePropertyDTO) (*PropertyDTO, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "property name is required")
	}
	if strings.TrimSpace(input.Location) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "property location is required")
	}
	if input.NumberOfFloors != nil && *input.NumberOfFloors < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "number of floors must be at least 1")
	}

	property, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create property")
	}

	if s.audits != nil {
		_ = s.audits.Record(ctx, audit.Entry{
			ActorID:    &actor.UserID,
			Action:     "property.created",
			TargetType: "property",
			TargetID:   property.ID,
		})
	}
	return FromModel(property), nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*PropertyDTO, error) {
	property, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "property not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load property")
	}
	return FromModel(property), nil
}

func (s *service) List(ctx context.Context, actor Actor, params pagination.Params) (*PropertyList, error) {
	var managerID *uuid.UUID
	if actor.Role == enums.UserRolePropertyManager {
		managerID = &actor.UserID
	}

	rows, next, err := s.repo.List(ctx, params, managerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list properties")
	}

	items := make([]PropertyDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}
	return &PropertyList{Items: items, NextCursor: next}, nil
}

func (s *service) Update(ctx context.Context, actor Actor, id uuid.UUID, input UpdatePropertyInput) (*PropertyDTO, error) {
	property, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "property not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load property")
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "property name cannot be empty")
		}
		property.Name = *input.Name
	}
	if input.Location != nil {
		property.Location = *input.Location
	}
	if input.Type != nil {
		property.Type = cloneStringPtr(input.Type)
	}
	if input.NumberOfFloors != nil {
		if *input.NumberOfFloors < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "number of floors must be at least 1")
		}
		property.NumberOfFloors = *input.NumberOfFloors
	}
	if input.Description != nil {
		property.Description = cloneStringPtr(input.Description)
	}
	if input.Amenities != nil {
		property.Amenities = cloneAmenities(*input.Amenities)
	}

	if err := s.repo.Update(ctx, property); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update property")
	}
	return FromModel(property), nil
}

func (s *service) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	property, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "property not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load property")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.DeleteTx(tx, property.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete property")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventPropertyDeleted,
			AggregateType: enums.AggregateProperty,
			AggregateID:   property.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: actor.UserID, Role: actor.Role.String()},
			Data: payloads.PropertyDeletedEvent{
				PropertyID: property.ID,
				DeletedAt:  time.Now().UTC(),
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit property deleted")
		}

		if s.audits != nil {
			if err := s.audits.RecordTx(tx, audit.Entry{
				ActorID:    &actor.UserID,
				Action:     "property.deleted",
				TargetType: "property",
				TargetID:   property.ID,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record audit entry")
			}
		}
		return nil
	})
}

func (s *service) AttachImage(ctx context.Context, actor Actor, id uuid.UUID, filename, contentType string, data io.Reader) (*PropertyDTO, error) {
	if s.images == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "image storage not configured")
	}
	if data == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image body is required")
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "content type must be an image")
	}

	property, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "property not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load property")
	}

	objectName := fmt.Sprintf("property-images/%s/%s%s", property.ID, uuid.NewString(), path.Ext(filename))
	url, err := s.images.Upload(ctx, objectName, contentType, data)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload property image")
	}

	property.ImageURL = &url
	if err := s.repo.Update(ctx, property); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save image url")
	}
	return FromModel(property), nil
}

// AssignManager puts a property under a manager's care. Repeated assignment
// of the same pair is accepted without effect.
func (s *service) AssignManager(ctx context.Context, actor Actor, propertyID, managerID uuid.UUID) error {
	property, err := s.repo.FindByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "property not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load property")
	}

	isManager, err := s.repo.ManagerProfileExists(ctx, managerID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up manager")
	}
	if !isManager {
		return pkgerrors.New(pkgerrors.CodeValidation, "user is not a property manager")
	}

	if err := s.repo.AssignManager(ctx, propertyID, managerID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign manager")
	}

	if s.audits != nil {
		_ = s.audits.Record(ctx, audit.Entry{
			ActorID:    &actor.UserID,
			Action:     "property.manager_assigned",
			TargetType: "property",
			TargetID:   property.ID,
		})
	}
	return nil
}

// UnassignManager removes a manager from a property.
func (s *service) UnassignManager(ctx context.Context, actor Actor, propertyID, managerID uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, propertyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "property not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load property")
	}

	removed, err := s.repo.UnassignManager(ctx, propertyID, managerID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "unassign manager")
	}
	if removed == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "manager is not assigned to this property")
	}

	if s.audits != nil {
		_ = s.audits.Record(ctx, audit.Entry{
			ActorID:    &actor.UserID,
			Action:     "property.manager_unassigned",
			TargetType: "property",
			TargetID:   propertyID,
		})
	}
	return nil
}

func cloneStringPtr(value *string) *string {
	if value == nil {
		return nil
	}
	cpy := *value
	return &cpy
}

func cloneAmenities(value []string) pq.StringArray {
	if value == nil {
		return pq.StringArray{}
	}
	res := make(pq.StringArray, len(value))
	copy(res, value)
	return res
}
