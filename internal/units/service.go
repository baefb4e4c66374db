package units

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbpkg "github.com/nyumbahq/nyumba-backend/pkg/db"
	"github.com/nyumbahq/nyumba-backend/pkg/db/models"
	"github.com/nyumbahq/nyumba-backend/pkg/enums"
	pkgerrors "github.com/nyumbahq/nyumba-backend/pkg/errors"
	"github.com/nyumbahq/nyumba-backend/pkg/outbox"
	"github.com/nyumbahq/nyumba-backend/pkg/outbox/payloads"
)

// MaxBulkCount caps how many units one bulk generation can create.
const MaxBulkCount = 500

type unitTypeResolver interface {
	FindOrCreateTx(ctx context.Context, tx *gorm.DB, propertyID uuid.UUID, name string, price decimal.Decimal) (*models.UnitType, error)
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

// Actor identifies the authenticated caller.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// CreateUnitInput captures creation-time unit data. The type may arrive as
// an id or as a name that is resolved through find-or-create.
type CreateUnitInput struct {
	UnitNumber   string
	UnitTypeID   *uuid.UUID
	UnitTypeName *string
	TypePrice    decimal.Decimal
	FloorNumber  *int
	Price        *decimal.Decimal
	Description  *string
	Features     []string
	Status       *enums.UnitStatus
}

// BulkGenerateConfig drives batch unit creation.
type BulkGenerateConfig struct {
	UnitTypeName string
	TypePrice    decimal.Decimal
	Prefix       string
	Start        int
	Count        int
	FloorNumber  *int
	Price        *decimal.Decimal
	Features     []string
}

// UpdateUnitInput captures the allowed unit fields for mutation. Price and
// unit number changes are reserved for super admins.
type UpdateUnitInput struct {
	UnitTypeID   *uuid.UUID
	UnitTypeName *string
	TypePrice    *decimal.Decimal
	UnitNumber   *string
	FloorNumber  *int
	Status       *enums.UnitStatus
	Price        *decimal.Decimal
	Description  *string
	Features     *[]string
}

// Service exposes unit inventory operations.
type Service interface {
	Create(ctx context.Context, actor Actor, propertyID uuid.UUID, input CreateUnitInput) (*UnitDTO, error)
	BulkGenerate(ctx context.Context, actor Actor, propertyID uuid.UUID, cfg BulkGenerateConfig) ([]UnitDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*UnitDTO, error)
	ListByProperty(ctx context.Context, propertyID uuid.UUID, filters ListFilters) ([]UnitDTO, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, input UpdateUnitInput) (*UnitDTO, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
	AttachImage(ctx context.Context, actor Actor, id uuid.UUID, filename, contentType string, data io.Reader) (*UnitDTO, error)
}

type service struct {
	repo   Repository
	types  unitTypeResolver
	tx     txRunner
	outbox outboxEmitter
	images imageStore
}

// NewService builds a unit service. The image store is optional.
func NewService(repo Repository, types unitTypeResolver, tx txRunner, ob outboxEmitter, images imageStore) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("unit repository required")
	}
	if types == nil {
		return nil, fmt.Errorf("unit type resolver required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ob == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{repo: repo, types: types, tx: tx, outbox: ob, images: images}, nil
}

func (s *service) Create(ctx context.Context, actor Actor, propertyID uuid.UUID, input CreateUnitInput) (*UnitDTO, error) {
	number := strings.TrimSpace(input.UnitNumber)
	if number == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit number is required")
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid unit status")
	}
	if input.Price != nil && input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
	}

	taken, err := s.repo.ExistsNumber(ctx, propertyID, number)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check unit number")
	}
	if taken {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("unit %s already exists", number))
	}

	var created *models.Unit
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		typeID, err := s.resolveTypeTx(ctx, tx, propertyID, input.UnitTypeID, input.UnitTypeName, input.TypePrice)
		if err != nil {
			return err
		}

		unit := &models.Unit{
			ID:          uuid.New(),
			PropertyID:  propertyID,
			UnitTypeID:  typeID,
			UnitNumber:  number,
			FloorNumber: input.FloorNumber,
			Status:      enums.UnitStatusVacant,
			Price:       input.Price,
			Description: input.Description,
			Features:    featuresArray(input.Features),
		}
		if input.Status != nil {
			unit.Status = input.Status.Normalize()
		}

		if err := s.repo.WithTx(tx).Create(ctx, unit); err != nil {
			if dbpkg.IsUniqueViolation(err, "idx_units_property_number") {
				return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("unit %s already exists", number))
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create unit")
		}
		created = unit
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, created.ID)
}

func (s *service) BulkGenerate(ctx context.Context, actor Actor, propertyID uuid.UUID, cfg BulkGenerateConfig) ([]UnitDTO, error) {
	if strings.TrimSpace(cfg.UnitTypeName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit type name is required")
	}
	if cfg.Count < 1 || cfg.Count > MaxBulkCount {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("count must be between 1 and %d", MaxBulkCount))
	}
	if cfg.Start < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "start number cannot be negative")
	}

	numbers := make([]string, 0, cfg.Count)
	for i := 0; i < cfg.Count; i++ {
		numbers = append(numbers, cfg.Prefix+strconv.Itoa(cfg.Start+i))
	}

	var created []models.Unit
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		unitType, err := s.types.FindOrCreateTx(ctx, tx, propertyID, cfg.UnitTypeName, cfg.TypePrice)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve unit type")
		}

		taken, err := repo.ExistingNumbers(ctx, propertyID, numbers)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check unit numbers")
		}
		if len(taken) > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("some unit numbers already exist: %s", strings.Join(taken, ", ")))
		}

		batch := make([]models.Unit, 0, cfg.Count)
		for _, number := range numbers {
			batch = append(batch, models.Unit{
				ID:          uuid.New(),
				PropertyID:  propertyID,
				UnitTypeID:  &unitType.ID,
				UnitNumber:  number,
				FloorNumber: cfg.FloorNumber,
				Status:      enums.UnitStatusVacant,
				Price:       cfg.Price,
				Features:    featuresArray(cfg.Features),
			})
		}
		if err := repo.CreateBatch(ctx, batch); err != nil {
			if dbpkg.IsUniqueViolation(err, "idx_units_property_number") {
				return pkgerrors.New(pkgerrors.CodeConflict, "some unit numbers already exist")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert units")
		}
		for i := range batch {
			batch[i].UnitType = unitType
		}
		created = batch
		return nil
	})
	if err != nil {
		return nil, err
	}

	items := make([]UnitDTO, 0, len(created))
	for i := range created {
		items = append(items, *FromModel(&created[i]))
	}
	return items, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*UnitDTO, error) {
	unit, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unit not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load unit")
	}
	return FromModel(unit), nil
}

func (s *service) ListByProperty(ctx context.Context, propertyID uuid.UUID, filters ListFilters) ([]UnitDTO, error) {
	rows, err := s.repo.ListByProperty(ctx, propertyID, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list units")
	}

	items := make([]UnitDTO, 0, len(rows))
	for i := range rows {
		dto := FromModel(&rows[i].Unit)
		dto.TenantName = rows[i].TenantName
		dto.TenantUserID = rows[i].TenantUserID
		items = append(items, *dto)
	}
	return items, nil
}

func (s *service) Update(ctx context.Context, actor Actor, id uuid.UUID, input UpdateUnitInput) (*UnitDTO, error) {
	isAdmin := actor.Role == enums.UserRoleSuperAdmin
	if !isAdmin {
		if input.Price != nil {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only super admins can change unit price")
		}
		if input.UnitNumber != nil {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only super admins can change unit number")
		}
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid unit status")
	}
	if input.Price != nil && input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
	}

	unit, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unit not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load unit")
	}

	previousStatus := unit.Status.Normalize()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if input.UnitTypeID != nil || input.UnitTypeName != nil {
			typePrice := decimal.Zero
			if input.TypePrice != nil {
				typePrice = *input.TypePrice
			}
			typeID, err := s.resolveTypeTx(ctx, tx, unit.PropertyID, input.UnitTypeID, input.UnitTypeName, typePrice)
			if err != nil {
				return err
			}
			unit.UnitTypeID = typeID
			unit.UnitType = nil
		}

		if input.UnitNumber != nil {
			trimmed := strings.TrimSpace(*input.UnitNumber)
			if trimmed == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "unit number cannot be empty")
			}
			unit.UnitNumber = trimmed
		}
		if input.FloorNumber != nil {
			unit.FloorNumber = input.FloorNumber
		}
		if input.Status != nil {
			unit.Status = input.Status.Normalize()
		}
		if input.Price != nil {
			unit.Price = input.Price
		}
		if input.Description != nil {
			unit.Description = input.Description
		}
		if input.Features != nil {
			unit.Features = featuresArray(*input.Features)
		}

		if err := s.repo.WithTx(tx).Update(ctx, unit); err != nil {
			if dbpkg.IsUniqueViolation(err, "idx_units_property_number") {
				return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("unit %s already exists", unit.UnitNumber))
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update unit")
		}

		if unit.Status.Normalize() != previousStatus {
			event := outbox.DomainEvent{
				EventType:     enums.EventUnitStatusChanged,
				AggregateType: enums.AggregateUnit,
				AggregateID:   unit.ID,
				Version:       1,
				Actor:         &outbox.ActorRef{UserID: actor.UserID, Role: actor.Role.String()},
				Data: payloads.UnitStatusChangedEvent{
					UnitID:     unit.ID,
					PropertyID: unit.PropertyID,
					From:       previousStatus,
					To:         unit.Status.Normalize(),
					Reason:     "manual_update",
				},
			}
			if err := s.outbox.Emit(ctx, tx, event); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit unit status changed")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, unit.ID)
}

func (s *service) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "unit not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load unit")
	}

	leased, err := s.repo.HasActiveLease(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check active lease")
	}
	if leased {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "unit has an active lease")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete unit")
	}
	return nil
}

func (s *service) AttachImage(ctx context.Context, actor Actor, id uuid.UUID, filename, contentType string, data io.Reader) (*UnitDTO, error) {
	if s.images == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "image storage not configured")
	}
	if data == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image body is required")
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "content type must be an image")
	}

	unit, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unit not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load unit")
	}

	objectName := fmt.Sprintf("unit-images/%s/%s%s", unit.ID, uuid.NewString(), path.Ext(filename))
	url, err := s.images.Upload(ctx, objectName, contentType, data)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload unit image")
	}

	unit.ImageURL = &url
	if err := s.repo.Update(ctx, unit); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save image url")
	}
	return FromModel(unit), nil
}

func (s *service) resolveTypeTx(ctx context.Context, tx *gorm.DB, propertyID uuid.UUID, typeID *uuid.UUID, typeName *string, price decimal.Decimal) (*uuid.UUID, error) {
	if typeID != nil {
		return typeID, nil
	}
	if typeName == nil || strings.TrimSpace(*typeName) == "" {
		return nil, nil
	}
	unitType, err := s.types.FindOrCreateTx(ctx, tx, propertyID, *typeName, price)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve unit type")
	}
	return &unitType.ID, nil
}

func featuresArray(values []string) pq.StringArray {
	if values == nil {
		return pq.StringArray{}
	}
	res := make(pq.StringArray, len(values))
	copy(res, values)
	return res
}
