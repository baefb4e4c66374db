package unittypes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nyumbahq/nyumba-backend/pkg/db/models"
	pkgerrors "github.com/nyumbahq/nyumba-backend/pkg/errors"
)

type unitTypeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.UnitType, error)
	ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]models.UnitType, error)
	FindOrCreate(ctx context.Context, propertyID uuid.UUID, name string, price decimal.Decimal) (*models.UnitType, error)
	Update(ctx context.Context, unitType *models.UnitType) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountUnits(ctx context.Context, unitTypeID uuid.UUID) (int64, error)
}

// UpdateUnitTypeInput captures the allowed fields for mutation.
type UpdateUnitTypeInput struct {
	Name         *string
	PricePerUnit *decimal.Decimal
}

// Service exposes unit type catalog operations.
type Service interface {
	ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]UnitTypeDTO, error)
	FindOrCreate(ctx context.Context, propertyID uuid.UUID, name string, price decimal.Decimal) (*UnitTypeDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateUnitTypeInput) (*UnitTypeDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo unitTypeRepository
}

// NewService builds a unit type service.
func NewService(repo unitTypeRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("unit type repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]UnitTypeDTO, error) {
	rows, err := s.repo.ListByProperty(ctx, propertyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list unit types")
	}

	items := make([]UnitTypeDTO, 0, len(rows))
	for i := range rows {
		dto := *FromModel(&rows[i])
		if count, countErr := s.repo.CountUnits(ctx, rows[i].ID); countErr == nil {
			dto.UnitCount = count
		}
		items = append(items, dto)
	}
	return items, nil
}

func (s *service) FindOrCreate(ctx context.Context, propertyID uuid.UUID, name string, price decimal.Decimal) (*UnitTypeDTO, error) {
	if strings.TrimSpace(name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit type name is required")
	}
	if price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price per unit cannot be negative")
	}

	unitType, err := s.repo.FindOrCreate(ctx, propertyID, name, price)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find or create unit type")
	}
	return FromModel(unitType), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateUnitTypeInput) (*UnitTypeDTO, error) {
	unitType, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unit type not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load unit type")
	}

	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		if trimmed == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit type name cannot be empty")
		}
		unitType.Name = trimmed
	}
	if input.PricePerUnit != nil {
		if input.PricePerUnit.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price per unit cannot be negative")
		}
		unitType.PricePerUnit = *input.PricePerUnit
	}

	if err := s.repo.Update(ctx, unitType); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update unit type")
	}
	return FromModel(unitType), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "unit type not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load unit type")
	}

	count, err := s.repo.CountUnits(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count referencing units")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "unit type is still referenced by units")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete unit type")
	}
	return nil
}
