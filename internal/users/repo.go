package users

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nyumbahq/nyumba-backend/pkg/db/models"
	"github.com/nyumbahq/nyumba-backend/pkg/enums"
	"github.com/nyumbahq/nyumba-backend/pkg/pagination"
)

// ListFilters narrows user listings.
type ListFilters struct {
	Role   *enums.UserRole
	Status *enums.UserStatus
	Search string
}

// Repository defines persistence operations for profiles and their
// role-specific auxiliary rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateProfile(ctx context.Context, profile *models.Profile) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	FindByEmail(ctx context.Context, email string) (*models.Profile, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) ([]models.Profile, *string, error)
	UpdateProfile(ctx context.Context, profile *models.Profile) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error

	FindManagerByUserID(ctx context.Context, userID uuid.UUID) (*models.PropertyManager, error)
	UpsertManager(ctx context.Context, manager *models.PropertyManager) error
	DeleteManagerByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
	CountManagerAssignments(ctx context.Context, managerID uuid.UUID) (int64, error)

	FindTenantByUserID(ctx context.Context, userID uuid.UUID) (*models.Tenant, error)
	SaveTenant(ctx context.Context, tenant *models.Tenant) error
	DeleteTenantByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
	UpdateUnitStatus(ctx context.Context, unitID uuid.UUID, status enums.UnitStatus) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a users repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateProfile(ctx context.Context, profile *models.Profile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = LOWER(?)", strings.TrimSpace(email)).
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters ListFilters) ([]models.Profile, *string, error) {
	query := r.db.WithContext(ctx).Model(&models.Profile{})
	if filters.Role != nil {
		query = query.Where("role = ?", filters.Role.String())
	}
	if filters.Status != nil {
		query = query.Where("status = ?", filters.Status.String())
	}
	if search := strings.TrimSpace(filters.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?",
			pattern, pattern, pattern,
		)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var rows []models.Profile
	if err := query.Order("created_at DESC, id DESC").Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	var next *string
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		encoded := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		next = &encoded
	}
	return rows, next, nil
}

func (r *repository) UpdateProfile(ctx context.Context, profile *models.Profile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

func (r *repository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("id = ?", id).
		Update("password_hash", hash).Error
}

func (r *repository) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("id = ?", id).
		Update("last_login_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
}

func (r *repository) FindManagerByUserID(ctx context.Context, userID uuid.UUID) (*models.PropertyManager, error) {
	var manager models.PropertyManager
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&manager).Error
	if err != nil {
		return nil, err
	}
	return &manager, nil
}

func (r *repository) UpsertManager(ctx context.Context, manager *models.PropertyManager) error {
	return r.db.WithContext(ctx).Save(manager).Error
}

func (r *repository) DeleteManagerByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.PropertyManager{})
	return res.RowsAffected, res.Error
}

func (r *repository) CountManagerAssignments(ctx context.Context, managerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PropertyManagerAssignment{}).
		Where("manager_id = ?", managerID).
		Count(&count).Error
	return count, err
}

func (r *repository) FindTenantByUserID(ctx context.Context, userID uuid.UUID) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *repository) SaveTenant(ctx context.Context, tenant *models.Tenant) error {
	return r.db.WithContext(ctx).Save(tenant).Error
}

func (r *repository) DeleteTenantByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.Tenant{})
	return res.RowsAffected, res.Error
}

func (r *repository) UpdateUnitStatus(ctx context.Context, unitID uuid.UUID, status enums.UnitStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Unit{}).
		Where("id = ?", unitID).
		Update("status", status.String()).Error
}
