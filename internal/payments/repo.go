package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nyumbahq/nyumba-backend/pkg/db/models"
)

// Repository defines persistence for rent payments and utility bills.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindPayment(ctx context.Context, id uuid.UUID) (*models.RentPayment, error)
	FindPaymentForWindow(ctx context.Context, unitID uuid.UUID, start, end time.Time) (*models.RentPayment, error)
	ListPaymentsByUnit(ctx context.Context, unitID uuid.UUID, start, end time.Time) ([]models.RentPayment, error)
	ListPaymentsByProperty(ctx context.Context, propertyID uuid.UUID, start, end time.Time) ([]models.RentPayment, error)
	CreatePayment(ctx context.Context, payment *models.RentPayment) error
	UpdatePayment(ctx context.Context, payment *models.RentPayment) error
	DeletePayment(ctx context.Context, id uuid.UUID) (int64, error)

	FindBillForWindow(ctx context.Context, unitID uuid.UUID, billType string, start, end time.Time) (*models.Bill, error)
	ListBillsByUnit(ctx context.Context, unitID uuid.UUID, start, end time.Time) ([]models.Bill, error)
	CreateBill(ctx context.Context, bill *models.Bill) error
	UpdateBill(ctx context.Context, bill *models.Bill) error
	DeleteBill(ctx context.Context, id uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindPayment(ctx context.Context, id uuid.UUID) (*models.RentPayment, error) {
	var payment models.RentPayment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) FindPaymentForWindow(ctx context.Context, unitID uuid.UUID, start, end time.Time) (*models.RentPayment, error) {
	var payment models.RentPayment
	err := r.db.WithContext(ctx).
		Where("unit_id = ? AND due_date >= ? AND due_date < ?", unitID, start, end).
		Order("due_date ASC").
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) ListPaymentsByUnit(ctx context.Context, unitID uuid.UUID, start, end time.Time) ([]models.RentPayment, error) {
	var rows []models.RentPayment
	err := r.db.WithContext(ctx).
		Where("unit_id = ? AND due_date >= ? AND due_date < ?", unitID, start, end).
		Order("due_date ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListPaymentsByProperty(ctx context.Context, propertyID uuid.UUID, start, end time.Time) ([]models.RentPayment, error) {
	var rows []models.RentPayment
	err := r.db.WithContext(ctx).
		Where("property_id = ? AND due_date >= ? AND due_date < ?", propertyID, start, end).
		Order("unit_id, due_date ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) CreatePayment(ctx context.Context, payment *models.RentPayment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repository) UpdatePayment(ctx context.Context, payment *models.RentPayment) error {
	return r.db.WithContext(ctx).Save(payment).Error
}

func (r *repository) DeletePayment(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.RentPayment{})
	return res.RowsAffected, res.Error
}

func (r *repository) FindBillForWindow(ctx context.Context, unitID uuid.UUID, billType string, start, end time.Time) (*models.Bill, error) {
	var bill models.Bill
	err := r.db.WithContext(ctx).
		Where("unit_id = ? AND bill_type = ? AND bill_period_start >= ? AND bill_period_start < ?",
			unitID, billType, start, end).
		Order("bill_period_start ASC").
		First(&bill).Error
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

func (r *repository) ListBillsByUnit(ctx context.Context, unitID uuid.UUID, start, end time.Time) ([]models.Bill, error) {
	var rows []models.Bill
	err := r.db.WithContext(ctx).
		Where("unit_id = ? AND bill_period_start >= ? AND bill_period_start < ?", unitID, start, end).
		Order("bill_period_start ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) CreateBill(ctx context.Context, bill *models.Bill) error {
	return r.db.WithContext(ctx).Create(bill).Error
}

func (r *repository) UpdateBill(ctx context.Context, bill *models.Bill) error {
	return r.db.WithContext(ctx).Save(bill).Error
}

func (r *repository) DeleteBill(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Bill{})
	return res.RowsAffected, res.Error
}
