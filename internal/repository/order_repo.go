package repository

import (
	"errors"
	"time"

	"storya/internal/domain"
	"storya/internal/models"

	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) WithTx(tx *gorm.DB) *OrderRepository {
	return &OrderRepository{db: tx}
}

func (r *OrderRepository) Create(o *models.Order) error {
	return r.db.Create(o).Error
}

func (r *OrderRepository) GetByID(id uint) (*models.Order, error) {
	var o models.Order
	if err := r.db.First(&o, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) GetByQRCode(token string) (*models.Order, error) {
	var o models.Order
	if err := r.db.Where("qr_code = ?", token).First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) Update(o *models.Order) error {
	return r.db.Save(o).Error
}

func (r *OrderRepository) ListByCustomer(customerID uint) ([]models.Order, error) {
	var list []models.Order
	err := r.db.Where("customer_id = ?", customerID).Order("created_at DESC").Find(&list).Error
	return list, err
}

// ListOpen returns orders an executor could still claim.
func (r *OrderRepository) ListOpen(now time.Time) ([]models.Order, error) {
	var list []models.Order
	err := r.db.
		Where("status IN ?", []string{domain.OrderStatusPending, domain.OrderStatusInProgress}).
		Where("deadline > ?", now).
		Order("created_at DESC").Find(&list).Error
	return list, err
}

// TransitionStatus performs a guarded status update and reports whether the
// transition actually happened. Zero rows affected means the order was not
// in any of the expected source states.
func (r *OrderRepository) TransitionStatus(orderID uint, from []string, to string) (bool, error) {
	res := r.db.Model(&models.Order{}).
		Where("id = ? AND status IN ?", orderID, from).
		UpdateColumn("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *OrderRepository) IncrementCompleted(orderID uint) error {
	return r.db.Model(&models.Order{}).Where("id = ?", orderID).
		UpdateColumn("completed_count", gorm.Expr("completed_count + 1")).Error
}

func (r *OrderRepository) IncrementScans(orderID uint) error {
	return r.db.Model(&models.Order{}).Where("id = ?", orderID).
		UpdateColumn("scan_count", gorm.Expr("scan_count + 1")).Error
}

// FindRefundEligible selects refundable orders whose grace window has
// elapsed. The per-order completed-execution check runs again inside the
// sweep transaction; this is only the candidate scan.
func (r *OrderRepository) FindRefundEligible(now time.Time) ([]models.Order, error) {
	var list []models.Order
	err := r.db.
		Where("status IN ?", []string{domain.OrderStatusPending, domain.OrderStatusInProgress}).
		Where("refund_on_failure = ?", true).
		Where("refund_deadline <= ?", now).
		Find(&list).Error
	return list, err
}
