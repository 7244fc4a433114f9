package repository

import (
	"errors"
	"time"

	"storya/internal/domain"
	"storya/internal/models"

	"gorm.io/gorm"
)

type RefundRepository struct {
	db *gorm.DB
}

func NewRefundRepository(db *gorm.DB) *RefundRepository {
	return &RefundRepository{db: db}
}

func (r *RefundRepository) WithTx(tx *gorm.DB) *RefundRepository {
	return &RefundRepository{db: tx}
}

// Create inserts the refund row. The unique index on order_id turns a
// concurrent duplicate into gorm.ErrDuplicatedKey, which callers treat as
// "another sweep got here first".
func (r *RefundRepository) Create(rf *models.Refund) error {
	return r.db.Create(rf).Error
}

func (r *RefundRepository) GetByID(id uint) (*models.Refund, error) {
	var rf models.Refund
	if err := r.db.First(&rf, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &rf, nil
}

func (r *RefundRepository) GetByOrderID(orderID uint) (*models.Refund, error) {
	var rf models.Refund
	if err := r.db.Where("order_id = ?", orderID).First(&rf).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &rf, nil
}

// ExistsActive reports whether the order already has a non-CANCELLED refund.
func (r *RefundRepository) ExistsActive(orderID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Refund{}).
		Where("order_id = ? AND status <> ?", orderID, domain.RefundStatusCancelled).
		Count(&count).Error
	return count > 0, err
}

func (r *RefundRepository) ListPending() ([]models.Refund, error) {
	var list []models.Refund
	err := r.db.Where("status = ?", domain.RefundStatusPending).
		Order("created_at ASC").Find(&list).Error
	return list, err
}

// Settle flips a refund PENDING -> COMPLETED; the guard keeps a refund from
// being settled twice.
func (r *RefundRepository) Settle(refundID uint, at time.Time) (bool, error) {
	res := r.db.Model(&models.Refund{}).
		Where("id = ? AND status = ?", refundID, domain.RefundStatusPending).
		UpdateColumns(map[string]interface{}{
			"status":     domain.RefundStatusCompleted,
			"settled_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
