package repository

import (
	"errors"

	"storya/internal/domain"
	"storya/internal/models"

	"gorm.io/gorm"
)

type PayoutRepository struct {
	db *gorm.DB
}

func NewPayoutRepository(db *gorm.DB) *PayoutRepository {
	return &PayoutRepository{db: db}
}

func (r *PayoutRepository) WithTx(tx *gorm.DB) *PayoutRepository {
	return &PayoutRepository{db: tx}
}

func (r *PayoutRepository) Create(p *models.Payout) error {
	return r.db.Create(p).Error
}

func (r *PayoutRepository) GetByID(id uint) (*models.Payout, error) {
	var p models.Payout
	if err := r.db.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PayoutRepository) GetByReference(ref string) (*models.Payout, error) {
	var p models.Payout
	if err := r.db.Where("reference = ?", ref).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PayoutRepository) Update(p *models.Payout) error {
	return r.db.Save(p).Error
}

func (r *PayoutRepository) ListByUser(userID uint) ([]models.Payout, error) {
	var list []models.Payout
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *PayoutRepository) ListByStatus(status string) ([]models.Payout, error) {
	var list []models.Payout
	err := r.db.Where("status = ?", status).Order("created_at ASC").Find(&list).Error
	return list, err
}

// TransitionStatus is the guarded payout state-machine step; the guard is
// what makes the compensating credit exactly-once.
func (r *PayoutRepository) TransitionStatus(payoutID uint, from []string, to string, extra map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	res := r.db.Model(&models.Payout{}).
		Where("id = ? AND status IN ?", payoutID, from).
		UpdateColumns(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
