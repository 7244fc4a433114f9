package repository

import (
	"errors"

	"storya/internal/domain"
	"storya/internal/models"

	"gorm.io/gorm"
)

type TrustLevelRepository struct {
	db *gorm.DB
}

func NewTrustLevelRepository(db *gorm.DB) *TrustLevelRepository {
	return &TrustLevelRepository{db: db}
}

func (r *TrustLevelRepository) GetByID(id uint) (*models.TrustLevel, error) {
	var t models.TrustLevel
	if err := r.db.First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ListActive returns active tiers highest-threshold first, so the first
// tier a user qualifies for is the one they get.
func (r *TrustLevelRepository) ListActive() ([]models.TrustLevel, error) {
	var list []models.TrustLevel
	err := r.db.Where("active = ?", true).Order("min_executions DESC").Find(&list).Error
	return list, err
}

func (r *TrustLevelRepository) ListAll() ([]models.TrustLevel, error) {
	var list []models.TrustLevel
	err := r.db.Order("min_executions ASC").Find(&list).Error
	return list, err
}

func (r *TrustLevelRepository) Create(t *models.TrustLevel) error {
	return r.db.Create(t).Error
}

func (r *TrustLevelRepository) Update(t *models.TrustLevel) error {
	return r.db.Save(t).Error
}

func (r *TrustLevelRepository) Delete(id uint) error {
	return r.db.Delete(&models.TrustLevel{}, id).Error
}
