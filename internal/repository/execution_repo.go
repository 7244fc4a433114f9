package repository

import (
	"errors"
	"time"

	"storya/internal/domain"
	"storya/internal/models"

	"gorm.io/gorm"
)

type ExecutionRepository struct {
	db *gorm.DB
}

func NewExecutionRepository(db *gorm.DB) *ExecutionRepository {
	return &ExecutionRepository{db: db}
}

func (r *ExecutionRepository) WithTx(tx *gorm.DB) *ExecutionRepository {
	return &ExecutionRepository{db: tx}
}

func (r *ExecutionRepository) Create(e *models.Execution) error {
	return r.db.Create(e).Error
}

func (r *ExecutionRepository) GetByID(id uint) (*models.Execution, error) {
	var e models.Execution
	if err := r.db.First(&e, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *ExecutionRepository) Update(e *models.Execution) error {
	return r.db.Save(e).Error
}

// HasNonTerminal reports whether the executor already holds an open
// execution on the order (anything but REJECTED/COMPLETED).
func (r *ExecutionRepository) HasNonTerminal(orderID, executorID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Execution{}).
		Where("order_id = ? AND executor_id = ?", orderID, executorID).
		Where("status NOT IN ?", []string{domain.ExecutionStatusRejected, domain.ExecutionStatusCompleted}).
		Count(&count).Error
	return count > 0, err
}

func (r *ExecutionRepository) CountCompletedForOrder(orderID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Execution{}).
		Where("order_id = ? AND status = ?", orderID, domain.ExecutionStatusCompleted).
		Count(&count).Error
	return count, err
}

// CountClaimedSince counts the executor's claims created after the cutoff;
// used for the tier daily limit.
func (r *ExecutionRepository) CountClaimedSince(executorID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Execution{}).
		Where("executor_id = ? AND created_at >= ?", executorID, since).
		Count(&count).Error
	return count, err
}

func (r *ExecutionRepository) ListByExecutor(executorID uint) ([]models.Execution, error) {
	var list []models.Execution
	err := r.db.Where("executor_id = ?", executorID).Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *ExecutionRepository) ListByOrder(orderID uint) ([]models.Execution, error) {
	var list []models.Execution
	err := r.db.Where("order_id = ?", orderID).Order("created_at ASC").Find(&list).Error
	return list, err
}

func (r *ExecutionRepository) ListPendingReview() ([]models.Execution, error) {
	var list []models.Execution
	err := r.db.Where("status = ?", domain.ExecutionStatusPendingReview).
		Order("created_at ASC").Find(&list).Error
	return list, err
}

// TransitionStatus is the guarded state-machine step. Zero rows affected
// means the execution was not in the expected source state.
func (r *ExecutionRepository) TransitionStatus(executionID uint, from []string, to string) (bool, error) {
	res := r.db.Model(&models.Execution{}).
		Where("id = ? AND status IN ?", executionID, from).
		UpdateColumn("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
