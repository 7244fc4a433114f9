package repository

import (
	"errors"

	"storya/internal/domain"
	"storya/internal/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{db: tx}
}

func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	var u models.User
	if err := r.db.Preload("TrustLevel").First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	var u models.User
	err := r.db.Where("email = ?", email).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	var u models.User
	err := r.db.Where("username = ?", username).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Create(u *models.User) error {
	return r.db.Create(u).Error
}

// SetPassword writes only the password hash. User rows are never saved
// whole: balance_cents is owned by Credit/Debit and a full-row Save from a
// stale snapshot would silently revert concurrent credits.
func (r *UserRepository) SetPassword(userID uint, hash string) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("password_hash", hash).Error
}

func (r *UserRepository) SetSelfEmployedVerified(userID uint, verified bool) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("self_employed_verified", verified).Error
}

func (r *UserRepository) SetWalletVerified(userID uint, verified bool) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("wallet_verified", verified).Error
}

// SetTrustLevel updates only the cached tier reference.
func (r *UserRepository) SetTrustLevel(userID, trustLevelID uint) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("trust_level_id", trustLevelID).Error
}

func (r *UserRepository) ListByRole(role string) ([]models.User, error) {
	var list []models.User
	err := r.db.Where("role = ?", role).Find(&list).Error
	return list, err
}

// Credit adds to the user's balance. Must be called inside the same
// transaction as the payment row that records the movement.
func (r *UserRepository) Credit(userID uint, amountCents int64) error {
	res := r.db.Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("balance_cents", gorm.Expr("balance_cents + ?", amountCents))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Debit subtracts from the user's balance. The balance check and the
// decrement are a single guarded UPDATE, so a stale read can never drive the
// balance negative.
func (r *UserRepository) Debit(userID uint, amountCents int64) error {
	res := r.db.Model(&models.User{}).
		Where("id = ? AND balance_cents >= ?", userID, amountCents).
		UpdateColumn("balance_cents", gorm.Expr("balance_cents - ?", amountCents))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrInsufficientFunds
	}
	return nil
}
