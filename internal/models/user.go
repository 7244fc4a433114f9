package models

import (
	"time"

	"storya/internal/domain"

	"gorm.io/gorm"
)

type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Email        string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string `gorm:"size:255" json:"-"`
	Role         string `gorm:"size:20;not null;index" json:"role"` // CUSTOMER | EXECUTOR | ADMIN

	// BalanceCents is mutated only inside payment-service transactions and
	// must never go negative.
	BalanceCents int64 `gorm:"not null;default:0" json:"balance_cents"`

	TrustLevelID *uint `gorm:"index" json:"trust_level_id"`

	// Cumulative executor stats feeding tier resolution.
	TotalExecutions int     `gorm:"not null;default:0" json:"total_executions"`
	AverageRating   float64 `gorm:"not null;default:0" json:"average_rating"`
	RatingCount     int     `gorm:"not null;default:0" json:"-"`

	// Cached verification flags; refreshed by the verification collaborator,
	// never checked live on the payout path.
	SelfEmployedVerified bool `gorm:"default:false" json:"self_employed_verified"`
	WalletVerified       bool `gorm:"default:false" json:"wallet_verified"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	TrustLevel *TrustLevel `gorm:"foreignKey:TrustLevelID" json:"trust_level,omitempty"`
}

func (User) TableName() string { return "users" }

func (u *User) IsCustomer() bool { return u.Role == domain.RoleCustomer }
func (u *User) IsExecutor() bool { return u.Role == domain.RoleExecutor }

// DaysActive returns whole days since registration.
func (u *User) DaysActive(now time.Time) int {
	return int(now.Sub(u.CreatedAt).Hours() / 24)
}
