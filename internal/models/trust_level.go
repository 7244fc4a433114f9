package models

import (
	"time"

	"gorm.io/gorm"
)

// TrustLevel is an executor reputation tier. Tiers are ordered by
// MinExecutions; a user qualifies for the highest tier whose thresholds are
// all satisfied. CommissionRate is the executor's share of an order reward.
type TrustLevel struct {
	ID                    uint    `gorm:"primaryKey" json:"id"`
	Name                  string  `gorm:"uniqueIndex;size:64;not null" json:"name"`
	MinExecutions         int     `gorm:"not null;default:0" json:"min_executions"`
	MinRating             float64 `gorm:"not null;default:0" json:"min_rating"`
	MinDaysActive         int     `gorm:"not null;default:0" json:"min_days_active"`
	CommissionRate        float64 `gorm:"not null" json:"commission_rate"` // 0..1
	MinPricePerStoryCents int64   `gorm:"not null;default:0" json:"min_price_per_story_cents"`
	MaxDailyExecutions    int     `gorm:"not null;default:0" json:"max_daily_executions"` // 0 = unlimited
	Active                bool    `gorm:"default:true" json:"active"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (TrustLevel) TableName() string { return "trust_levels" }
