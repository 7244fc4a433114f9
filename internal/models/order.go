package models

import (
	"time"

	"gorm.io/gorm"
)

// Order is a funded request for story placements. The commission split is
// computed once at creation from the order's required trust tier and never
// re-derived, so later tier-setting changes cannot skew an existing order.
type Order struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	CustomerID uint `gorm:"not null;index" json:"customer_id"`

	Title     string `gorm:"size:255;not null" json:"title"`
	TargetURL string `gorm:"size:512;not null" json:"target_url"`

	// Required executor tier; fixes the commission split below.
	TrustLevelID uint `gorm:"not null;index" json:"trust_level_id"`

	PricePerStoryCents int64 `gorm:"not null" json:"price_per_story_cents"`
	RewardCents        int64 `gorm:"not null" json:"reward_cents"`
	// PlatformCommission is 1 - the tier commission rate, frozen at creation.
	PlatformCommission    float64 `gorm:"not null" json:"platform_commission"`
	ExecutorEarningsCents int64   `gorm:"not null" json:"executor_earnings_cents"`
	PlatformEarningsCents int64   `gorm:"not null" json:"platform_earnings_cents"`

	QRCode       string    `gorm:"uniqueIndex;size:64;not null" json:"qr_code"`
	QRCodeExpiry time.Time `json:"qr_code_expiry"`
	ScanCount    int       `gorm:"not null;default:0" json:"scan_count"`

	Deadline        time.Time `gorm:"not null" json:"deadline"`
	RefundDeadline  time.Time `gorm:"not null;index" json:"refund_deadline"`
	RefundOnFailure bool      `gorm:"not null" json:"refund_on_failure"`

	Status         string `gorm:"size:20;not null;index" json:"status"` // PENDING, IN_PROGRESS, COMPLETED, CANCELLED
	Quantity       int    `gorm:"not null;default:1" json:"quantity"`
	CompletedCount int    `gorm:"not null;default:0" json:"completed_count"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Customer   User       `gorm:"foreignKey:CustomerID" json:"-"`
	TrustLevel TrustLevel `gorm:"foreignKey:TrustLevelID" json:"-"`
}

func (Order) TableName() string { return "orders" }

func (o *Order) QRValid(now time.Time) bool { return now.Before(o.QRCodeExpiry) }

// PerExecutionEarnings is the executor payout for one completed story.
// Quantity divides ExecutorEarningsCents exactly; the split is built that
// way at creation.
func (o *Order) PerExecutionEarnings() int64 {
	if o.Quantity <= 0 {
		return o.ExecutorEarningsCents
	}
	return o.ExecutorEarningsCents / int64(o.Quantity)
}
