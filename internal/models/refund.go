package models

import (
	"time"

	"gorm.io/gorm"
)

// Refund returns an order's reward to the customer when the grace window
// elapses without a completed execution. The unique index on OrderID is the
// concurrency guard: overlapping sweeps degrade to a duplicate-key no-op
// instead of a double refund.
type Refund struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	OrderID     uint   `gorm:"uniqueIndex;not null" json:"order_id"`
	CustomerID  uint   `gorm:"not null;index" json:"customer_id"`
	AmountCents int64  `gorm:"not null" json:"amount_cents"`
	Status      string `gorm:"size:20;not null;index" json:"status"` // PENDING, COMPLETED, CANCELLED

	SettledAt *time.Time `json:"settled_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Order    Order `gorm:"foreignKey:OrderID" json:"-"`
	Customer User  `gorm:"foreignKey:CustomerID" json:"-"`
}

func (Refund) TableName() string { return "refunds" }
