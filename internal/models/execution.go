package models

import (
	"time"

	"gorm.io/gorm"
)

// Execution is one executor's attempt at an order. At most one execution per
// (order, executor) pair may be in a non-terminal state at a time.
type Execution struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	OrderID    uint `gorm:"not null;index:idx_executions_order_executor" json:"order_id"`
	ExecutorID uint `gorm:"not null;index:idx_executions_order_executor" json:"executor_id"`

	ScreenshotURL string `gorm:"size:512" json:"screenshot_url"`

	// RewardCents snapshots the payout amount from the order at claim time.
	RewardCents int64 `gorm:"not null" json:"reward_cents"`

	Status           string     `gorm:"size:20;not null;index" json:"status"`
	ReviewedAt       *time.Time `json:"reviewed_at"`
	ModeratorID      *uint      `json:"moderator_id"`
	ModeratorComment string     `gorm:"size:512" json:"moderator_comment"`
	Rating           int        `gorm:"not null;default:0" json:"rating"` // 1-5, set on review

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Order    Order `gorm:"foreignKey:OrderID" json:"-"`
	Executor User  `gorm:"foreignKey:ExecutorID" json:"-"`
}

func (Execution) TableName() string { return "executions" }
