package models

import (
	"time"

	"gorm.io/gorm"
)

// Payout is an executor withdrawal request. The amount is reserved (balance
// already decremented) the moment the row is created; terminal failure or
// rejection credits it back exactly once.
type Payout struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	UserID      uint   `gorm:"not null;index" json:"user_id"`
	Reference   string `gorm:"size:64;uniqueIndex;not null" json:"reference"`
	AmountCents int64  `gorm:"not null" json:"amount_cents"`
	Method      string `gorm:"size:20;not null" json:"method"`       // BANK | WALLET
	Status      string `gorm:"size:20;not null;index" json:"status"` // PENDING, PROCESSING, COMPLETED, FAILED, CANCELLED, REJECTED
	ProviderRef string `gorm:"size:128" json:"provider_ref"`
	Comment     string `gorm:"size:512" json:"comment"`

	ProcessedAt *time.Time `json:"processed_at"`
	CompletedAt *time.Time `json:"completed_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Payout) TableName() string { return "payouts" }
