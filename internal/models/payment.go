package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment is an append-only ledger row recording every balance-affecting
// event. Rows are never mutated after COMPLETED; corrections are new
// compensating rows.
type Payment struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"not null;index" json:"user_id"`

	// AmountCents is signed: deposits and executor payments are positive,
	// withdrawals negative.
	AmountCents int64  `gorm:"not null" json:"amount_cents"`
	Type        string `gorm:"size:30;not null;index" json:"type"`   // DEPOSIT, WITHDRAWAL, EXECUTOR_PAYMENT
	Status      string `gorm:"size:20;not null;index" json:"status"` // PENDING, COMPLETED, CANCELLED, FAILED

	// ProviderRef is the external provider's transaction id; unique so a
	// replayed confirmation can only ever match one row.
	ProviderRef *string `gorm:"uniqueIndex;size:128" json:"provider_ref"`

	// Reference links the row to the entity that caused it (order id,
	// execution id, payout id, refund id).
	Reference string `gorm:"size:128;index" json:"reference"`

	ExpiresAt   *time.Time `json:"expires_at"`
	CompletedAt *time.Time `json:"completed_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Payment) TableName() string { return "payments" }
