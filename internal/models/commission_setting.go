package models

import (
	"time"

	"gorm.io/gorm"
)

// CommissionSetting stores admin-configurable platform settings as key/value
// pairs (minimum reward, default grace window, and the like).
type CommissionSetting struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Key       string         `gorm:"uniqueIndex;size:100;not null" json:"key"`
	Value     string         `gorm:"size:255;not null" json:"value"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (CommissionSetting) TableName() string { return "commission_settings" }

// Well-known setting keys.
const (
	SettingMinRewardCents = "min_reward_cents"
	SettingGraceHours     = "grace_window_hours"
)
