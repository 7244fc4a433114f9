package database

import (
	"storya/config"
	"storya/internal/domain"
	"storya/internal/models"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
		// Duplicate-key errors become gorm.ErrDuplicatedKey; the refund
		// sweep relies on that to detect a concurrent sweep's insert.
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.TrustLevel{},
		&models.Order{},
		&models.Execution{},
		&models.Payment{},
		&models.Payout{},
		&models.Refund{},
		&models.CommissionSetting{},
		&models.Notification{},
		&models.AuditLog{},
	)
}

// Seed inserts the default trust tiers, platform settings and an admin
// account when the tables are empty.
func Seed(db *gorm.DB, cfg *config.Config) {
	var count int64
	db.Model(&models.TrustLevel{}).Count(&count)
	if count == 0 {
		tiers := []models.TrustLevel{
			{Name: "Newbie", MinExecutions: 0, MinRating: 0, MinDaysActive: 0, CommissionRate: 0.5, MinPricePerStoryCents: 10000, MaxDailyExecutions: 3, Active: true},
			{Name: "Trusted", MinExecutions: 10, MinRating: 4.0, MinDaysActive: 14, CommissionRate: 0.6, MinPricePerStoryCents: 20000, MaxDailyExecutions: 10, Active: true},
			{Name: "Pro", MinExecutions: 50, MinRating: 4.5, MinDaysActive: 60, CommissionRate: 0.7, MinPricePerStoryCents: 40000, MaxDailyExecutions: 0, Active: true},
		}
		if err := db.Create(&tiers).Error; err != nil {
			zap.L().Error("seed trust levels", zap.Error(err))
		}
	}

	settings := []models.CommissionSetting{
		{Key: models.SettingMinRewardCents, Value: "10000"},
		{Key: models.SettingGraceHours, Value: "72"},
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&settings).Error; err != nil {
		zap.L().Error("seed settings", zap.Error(err))
	}

	db.Model(&models.User{}).Where("role = ?", domain.RoleAdmin).Count(&count)
	if count == 0 {
		hash, _ := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
		admin := models.User{
			Username:     "admin",
			Email:        "admin@storya.local",
			PasswordHash: string(hash),
			Role:         domain.RoleAdmin,
		}
		if err := db.Create(&admin).Error; err != nil {
			zap.L().Error("seed admin", zap.Error(err))
		}
	}
}
