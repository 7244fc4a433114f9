package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Cloudinary CloudinaryConfig
	Payment    PaymentConfig
	Ledger     LedgerConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

// PaymentConfig covers the external payment-provider gateway.
type PaymentConfig struct {
	BaseURL       string
	APIKey        string
	WebhookSecret string
	DepositExpiry time.Duration
}

// LedgerConfig holds the money-moving knobs of the order/payout/refund core.
type LedgerConfig struct {
	MinRewardCents    int64         // platform-wide floor for order reward
	QRCodeTTL         time.Duration // customer-facing redirect token lifetime
	GraceWindow       time.Duration // refundDeadline = deadline + GraceWindow
	SweepInterval     time.Duration // refund sweep cadence
	TierSweepInterval time.Duration // trust-tier upgrade cadence
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         envOr("PORT", "8088"),
			Env:          envOr("APP_ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             envOr("DATABASE_DSN", "storya:storya@tcp(localhost:3306)/storya?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret:  envOr("JWT_ACCESS_SECRET", "change-me-in-production"),
			RefreshSecret: envOr("JWT_REFRESH_SECRET", "change-me-refresh"),
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 168 * time.Hour,
			Issuer:        "storya",
		},
		Cloudinary: CloudinaryConfig{
			CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		},
		Payment: PaymentConfig{
			BaseURL:       envOr("PAYMENT_BASE_URL", ""),
			APIKey:        os.Getenv("PAYMENT_API_KEY"),
			WebhookSecret: os.Getenv("PAYMENT_WEBHOOK_SECRET"),
			DepositExpiry: 30 * time.Minute,
		},
		Ledger: LedgerConfig{
			MinRewardCents:    envInt64("LEDGER_MIN_REWARD_CENTS", 10000), // 100.00
			QRCodeTTL:         15 * time.Minute,
			GraceWindow:       72 * time.Hour,
			SweepInterval:     envDuration("LEDGER_SWEEP_INTERVAL", 10*time.Minute),
			TierSweepInterval: envDuration("LEDGER_TIER_SWEEP_INTERVAL", 6*time.Hour),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
