package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/xendit/xendit-go/v6"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/raffialdn/karyapay/internal/models"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Session-level Postgres timeouts, in milliseconds. They bound how long
	// a row-lock wait or a single statement may run before the server
	// cancels it and the transaction rolls back.
	DBLockTimeoutMS      int
	DBStatementTimeoutMS int
}

func LoadConfig() (*Config, error) {
	return &Config{
		DBHost:               os.Getenv("DB_HOST"),
		DBPort:               os.Getenv("DB_PORT"),
		DBUser:               os.Getenv("DB_USER"),
		DBPassword:           os.Getenv("DB_PASSWORD"),
		DBName:               os.Getenv("DB_NAME"),
		DBLockTimeoutMS:      envInt("DB_LOCK_TIMEOUT_MS", 5000),
		DBStatementTimeoutMS: envInt("DB_STATEMENT_TIMEOUT_MS", 30000),
	}, nil
}

func envInt(key string, fallback int) int {
	if raw := os.Getenv(key); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

type XenditConfig struct {
	SecretKey     string
	CallbackToken string
}

func LoadXenditConfig() (*XenditConfig, error) {
	return &XenditConfig{
		SecretKey:     os.Getenv("XENDIT_SECRET_KEY"),
		CallbackToken: os.Getenv("XENDIT_CALLBACK_TOKEN"),
	}, nil
}

func InitXenditClient(config *XenditConfig) (*xendit.APIClient, error) {
	client := xendit.NewClient(config.SecretKey)

	return client, nil
}

type DokuConfig struct {
	ClientID     string
	SecretKey    string
	BaseURL      string
	NotifyTarget string
}

func LoadDokuConfig() (*DokuConfig, error) {
	baseURL := os.Getenv("DOKU_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api-sandbox.doku.com"
	}
	notifyTarget := os.Getenv("DOKU_NOTIFY_TARGET")
	if notifyTarget == "" {
		notifyTarget = "/v1/webhooks/doku"
	}
	return &DokuConfig{
		ClientID:     os.Getenv("DOKU_CLIENT_ID"),
		SecretKey:    os.Getenv("DOKU_SECRET_KEY"),
		BaseURL:      baseURL,
		NotifyTarget: notifyTarget,
	}, nil
}

type SettlementConfig struct {
	HoldDays        int
	IntervalMinutes int
}

func LoadSettlementConfig() *SettlementConfig {
	holdDays := 7
	if raw := os.Getenv("SETTLEMENT_HOLD_DAYS"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			holdDays = parsed
		}
	}
	interval := 15
	if raw := os.Getenv("SETTLEMENT_INTERVAL_MINUTES"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			interval = parsed
		}
	}
	return &SettlementConfig{
		HoldDays:        holdDays,
		IntervalMinutes: interval,
	}
}

func enableUUIDExtension(db *gorm.DB) error {
	return db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error
}

// buildDSN includes lock_timeout and statement_timeout so every session
// gets bounded lock waits; pgx forwards unknown key/value pairs to the
// server as runtime parameters.
func buildDSN(cfg *Config) string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC lock_timeout=%d statement_timeout=%d",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort,
		cfg.DBLockTimeoutMS, cfg.DBStatementTimeoutMS,
	)
}

func InitDatabase(cfg *Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(buildDSN(cfg)), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := enableUUIDExtension(db); err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.PaymentTransaction{},
		&models.PaymentEvent{},
		&models.RevenueShare{},
		&models.Withdrawal{},
	)
	if err != nil {
		return nil, err
	}

	seedRoles(db)

	return db, nil
}

func seedRoles(db *gorm.DB) {
	roles := []models.Role{
		{Name: models.RoleBuyer},
		{Name: models.RoleCreator},
		{Name: models.RoleAdmin},
	}

	for _, role := range roles {
		var existingRole models.Role
		result := db.Where("name = ?", role.Name).First(&existingRole)
		if result.Error != nil {
			db.Create(&role)
		}
	}
}
