package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"circuitrack/pkg/cashback"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Wallet    WalletConfig
	Cashback  cashback.Config
	RateLimit RateLimitConfig
	Admin     AdminConfig
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

type WalletConfig struct {
	Currency string
	// MaxRetries bounds how often a conflicting balance write is retried.
	MaxRetries int
	// OpeningBalance is credited through the ledger when a wallet is provisioned.
	OpeningBalance decimal.Decimal
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
	TTL   time.Duration
}

type AdminConfig struct {
	Email    string
	Password string
}

// Load builds the config from defaults, a local .env file when present, and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	opening, err := decimal.NewFromString(getEnv("WALLET_OPENING_BALANCE", "0"))
	if err != nil {
		return nil, fmt.Errorf("WALLET_OPENING_BALANCE: %w", err)
	}
	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			Env:          getEnv("APP_ENV", "development"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			DSN:             getEnv("DATABASE_DSN", "circuitrack:circuitrack@tcp(localhost:3306)/circuitrack?charset=utf8mb4&parseTime=True&loc=UTC"),
			MaxIdleConns:    getInt("DATABASE_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getInt("DATABASE_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getDuration("DATABASE_CONN_MAX_LIFETIME", time.Hour),
		},
		JWT: JWTConfig{
			AccessSecret:  getEnv("JWT_ACCESS_SECRET", "change-me-in-production"),
			RefreshSecret: getEnv("JWT_REFRESH_SECRET", "change-me-refresh"),
			AccessExpiry:  getDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
			RefreshExpiry: getDuration("JWT_REFRESH_EXPIRY", 168*time.Hour),
			Issuer:        getEnv("JWT_ISSUER", "circuitrack"),
		},
		Wallet: WalletConfig{
			Currency:       getEnv("WALLET_CURRENCY", "EGP"),
			MaxRetries:     getInt("WALLET_MAX_RETRIES", 3),
			OpeningBalance: opening,
		},
		Cashback: cashback.Default(),
		RateLimit: RateLimitConfig{
			RPS:   getFloat("RATE_LIMIT_RPS", 5),
			Burst: getInt("RATE_LIMIT_BURST", 20),
			TTL:   getDuration("RATE_LIMIT_TTL", 3*time.Minute),
		},
		Admin: AdminConfig{
			Email:    getEnv("ADMIN_EMAIL", "admin@circuitrack.local"),
			Password: os.Getenv("ADMIN_PASSWORD"),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Env() == "production" && c.JWT.AccessSecret == "change-me-in-production" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required in production")
	}
	if c.Wallet.MaxRetries < 0 {
		return fmt.Errorf("WALLET_MAX_RETRIES must not be negative")
	}
	if c.Wallet.OpeningBalance.IsNegative() {
		return fmt.Errorf("WALLET_OPENING_BALANCE must not be negative")
	}
	if !c.Wallet.OpeningBalance.Equal(c.Wallet.OpeningBalance.Round(2)) {
		return fmt.Errorf("WALLET_OPENING_BALANCE must have at most two decimal places")
	}
	return nil
}

func (c *Config) Env() string { return c.Server.Env }

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return def
}
