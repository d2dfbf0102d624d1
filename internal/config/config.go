package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port      string
	Env       string
	JWTSecret string
	AppURL    string

	DB      DatabaseConfig
	Redis   RedisConfig
	Shopify ShopifyConfig
	S3      S3Config
	Pricing PricingConfig
	Worker  WorkerConfig
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// ShopifyConfig contains app credentials for the Shopify install flow.
type ShopifyConfig struct {
	APIKey     string
	APISecret  string
	Scopes     string
	APIVersion string
	ScriptURL  string
}

// S3Config contains storage configuration for FILE field uploads.
type S3Config struct {
	Region          string
	Bucket          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	MaxUploadBytes  int64
}

// PricingConfig bounds formula parsing and fixes the rounding precision.
type PricingConfig struct {
	MaxFormulaLength  int
	MaxFormulaTokens  int
	MaxFormulaDepth   int
	CurrencyPrecision int
}

// WorkerConfig contains interval configuration for background workers.
type WorkerConfig struct {
	LogCleanupInterval time.Duration
	LogRetention       time.Duration
	ScriptTagInterval  time.Duration
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Load .env if present; ignore error if file is missing so that production
	// environments relying solely on real environment variables keep working.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.JWTSecret = getEnv("JWT_SECRET", "")
	cfg.AppURL = getEnv("APP_URL", "http://localhost:8080")

	// Database
	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	// Shopify app credentials
	cfg.Shopify = ShopifyConfig{
		APIKey:     getEnv("SHOPIFY_API_KEY", ""),
		APISecret:  getEnv("SHOPIFY_API_SECRET", ""),
		Scopes:     getEnv("SHOPIFY_SCOPES", "read_products,write_script_tags"),
		APIVersion: getEnv("SHOPIFY_API_VERSION", "2024-10"),
		ScriptURL:  getEnv("SHOPIFY_SCRIPT_URL", ""),
	}

	// S3 (FILE field uploads)
	cfg.S3 = S3Config{
		Region:          getEnv("S3_REGION", "eu-central-1"),
		Bucket:          getEnv("S3_BUCKET", "priceforge-uploads"),
		Endpoint:        getEnv("S3_ENDPOINT", "https://s3.eu-central-1.amazonaws.com"),
		AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		MaxUploadBytes:  int64(getEnvInt("S3_MAX_UPLOAD_BYTES", 10<<20)),
	}

	// Pricing engine bounds
	cfg.Pricing = PricingConfig{
		MaxFormulaLength:  getEnvInt("PRICING_MAX_FORMULA_LENGTH", 2000),
		MaxFormulaTokens:  getEnvInt("PRICING_MAX_FORMULA_TOKENS", 500),
		MaxFormulaDepth:   getEnvInt("PRICING_MAX_FORMULA_DEPTH", 32),
		CurrencyPrecision: getEnvInt("PRICING_CURRENCY_PRECISION", 2),
	}

	// Workers (durations)
	var err error
	if cfg.Worker.LogCleanupInterval, err = parseDurationEnv("LOG_CLEANUP_INTERVAL", "1h"); err != nil {
		return nil, fmt.Errorf("invalid LOG_CLEANUP_INTERVAL: %w", err)
	}
	if cfg.Worker.LogRetention, err = parseDurationEnv("LOG_RETENTION", "720h"); err != nil {
		return nil, fmt.Errorf("invalid LOG_RETENTION: %w", err)
	}
	if cfg.Worker.ScriptTagInterval, err = parseDurationEnv("SCRIPT_TAG_INTERVAL", "6h"); err != nil {
		return nil, fmt.Errorf("invalid SCRIPT_TAG_INTERVAL: %w", err)
	}

	// Basic validation for DB parameters — keeps messages concise and helpful.
	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
		return nil, errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}

	// Validate JWT_SECRET
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set for authentication")
	}

	// The install flow cannot work without app credentials.
	if cfg.Shopify.APIKey == "" || cfg.Shopify.APISecret == "" {
		return nil, errors.New("shopify configuration incomplete: ensure SHOPIFY_API_KEY and SHOPIFY_API_SECRET are set")
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}
