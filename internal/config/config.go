package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPPort    string
	LogLevel    string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	Payment   PaymentConfig
	Reconcile ReconcileConfig

	SeedDemoCatalog bool
}

// PaymentConfig configures the outbound payment provider client.
type PaymentConfig struct {
	Provider  string
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

// ReconcileConfig configures the pending-transaction poller.
type ReconcileConfig struct {
	Enabled     bool
	Interval    time.Duration
	GracePeriod time.Duration
	BatchSize   int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "topup"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPPort:    getenv("HTTP_PORT", "8080"),
		LogLevel:    strings.ToLower(getenv("LOG_LEVEL", "info")),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "topup"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),

		Payment: PaymentConfig{
			Provider:  strings.ToLower(getenv("PAYMENT_PROVIDER", "opn")),
			BaseURL:   strings.TrimRight(getenv("PAYMENT_BASE_URL", "https://api.omise.co"), "/"),
			SecretKey: strings.TrimSpace(getenv("PAYMENT_SECRET_KEY", "")),
			Timeout:   getenvDuration("PAYMENT_TIMEOUT", 15*time.Second),
		},
		Reconcile: ReconcileConfig{
			Enabled:     getenvBool("RECONCILE_ENABLED", true),
			Interval:    getenvDuration("RECONCILE_INTERVAL", time.Minute),
			GracePeriod: getenvDuration("RECONCILE_GRACE_PERIOD", 2*time.Minute),
			BatchSize:   getenvInt("RECONCILE_BATCH_SIZE", 50),
		},

		SeedDemoCatalog: getenvBool("SEED_DEMO_CATALOG", false),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
