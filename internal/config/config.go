package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds gateway configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	OTLPEndpoint string

	// Master database (tenant registry).
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
	DBConnMaxIdleTime int

	// Tenant databases.
	TenantDBPrefix        string
	TenantMaxIdleConn     int
	TenantMaxOpenConn     int
	TenantConnectTimeout  time.Duration
	RegistryLookupTimeout time.Duration

	// Router cache. Zero means entries never expire.
	RouterEntryTTL time.Duration

	Redis RedisConfig
}

// RedisConfig configures the provision lock and signup rate limit.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int

	ProvisionLockTTL time.Duration
	SignupLimit      int
	SignupWindow     time.Duration
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "tenantgate"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),

		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "omsms_master"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 2),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 10),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 600),

		TenantDBPrefix:        getenv("TENANT_DB_PREFIX", "omsms_tenant_"),
		TenantMaxIdleConn:     getenvInt("TENANT_MAX_IDLE_CONN", 1),
		TenantMaxOpenConn:     getenvInt("TENANT_MAX_OPEN_CONN", 5),
		TenantConnectTimeout:  getenvDuration("TENANT_CONNECT_TIMEOUT", 10*time.Second),
		RegistryLookupTimeout: getenvDuration("REGISTRY_LOOKUP_TIMEOUT", 5*time.Second),

		RouterEntryTTL: getenvDuration("ROUTER_ENTRY_TTL", 0),

		Redis: RedisConfig{
			Enabled:          getenvBool("REDIS_ENABLED", false),
			Addr:             getenv("REDIS_ADDR", "localhost:6379"),
			Password:         getenv("REDIS_PASSWORD", ""),
			DB:               getenvInt("REDIS_DB", 0),
			ProvisionLockTTL: getenvDuration("PROVISION_LOCK_TTL", 5*time.Minute),
			SignupLimit:      getenvInt("SIGNUP_RATE_LIMIT", 10),
			SignupWindow:     getenvDuration("SIGNUP_RATE_WINDOW", time.Minute),
		},
	}
}

// Module wires configuration for the application.
var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewProvisioningHolder),
)

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
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
