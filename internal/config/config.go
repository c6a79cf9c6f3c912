package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// It follows the 12-factor app methodology by prioritizing environment variables.
type Config struct {
	Server    ServerConfig
	Webhook   WebhookConfig
	Storage   StorageConfig
	Provider  ProviderConfig
	Dashboard DashboardConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port        string
	Environment string
}

type WebhookConfig struct {
	// Secret is the shared secret used to verify provider signatures.
	Secret string
	// AllowUnsigned opts in to running without a secret, accepting unsigned
	// deliveries. Local development only; the server refuses to start with
	// an empty secret unless this is set.
	AllowUnsigned bool
}

type StorageConfig struct {
	// DataDir holds one sqlite database file per tenant.
	DataDir string
}

type ProviderConfig struct {
	APIBase string
	// Token is the fallback API token used when no PROVIDER_TOKEN_<REF>
	// override exists for an external ref.
	Token       string
	CallTimeout time.Duration
}

type DashboardConfig struct {
	// TokenSecret, when set, requires dashboard socket clients to present
	// a valid HS256 JWT in the token query parameter.
	TokenSecret string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	WebhookLimit  int
	WebhookWindow time.Duration
}

// LoadConfig loads configuration from environment variables.
// A .env file is honored when present but never required.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Webhook: WebhookConfig{
			Secret:        getEnv("WEBHOOK_SECRET", ""),
			AllowUnsigned: getEnvAsBool("WEBHOOK_ALLOW_UNSIGNED", false),
		},
		Storage: StorageConfig{
			DataDir: getEnv("DATA_DIR", "data"),
		},
		Provider: ProviderConfig{
			APIBase:     getEnv("PROVIDER_API_BASE", "https://api.github.com"),
			Token:       getEnv("PROVIDER_TOKEN", ""),
			CallTimeout: getEnvAsDuration("PROVIDER_CALL_TIMEOUT", 10*time.Second),
		},
		Dashboard: DashboardConfig{
			TokenSecret: getEnv("DASHBOARD_TOKEN_SECRET", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		RateLimit: RateLimitConfig{
			WebhookLimit:  getEnvAsInt("WEBHOOK_RATE_LIMIT", 120),
			WebhookWindow: getEnvAsDuration("WEBHOOK_RATE_WINDOW", time.Minute),
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
