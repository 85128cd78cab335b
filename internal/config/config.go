package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store backends understood by the storage layer
const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreMemory   = "memory"
)

// Config holds application configuration. It is built once at process start
// and handed to the components that need it.
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	PublicBaseURL string
	Timezone      string

	// Appointment store
	StoreBackend  string
	DBPath        string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Twilio
	TwilioAccountSID        string
	TwilioAuthToken         string
	TwilioPhoneNumber       string
	ValidateTwilioSignature bool
	SMSConfirmations        bool

	// Text generation platform; loaded for parity with the deployment
	// environment, the call flow does not use it.
	OpenAIAPIKey string

	// Tracing
	OTELEnabled  bool
	OTELEndpoint string
}

// LoadDotEnv loads .env files for local development. Missing files are not an error.
func LoadDotEnv(paths ...string) []string {
	var loaded []string
	for _, p := range paths {
		if err := godotenv.Load(p); err == nil {
			loaded = append(loaded, p)
		}
	}
	return loaded
}

// Load reads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		Port:          getEnv("PORT", "5000"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", ""), "/"),
		Timezone:      getEnv("APP_TIMEZONE", "UTC"),

		StoreBackend:  strings.ToLower(strings.TrimSpace(getEnv("STORE_BACKEND", StoreSQLite))),
		DBPath:        getEnv("DB_PATH", "appointments.db"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		TwilioAccountSID:        getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:         getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioPhoneNumber:       getEnv("TWILIO_PHONE_NUMBER", ""),
		ValidateTwilioSignature: getEnvAsBool("VALIDATE_TWILIO_SIGNATURE", false),
		SMSConfirmations:        getEnvAsBool("SMS_CONFIRMATIONS", false),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),

		OTELEnabled:  getEnvAsBool("OTEL_ENABLED", false),
		OTELEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}

	// Kept for deployments that predate STORE_BACKEND
	if getEnvAsBool("USE_MEMORY_STORE", false) {
		cfg.StoreBackend = StoreMemory
	}

	return cfg
}

// TwilioConfigured reports whether REST credentials are present
func (c *Config) TwilioConfigured() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != ""
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
