package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// WhatsApp Meta Cloud API
	WhatsAppAccessToken       string
	WhatsAppPhoneNumberID     string
	WhatsAppBusinessAccountID string
	WhatsAppAppSecret         string
	WhatsAppVerifyToken       string
	WhatsAppAPIBaseURL        string
	WhatsAppTimeout           time.Duration
	WhatsAppMaxRetries        int
	WhatsAppRetryBaseDelay    time.Duration

	// Circuit breaker guarding the WhatsApp API
	BreakerFailureThreshold int
	BreakerRecoveryTimeout  time.Duration

	// SendGrid email configuration
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	// Clinic staff addresses copied on booking confirmations
	NotifyEmailRecipients []string

	// DefaultClinicID owns inbound WhatsApp traffic in single-tenant
	// deployments.
	DefaultClinicID string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 1),

		WhatsAppAccessToken:       getEnv("WHATSAPP_ACCESS_TOKEN", ""),
		WhatsAppPhoneNumberID:     getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
		WhatsAppBusinessAccountID: getEnv("WHATSAPP_BUSINESS_ACCOUNT_ID", ""),
		WhatsAppAppSecret:         getEnv("WHATSAPP_APP_SECRET", ""),
		WhatsAppVerifyToken:       getEnv("WHATSAPP_VERIFY_TOKEN", ""),
		WhatsAppAPIBaseURL:        getEnv("WHATSAPP_API_BASE_URL", ""),
		WhatsAppTimeout:           getEnvAsDuration("WHATSAPP_TIMEOUT", 10*time.Second),
		WhatsAppMaxRetries:        getEnvAsInt("WHATSAPP_MAX_RETRIES", 3),
		WhatsAppRetryBaseDelay:    getEnvAsDuration("WHATSAPP_RETRY_BASE_DELAY", time.Second),

		BreakerFailureThreshold: getEnvAsInt("BREAKER_FAILURE_THRESHOLD", 5),
		BreakerRecoveryTimeout:  getEnvAsDuration("BREAKER_RECOVERY_TIMEOUT", time.Minute),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "AtendeAI"),

		NotifyEmailRecipients: getEnvAsList("NOTIFY_EMAIL_RECIPIENTS"),

		DefaultClinicID: getEnv("DEFAULT_CLINIC_ID", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated environment variable, dropping
// empty entries.
func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
