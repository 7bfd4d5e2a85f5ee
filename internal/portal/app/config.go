package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	JWTSecret string // Required: HMAC signing secret, at least 32 bytes
	Issuer    string // Optional: issuer claim for tokens (default: voltgrid-portal)

	DatabaseFile  string // Optional: path to SQLite database file (default: ./portal.db)
	SiteURL       string // Optional: public portal URL used in emails (default: https://portal.voltgrid.example)
	CORSOrigin    string // Optional: allowed browser origin (default: *)
	EmailAPIURL   string // Optional: transactional email provider endpoint
	EmailAPIKey   string // Optional: provider API key
	WebhookSecret string // Optional: HMAC secret for e-signature webhook deliveries

	SessionTTL      time.Duration // Absolute session/token lifetime (default: 12h)
	SessionTimeout  time.Duration // Idle window before a session expires (default: 30m)
	SessionWarning  time.Duration // Warning lead time before the idle deadline (default: 5m)
	SessionDebounce time.Duration // Coalescing window for activity bursts (default: 10s)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		JWTSecret: os.Getenv("JWT_SECRET"),
		Issuer:    getEnvOrDefault("PORTAL_ISSUER", "voltgrid-portal"),

		DatabaseFile:  getEnvOrDefault("DATABASE_FILE", "portal.db"),
		SiteURL:       getEnvOrDefault("SITE_URL", "https://portal.voltgrid.example"),
		CORSOrigin:    getEnvOrDefault("CORS_ORIGIN", "*"),
		EmailAPIURL:   os.Getenv("EMAIL_API_URL"),
		EmailAPIKey:   os.Getenv("EMAIL_API_KEY"),
		WebhookSecret: os.Getenv("DOCUSIGN_WEBHOOK_SECRET"),

		SessionTTL:      getEnvDurationOrDefault("SESSION_TTL", 12*time.Hour),
		SessionTimeout:  getEnvDurationOrDefault("SESSION_TIMEOUT", 30*time.Minute),
		SessionWarning:  getEnvDurationOrDefault("SESSION_WARNING", 5*time.Minute),
		SessionDebounce: getEnvDurationOrDefault("SESSION_DEBOUNCE", 10*time.Second),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Accept duration strings like "30m" or bare integer minutes.
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
