package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort        string
	AppEnv         string
	LogLevel       string
	AllowedOrigins []string // CORS allowed origins

	AdminPassword string
	SessionSecret string // empty means a random key is generated at startup
	SessionTTL    time.Duration

	OTP OTPConfig

	Notifier  string // "onesignal" | "sns" | "log"
	OneSignal OneSignalConfig
	SNSRegion string

	PayloadMaxAge           time.Duration
	PayloadCleanupInterval  time.Duration
	ActivityCleanupInterval time.Duration
	ActivityCapacity        int
	UsageCapacity           int

	ForwardTimeout time.Duration
	ForwardRate    float64
}

// OTPConfig tunes the one-time code lifecycle.
type OTPConfig struct {
	TTL           time.Duration
	MaxAttempts   int
	GraceDelay    time.Duration
	SweepInterval time.Duration
}

// OneSignalConfig holds the push provider credentials.
type OneSignalConfig struct {
	APIURL     string
	APIKey     string
	AppID      string
	TemplateID string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:        getEnv("APP_PORT", "3000"),
		AppEnv:         getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		AdminPassword:  strings.TrimSpace(os.Getenv("ADMIN_PASSWORD")),
		SessionSecret:  getEnv("SESSION_SECRET", ""),
		SessionTTL:     getEnvDuration("SESSION_TTL", 24*time.Hour),
		OTP: OTPConfig{
			TTL:           getEnvDuration("OTP_TTL", 5*time.Minute),
			MaxAttempts:   getEnvInt("OTP_MAX_ATTEMPTS", 3),
			GraceDelay:    getEnvDuration("OTP_GRACE_DELAY", 30*time.Second),
			SweepInterval: getEnvDuration("OTP_SWEEP_INTERVAL", time.Minute),
		},
		Notifier: getEnv("NOTIFIER", "onesignal"),
		OneSignal: OneSignalConfig{
			APIURL:     getEnv("ONESIGNAL_API_URL", "https://onesignal.com/api/v1/notifications"),
			APIKey:     getEnv("ONESIGNAL_API_KEY", ""),
			AppID:      getEnv("ONESIGNAL_APP_ID", ""),
			TemplateID: getEnv("ONESIGNAL_TEMPLATE_ID", ""),
		},
		SNSRegion:               getEnv("SNS_REGION", "us-east-1"),
		PayloadMaxAge:           getEnvDuration("PAYLOAD_MAX_AGE", 7*24*time.Hour),
		PayloadCleanupInterval:  getEnvDuration("PAYLOAD_CLEANUP_INTERVAL", time.Hour),
		ActivityCleanupInterval: getEnvDuration("ACTIVITY_CLEANUP_INTERVAL", 6*time.Hour),
		ActivityCapacity:        getEnvInt("ACTIVITY_CAPACITY", 1000),
		UsageCapacity:           getEnvInt("USAGE_CAPACITY", 10000),
		ForwardTimeout:          getEnvDuration("FORWARD_TIMEOUT", 15*time.Second),
		ForwardRate:             getEnvFloat("FORWARD_RATE", 5),
	}
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
