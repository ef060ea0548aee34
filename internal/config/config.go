package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port      string
	Env       string
	LogLevel  string
	LogFormat string

	// Email delivery
	EmailProvider         string
	SendGridAPIKey        string
	BookingFromEmail      string
	BookingFromName       string
	BookingRecipientEmail string
	BookingTimezone       string
	EscapeEmailValues     bool

	// HTTP surface
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
	HTTPTimeout        time.Duration
	// TrustProxyHeaders lets X-Forwarded-For/X-Real-IP override the peer
	// address. Enable only behind a proxy that overwrites them.
	TrustProxyHeaders bool

	// AWS SES (EMAIL_PROVIDER=ses)
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Duplicate-submission guard; disabled when DuplicateWindow is zero.
	RedisAddr       string
	RedisPassword   string
	RedisTLS        bool
	DuplicateWindow time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", "8080"),
		Env:       getEnv("ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		EmailProvider:         strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "sendgrid"))),
		SendGridAPIKey:        getEnv("SENDGRID_API_KEY", ""),
		BookingFromEmail:      getEnv("BOOKING_FROM_EMAIL", "rendez-vous@patrimoine-expert.fr"),
		BookingFromName:       getEnv("BOOKING_FROM_NAME", "Rendez-vous"),
		BookingRecipientEmail: getEnv("BOOKING_RECIPIENT_EMAIL", "contact@patrimoine-expert.fr"),
		BookingTimezone:       getEnv("BOOKING_TIMEZONE", "Europe/Paris"),
		EscapeEmailValues:     getEnvAsBool("EMAIL_ESCAPE_VALUES", false),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		RateLimitRPS:       getEnvAsFloat("BOOKING_RATE_LIMIT_RPS", 0.2),
		RateLimitBurst:     getEnvAsInt("BOOKING_RATE_LIMIT_BURST", 5),
		HTTPTimeout:        getEnvAsDuration("HTTP_TIMEOUT", 15*time.Second),
		TrustProxyHeaders:  getEnvAsBool("TRUST_PROXY_HEADERS", false),

		AWSRegion:           getEnv("AWS_REGION", "eu-west-3"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisTLS:        getEnvAsBool("REDIS_TLS", false),
		DuplicateWindow: getEnvAsDuration("DUPLICATE_WINDOW", 0),
	}
}

// DuplicateGuardEnabled reports whether repeated submissions should be suppressed.
func (c *Config) DuplicateGuardEnabled() bool {
	return c.DuplicateWindow > 0 && strings.TrimSpace(c.RedisAddr) != ""
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
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

// getEnvAsList splits a comma separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
