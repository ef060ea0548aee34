package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/patrimoine-booking/internal/booking"
	appconfig "github.com/wolfman30/patrimoine-booking/internal/config"
	"github.com/wolfman30/patrimoine-booking/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildDuplicateGuard returns the Redis-backed guard when DUPLICATE_WINDOW and
// REDIS_ADDR are both set, otherwise nil so every submission is delivered.
func BuildDuplicateGuard(cfg *appconfig.Config, client *redis.Client, logger *logging.Logger) booking.DuplicateGuard {
	if cfg == nil || !cfg.DuplicateGuardEnabled() {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if client == nil {
		logger.Warn("duplicate guard configured but redis unavailable; disabled")
		return nil
	}
	logger.Info("duplicate guard enabled", "window", cfg.DuplicateWindow.String())
	return booking.NewRedisDuplicateGuard(client, cfg.DuplicateWindow)
}

// BookingLocation resolves BOOKING_TIMEZONE, falling back to UTC.
func BookingLocation(cfg *appconfig.Config, logger *logging.Logger) *time.Location {
	if cfg == nil || strings.TrimSpace(cfg.BookingTimezone) == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(cfg.BookingTimezone)
	if err != nil {
		if logger == nil {
			logger = logging.Default()
		}
		logger.Warn("unknown booking timezone, using UTC", "timezone", cfg.BookingTimezone, "error", err)
		return time.UTC
	}
	return loc
}
