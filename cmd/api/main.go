package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/patrimoine-booking/cmd/mainconfig"
	"github.com/wolfman30/patrimoine-booking/internal/api/router"
	"github.com/wolfman30/patrimoine-booking/internal/app/bootstrap"
	"github.com/wolfman30/patrimoine-booking/internal/booking"
	appconfig "github.com/wolfman30/patrimoine-booking/internal/config"
	httpmiddleware "github.com/wolfman30/patrimoine-booking/internal/http/middleware"
	"github.com/wolfman30/patrimoine-booking/internal/landing"
	"github.com/wolfman30/patrimoine-booking/internal/notify"
	"github.com/wolfman30/patrimoine-booking/internal/observability/metrics"
	"github.com/wolfman30/patrimoine-booking/pkg/logging"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.NewWithFormat(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	logger.Info("starting booking API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"email_provider", cfg.EmailProvider,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := buildApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialise server", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      app.Handler,
		ReadTimeout:  cfg.HTTPTimeout,
		WriteTimeout: cfg.HTTPTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// app is the wired HTTP surface plus the resources it owns.
type app struct {
	Handler http.Handler
	closers []func() error
}

func (a *app) Close() {
	for _, c := range a.closers {
		_ = c()
	}
}

func buildApp(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*app, error) {
	sender, err := buildEmailSender(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	metricsHandler, bookingMetrics := setupMetrics()
	loc := bootstrap.BookingLocation(cfg, logger)
	a := &app{}

	var guard booking.DuplicateGuard
	if cfg.DuplicateGuardEnabled() {
		if client := bootstrap.BuildRedisClient(ctx, cfg, logger, true); client != nil {
			a.closers = append(a.closers, client.Close)
			guard = bootstrap.BuildDuplicateGuard(cfg, client, logger)
		} else {
			logger.Warn("duplicate guard disabled: redis unreachable", "addr", cfg.RedisAddr)
		}
	}

	svc := booking.NewService(booking.ServiceConfig{
		Sender:    sender,
		Recipient: cfg.BookingRecipientEmail,
		Renderer: booking.NewEmailRenderer(booking.RenderOptions{
			Location:     loc,
			EscapeValues: cfg.EscapeEmailValues,
		}),
		Guard:   guard,
		Metrics: bookingMetrics,
		Logger:  logger,
	})

	var limiter *httpmiddleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		go limiter.Run(ctx)
	}

	a.Handler = router.New(&router.Config{
		Logger: logger,
		BookingHandler: booking.NewHandler(svc, logger,
			booking.WithMetrics(bookingMetrics),
			booking.WithLocation(loc),
		),
		LandingHandler:     landing.NewHandler(loc, logger),
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		BookingLimiter:     limiter,
		TrustProxyHeaders:  cfg.TrustProxyHeaders,
	})
	return a, nil
}

// buildEmailSender picks the provider named by EMAIL_PROVIDER. Missing
// credentials do not fail here; sends report the problem instead.
func buildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (notify.EmailSender, error) {
	switch cfg.EmailProvider {
	case "", "sendgrid":
		if cfg.SendGridAPIKey == "" {
			logger.Warn("SENDGRID_API_KEY not set; booking emails will fail until it is configured")
		}
		return notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.BookingFromEmail,
			FromName:  cfg.BookingFromName,
		}, logger), nil
	case "ses":
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Warn("failed to load AWS config; SES sends will fail", "error", err)
			return notify.NewSESSender(nil, notify.SESConfig{FromEmail: cfg.BookingFromEmail, FromName: cfg.BookingFromName}, logger), nil
		}
		return notify.NewSESSender(mainconfig.NewSESClient(awsCfg, cfg), notify.SESConfig{
			FromEmail: cfg.BookingFromEmail,
			FromName:  cfg.BookingFromName,
		}, logger), nil
	case "stub":
		logger.Warn("using stub email sender; no booking email will be delivered")
		return notify.NewStubEmailSender(logger), nil
	default:
		return nil, fmt.Errorf("unknown EMAIL_PROVIDER %q", cfg.EmailProvider)
	}
}

func setupMetrics() (http.Handler, *metrics.BookingMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewBookingMetrics(reg)
}
