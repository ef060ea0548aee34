package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/patrimoine-booking/internal/booking"
	httpmiddleware "github.com/wolfman30/patrimoine-booking/internal/http/middleware"
	"github.com/wolfman30/patrimoine-booking/internal/landing"
	"github.com/wolfman30/patrimoine-booking/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	BookingHandler     *booking.Handler
	LandingHandler     *landing.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	// BookingLimiter throttles submissions per client; nil disables it.
	BookingLimiter *httpmiddleware.RateLimiter
	// TrustProxyHeaders installs chi's RealIP so forwarded client addresses
	// replace the peer address.
	TrustProxyHeaders bool
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	if cfg.BookingHandler == nil {
		panic("router: booking handler required")
	}
	r := chi.NewRouter()

	if cfg.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))

	r.Get("/health", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	if cfg.LandingHandler != nil {
		r.Get("/", cfg.LandingHandler.Page)
	}

	r.Route("/api", func(api chi.Router) {
		api.Get("/booking/options", cfg.BookingHandler.Options)
		api.Group(func(submit chi.Router) {
			if cfg.BookingLimiter != nil {
				submit.Use(httpmiddleware.RateLimit(cfg.BookingLimiter))
			}
			submit.Post("/send-booking", cfg.BookingHandler.SendBooking)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
	})

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
