package booking

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wolfman30/patrimoine-booking/internal/observability/metrics"
	"github.com/wolfman30/patrimoine-booking/pkg/logging"
)

// MaxBodyBytes caps the accepted booking payload.
const MaxBodyBytes = 64 << 10

// Response messages returned to the form.
const (
	MessageSent          = "Booking request sent successfully!"
	MessageDeliveryError = "Error while sending the email"
	MessageInternalError = "Internal server error"
	MessageInProgress    = "This booking request is already being processed"
)

// SendResponse is the success body of POST /api/send-booking.
type SendResponse struct {
	Message string `json:"message"`
	EmailID string `json:"emailId,omitempty"`
}

// ErrorResponse is the failure body of every booking endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
}

// OptionsResponse describes the constraints a booking form must enforce.
type OptionsResponse struct {
	TimeSlots      []string  `json:"timeSlots"`
	MinDate        string    `json:"minDate"`
	AgeBrackets    []Bracket `json:"ageBrackets"`
	IncomeBrackets []Bracket `json:"incomeBrackets"`
}

// Handler serves the booking HTTP endpoints.
type Handler struct {
	service  *Service
	metrics  *metrics.BookingMetrics
	logger   *logging.Logger
	location *time.Location
	now      func() time.Time
}

// HandlerOption customises a Handler.
type HandlerOption func(*Handler)

// WithMetrics records malformed payloads.
func WithMetrics(m *metrics.BookingMetrics) HandlerOption {
	return func(h *Handler) { h.metrics = m }
}

// WithLocation sets the zone used to compute the minimum selectable date.
func WithLocation(loc *time.Location) HandlerOption {
	return func(h *Handler) {
		if loc != nil {
			h.location = loc
		}
	}
}

// WithClock overrides the handler clock.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

func NewHandler(service *Service, logger *logging.Logger, opts ...HandlerOption) *Handler {
	if service == nil {
		panic("booking: service cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	h := &Handler{
		service:  service,
		logger:   logger,
		location: time.UTC,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SendBooking handles POST /api/send-booking.
func (h *Handler) SendBooking(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(w, r)
	if err != nil {
		h.metrics.ObserveSubmission(metrics.OutcomeMalformed)
		h.logger.FromContext(r.Context()).Error("failed to decode booking request", "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: MessageInternalError})
		return
	}

	receipt, err := h.service.Submit(r.Context(), req)
	if err != nil {
		var missing *MissingFieldError
		switch {
		case errors.As(err, &missing):
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: missing.Error()})
		case errors.Is(err, ErrInProgress):
			writeJSON(w, http.StatusConflict, ErrorResponse{Error: MessageInProgress})
		case errors.Is(err, ErrDelivery):
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: MessageDeliveryError})
		default:
			h.logger.FromContext(r.Context()).Error("booking submission failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: MessageInternalError})
		}
		return
	}

	writeJSON(w, http.StatusOK, SendResponse{Message: MessageSent, EmailID: receipt.MessageID})
}

// Options handles GET /api/booking/options.
func (h *Handler) Options(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, OptionsResponse{
		TimeSlots:      TimeSlots,
		MinDate:        MinimumSelectableDate(h.now().In(h.location)),
		AgeBrackets:    AgeBrackets,
		IncomeBrackets: IncomeBrackets,
	})
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (Request, error) {
	var req Request
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		return req, fmt.Errorf("%w: read body: %w", ErrMalformedRequest, err)
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return req, fmt.Errorf("%w: empty body", ErrMalformedRequest)
	}
	// Non-object JSON such as null would otherwise decode into an empty Request.
	if trimmed[0] != '{' {
		return req, fmt.Errorf("%w: body is not a JSON object", ErrMalformedRequest)
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, fmt.Errorf("%w: %w", ErrMalformedRequest, err)
	}
	return req, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
