package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/patrimoine-booking/internal/notify"
	"github.com/wolfman30/patrimoine-booking/internal/observability/metrics"
	"github.com/wolfman30/patrimoine-booking/pkg/logging"
)

var bookingTracer = otel.Tracer("patrimoine.internal.booking")

// Receipt describes an accepted submission.
type Receipt struct {
	MessageID string
	Provider  string
	// Duplicate is set when the payload was already delivered inside the guard window.
	Duplicate bool
}

// ServiceConfig wires the notification service.
type ServiceConfig struct {
	Sender        notify.EmailSender
	Recipient     string
	RecipientName string
	Renderer      *EmailRenderer
	Guard         DuplicateGuard
	Metrics       *metrics.BookingMetrics
	Logger        *logging.Logger
	Now           func() time.Time
}

// Service validates booking requests and dispatches the notification email.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	sender        notify.EmailSender
	recipient     string
	recipientName string
	renderer      *EmailRenderer
	guard         DuplicateGuard
	metrics       *metrics.BookingMetrics
	logger        *logging.Logger
	now           func() time.Time
}

func NewService(cfg ServiceConfig) *Service {
	if cfg.Sender == nil {
		panic("booking: email sender cannot be nil")
	}
	if cfg.Renderer == nil {
		cfg.Renderer = NewEmailRenderer(RenderOptions{})
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		sender:        cfg.Sender,
		recipient:     cfg.Recipient,
		recipientName: cfg.RecipientName,
		renderer:      cfg.Renderer,
		guard:         cfg.Guard,
		metrics:       cfg.Metrics,
		logger:        cfg.Logger,
		now:           cfg.Now,
	}
}

// Submit validates req, renders the notification and sends it. A missing field
// yields *MissingFieldError without contacting the provider; provider failures
// are wrapped in ErrDelivery.
func (s *Service) Submit(ctx context.Context, req Request) (*Receipt, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.submit", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()
	logger := s.logger.FromContext(ctx)

	if err := req.Validate(); err != nil {
		var missing *MissingFieldError
		if errors.As(err, &missing) {
			s.metrics.ObserveMissingField(string(missing.Field))
			span.SetAttributes(attribute.String("booking.missing_field", string(missing.Field)))
		}
		s.metrics.ObserveSubmission(metrics.OutcomeInvalid)
		logger.Info("booking rejected", "error", err)
		return nil, err
	}

	fingerprint := ""
	if s.guard != nil {
		fingerprint = req.Fingerprint()
		claim, err := s.guard.Claim(ctx, fingerprint)
		switch {
		case err != nil:
			logger.Warn("duplicate guard unavailable, sending anyway", "error", err)
			fingerprint = ""
		case claim == ClaimDelivered:
			s.metrics.ObserveSubmission(metrics.OutcomeDuplicate)
			span.SetAttributes(attribute.Bool("booking.duplicate", true))
			logger.Info("duplicate booking suppressed", "name", req.Name)
			return &Receipt{Duplicate: true}, nil
		case claim == ClaimPending:
			s.metrics.ObserveSubmission(metrics.OutcomeDuplicate)
			span.SetAttributes(attribute.Bool("booking.duplicate", true))
			logger.Info("identical booking still in flight", "name", req.Name)
			return nil, ErrInProgress
		}
	}

	body, err := s.renderer.Render(req, s.now())
	if err != nil {
		s.release(ctx, logger, fingerprint)
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		return nil, err
	}

	start := time.Now()
	res, err := s.sender.Send(ctx, notify.EmailMessage{
		To:      s.recipient,
		ToName:  s.recipientName,
		Subject: Subject(req),
		HTML:    body,
	})
	s.metrics.ObserveSend(res.Provider, err == nil, time.Since(start))
	if err != nil {
		s.release(ctx, logger, fingerprint)
		s.metrics.ObserveSubmission(metrics.OutcomeFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "delivery failed")
		logger.Error("booking email delivery failed", "error", err, "provider", res.Provider)
		return nil, fmt.Errorf("%w: %w", ErrDelivery, err)
	}

	s.confirm(ctx, logger, fingerprint)
	s.metrics.ObserveSubmission(metrics.OutcomeSent)
	span.SetAttributes(
		attribute.String("email.provider", res.Provider),
		attribute.String("email.message_id", res.MessageID),
	)
	logger.Info("booking email sent", "provider", res.Provider, "message_id", res.MessageID, "date", req.Date, "time", req.Time)
	return &Receipt{MessageID: res.MessageID, Provider: res.Provider}, nil
}

func (s *Service) release(ctx context.Context, logger *logging.Logger, fingerprint string) {
	if s.guard == nil || fingerprint == "" {
		return
	}
	if err := s.guard.Release(context.WithoutCancel(ctx), fingerprint); err != nil {
		logger.Warn("failed to release duplicate fingerprint", "error", err)
	}
}

func (s *Service) confirm(ctx context.Context, logger *logging.Logger, fingerprint string) {
	if s.guard == nil || fingerprint == "" {
		return
	}
	if err := s.guard.Confirm(context.WithoutCancel(ctx), fingerprint); err != nil {
		logger.Warn("failed to confirm duplicate fingerprint", "error", err)
	}
}
