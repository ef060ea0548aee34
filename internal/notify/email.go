package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/patrimoine-booking/pkg/logging"
)

var emailTracer = otel.Tracer("patrimoine.internal.notify.email")

// ErrNotConfigured is returned at send time when a provider lacks credentials.
var ErrNotConfigured = errors.New("notify: email provider not configured")

// EmailSender defines the interface for sending emails.
// Implementations can be swapped (SendGrid, SES, stub) without changing callers.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) (SendResult, error)
}

// EmailMessage represents an email to be sent.
type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	Body    string // Plain text body
	HTML    string // Optional HTML body
}

// SendResult carries what the provider acknowledged.
type SendResult struct {
	Provider  string
	MessageID string
}

// SendGridSender sends emails via SendGrid API.
type SendGridSender struct {
	apiKey    string
	host      string
	fromEmail string
	fromName  string
	logger    *logging.Logger
}

// SendGridConfig holds configuration for SendGrid.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
	// Host overrides https://api.sendgrid.com; tests point it at httptest.
	Host string
}

// NewSendGridSender creates a new SendGrid email sender. A missing API key is
// not an error here; Send reports ErrNotConfigured instead.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = "Rendez-vous"
	}
	return &SendGridSender{
		apiKey:    strings.TrimSpace(cfg.APIKey),
		host:      cfg.Host,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}
}

// Send sends an email via SendGrid.
func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) (SendResult, error) {
	result := SendResult{Provider: "sendgrid"}
	if s.apiKey == "" {
		return result, fmt.Errorf("%w: sendgrid api key missing", ErrNotConfigured)
	}

	ctx, span := emailTracer.Start(ctx, "notify.sendgrid.send")
	defer span.End()
	span.SetAttributes(attribute.String("email.to", msg.To))

	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(msg.ToName, msg.To)

	// SendGrid rejects empty content parts, so only set the ones we have.
	message := mail.NewV3Mail()
	message.SetFrom(from)
	message.Subject = msg.Subject
	personalization := mail.NewPersonalization()
	personalization.AddTos(to)
	message.AddPersonalizations(personalization)
	if msg.Body != "" {
		message.AddContent(mail.NewContent("text/plain", msg.Body))
	}
	if msg.HTML != "" {
		message.AddContent(mail.NewContent("text/html", msg.HTML))
	}

	// The client stores the request body on itself, so each send gets its own.
	request := sendgrid.GetRequest(s.apiKey, "/v3/mail/send", s.host)
	request.Method = "POST"
	client := &sendgrid.Client{Request: request}

	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "send failed")
		s.logger.Error("sendgrid send failed", "error", err, "to", msg.To)
		return result, fmt.Errorf("notify: sendgrid send failed: %w", err)
	}

	if response.StatusCode >= 400 {
		span.SetStatus(codes.Error, "provider rejected message")
		s.logger.Error("sendgrid returned error status", "status", response.StatusCode, "body", response.Body, "to", msg.To)
		return result, fmt.Errorf("notify: sendgrid returned status %d", response.StatusCode)
	}

	result.MessageID = headerValue(response.Headers, "X-Message-Id")
	s.logger.Info("email sent via sendgrid", "to", msg.To, "subject", msg.Subject, "status", response.StatusCode, "message_id", result.MessageID)
	return result, nil
}

func headerValue(headers map[string][]string, key string) string {
	for k, values := range headers {
		if strings.EqualFold(k, key) && len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

// StubEmailSender is a no-op sender for local development.
type StubEmailSender struct {
	logger *logging.Logger
}

// NewStubEmailSender creates a stub email sender that logs but doesn't send.
func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger}
}

// Send logs the email but doesn't actually send it.
func (s *StubEmailSender) Send(ctx context.Context, msg EmailMessage) (SendResult, error) {
	id := "stub-" + uuid.NewString()
	s.logger.Info("stub email sender: would send email", "to", msg.To, "subject", msg.Subject, "message_id", id)
	return SendResult{Provider: "stub", MessageID: id}, nil
}

var (
	_ EmailSender = (*SendGridSender)(nil)
	_ EmailSender = (*StubEmailSender)(nil)
)
