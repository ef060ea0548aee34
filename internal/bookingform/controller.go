package bookingform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/wolfman30/patrimoine-booking/internal/booking"
	"github.com/wolfman30/patrimoine-booking/pkg/logging"
)

// DefaultPath is the booking submission endpoint.
const DefaultPath = "/api/send-booking"

// Messages surfaced to the person filling the form.
const (
	MessageWeekday         = "Please select a weekday (Monday to Friday)."
	MessageFutureDate      = "Please select a date after today."
	MessageTimeSlot        = "Please select one of the available time slots."
	MessageAgeBracket      = "Please select one of the listed age brackets."
	MessageIncomeBracket   = "Please select one of the listed income brackets."
	MessageConnectionError = "Connection error. Please try again."
	MessageGenericError    = "An error occurred"
)

var (
	// ErrSubmitting is returned while a submission is in flight.
	ErrSubmitting = errors.New("bookingform: submission in progress")
	// ErrUnknownField is returned when setting a field the form does not have.
	ErrUnknownField = errors.New("bookingform: unknown field")
)

// Doer is the HTTP client capability the controller needs.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Options configure a Controller.
type Options struct {
	// Endpoint is the absolute URL of the booking submission endpoint.
	Endpoint string
	Client   Doer
	Location *time.Location
	Now      func() time.Time
	Logger   *logging.Logger
}

// Controller owns the state of one booking form session. It is safe for
// concurrent use; at most one submission is in flight at a time.
type Controller struct {
	endpoint string
	client   Doer
	loc      *time.Location
	now      func() time.Time
	logger   *logging.Logger

	mu     sync.Mutex
	form   booking.Request
	status Status
}

func NewController(opts Options) *Controller {
	if strings.TrimSpace(opts.Endpoint) == "" {
		panic("bookingform: endpoint required")
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	return &Controller{
		endpoint: opts.Endpoint,
		client:   opts.Client,
		loc:      opts.Location,
		now:      opts.Now,
		logger:   opts.Logger,
		status:   Idle(),
	}
}

// GenerateAvailableTimeSlots returns the bookable HH:MM slots.
func GenerateAvailableTimeSlots() []string {
	return booking.TimeSlots
}

// ComputeMinimumSelectableDate returns the first selectable YYYY-MM-DD date.
func ComputeMinimumSelectableDate(now time.Time) string {
	return booking.MinimumSelectableDate(now)
}

// IsBusinessDay reports whether date falls Monday through Friday.
func IsBusinessDay(date time.Time) bool {
	return booking.IsBusinessDay(date)
}

// MinimumSelectableDate is ComputeMinimumSelectableDate for the controller clock.
func (c *Controller) MinimumSelectableDate() string {
	return ComputeMinimumSelectableDate(c.now().In(c.loc))
}

// Status returns the current submission status.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Form returns a copy of the current form values.
func (c *Controller) Form() booking.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

// Set edits one field. Editing after a terminal status makes the form ready
// for a new submission.
func (c *Controller) Set(field booking.Field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status.State == StateSubmitting {
		return ErrSubmitting
	}
	if !c.form.Set(field, value) {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	if c.status.Terminal() {
		c.status = Idle()
	}
	return nil
}

// Submit validates the form locally and posts it. Local failures never reach
// the network and leave the form intact. The returned error is only non-nil
// when a submission is already in flight; outcomes are reported by Status.
func (c *Controller) Submit(ctx context.Context) (Status, error) {
	c.mu.Lock()
	if c.status.State == StateSubmitting {
		c.mu.Unlock()
		return Submitting(), ErrSubmitting
	}
	form := c.form
	if msg := c.check(form); msg != "" {
		c.status = Failed(msg)
		c.mu.Unlock()
		return c.status, nil
	}
	c.status = Submitting()
	c.mu.Unlock()

	status := c.post(ctx, form)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = status
	if status.State == StateSucceeded {
		c.form = booking.Request{}
	}
	return c.status, nil
}

func (c *Controller) check(form booking.Request) string {
	if err := form.Validate(); err != nil {
		return err.Error()
	}
	date, err := booking.ParseDate(form.Date)
	if err != nil || !IsBusinessDay(date) {
		return MessageWeekday
	}
	if !booking.IsAfterToday(form.Date, c.now().In(c.loc)) {
		return MessageFutureDate
	}
	if !booking.IsTimeSlot(form.Time) {
		return MessageTimeSlot
	}
	if !booking.IsBracket(booking.AgeBrackets, form.Age) {
		return MessageAgeBracket
	}
	if !booking.IsBracket(booking.IncomeBrackets, form.Income) {
		return MessageIncomeBracket
	}
	return ""
}

type submitReply struct {
	Message string `json:"message"`
	EmailID string `json:"emailId"`
	Error   string `json:"error"`
}

func (c *Controller) post(ctx context.Context, form booking.Request) Status {
	payload, err := json.Marshal(form)
	if err != nil {
		c.logger.Error("failed to encode booking form", "error", err)
		return Failed(MessageConnectionError)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		c.logger.Error("failed to build booking request", "error", err)
		return Failed(MessageConnectionError)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("booking submission failed", "error", err)
		return Failed(MessageConnectionError)
	}
	defer resp.Body.Close()

	var reply submitReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		c.logger.Warn("booking response undecodable", "status", resp.StatusCode, "error", err)
		return Failed(MessageConnectionError)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return Succeeded(reply.Message, reply.EmailID)
	}
	if reply.Error != "" {
		return Failed(reply.Error)
	}
	return Failed(MessageGenericError)
}
