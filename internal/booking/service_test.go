package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/patrimoine-booking/internal/notify"
	"github.com/wolfman30/patrimoine-booking/internal/observability/metrics"
	"github.com/wolfman30/patrimoine-booking/pkg/logging"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []notify.EmailMessage
	id   string
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg notify.EmailMessage) (notify.SendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	if f.err != nil {
		return notify.SendResult{Provider: "fake"}, f.err
	}
	return notify.SendResult{Provider: "fake", MessageID: f.id}, nil
}

func (f *fakeSender) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeGuard struct {
	state     map[string]Claim
	claimErr  error
	released  []string
	confirmed []string
}

func (g *fakeGuard) Claim(_ context.Context, fp string) (Claim, error) {
	if g.claimErr != nil {
		return ClaimFresh, g.claimErr
	}
	if g.state == nil {
		g.state = map[string]Claim{}
	}
	if held, ok := g.state[fp]; ok {
		return held, nil
	}
	g.state[fp] = ClaimPending
	return ClaimFresh, nil
}

func (g *fakeGuard) Confirm(_ context.Context, fp string) error {
	if g.state == nil {
		g.state = map[string]Claim{}
	}
	g.state[fp] = ClaimDelivered
	g.confirmed = append(g.confirmed, fp)
	return nil
}

func (g *fakeGuard) Release(_ context.Context, fp string) error {
	delete(g.state, fp)
	g.released = append(g.released, fp)
	return nil
}

func newTestService(sender notify.EmailSender, guard DuplicateGuard) *Service {
	return NewService(ServiceConfig{
		Sender:    sender,
		Recipient: "advisor@example.com",
		Guard:     guard,
		Logger:    logging.Discard(),
		Now:       func() time.Time { return submittedAt },
	})
}

func TestSubmit_SendsNotification(t *testing.T) {
	sender := &fakeSender{id: "msg-1"}
	svc := newTestService(sender, nil)

	receipt, err := svc.Submit(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, "msg-1", receipt.MessageID)
	assert.Equal(t, "fake", receipt.Provider)
	assert.False(t, receipt.Duplicate)

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "advisor@example.com", msg.To)
	assert.Equal(t, "New booking request - Jean Dupont", msg.Subject)
	assert.Contains(t, msg.HTML, "mercredi 12 mars 2025")
	assert.Contains(t, msg.HTML, "10/03/2025 at 13:04:05")
}

func TestSubmit_MissingFieldSkipsProvider(t *testing.T) {
	sender := &fakeSender{}
	svc := newTestService(sender, nil)

	req := sampleRequest()
	req.Profession = ""
	_, err := svc.Submit(context.Background(), req)

	var missing *MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, FieldProfession, missing.Field)
	assert.Zero(t, sender.calls())
}

func TestSubmit_ProviderErrorWrapsDelivery(t *testing.T) {
	sender := &fakeSender{err: errors.New("resend: domain not verified")}
	svc := newTestService(sender, nil)

	_, err := svc.Submit(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDelivery)
	assert.Contains(t, err.Error(), "domain not verified")
}

func TestSubmit_DuplicateSuppressed(t *testing.T) {
	sender := &fakeSender{id: "msg-1"}
	guard := &fakeGuard{}
	svc := newTestService(sender, guard)

	req := sampleRequest()
	_, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{req.Fingerprint()}, guard.confirmed)

	receipt, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, receipt.Duplicate)
	assert.Empty(t, receipt.MessageID)
	assert.Equal(t, 1, sender.calls())
}

func TestSubmit_InFlightDuplicateRejected(t *testing.T) {
	sender := &fakeSender{id: "msg-1"}
	req := sampleRequest()
	guard := &fakeGuard{state: map[string]Claim{req.Fingerprint(): ClaimPending}}
	svc := newTestService(sender, guard)

	receipt, err := svc.Submit(context.Background(), req)
	require.ErrorIs(t, err, ErrInProgress)
	assert.Nil(t, receipt)
	assert.Zero(t, sender.calls())
	assert.Empty(t, guard.released)
}

func TestSubmit_LogsRequestID(t *testing.T) {
	var buf bytes.Buffer
	svc := NewService(ServiceConfig{
		Sender:    &fakeSender{id: "msg-1"},
		Recipient: "advisor@example.com",
		Logger:    logging.NewWithFormat("info", "json", &buf),
	})

	ctx := logging.ContextWithRequestID(context.Background(), "req-7")
	_, err := svc.Submit(ctx, sampleRequest())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	for _, line := range lines {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		assert.Equal(t, "req-7", entry["request_id"], line)
	}
}

func TestSubmit_FailedSendReleasesFingerprint(t *testing.T) {
	sender := &fakeSender{err: errors.New("boom")}
	guard := &fakeGuard{}
	svc := newTestService(sender, guard)

	req := sampleRequest()
	_, err := svc.Submit(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, []string{req.Fingerprint()}, guard.released)
	assert.Empty(t, guard.confirmed)

	sender.err = nil
	_, err = svc.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, sender.calls())
}

func TestSubmit_GuardErrorFailsOpen(t *testing.T) {
	sender := &fakeSender{id: "msg-1"}
	svc := newTestService(sender, &fakeGuard{claimErr: errors.New("redis down")})

	receipt, err := svc.Submit(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, "msg-1", receipt.MessageID)
	assert.Equal(t, 1, sender.calls())
}

func TestSubmit_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewBookingMetrics(reg)
	svc := NewService(ServiceConfig{
		Sender:  &fakeSender{id: "x"},
		Metrics: m,
		Logger:  logging.Discard(),
	})

	_, err := svc.Submit(context.Background(), sampleRequest())
	require.NoError(t, err)
	bad := sampleRequest()
	bad.Email = ""
	_, _ = svc.Submit(context.Background(), bad)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["patrimoine_booking_submissions_total"])
	assert.True(t, names["patrimoine_booking_missing_field_total"])
	assert.True(t, names["patrimoine_booking_email_send_seconds"])
}

func TestNewService_PanicsWithoutSender(t *testing.T) {
	assert.Panics(t, func() { NewService(ServiceConfig{}) })
}
