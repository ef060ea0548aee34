package bookingform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/patrimoine-booking/internal/booking"
	"github.com/wolfman30/patrimoine-booking/pkg/logging"
)

// Tuesday 11 March 2025, the day before the sample appointment.
var today = time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)

func newTestController(t *testing.T, endpoint string) *Controller {
	t.Helper()
	return NewController(Options{
		Endpoint: endpoint,
		Location: time.UTC,
		Now:      func() time.Time { return today },
		Logger:   logging.Discard(),
	})
}

func fill(t *testing.T, c *Controller, overrides map[booking.Field]string) {
	t.Helper()
	values := map[booking.Field]string{
		booking.FieldName:       "Jean Dupont",
		booking.FieldPhone:      "0612345678",
		booking.FieldEmail:      "jean@example.com",
		booking.FieldProfession: "Ingénieur",
		booking.FieldAge:        "35-45",
		booking.FieldIncome:     "50-80k",
		booking.FieldDate:       "2025-03-12",
		booking.FieldTime:       "10:00",
	}
	for k, v := range overrides {
		values[k] = v
	}
	for k, v := range values {
		require.NoError(t, c.Set(k, v))
	}
}

func TestSubmit_Success(t *testing.T) {
	var received booking.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, DefaultPath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"Booking request sent successfully!","emailId":"re_1"}`))
	}))
	defer srv.Close()

	c := newTestController(t, srv.URL+DefaultPath)
	fill(t, c, nil)

	status, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, status.State)
	assert.Equal(t, "re_1", status.EmailID)
	assert.Equal(t, "Jean Dupont", received.Name)
	assert.Equal(t, "2025-03-12", received.Date)
	assert.Equal(t, booking.Request{}, c.Form(), "form resets after success")
}

func TestSubmit_WeekendRejectedLocally(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	for _, date := range []string{"2025-03-15", "2025-03-16"} {
		c := newTestController(t, srv.URL)
		fill(t, c, map[booking.Field]string{booking.FieldDate: date})
		before := c.Form()

		status, err := c.Submit(context.Background())
		require.NoError(t, err)
		assert.Equal(t, Failed(MessageWeekday), status)
		assert.Equal(t, before, c.Form(), "form values stay intact")
	}
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestSubmit_OtherLocalChecks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL.Path)
	}))
	defer srv.Close()

	cases := map[string]struct {
		overrides map[booking.Field]string
		want      string
	}{
		"missing email": {map[booking.Field]string{booking.FieldEmail: ""}, "The field email is required"},
		"today":         {map[booking.Field]string{booking.FieldDate: "2025-03-11"}, MessageFutureDate},
		"off slot":      {map[booking.Field]string{booking.FieldTime: "10:15"}, MessageTimeSlot},
		"unlisted age":  {map[booking.Field]string{booking.FieldAge: "99-120"}, MessageAgeBracket},
		"income label":  {map[booking.Field]string{booking.FieldIncome: "Over €120,000"}, MessageIncomeBracket},
		"free income":   {map[booking.Field]string{booking.FieldIncome: "lots"}, MessageIncomeBracket},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c := newTestController(t, srv.URL)
			fill(t, c, tc.overrides)
			status, err := c.Submit(context.Background())
			require.NoError(t, err)
			assert.Equal(t, Failed(tc.want), status)
		})
	}
}

func TestSubmit_ServerErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"The field profession is required"}`))
	}))
	defer srv.Close()

	c := newTestController(t, srv.URL)
	fill(t, c, nil)
	status, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Failed("The field profession is required"), status)
	assert.Equal(t, "Jean Dupont", c.Form().Name)
}

func TestSubmit_ServerErrorWithoutMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestController(t, srv.URL)
	fill(t, c, nil)
	status, _ := c.Submit(context.Background())
	assert.Equal(t, Failed(MessageGenericError), status)
}

func TestSubmit_UndecodableResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	}))
	defer srv.Close()

	c := newTestController(t, srv.URL)
	fill(t, c, nil)
	status, _ := c.Submit(context.Background())
	assert.Equal(t, Failed(MessageConnectionError), status)
}

func TestSubmit_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := newTestController(t, url)
	fill(t, c, nil)
	status, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Failed(MessageConnectionError), status)
	assert.NotEqual(t, StateSubmitting, c.Status().State)
}

func TestSubmit_RejectsReentryAndEditsWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	}))
	defer srv.Close()

	c := newTestController(t, srv.URL)
	fill(t, c, nil)

	done := make(chan Status)
	go func() {
		status, _ := c.Submit(context.Background())
		done <- status
	}()
	<-entered

	assert.Equal(t, StateSubmitting, c.Status().State)
	_, err := c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmitting)
	assert.ErrorIs(t, c.Set(booking.FieldName, "Other"), ErrSubmitting)

	close(release)
	assert.Equal(t, StateSucceeded, (<-done).State)
}

func TestSet_AfterTerminalReturnsToIdle(t *testing.T) {
	c := newTestController(t, "http://127.0.0.1:1")
	fill(t, c, map[booking.Field]string{booking.FieldDate: "2025-03-15"})
	status, _ := c.Submit(context.Background())
	require.Equal(t, StateFailed, status.State)

	require.NoError(t, c.Set(booking.FieldDate, "2025-03-12"))
	assert.Equal(t, Idle(), c.Status())
}

func TestSet_UnknownField(t *testing.T) {
	c := newTestController(t, "http://127.0.0.1:1")
	assert.ErrorIs(t, c.Set(booking.Field("nickname"), "x"), ErrUnknownField)
}

func TestScheduleHelpers(t *testing.T) {
	slots := GenerateAvailableTimeSlots()
	assert.Len(t, slots, 23)
	assert.Equal(t, "2025-03-12", ComputeMinimumSelectableDate(today))

	c := newTestController(t, "http://127.0.0.1:1")
	assert.Equal(t, "2025-03-12", c.MinimumSelectableDate())

	wed := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	assert.True(t, IsBusinessDay(wed))
	assert.False(t, IsBusinessDay(wed.AddDate(0, 0, 3)))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "submitting", StateSubmitting.String())
	assert.Equal(t, "state(9)", State(9).String())
}
