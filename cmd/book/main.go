package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/wolfman30/patrimoine-booking/internal/booking"
	"github.com/wolfman30/patrimoine-booking/internal/bookingform"
	"github.com/wolfman30/patrimoine-booking/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run submits one booking request built from flags and prints the outcome.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("book", flag.ContinueOnError)
	fs.SetOutput(stderr)

	api := fs.String("api", envOr("BOOKING_API_URL", "http://localhost:8080"), "booking API base URL")
	timeout := fs.Duration("timeout", 30*time.Second, "request timeout")
	tz := fs.String("tz", envOr("BOOKING_TIMEZONE", "Europe/Paris"), "time zone used for the date checks")
	listSlots := fs.Bool("slots", false, "print the available time slots and exit")
	verbose := fs.Bool("v", false, "log request details")

	values := map[booking.Field]*string{}
	for _, field := range append(booking.RequiredFields, booking.FieldDebt) {
		values[field] = fs.String(string(field), "", fieldUsage(field))
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *listSlots {
		fmt.Fprintln(stdout, strings.Join(bookingform.GenerateAvailableTimeSlots(), " "))
		return 0
	}

	loc, err := time.LoadLocation(*tz)
	if err != nil {
		fmt.Fprintf(stderr, "invalid -tz: %v\n", err)
		return 2
	}

	logger := logging.Discard()
	if *verbose {
		logger = logging.NewWithFormat("debug", "text", stderr)
	}

	controller := bookingform.NewController(bookingform.Options{
		Endpoint: strings.TrimRight(*api, "/") + bookingform.DefaultPath,
		Location: loc,
		Logger:   logger,
	})
	for field, value := range values {
		if err := controller.Set(field, *value); err != nil {
			fmt.Fprintln(stderr, err)
			return 2
		}
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	status, err := controller.Submit(ctx)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	switch status.State {
	case bookingform.StateSucceeded:
		fmt.Fprintln(stdout, status.Message)
		if status.EmailID != "" {
			fmt.Fprintf(stdout, "email id: %s\n", status.EmailID)
		}
		return 0
	default:
		fmt.Fprintln(stderr, status.Message)
		return 1
	}
}

func fieldUsage(field booking.Field) string {
	switch field {
	case booking.FieldAge:
		return "age bracket (25-35, 35-45, 45-55)"
	case booking.FieldIncome:
		return "household income bracket (30-50k, 50-80k, 80-120k, 120k+)"
	case booking.FieldDebt:
		return "optional credit or debt note"
	case booking.FieldDate:
		return "preferred weekday, YYYY-MM-DD"
	case booking.FieldTime:
		return "preferred time slot, HH:MM between 08:00 and 19:00"
	}
	return string(field)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
