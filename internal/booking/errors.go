package booking

import (
	"errors"
	"fmt"
)

var (
	// ErrDelivery wraps any failure reported by the email provider.
	ErrDelivery = errors.New("booking: email delivery failed")
	// ErrMalformedRequest is returned when the request body cannot be decoded.
	ErrMalformedRequest = errors.New("booking: malformed request")
	// ErrInProgress is returned while an identical submission is still being delivered.
	ErrInProgress = errors.New("booking: identical request in progress")
)

// MissingFieldError reports the first required field found empty.
type MissingFieldError struct {
	Field Field
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("The field %s is required", e.Field)
}
