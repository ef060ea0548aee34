package bookingform

import "fmt"

// State is the submission lifecycle of a form.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Status is the tagged submission status. Message is only set for Failed, and
// for Succeeded when the server returned a confirmation.
type Status struct {
	State   State
	Message string
	EmailID string
}

func Idle() Status       { return Status{State: StateIdle} }
func Submitting() Status { return Status{State: StateSubmitting} }

func Succeeded(message, emailID string) Status {
	return Status{State: StateSucceeded, Message: message, EmailID: emailID}
}

func Failed(message string) Status {
	return Status{State: StateFailed, Message: message}
}

// Terminal reports whether the status ends a submission.
func (s Status) Terminal() bool {
	return s.State == StateSucceeded || s.State == StateFailed
}
