package booking

import (
	"fmt"
	"time"
)

// DateLayout is the ISO 8601 calendar date format used on the wire.
const DateLayout = "2006-01-02"

const (
	firstSlotMinutes = 8 * 60
	lastSlotMinutes  = 19 * 60
	slotStep         = 30
)

// TimeSlots is the fixed ordered set of bookable times, 08:00 through 19:00.
var TimeSlots = GenerateAvailableTimeSlots()

var timeSlotSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(TimeSlots))
	for _, slot := range TimeSlots {
		set[slot] = struct{}{}
	}
	return set
}()

// GenerateAvailableTimeSlots returns the HH:MM slots from 08:00 to 19:00 inclusive
// in 30 minute steps. Callers should prefer the precomputed TimeSlots.
func GenerateAvailableTimeSlots() []string {
	slots := make([]string, 0, (lastSlotMinutes-firstSlotMinutes)/slotStep+1)
	for m := firstSlotMinutes; m <= lastSlotMinutes; m += slotStep {
		slots = append(slots, fmt.Sprintf("%02d:%02d", m/60, m%60))
	}
	return slots
}

// IsTimeSlot reports whether value is one of TimeSlots.
func IsTimeSlot(value string) bool {
	_, ok := timeSlotSet[value]
	return ok
}

// IsBusinessDay reports whether date falls Monday through Friday.
func IsBusinessDay(date time.Time) bool {
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return true
}

// ParseDate parses a YYYY-MM-DD value as a calendar day in UTC.
func ParseDate(value string) (time.Time, error) {
	d, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("booking: parse date %q: %w", value, err)
	}
	return d, nil
}

// MinimumSelectableDate returns the calendar day after now, in now's location,
// formatted as YYYY-MM-DD.
func MinimumSelectableDate(now time.Time) string {
	y, m, d := now.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, now.Location()).Format(DateLayout)
}

// IsAfterToday reports whether the YYYY-MM-DD value is strictly after now's
// calendar day. Unparsable values are never after today.
func IsAfterToday(value string, now time.Time) bool {
	// Fixed-width layout orders lexically.
	date, err := ParseDate(value)
	if err != nil {
		return false
	}
	return date.Format(DateLayout) >= MinimumSelectableDate(now)
}
