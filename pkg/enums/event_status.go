package enums

import "fmt"

// EventStatus is the lifecycle state of a buffered question event.
type EventStatus string

const (
	StatusPending EventStatus = "PENDING"
	StatusDone    EventStatus = "DONE"
	StatusFailed  EventStatus = "FAILED"
)

var validEventStatuses = []EventStatus{
	StatusPending,
	StatusDone,
	StatusFailed,
}

// IsValid reports whether the value is one of the canonical statuses.
func (s EventStatus) IsValid() bool {
	for _, candidate := range validEventStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is allowed from the status.
func (s EventStatus) IsTerminal() bool {
	return s == StatusDone || s == StatusFailed
}

// ParseEventStatus converts raw input into EventStatus.
func ParseEventStatus(value string) (EventStatus, error) {
	for _, candidate := range validEventStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event status %q", value)
}
