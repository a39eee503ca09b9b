package booking

import "fmt"

// Status represents the current state of a booking in its lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusDeclined  Status = "declined"
	StatusCompleted Status = "completed"
)

// Event names a requested booking state change. Events are actor-scoped: the
// aggregate methods check who may trigger each one.
type Event string

const (
	EventApprove        Event = "approve"
	EventDecline        Event = "decline"
	EventGuestCancel    Event = "guest-cancel"
	EventOwnerCancel    Event = "owner-cancel"
	EventCheckoutPassed Event = "checkout-date-passed"
)

// validTransitions defines the state machine for booking status transitions.
// Declined and completed are terminal.
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusApproved, StatusDeclined},
	StatusApproved:  {StatusCompleted, StatusDeclined},
	StatusDeclined:  {},
	StatusCompleted: {},
}

// IsValid returns true if the status is a recognized booking status.
func (s Status) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s Status) CanTransitionTo(target Status) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s Status) IsTerminal() bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

// IsHold returns true if the booking reserves its nights against other
// requests (a pending request blocks the slot just like an approved one).
func (s Status) IsHold() bool {
	return s == StatusPending || s == StatusApproved
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// ParseStatus converts a string to a Status, returning an error if invalid.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}

// HoldStatuses returns the statuses that block a property's nights.
func HoldStatuses() []Status {
	return []Status{StatusPending, StatusApproved}
}
