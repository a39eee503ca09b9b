package events

import (
	"time"

	"github.com/google/uuid"
)

// TopicBookingEvents carries the booking lifecycle events consumed by the
// notification and analytics collaborators.
const TopicBookingEvents = "booking.events"

// Booking lifecycle event types.
const (
	BookingRequested = "booking.requested"
	BookingApproved  = "booking.approved"
	BookingDeclined  = "booking.declined"
	BookingCancelled = "booking.cancelled"
	BookingCompleted = "booking.completed"
)

// BookingRequestedEvent is published when a guest submits a booking request.
type BookingRequestedEvent struct {
	BookingID       uuid.UUID `json:"booking_id"`
	PropertyID      uuid.UUID `json:"property_id"`
	GuestID         uuid.UUID `json:"guest_id"`
	OwnerID         uuid.UUID `json:"owner_id"`
	CheckIn         time.Time `json:"check_in"`
	CheckOut        time.Time `json:"check_out"`
	Nights          int       `json:"nights"`
	TotalPriceCents int64     `json:"total_price_cents"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// BookingApprovedEvent is published when the owner approves a request.
type BookingApprovedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	PropertyID uuid.UUID `json:"property_id"`
	GuestID    uuid.UUID `json:"guest_id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	CheckIn    time.Time `json:"check_in"`
	CheckOut   time.Time `json:"check_out"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BookingDeclinedEvent is published when the owner declines a request.
type BookingDeclinedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	PropertyID uuid.UUID `json:"property_id"`
	GuestID    uuid.UUID `json:"guest_id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BookingCancelledEvent is published when a party cancels a booking.
type BookingCancelledEvent struct {
	BookingID   uuid.UUID `json:"booking_id"`
	PropertyID  uuid.UUID `json:"property_id"`
	CancelledBy uuid.UUID `json:"cancelled_by"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// BookingCompletedEvent is published when a booking passes its checkout date
// and is surfaced as completed.
type BookingCompletedEvent struct {
	BookingID       uuid.UUID `json:"booking_id"`
	PropertyID      uuid.UUID `json:"property_id"`
	GuestID         uuid.UUID `json:"guest_id"`
	OwnerID         uuid.UUID `json:"owner_id"`
	TotalPriceCents int64     `json:"total_price_cents"`
	OccurredAt      time.Time `json:"occurred_at"`
}
