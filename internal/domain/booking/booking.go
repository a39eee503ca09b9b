package booking

import (
	"time"

	"github.com/google/uuid"
	"github.com/staynest/service-booking/internal/domain"
)

// Booking is the aggregate root for the booking domain. The owner is a
// snapshot taken from the property at creation time and never re-resolved, so
// a later change of property ownership cannot rewrite booking history. The
// total price is likewise frozen at creation.
type Booking struct {
	id           uuid.UUID
	propertyID   uuid.UUID
	guestID      uuid.UUID
	ownerID      uuid.UUID
	stay         DateRange
	totalCents   int64
	status       Status
	guestMessage string

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewBooking creates a new Booking aggregate with status=pending.
func NewBooking(
	propertyID, guestID, ownerID uuid.UUID,
	stay DateRange,
	totalCents int64,
	guestMessage string,
) (*Booking, error) {
	if propertyID == uuid.Nil {
		return nil, domain.NewValidationError("property ID is required")
	}
	if guestID == uuid.Nil {
		return nil, domain.NewValidationError("guest ID is required")
	}
	if ownerID == uuid.Nil {
		return nil, domain.NewValidationError("owner ID is required")
	}
	if guestID == ownerID {
		return nil, domain.NewValidationError("guests cannot book their own property")
	}
	if totalCents <= 0 {
		return nil, domain.NewValidationError("total price must be positive")
	}

	now := time.Now().UTC()
	return &Booking{
		id:           uuid.New(),
		propertyID:   propertyID,
		guestID:      guestID,
		ownerID:      ownerID,
		stay:         stay,
		totalCents:   totalCents,
		status:       StatusPending,
		guestMessage: guestMessage,
		version:      1,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// Reconstruct rebuilds a Booking from persistence data (no validation).
func Reconstruct(
	id, propertyID, guestID, ownerID uuid.UUID,
	stay DateRange,
	totalCents int64,
	status Status,
	guestMessage string,
	version int64,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:           id,
		propertyID:   propertyID,
		guestID:      guestID,
		ownerID:      ownerID,
		stay:         stay,
		totalCents:   totalCents,
		status:       status,
		guestMessage: guestMessage,
		version:      version,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// PropertyID returns the booked property's identifier.
func (b *Booking) PropertyID() uuid.UUID { return b.propertyID }

// GuestID returns the requesting guest's user ID.
func (b *Booking) GuestID() uuid.UUID { return b.guestID }

// OwnerID returns the property owner's user ID as captured at creation time.
func (b *Booking) OwnerID() uuid.UUID { return b.ownerID }

// Stay returns the booked date range.
func (b *Booking) Stay() DateRange { return b.stay }

// TotalCents returns the frozen total price in cents.
func (b *Booking) TotalCents() int64 { return b.totalCents }

// Status returns the current booking status.
func (b *Booking) Status() Status { return b.status }

// GuestMessage returns the optional message attached to the request.
func (b *Booking) GuestMessage() string { return b.guestMessage }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// --- Behavior ---

// IsParty reports whether the user is the guest or the owner of this booking.
func (b *Booking) IsParty(userID uuid.UUID) bool {
	return userID == b.guestID || userID == b.ownerID
}

// CounterpartOf returns the other party of the booking relative to userID.
func (b *Booking) CounterpartOf(userID uuid.UUID) (uuid.UUID, error) {
	switch userID {
	case b.guestID:
		return b.ownerID, nil
	case b.ownerID:
		return b.guestID, nil
	default:
		return uuid.Nil, domain.NewNotAuthorizedError(b.id, "user is not a party to this booking")
	}
}

// Approve transitions the booking from pending to approved. Only the property
// owner may approve.
func (b *Booking) Approve(actorID uuid.UUID) error {
	if actorID != b.ownerID {
		return domain.NewNotAuthorizedError(b.id, "only the property owner can approve a booking request")
	}
	if b.status != StatusPending || !b.status.CanTransitionTo(StatusApproved) {
		return domain.NewInvalidTransitionError(b.id, string(EventApprove), string(b.status))
	}
	b.status = StatusApproved
	b.updatedAt = time.Now().UTC()
	return nil
}

// Decline transitions the booking from pending to declined. Only the property
// owner may decline.
func (b *Booking) Decline(actorID uuid.UUID) error {
	if actorID != b.ownerID {
		return domain.NewNotAuthorizedError(b.id, "only the property owner can decline a booking request")
	}
	if b.status != StatusPending {
		return domain.NewInvalidTransitionError(b.id, string(EventDecline), string(b.status))
	}
	b.status = StatusDeclined
	b.updatedAt = time.Now().UTC()
	return nil
}

// CancelByGuest withdraws a pending request. Only the guest may cancel this way.
func (b *Booking) CancelByGuest(actorID uuid.UUID) error {
	if actorID != b.guestID {
		return domain.NewNotAuthorizedError(b.id, "only the guest can withdraw a booking request")
	}
	if b.status != StatusPending {
		return domain.NewInvalidTransitionError(b.id, string(EventGuestCancel), string(b.status))
	}
	b.status = StatusDeclined
	b.updatedAt = time.Now().UTC()
	return nil
}

// CancelByOwner revokes an approved booking, freeing the slot. Only the
// property owner may cancel this way.
func (b *Booking) CancelByOwner(actorID uuid.UUID) error {
	if actorID != b.ownerID {
		return domain.NewNotAuthorizedError(b.id, "only the property owner can cancel an approved booking")
	}
	if b.status != StatusApproved {
		return domain.NewInvalidTransitionError(b.id, string(EventOwnerCancel), string(b.status))
	}
	b.status = StatusDeclined
	b.updatedAt = time.Now().UTC()
	return nil
}

// CompleteAfterCheckout transitions an approved booking to completed once its
// checkout date has passed. This is the system-driven transition evaluated
// lazily on reads; it is never triggered by a user action.
func (b *Booking) CompleteAfterCheckout(now time.Time) error {
	if b.status != StatusApproved {
		return domain.NewInvalidTransitionError(b.id, string(EventCheckoutPassed), string(b.status))
	}
	if TruncateToDay(now).Before(b.stay.CheckOut()) {
		return domain.NewInvalidTransitionError(b.id, string(EventCheckoutPassed), string(b.status))
	}
	b.status = StatusCompleted
	b.updatedAt = now.UTC()
	return nil
}

// CheckoutPassed reports whether the booking is approved and its checkout
// date is in the past, i.e. the lazy completed transition applies.
func (b *Booking) CheckoutPassed(now time.Time) bool {
	return b.status == StatusApproved && !TruncateToDay(now).Before(b.stay.CheckOut())
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
