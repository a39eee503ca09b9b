package booking

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for booking aggregates.
type Repository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByGuestID retrieves bookings requested by a guest with pagination.
	FindByGuestID(ctx context.Context, guestID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// FindByOwnerID retrieves booking requests on properties owned by the
	// given owner, with pagination.
	FindByOwnerID(ctx context.Context, ownerID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// FindOverlapping retrieves bookings on the property, in any of the given
	// statuses, whose date range overlaps the stay.
	FindOverlapping(ctx context.Context, propertyID uuid.UUID, stay DateRange, statuses []Status) ([]*Booking, error)

	// FindHoldsByPropertyID retrieves every pending or approved booking for
	// the property.
	FindHoldsByPropertyID(ctx context.Context, propertyID uuid.UUID) ([]*Booking, error)

	// Save persists a new booking.
	Save(ctx context.Context, booking *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, booking *Booking) error

	// ApproveWithGuard persists the pending->approved transition as a single
	// conditional write: the update takes effect only if no other approved
	// booking overlaps the stay at write time and the version still matches.
	// Returns a date-conflict error when a competing approved hold exists, or
	// a conflict error when the booking was modified concurrently.
	ApproveWithGuard(ctx context.Context, booking *Booking) error
}
