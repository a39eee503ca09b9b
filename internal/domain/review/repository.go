package review

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for post-stay reviews.
type Repository interface {
	// Save persists a new review. The store enforces the one-review-per-
	// (booking, reviewer) invariant at write time and returns a duplicate-
	// review error when it is violated.
	Save(ctx context.Context, review *Review) error

	// FindByBookingAndReviewer retrieves the review a reviewer submitted for
	// a booking, or a not-found error.
	FindByBookingAndReviewer(ctx context.Context, bookingID, reviewerID uuid.UUID) (*Review, error)

	// FindByRevieweeID retrieves reviews received by a user with pagination.
	FindByRevieweeID(ctx context.Context, revieweeID uuid.UUID, page, limit int) ([]*Review, int64, error)
}
