package review

import (
	"time"

	"github.com/google/uuid"
	"github.com/staynest/service-booking/internal/domain"
)

// Status represents the moderation state of a review.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review is one direction of the post-stay review exchange: the booking's
// guest reviewing the owner or vice versa. At most one review may exist per
// (booking, reviewer) direction.
type Review struct {
	id         uuid.UUID
	bookingID  uuid.UUID
	reviewerID uuid.UUID
	revieweeID uuid.UUID
	rating     int
	comment    string
	status     Status
	createdAt  time.Time
}

// NewReview creates a new review awaiting moderation.
func NewReview(bookingID, reviewerID, revieweeID uuid.UUID, rating int, comment string) (*Review, error) {
	if bookingID == uuid.Nil {
		return nil, domain.NewValidationError("booking ID is required")
	}
	if reviewerID == uuid.Nil {
		return nil, domain.NewValidationError("reviewer ID is required")
	}
	if revieweeID == uuid.Nil {
		return nil, domain.NewValidationError("reviewee ID is required")
	}
	if reviewerID == revieweeID {
		return nil, domain.NewValidationError("reviewer and reviewee must differ")
	}
	if rating < MinRating || rating > MaxRating {
		return nil, domain.NewValidationError("rating must be between 1 and 5")
	}

	return &Review{
		id:         uuid.New(),
		bookingID:  bookingID,
		reviewerID: reviewerID,
		revieweeID: revieweeID,
		rating:     rating,
		comment:    comment,
		status:     StatusPending,
		createdAt:  time.Now().UTC(),
	}, nil
}

// Reconstruct rebuilds a Review from persistence data (no validation).
func Reconstruct(
	id, bookingID, reviewerID, revieweeID uuid.UUID,
	rating int,
	comment string,
	status Status,
	createdAt time.Time,
) *Review {
	return &Review{
		id:         id,
		bookingID:  bookingID,
		reviewerID: reviewerID,
		revieweeID: revieweeID,
		rating:     rating,
		comment:    comment,
		status:     status,
		createdAt:  createdAt,
	}
}

// --- Getters ---

func (r *Review) ID() uuid.UUID         { return r.id }
func (r *Review) BookingID() uuid.UUID  { return r.bookingID }
func (r *Review) ReviewerID() uuid.UUID { return r.reviewerID }
func (r *Review) RevieweeID() uuid.UUID { return r.revieweeID }
func (r *Review) Rating() int           { return r.rating }
func (r *Review) Comment() string       { return r.comment }
func (r *Review) Status() Status        { return r.status }
func (r *Review) CreatedAt() time.Time  { return r.createdAt }
