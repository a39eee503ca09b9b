package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/staynest/service-booking/internal/domain"
	bookingDomain "github.com/staynest/service-booking/internal/domain/booking"
	reviewDomain "github.com/staynest/service-booking/internal/domain/review"
)

// SubmitReviewRequest holds the data needed to submit a post-stay review.
type SubmitReviewRequest struct {
	BookingID uuid.UUID `json:"booking_id" binding:"required"`
	Rating    int       `json:"rating" binding:"required,min=1,max=5"`
	Comment   string    `json:"comment"`
}

// ReviewDTO is the response representation of a review.
type ReviewDTO struct {
	ID         uuid.UUID `json:"id"`
	BookingID  uuid.UUID `json:"booking_id"`
	ReviewerID uuid.UUID `json:"reviewer_id"`
	RevieweeID uuid.UUID `json:"reviewee_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// ReviewService is the review eligibility gate plus the review use cases.
// Reviews open once the booking's effective status reaches completed; each
// party may review the other exactly once per booking.
type ReviewService struct {
	reviews  reviewDomain.Repository
	bookings *BookingService
	logger   *zap.Logger
}

// NewReviewService creates a new ReviewService.
func NewReviewService(reviews reviewDomain.Repository, bookings *BookingService, logger *zap.Logger) *ReviewService {
	return &ReviewService{reviews: reviews, bookings: bookings, logger: logger}
}

// CanReview reports whether the reviewer may submit a review on the booking:
// effective status completed, reviewer is a party, and no review exists yet
// in this direction.
func (s *ReviewService) CanReview(ctx context.Context, bookingID, reviewerID uuid.UUID) (bool, error) {
	bk, err := s.bookings.EffectiveBooking(ctx, bookingID)
	if err != nil {
		return false, err
	}
	if !bk.IsParty(reviewerID) || bk.Status() != bookingDomain.StatusCompleted {
		return false, nil
	}

	_, err = s.reviews.FindByBookingAndReviewer(ctx, bookingID, reviewerID)
	if err == nil {
		return false, nil
	}
	if domain.IsCode(err, domain.CodeNotFound) {
		return true, nil
	}
	return false, err
}

// RevieweeFor returns the booking counterpart the reviewer would be reviewing.
func (s *ReviewService) RevieweeFor(ctx context.Context, bookingID, reviewerID uuid.UUID) (uuid.UUID, error) {
	bk, err := s.bookings.EffectiveBooking(ctx, bookingID)
	if err != nil {
		return uuid.Nil, err
	}
	return bk.CounterpartOf(reviewerID)
}

// SubmitReview creates a review after consulting the eligibility gate. The
// one-review-per-direction invariant is enforced at write time by the store;
// a duplicate submission fails even when two submissions race.
func (s *ReviewService) SubmitReview(ctx context.Context, reviewerID uuid.UUID, req SubmitReviewRequest) (*ReviewDTO, error) {
	bk, err := s.bookings.EffectiveBooking(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	revieweeID, err := bk.CounterpartOf(reviewerID)
	if err != nil {
		return nil, err
	}
	if bk.Status() != bookingDomain.StatusCompleted {
		return nil, domain.NewValidationError(fmt.Sprintf(
			"booking %s is not completed; reviews open after checkout", bk.ID(),
		))
	}

	rv, err := reviewDomain.NewReview(req.BookingID, reviewerID, revieweeID, req.Rating, req.Comment)
	if err != nil {
		return nil, err
	}
	if err := s.reviews.Save(ctx, rv); err != nil {
		if domain.IsCode(err, domain.CodeDuplicateReview) {
			return nil, err
		}
		s.logger.Error("failed to save review",
			zap.String("booking_id", req.BookingID.String()),
			zap.String("reviewer_id", reviewerID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to save review: %w", err)
	}

	s.logger.Info("review submitted",
		zap.String("booking_id", req.BookingID.String()),
		zap.String("reviewer_id", reviewerID.String()),
		zap.Int("rating", req.Rating),
	)
	result := toReviewDTO(rv)
	return &result, nil
}

// GetMyReviews retrieves paginated reviews received by the user.
func (s *ReviewService) GetMyReviews(ctx context.Context, revieweeID uuid.UUID, page, limit int) (*domain.PaginatedResult[ReviewDTO], error) {
	reviews, total, err := s.reviews.FindByRevieweeID(ctx, revieweeID, page, limit)
	if err != nil {
		return nil, err
	}
	dtos := make([]ReviewDTO, len(reviews))
	for i, rv := range reviews {
		dtos[i] = toReviewDTO(rv)
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

func toReviewDTO(rv *reviewDomain.Review) ReviewDTO {
	return ReviewDTO{
		ID:         rv.ID(),
		BookingID:  rv.BookingID(),
		ReviewerID: rv.ReviewerID(),
		RevieweeID: rv.RevieweeID(),
		Rating:     rv.Rating(),
		Comment:    rv.Comment(),
		Status:     string(rv.Status()),
		CreatedAt:  rv.CreatedAt(),
	}
}
