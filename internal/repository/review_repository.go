package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/staynest/service-booking/internal/domain"
	reviewDomain "github.com/staynest/service-booking/internal/domain/review"
)

// ReviewModel is the GORM model for the reviews table. The composite unique
// index is the write-time enforcement of one review per (booking, reviewer)
// direction.
type ReviewModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	BookingID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_reviews_booking_reviewer,priority:1"`
	ReviewerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_reviews_booking_reviewer,priority:2"`
	RevieweeID uuid.UUID `gorm:"type:uuid;index;not null"`
	Rating     int       `gorm:"not null"`
	Comment    string    `gorm:"size:2000"`
	Status     string    `gorm:"not null;size:20"`
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (ReviewModel) TableName() string {
	return "reviews"
}

// GormReviewRepository is the GORM-based implementation of the review
// repository contract.
type GormReviewRepository struct {
	db *gorm.DB
}

// NewGormReviewRepository creates a new GormReviewRepository.
func NewGormReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{db: db}
}

// Save persists a new review. A unique-index violation on (booking_id,
// reviewer_id) is surfaced as a duplicate-review error, so a racing second
// submission in the same direction fails even after a successful gate check.
func (r *GormReviewRepository) Save(ctx context.Context, rv *reviewDomain.Review) error {
	model := &ReviewModel{
		ID:         rv.ID(),
		BookingID:  rv.BookingID(),
		ReviewerID: rv.ReviewerID(),
		RevieweeID: rv.RevieweeID(),
		Rating:     rv.Rating(),
		Comment:    rv.Comment(),
		Status:     string(rv.Status()),
		CreatedAt:  rv.CreatedAt(),
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.NewDuplicateReviewError(rv.BookingID(), rv.ReviewerID())
		}
		return fmt.Errorf("failed to save review: %w", err)
	}
	return nil
}

// FindByBookingAndReviewer retrieves the review a reviewer submitted for a booking.
func (r *GormReviewRepository) FindByBookingAndReviewer(ctx context.Context, bookingID, reviewerID uuid.UUID) (*reviewDomain.Review, error) {
	var model ReviewModel
	if err := r.db.WithContext(ctx).
		Where("booking_id = ? AND reviewer_id = ?", bookingID, reviewerID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Review", fmt.Sprintf("booking=%s reviewer=%s", bookingID, reviewerID))
		}
		return nil, fmt.Errorf("failed to find review: %w", err)
	}
	return toDomainReview(&model), nil
}

// FindByRevieweeID retrieves reviews received by a user with pagination.
func (r *GormReviewRepository) FindByRevieweeID(ctx context.Context, revieweeID uuid.UUID, page, limit int) ([]*reviewDomain.Review, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&ReviewModel{}).Where("reviewee_id = ?", revieweeID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	var models []ReviewModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where("reviewee_id = ?", revieweeID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find reviews: %w", err)
	}

	reviews := make([]*reviewDomain.Review, len(models))
	for i, m := range models {
		reviews[i] = toDomainReview(&m)
	}
	return reviews, total, nil
}

func toDomainReview(m *ReviewModel) *reviewDomain.Review {
	return reviewDomain.Reconstruct(
		m.ID,
		m.BookingID,
		m.ReviewerID,
		m.RevieweeID,
		m.Rating,
		m.Comment,
		reviewDomain.Status(m.Status),
		m.CreatedAt,
	)
}
