package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/staynest/service-booking/internal/domain"
	bookingDomain "github.com/staynest/service-booking/internal/domain/booking"
)

// pgExclusionViolation is the SQLSTATE raised when a write collides with an
// exclusion constraint.
const pgExclusionViolation = "23P01"

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	PropertyID      uuid.UUID `gorm:"type:uuid;not null;index:idx_bookings_property_dates,priority:1"`
	GuestID         uuid.UUID `gorm:"type:uuid;index;not null"`
	OwnerID         uuid.UUID `gorm:"type:uuid;index;not null"`
	CheckIn         time.Time `gorm:"type:date;not null;index:idx_bookings_property_dates,priority:2"`
	CheckOut        time.Time `gorm:"type:date;not null"`
	TotalPriceCents int64     `gorm:"not null"`
	Status          string    `gorm:"not null;size:20;index"`
	GuestMessage    string    `gorm:"size:1000"`
	Version         int64     `gorm:"not null;default:1"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of the booking
// repository contract.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByGuestID retrieves bookings requested by a guest with pagination.
func (r *GormBookingRepository) FindByGuestID(ctx context.Context, guestID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPaginated(ctx, "guest_id = ?", guestID, page, limit)
}

// FindByOwnerID retrieves booking requests on the owner's properties with pagination.
func (r *GormBookingRepository) FindByOwnerID(ctx context.Context, ownerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPaginated(ctx, "owner_id = ?", ownerID, page, limit)
}

func (r *GormBookingRepository) findPaginated(ctx context.Context, cond string, arg uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Where(cond, arg).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where(cond, arg).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// FindOverlapping retrieves bookings on the property, in any of the given
// statuses, whose half-open date range overlaps the stay.
func (r *GormBookingRepository) FindOverlapping(
	ctx context.Context,
	propertyID uuid.UUID,
	stay bookingDomain.DateRange,
	statuses []bookingDomain.Status,
) ([]*bookingDomain.Booking, error) {
	statusStrings := make([]string, len(statuses))
	for i, s := range statuses {
		statusStrings[i] = string(s)
	}

	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("property_id = ? AND status IN ? AND check_in < ? AND ? < check_out",
			propertyID, statusStrings, stay.CheckOut(), stay.CheckIn()).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find overlapping bookings: %w", err)
	}
	return toDomainBookings(models)
}

// FindHoldsByPropertyID retrieves every pending or approved booking for the property.
func (r *GormBookingRepository) FindHoldsByPropertyID(ctx context.Context, propertyID uuid.UUID) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("property_id = ? AND status IN ?", propertyID,
			[]string{string(bookingDomain.StatusPending), string(bookingDomain.StatusApproved)}).
		Order("check_in ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find holds for property: %w", err)
	}
	return toDomainBookings(models)
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	// Only update if the version matches (current version - 1 since
	// IncrementVersion was called before persisting).
	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":     model.Status,
			"version":    model.Version,
			"updated_at": model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	return nil
}

// EnsureApprovedOverlapConstraint installs the exclusion constraint that
// forbids two approved bookings from sharing a property night. Migrations
// create it in deployed environments; this covers auto-migrated schemas.
func EnsureApprovedOverlapConstraint(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS btree_gist`).Error; err != nil {
		return fmt.Errorf("failed to create btree_gist extension: %w", err)
	}
	err := db.Exec(`
		DO $$ BEGIN
		  IF NOT EXISTS (
		    SELECT 1 FROM pg_constraint WHERE conname = 'excl_bookings_approved_overlap'
		  ) THEN
		    ALTER TABLE bookings
		      ADD CONSTRAINT excl_bookings_approved_overlap
		      EXCLUDE USING gist (property_id WITH =, daterange(check_in, check_out) WITH &&)
		      WHERE (status = 'approved');
		  END IF;
		END $$`).Error
	if err != nil {
		return fmt.Errorf("failed to create approved-overlap constraint: %w", err)
	}
	return nil
}

// ApproveWithGuard persists the pending->approved transition as one
// conditional write. The NOT EXISTS predicate rejects approvals against
// already-committed approved holds; the exclusion constraint on the table
// catches the remaining case of two approvals committing concurrently, since
// each statement's subquery reads its own snapshot and cannot see the other's
// uncommitted row.
func (r *GormBookingRepository) ApproveWithGuard(ctx context.Context, bk *bookingDomain.Booking) error {
	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).Exec(`
		UPDATE bookings
		SET status = ?, version = ?, updated_at = ?
		WHERE id = ? AND version = ? AND status = ?
		  AND NOT EXISTS (
		    SELECT 1 FROM bookings other
		    WHERE other.property_id = ?
		      AND other.id <> ?
		      AND other.status = ?
		      AND other.check_in < ? AND ? < other.check_out
		  )`,
		string(bookingDomain.StatusApproved), bk.Version(), bk.UpdatedAt(),
		bk.ID(), expectedVersion, string(bookingDomain.StatusPending),
		bk.PropertyID(), bk.ID(), string(bookingDomain.StatusApproved),
		bk.Stay().CheckOut(), bk.Stay().CheckIn(),
	)
	if result.Error != nil {
		var pgErr *pgconn.PgError
		if errors.As(result.Error, &pgErr) && pgErr.Code == pgExclusionViolation {
			return domain.NewDateConflictError(bk.PropertyID(), bk.Stay().CheckIn(), bk.Stay().CheckOut())
		}
		return fmt.Errorf("failed to approve booking: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	// The guarded write did not apply: either a competing approved hold
	// exists (the booking stays pending for the owner to decline) or the row
	// was modified concurrently.
	competing, err := r.FindOverlapping(ctx, bk.PropertyID(), bk.Stay(),
		[]bookingDomain.Status{bookingDomain.StatusApproved})
	if err != nil {
		return err
	}
	for _, other := range competing {
		if other.ID() != bk.ID() {
			return domain.NewDateConflictError(bk.PropertyID(), bk.Stay().CheckIn(), bk.Stay().CheckOut())
		}
	}
	return domain.NewConflictError("booking was modified by another transaction")
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:              bk.ID(),
		PropertyID:      bk.PropertyID(),
		GuestID:         bk.GuestID(),
		OwnerID:         bk.OwnerID(),
		CheckIn:         bk.Stay().CheckIn(),
		CheckOut:        bk.Stay().CheckOut(),
		TotalPriceCents: bk.TotalCents(),
		Status:          string(bk.Status()),
		GuestMessage:    bk.GuestMessage(),
		Version:         bk.Version(),
		CreatedAt:       bk.CreatedAt(),
		UpdatedAt:       bk.UpdatedAt(),
	}
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseStatus(m.Status)
	if err != nil {
		return nil, err
	}
	return bookingDomain.Reconstruct(
		m.ID,
		m.PropertyID,
		m.GuestID,
		m.OwnerID,
		bookingDomain.ReconstructDateRange(m.CheckIn, m.CheckOut),
		m.TotalPriceCents,
		status,
		m.GuestMessage,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}

func toDomainBookings(models []BookingModel) ([]*bookingDomain.Booking, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i, m := range models {
		bk, err := toDomainBooking(&m)
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}
