package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/staynest/service-booking/internal/availability"
	"github.com/staynest/service-booking/internal/domain"
	bookingDomain "github.com/staynest/service-booking/internal/domain/booking"
	propertyDomain "github.com/staynest/service-booking/internal/domain/property"
	"github.com/staynest/service-booking/internal/events"
)

// CreateBookingRequest holds the data needed to request a booking.
type CreateBookingRequest struct {
	PropertyID uuid.UUID `json:"property_id" binding:"required"`
	CheckIn    string    `json:"check_in" binding:"required"`
	CheckOut   string    `json:"check_out" binding:"required"`
	Message    string    `json:"message"`
}

// RespondToBookingRequest holds the owner's decision on a pending request.
type RespondToBookingRequest struct {
	Status string `json:"status" binding:"required,oneof=approved declined"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID              uuid.UUID `json:"id"`
	PropertyID      uuid.UUID `json:"property_id"`
	GuestID         uuid.UUID `json:"guest_id"`
	OwnerID         uuid.UUID `json:"owner_id"`
	CheckIn         string    `json:"check_in"`
	CheckOut        string    `json:"check_out"`
	Nights          int       `json:"nights"`
	TotalPriceCents int64     `json:"total_price_cents"`
	Status          string    `json:"status"`
	Message         string    `json:"message,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// BookingService is the booking engine: the only writer of booking records.
// It combines the availability store, the price quote, and the status state
// machine to create, approve, decline, cancel, and lazily complete bookings.
type BookingService struct {
	bookings     bookingDomain.Repository
	properties   propertyDomain.Repository
	availability *availability.Store
	producer     events.Publisher
	clock        bookingDomain.Clock
	logger       *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	bookings bookingDomain.Repository,
	properties propertyDomain.Repository,
	availability *availability.Store,
	producer events.Publisher,
	clock bookingDomain.Clock,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		bookings:     bookings,
		properties:   properties,
		availability: availability,
		producer:     producer,
		clock:        clock,
		logger:       logger,
	}
}

// RequestBooking creates a pending booking for the guest if the property is
// published, the range is valid, and no pending/approved hold or blocked date
// overlaps it. The owner and the total price are snapshotted from the
// property at this instant.
func (s *BookingService) RequestBooking(ctx context.Context, guestID uuid.UUID, req CreateBookingRequest) (*BookingDTO, error) {
	stay, err := parseStay(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}

	prop, err := s.properties.FindByID(ctx, req.PropertyID)
	if err != nil {
		return nil, err
	}
	if !prop.IsPublished() {
		return nil, domain.NewValidationError(fmt.Sprintf(
			"property %s is not accepting booking requests", prop.ID(),
		))
	}
	if guestID == prop.OwnerID() {
		return nil, domain.NewValidationError("guests cannot book their own property")
	}

	free, err := s.availability.IsRangeFree(ctx, prop.ID(), stay)
	if err != nil {
		return nil, err
	}
	if !free {
		s.logger.Info("booking request rejected: dates not available",
			zap.String("property_id", prop.ID().String()),
			zap.String("guest_id", guestID.String()),
			zap.String("stay", stay.String()),
		)
		return nil, domain.NewDateConflictError(prop.ID(), stay.CheckIn(), stay.CheckOut())
	}

	quote, err := bookingDomain.QuotePrice(prop.NightlyRateCents(), stay)
	if err != nil {
		return nil, err
	}

	bk, err := bookingDomain.NewBooking(prop.ID(), guestID, prop.OwnerID(), stay, quote.TotalCents, req.Message)
	if err != nil {
		return nil, err
	}

	if err := s.bookings.Save(ctx, bk); err != nil {
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}
	s.availability.InvalidateDisplayCache(ctx, prop.ID())

	s.logger.Info("booking requested",
		zap.String("booking_id", bk.ID().String()),
		zap.String("property_id", prop.ID().String()),
		zap.String("guest_id", guestID.String()),
		zap.Int64("total_price_cents", bk.TotalCents()),
	)
	s.publishEvent(ctx, events.BookingRequested, bk.ID().String(), events.BookingRequestedEvent{
		BookingID:       bk.ID(),
		PropertyID:      bk.PropertyID(),
		GuestID:         bk.GuestID(),
		OwnerID:         bk.OwnerID(),
		CheckIn:         stay.CheckIn(),
		CheckOut:        stay.CheckOut(),
		Nights:          quote.Nights,
		TotalPriceCents: bk.TotalCents(),
		OccurredAt:      time.Now().UTC(),
	})

	result := toBookingDTO(bk)
	return &result, nil
}

// RespondToBooking applies the owner's approve/decline decision to a pending
// request. Approval re-validates availability against approved holds at write
// time: if a competing request was approved first, the decision fails with a
// date conflict and the booking stays pending for the owner to decline.
func (s *BookingService) RespondToBooking(ctx context.Context, bookingID, ownerID uuid.UUID, decision string) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	switch decision {
	case string(bookingDomain.StatusApproved):
		if err := bk.Approve(ownerID); err != nil {
			return nil, err
		}
		bk.IncrementVersion()
		if err := s.bookings.ApproveWithGuard(ctx, bk); err != nil {
			s.logger.Warn("booking approval rejected",
				zap.String("booking_id", bookingID.String()),
				zap.String("property_id", bk.PropertyID().String()),
				zap.Error(err),
			)
			return nil, err
		}
		s.publishEvent(ctx, events.BookingApproved, bk.ID().String(), events.BookingApprovedEvent{
			BookingID:  bk.ID(),
			PropertyID: bk.PropertyID(),
			GuestID:    bk.GuestID(),
			OwnerID:    bk.OwnerID(),
			CheckIn:    bk.Stay().CheckIn(),
			CheckOut:   bk.Stay().CheckOut(),
			OccurredAt: time.Now().UTC(),
		})

	case string(bookingDomain.StatusDeclined):
		if err := bk.Decline(ownerID); err != nil {
			return nil, err
		}
		bk.IncrementVersion()
		if err := s.bookings.Update(ctx, bk); err != nil {
			return nil, err
		}
		s.publishEvent(ctx, events.BookingDeclined, bk.ID().String(), events.BookingDeclinedEvent{
			BookingID:  bk.ID(),
			PropertyID: bk.PropertyID(),
			GuestID:    bk.GuestID(),
			OwnerID:    bk.OwnerID(),
			OccurredAt: time.Now().UTC(),
		})

	default:
		return nil, domain.NewValidationError(fmt.Sprintf("unknown decision: %s", decision))
	}

	s.availability.InvalidateDisplayCache(ctx, bk.PropertyID())

	s.logger.Info("booking decision applied",
		zap.String("booking_id", bk.ID().String()),
		zap.String("decision", decision),
	)
	result := toBookingDTO(bk)
	return &result, nil
}

// CancelBooking cancels a booking on behalf of the requester: a guest
// withdraws their own pending request, an owner revokes an approved booking.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, requesterID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	switch requesterID {
	case bk.GuestID():
		err = bk.CancelByGuest(requesterID)
	case bk.OwnerID():
		err = bk.CancelByOwner(requesterID)
	default:
		err = domain.NewNotAuthorizedError(bk.ID(), "user is not a party to this booking")
	}
	if err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.bookings.Update(ctx, bk); err != nil {
		return nil, err
	}
	s.availability.InvalidateDisplayCache(ctx, bk.PropertyID())

	s.logger.Info("booking cancelled",
		zap.String("booking_id", bk.ID().String()),
		zap.String("cancelled_by", requesterID.String()),
	)
	s.publishEvent(ctx, events.BookingCancelled, bk.ID().String(), events.BookingCancelledEvent{
		BookingID:   bk.ID(),
		PropertyID:  bk.PropertyID(),
		CancelledBy: requesterID,
		OccurredAt:  time.Now().UTC(),
	})

	result := toBookingDTO(bk)
	return &result, nil
}

// GetBooking retrieves a single booking with its effective status applied.
// Only the booking's guest or owner may read it.
func (s *BookingService) GetBooking(ctx context.Context, bookingID, requesterID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.EffectiveBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !bk.IsParty(requesterID) {
		return nil, domain.NewNotAuthorizedError(bk.ID(), "user is not a party to this booking")
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// GetGuestBookings retrieves paginated bookings requested by the guest, with
// effective status applied to each.
func (s *BookingService) GetGuestBookings(ctx context.Context, guestID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.bookings.FindByGuestID(ctx, guestID, page, limit)
	if err != nil {
		return nil, err
	}
	dtos := s.toEffectiveDTOs(ctx, bookings)
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// GetOwnerRequests retrieves paginated booking requests on properties owned
// by the given owner, with effective status applied to each.
func (s *BookingService) GetOwnerRequests(ctx context.Context, ownerID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.bookings.FindByOwnerID(ctx, ownerID, page, limit)
	if err != nil {
		return nil, err
	}
	dtos := s.toEffectiveDTOs(ctx, bookings)
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// EffectiveBooking loads a booking and applies the lazy completed transition:
// an approved booking whose checkout date has passed is surfaced as completed
// and the change is persisted. The conversation and review gates read booking
// state through this method.
func (s *BookingService) EffectiveBooking(ctx context.Context, bookingID uuid.UUID) (*bookingDomain.Booking, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return s.applyEffectiveStatus(ctx, bk), nil
}

func (s *BookingService) applyEffectiveStatus(ctx context.Context, bk *bookingDomain.Booking) *bookingDomain.Booking {
	now := s.clock.Now()
	if !bk.CheckoutPassed(now) {
		return bk
	}

	if err := bk.CompleteAfterCheckout(now); err != nil {
		return bk
	}
	bk.IncrementVersion()
	if err := s.bookings.Update(ctx, bk); err != nil {
		// A concurrent reader may have completed it first; serve the stored
		// state rather than failing the read.
		if domain.IsCode(err, domain.CodeConflict) {
			if current, ferr := s.bookings.FindByID(ctx, bk.ID()); ferr == nil {
				return current
			}
		}
		s.logger.Error("failed to persist lazy completion",
			zap.String("booking_id", bk.ID().String()),
			zap.Error(err),
		)
		return bk
	}

	s.logger.Info("booking completed after checkout",
		zap.String("booking_id", bk.ID().String()),
	)
	s.publishEvent(ctx, events.BookingCompleted, bk.ID().String(), events.BookingCompletedEvent{
		BookingID:       bk.ID(),
		PropertyID:      bk.PropertyID(),
		GuestID:         bk.GuestID(),
		OwnerID:         bk.OwnerID(),
		TotalPriceCents: bk.TotalCents(),
		OccurredAt:      time.Now().UTC(),
	})
	return bk
}

func (s *BookingService) toEffectiveDTOs(ctx context.Context, bookings []*bookingDomain.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(s.applyEffectiveStatus(ctx, bk))
	}
	return dtos
}

func (s *BookingService) publishEvent(ctx context.Context, eventType, key string, data interface{}) {
	cloudEvent, err := events.NewCloudEvent("service-booking", eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}
	if err := s.producer.PublishEvent(ctx, events.TopicBookingEvents, key, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

// --- Helpers ---

func parseStay(checkIn, checkOut string) (bookingDomain.DateRange, error) {
	in, err := time.ParseInLocation(time.DateOnly, checkIn, time.UTC)
	if err != nil {
		return bookingDomain.DateRange{}, domain.NewInvalidRangeError(fmt.Sprintf(
			"invalid check-in date %q: expected YYYY-MM-DD", checkIn,
		))
	}
	out, err := time.ParseInLocation(time.DateOnly, checkOut, time.UTC)
	if err != nil {
		return bookingDomain.DateRange{}, domain.NewInvalidRangeError(fmt.Sprintf(
			"invalid check-out date %q: expected YYYY-MM-DD", checkOut,
		))
	}
	return bookingDomain.NewDateRange(in, out)
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:              bk.ID(),
		PropertyID:      bk.PropertyID(),
		GuestID:         bk.GuestID(),
		OwnerID:         bk.OwnerID(),
		CheckIn:         bk.Stay().CheckIn().Format(time.DateOnly),
		CheckOut:        bk.Stay().CheckOut().Format(time.DateOnly),
		Nights:          bk.Stay().Nights(),
		TotalPriceCents: bk.TotalCents(),
		Status:          string(bk.Status()),
		Message:         bk.GuestMessage(),
		CreatedAt:       bk.CreatedAt(),
		UpdatedAt:       bk.UpdatedAt(),
	}
}
