package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/staynest/service-booking/internal/availability"
	"github.com/staynest/service-booking/internal/domain"
	bookingDomain "github.com/staynest/service-booking/internal/domain/booking"
	messageDomain "github.com/staynest/service-booking/internal/domain/message"
	propertyDomain "github.com/staynest/service-booking/internal/domain/property"
	reviewDomain "github.com/staynest/service-booking/internal/domain/review"
	"github.com/staynest/service-booking/internal/events"
)

// fixedClock serves a settable instant so tests control the lazy completion
// boundary.
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// memBookingRepo mimics the store's persistence semantics: reads return
// detached copies, writes check the optimistic version, and ApproveWithGuard
// applies the same conditional-write rule as the SQL guard.
type memBookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*bookingDomain.Booking
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{bookings: make(map[uuid.UUID]*bookingDomain.Booking)}
}

func cloneBooking(bk *bookingDomain.Booking) *bookingDomain.Booking {
	return bookingDomain.Reconstruct(
		bk.ID(), bk.PropertyID(), bk.GuestID(), bk.OwnerID(),
		bk.Stay(), bk.TotalCents(), bk.Status(), bk.GuestMessage(),
		bk.Version(), bk.CreatedAt(), bk.UpdatedAt(),
	)
}

func (r *memBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bk, ok := r.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("booking", id.String())
	}
	return cloneBooking(bk), nil
}

func (r *memBookingRepo) FindByGuestID(_ context.Context, guestID uuid.UUID, _, _ int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if bk.GuestID() == guestID {
			out = append(out, cloneBooking(bk))
		}
	}
	return out, int64(len(out)), nil
}

func (r *memBookingRepo) FindByOwnerID(_ context.Context, ownerID uuid.UUID, _, _ int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if bk.OwnerID() == ownerID {
			out = append(out, cloneBooking(bk))
		}
	}
	return out, int64(len(out)), nil
}

func (r *memBookingRepo) FindOverlapping(_ context.Context, propertyID uuid.UUID, stay bookingDomain.DateRange, statuses []bookingDomain.Status) ([]*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if bk.PropertyID() != propertyID || !bk.Stay().Overlaps(stay) {
			continue
		}
		for _, s := range statuses {
			if bk.Status() == s {
				out = append(out, cloneBooking(bk))
				break
			}
		}
	}
	return out, nil
}

func (r *memBookingRepo) FindHoldsByPropertyID(_ context.Context, propertyID uuid.UUID) ([]*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if bk.PropertyID() == propertyID && bk.Status().IsHold() {
			out = append(out, cloneBooking(bk))
		}
	}
	return out, nil
}

func (r *memBookingRepo) Save(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[bk.ID()] = cloneBooking(bk)
	return nil
}

func (r *memBookingRepo) Update(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.bookings[bk.ID()]
	if !ok {
		return domain.NewNotFoundError("booking", bk.ID().String())
	}
	if stored.Version() != bk.Version()-1 {
		return domain.NewConflictError("booking was modified concurrently")
	}
	r.bookings[bk.ID()] = cloneBooking(bk)
	return nil
}

func (r *memBookingRepo) ApproveWithGuard(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.bookings[bk.ID()]
	if !ok {
		return domain.NewNotFoundError("booking", bk.ID().String())
	}
	for _, other := range r.bookings {
		if other.ID() == bk.ID() || other.PropertyID() != bk.PropertyID() {
			continue
		}
		if other.Status() == bookingDomain.StatusApproved && other.Stay().Overlaps(bk.Stay()) {
			return domain.NewDateConflictError(bk.PropertyID(), bk.Stay().CheckIn(), bk.Stay().CheckOut())
		}
	}
	if stored.Version() != bk.Version()-1 || stored.Status() != bookingDomain.StatusPending {
		return domain.NewConflictError("booking was modified concurrently")
	}
	r.bookings[bk.ID()] = cloneBooking(bk)
	return nil
}

type memPropertyRepo struct {
	mu         sync.Mutex
	properties map[uuid.UUID]*propertyDomain.Property
}

func newMemPropertyRepo() *memPropertyRepo {
	return &memPropertyRepo{properties: make(map[uuid.UUID]*propertyDomain.Property)}
}

func (r *memPropertyRepo) FindByID(_ context.Context, id uuid.UUID) (*propertyDomain.Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.properties[id]
	if !ok {
		return nil, domain.NewNotFoundError("property", id.String())
	}
	return p, nil
}

func (r *memPropertyRepo) Save(_ context.Context, p *propertyDomain.Property) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.properties[p.ID()] = p
	return nil
}

func (r *memPropertyRepo) Update(_ context.Context, p *propertyDomain.Property) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.properties[p.ID()] = p
	return nil
}

type memMessageRepo struct {
	mu       sync.Mutex
	messages []*messageDomain.Message
}

func (r *memMessageRepo) FindByBookingID(_ context.Context, bookingID uuid.UUID) ([]*messageDomain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*messageDomain.Message
	for _, m := range r.messages {
		if m.BookingID() == bookingID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memMessageRepo) Save(_ context.Context, m *messageDomain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
	return nil
}

func (r *memMessageRepo) MarkConversationRead(_ context.Context, bookingID, readerID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var updated int64
	for _, m := range r.messages {
		if m.BookingID() == bookingID && m.SenderID() != readerID && !m.Read() {
			m.MarkRead()
			updated++
		}
	}
	return updated, nil
}

type reviewKey struct {
	bookingID  uuid.UUID
	reviewerID uuid.UUID
}

type memReviewRepo struct {
	mu      sync.Mutex
	reviews map[reviewKey]*reviewDomain.Review
}

func newMemReviewRepo() *memReviewRepo {
	return &memReviewRepo{reviews: make(map[reviewKey]*reviewDomain.Review)}
}

func (r *memReviewRepo) Save(_ context.Context, rv *reviewDomain.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := reviewKey{bookingID: rv.BookingID(), reviewerID: rv.ReviewerID()}
	if _, exists := r.reviews[key]; exists {
		return domain.NewDuplicateReviewError(rv.BookingID(), rv.ReviewerID())
	}
	r.reviews[key] = rv
	return nil
}

func (r *memReviewRepo) FindByBookingAndReviewer(_ context.Context, bookingID, reviewerID uuid.UUID) (*reviewDomain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rv, ok := r.reviews[reviewKey{bookingID: bookingID, reviewerID: reviewerID}]
	if !ok {
		return nil, domain.NewNotFoundError("review", bookingID.String())
	}
	return rv, nil
}

func (r *memReviewRepo) FindByRevieweeID(_ context.Context, revieweeID uuid.UUID, _, _ int) ([]*reviewDomain.Review, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*reviewDomain.Review
	for _, rv := range r.reviews {
		if rv.RevieweeID() == revieweeID {
			out = append(out, rv)
		}
	}
	return out, int64(len(out)), nil
}

// capturingPublisher records every published event for assertions.
type capturingPublisher struct {
	mu     sync.Mutex
	events []events.CloudEvent
}

func (p *capturingPublisher) PublishEvent(_ context.Context, _ string, _ string, event events.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) typesPublished() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.Type
	}
	return types
}

// fixture wires the full service graph on in-memory stores.
type fixture struct {
	bookings   *memBookingRepo
	properties *memPropertyRepo
	messages   *memMessageRepo
	reviews    *memReviewRepo
	publisher  *capturingPublisher
	clock      *fixedClock

	bookingSvc *BookingService
	messageSvc *MessageService
	reviewSvc  *ReviewService
}

func newFixture(now time.Time) *fixture {
	f := &fixture{
		bookings:   newMemBookingRepo(),
		properties: newMemPropertyRepo(),
		messages:   &memMessageRepo{},
		reviews:    newMemReviewRepo(),
		publisher:  &capturingPublisher{},
		clock:      &fixedClock{now: now},
	}
	store := availability.NewStore(f.bookings, f.properties, nil, zap.NewNop())
	f.bookingSvc = NewBookingService(f.bookings, f.properties, store, f.publisher, f.clock, zap.NewNop())
	f.messageSvc = NewMessageService(f.messages, f.bookingSvc, zap.NewNop())
	f.reviewSvc = NewReviewService(f.reviews, f.bookingSvc, zap.NewNop())
	return f
}

func utcDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (f *fixture) seedPublishedProperty(t *testing.T, rateCents int64, blocked ...time.Time) *propertyDomain.Property {
	t.Helper()
	p, err := propertyDomain.NewProperty(uuid.New(), "Harbor Studio", rateCents)
	require.NoError(t, err)
	p.Publish()
	p.SetBlockedDates(blocked)
	require.NoError(t, f.properties.Save(context.Background(), p))
	return p
}

func (f *fixture) requestBooking(t *testing.T, guestID uuid.UUID, prop *propertyDomain.Property, checkIn, checkOut string) *BookingDTO {
	t.Helper()
	dto, err := f.bookingSvc.RequestBooking(context.Background(), guestID, CreateBookingRequest{
		PropertyID: prop.ID(),
		CheckIn:    checkIn,
		CheckOut:   checkOut,
	})
	require.NoError(t, err)
	return dto
}
