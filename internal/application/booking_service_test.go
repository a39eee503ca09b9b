package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staynest/service-booking/internal/domain"
	bookingDomain "github.com/staynest/service-booking/internal/domain/booking"
	"github.com/staynest/service-booking/internal/events"
)

func TestRequestBooking(t *testing.T) {
	f := newFixture(utcDay(2026, 2, 1))
	prop := f.seedPublishedProperty(t, 15000)
	guestID := uuid.New()

	dto := f.requestBooking(t, guestID, prop, "2026-03-01", "2026-03-15")

	assert.Equal(t, "pending", dto.Status)
	assert.Equal(t, 14, dto.Nights)
	assert.Equal(t, int64(210000), dto.TotalPriceCents)
	assert.Equal(t, prop.OwnerID(), dto.OwnerID)
	assert.Equal(t, []string{events.BookingRequested}, f.publisher.typesPublished())
}

func TestRequestBooking_InvalidDates(t *testing.T) {
	f := newFixture(utcDay(2026, 2, 1))
	prop := f.seedPublishedProperty(t, 15000)

	_, err := f.bookingSvc.RequestBooking(context.Background(), uuid.New(), CreateBookingRequest{
		PropertyID: prop.ID(),
		CheckIn:    "2026-03-15",
		CheckOut:   "2026-03-01",
	})
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeInvalidRange))

	_, err = f.bookingSvc.RequestBooking(context.Background(), uuid.New(), CreateBookingRequest{
		PropertyID: prop.ID(),
		CheckIn:    "March 1st",
		CheckOut:   "2026-03-05",
	})
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeInvalidRange))
}

func TestRequestBooking_OwnProperty(t *testing.T) {
	f := newFixture(utcDay(2026, 2, 1))
	prop := f.seedPublishedProperty(t, 15000)

	_, err := f.bookingSvc.RequestBooking(context.Background(), prop.OwnerID(), CreateBookingRequest{
		PropertyID: prop.ID(),
		CheckIn:    "2026-03-01",
		CheckOut:   "2026-03-05",
	})
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeValidation))
}

func TestRequestBooking_PendingHoldConflicts(t *testing.T) {
	f := newFixture(utcDay(2026, 2, 1))
	prop := f.seedPublishedProperty(t, 15000)
	f.requestBooking(t, uuid.New(), prop, "2026-03-01", "2026-03-10")

	// A second guest wanting overlapping nights is turned away while the
	// first request is still pending.
	_, err := f.bookingSvc.RequestBooking(context.Background(), uuid.New(), CreateBookingRequest{
		PropertyID: prop.ID(),
		CheckIn:    "2026-03-05",
		CheckOut:   "2026-03-12",
	})
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeDateConflict))
}

func TestRequestBooking_BackToBackAllowed(t *testing.T) {
	f := newFixture(utcDay(2026, 2, 1))
	prop := f.seedPublishedProperty(t, 15000)
	f.requestBooking(t, uuid.New(), prop, "2026-03-01", "2026-03-10")

	dto := f.requestBooking(t, uuid.New(), prop, "2026-03-10", "2026-03-15")
	assert.Equal(t, "pending", dto.Status)
}

func TestRequestBooking_BlockedDateConflicts(t *testing.T) {
	f := newFixture(utcDay(2026, 2, 1))
	prop := f.seedPublishedProperty(t, 15000, utcDay(2026, 3, 7))

	_, err := f.bookingSvc.RequestBooking(context.Background(), uuid.New(), CreateBookingRequest{
		PropertyID: prop.ID(),
		CheckIn:    "2026-03-05",
		CheckOut:   "2026-03-10",
	})
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeDateConflict))
}

func TestRespondToBooking_Approve(t *testing.T) {
	f := newFixture(utcDay(2026, 2, 1))
	prop := f.seedPublishedProperty(t, 15000)
	dto := f.requestBooking(t, uuid.New(), prop, "2026-03-01", "2026-03-05")

	result, err := f.bookingSvc.RespondToBooking(context.Background(), dto.ID, prop.OwnerID(), "approved")
	require.NoError(t, err)
	assert.Equal(t, "approved", result.Status)
	assert.Contains(t, f.publisher.typesPublished(), events.BookingApproved)
}

func TestRespondToBooking_Decline(t *testing.T) {
	f := newFixture(utcDay(2026, 2, 1))
	prop := f.seedPublishedProperty(t, 15000)
	dto := f.requestBooking(t, uuid.New(), prop, "2026-03-01", "2026-03-05")

	result, err := f.bookingSvc.RespondToBooking(context.Background(), dto.ID, prop.OwnerID(), "declined")
	require.NoError(t, err)
	assert.Equal(t, "declined", result.Status)

	// Declined bookings release their hold.
	second := f.requestBooking(t, uuid.New(), prop, "2026-03-01", "2026-03-05")
	assert.Equal(t, "pending", second.Status)
}

func TestRespondToBooking_GuestForbidden(t *testing.T) {
	f := newFixture(utcDay(2026, 2, 1))
	prop := f.seedPublishedProperty(t, 15000)
	guestID := uuid.New()
	dto := f.requestBooking(t, guestID, prop, "2026-03-01", "2026-03-05")

	_, err := f.bookingSvc.RespondToBooking(context.Background(), dto.ID, guestID, "approved")
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeNotAuthorized))
}

func TestRespondToBooking_ApproveLosesRace(t *testing.T) {
	f := newFixture(utcDay(2026, 2, 1))
	prop := f.seedPublishedProperty(t, 15000)

	// Two pending requests can coexist only for disjoint ranges; to simulate
	// the race we seed the competing request directly as pending.
	first := f.requestBooking(t, uuid.New(), prop, "2026-03-01", "2026-03-10")

	stay, err := bookingDomain.NewDateRange(utcDay(2026, 3, 5), utcDay(2026, 3, 12))
	require.NoError(t, err)
	competing, err := bookingDomain.NewBooking(prop.ID(), uuid.New(), prop.OwnerID(), stay, 105000, "")
	require.NoError(t, err)
	require.NoError(t, f.bookings.Save(context.Background(), competing))

	_, err = f.bookingSvc.RespondToBooking(context.Background(), first.ID, prop.OwnerID(), "approved")
	require.NoError(t, err)

	// Approving the overlapping request now fails the write-time guard and
	// the booking stays pending.
	_, err = f.bookingSvc.RespondToBooking(context.Background(), competing.ID(), prop.OwnerID(), "approved")
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeDateConflict))

	stored, err := f.bookings.FindByID(context.Background(), competing.ID())
	require.NoError(t, err)
	assert.Equal(t, bookingDomain.StatusPending, stored.Status())

	// The owner can still decline the loser.
	result, err := f.bookingSvc.RespondToBooking(context.Background(), competing.ID(), prop.OwnerID(), "declined")
	require.NoError(t, err)
	assert.Equal(t, "declined", result.Status)
}

func TestCancelBooking_GuestWithdrawsPending(t *testing.T) {
	f := newFixture(utcDay(2026, 2, 1))
	prop := f.seedPublishedProperty(t, 15000)
	guestID := uuid.New()
	dto := f.requestBooking(t, guestID, prop, "2026-03-01", "2026-03-05")

	result, err := f.bookingSvc.CancelBooking(context.Background(), dto.ID, guestID)
	require.NoError(t, err)
	assert.Equal(t, "declined", result.Status)
	assert.Contains(t, f.publisher.typesPublished(), events.BookingCancelled)
}

func TestCancelBooking_OwnerRevokesApproval(t *testing.T) {
	f := newFixture(utcDay(2026, 2, 1))
	prop := f.seedPublishedProperty(t, 15000)
	dto := f.requestBooking(t, uuid.New(), prop, "2026-03-01", "2026-03-05")

	_, err := f.bookingSvc.RespondToBooking(context.Background(), dto.ID, prop.OwnerID(), "approved")
	require.NoError(t, err)

	result, err := f.bookingSvc.CancelBooking(context.Background(), dto.ID, prop.OwnerID())
	require.NoError(t, err)
	assert.Equal(t, "declined", result.Status)

	// The slot is free again.
	second := f.requestBooking(t, uuid.New(), prop, "2026-03-01", "2026-03-05")
	assert.Equal(t, "pending", second.Status)
}

func TestCancelBooking_StrangerForbidden(t *testing.T) {
	f := newFixture(utcDay(2026, 2, 1))
	prop := f.seedPublishedProperty(t, 15000)
	dto := f.requestBooking(t, uuid.New(), prop, "2026-03-01", "2026-03-05")

	_, err := f.bookingSvc.CancelBooking(context.Background(), dto.ID, uuid.New())
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeNotAuthorized))
}

func TestGetBooking_PartyOnly(t *testing.T) {
	f := newFixture(utcDay(2026, 2, 1))
	prop := f.seedPublishedProperty(t, 15000)
	guestID := uuid.New()
	dto := f.requestBooking(t, guestID, prop, "2026-03-01", "2026-03-05")

	got, err := f.bookingSvc.GetBooking(context.Background(), dto.ID, guestID)
	require.NoError(t, err)
	assert.Equal(t, dto.ID, got.ID)

	got, err = f.bookingSvc.GetBooking(context.Background(), dto.ID, prop.OwnerID())
	require.NoError(t, err)
	assert.Equal(t, dto.ID, got.ID)

	_, err = f.bookingSvc.GetBooking(context.Background(), dto.ID, uuid.New())
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeNotAuthorized))
}

func TestLazyCompletion_OnRead(t *testing.T) {
	f := newFixture(utcDay(2026, 2, 1))
	prop := f.seedPublishedProperty(t, 15000)
	guestID := uuid.New()
	dto := f.requestBooking(t, guestID, prop, "2026-03-01", "2026-03-05")

	_, err := f.bookingSvc.RespondToBooking(context.Background(), dto.ID, prop.OwnerID(), "approved")
	require.NoError(t, err)

	// Still approved the night before checkout.
	f.clock.Set(time.Date(2026, 3, 4, 23, 0, 0, 0, time.UTC))
	got, err := f.bookingSvc.GetBooking(context.Background(), dto.ID, guestID)
	require.NoError(t, err)
	assert.Equal(t, "approved", got.Status)

	// Completed once the checkout date arrives, persisted on first read.
	f.clock.Set(utcDay(2026, 3, 5))
	got, err = f.bookingSvc.GetBooking(context.Background(), dto.ID, guestID)
	require.NoError(t, err)
	assert.Equal(t, "completed", got.Status)
	assert.Contains(t, f.publisher.typesPublished(), events.BookingCompleted)

	stored, err := f.bookings.FindByID(context.Background(), dto.ID)
	require.NoError(t, err)
	assert.Equal(t, bookingDomain.StatusCompleted, stored.Status())
}

func TestLazyCompletion_Idempotent(t *testing.T) {
	f := newFixture(utcDay(2026, 2, 1))
	prop := f.seedPublishedProperty(t, 15000)
	guestID := uuid.New()
	dto := f.requestBooking(t, guestID, prop, "2026-03-01", "2026-03-05")

	_, err := f.bookingSvc.RespondToBooking(context.Background(), dto.ID, prop.OwnerID(), "approved")
	require.NoError(t, err)

	f.clock.Set(utcDay(2026, 4, 1))
	for i := 0; i < 3; i++ {
		got, err := f.bookingSvc.GetBooking(context.Background(), dto.ID, guestID)
		require.NoError(t, err)
		assert.Equal(t, "completed", got.Status)
	}

	// Only one completed event despite repeated reads.
	completed := 0
	for _, typ := range f.publisher.typesPublished() {
		if typ == events.BookingCompleted {
			completed++
		}
	}
	assert.Equal(t, 1, completed)
}

func TestLazyCompletion_PendingNeverCompletes(t *testing.T) {
	f := newFixture(utcDay(2026, 2, 1))
	prop := f.seedPublishedProperty(t, 15000)
	guestID := uuid.New()
	dto := f.requestBooking(t, guestID, prop, "2026-03-01", "2026-03-05")

	// A request nobody answered stays pending long after checkout.
	f.clock.Set(utcDay(2026, 6, 1))
	got, err := f.bookingSvc.GetBooking(context.Background(), dto.ID, guestID)
	require.NoError(t, err)
	assert.Equal(t, "pending", got.Status)
}

func TestGetGuestBookingsAndOwnerRequests(t *testing.T) {
	f := newFixture(utcDay(2026, 2, 1))
	prop := f.seedPublishedProperty(t, 15000)
	guestID := uuid.New()
	f.requestBooking(t, guestID, prop, "2026-03-01", "2026-03-05")
	f.requestBooking(t, guestID, prop, "2026-04-01", "2026-04-05")
	f.requestBooking(t, uuid.New(), prop, "2026-05-01", "2026-05-05")

	mine, err := f.bookingSvc.GetGuestBookings(context.Background(), guestID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), mine.Total)
	assert.Len(t, mine.Items, 2)

	requests, err := f.bookingSvc.GetOwnerRequests(context.Background(), prop.OwnerID(), 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(3), requests.Total)
}

func TestBookingLifecycle_EndToEnd(t *testing.T) {
	f := newFixture(utcDay(2026, 2, 1))
	prop := f.seedPublishedProperty(t, 15000)
	guestA := uuid.New()
	guestB := uuid.New()

	// Guest A requests March 1-15; the price is quoted at request time.
	a := f.requestBooking(t, guestA, prop, "2026-03-01", "2026-03-15")
	assert.Equal(t, int64(210000), a.TotalPriceCents)

	// Guest B cannot request overlapping nights while A holds them.
	_, err := f.bookingSvc.RequestBooking(context.Background(), guestB, CreateBookingRequest{
		PropertyID: prop.ID(),
		CheckIn:    "2026-03-10",
		CheckOut:   "2026-03-20",
	})
	assert.True(t, domain.IsCode(err, domain.CodeDateConflict))

	// Owner approves A; B books the adjacent range starting at A's checkout.
	_, err = f.bookingSvc.RespondToBooking(context.Background(), a.ID, prop.OwnerID(), "approved")
	require.NoError(t, err)
	b := f.requestBooking(t, guestB, prop, "2026-03-15", "2026-03-20")

	// After A's checkout the booking completes on read and its nights no
	// longer block B's approval.
	f.clock.Set(utcDay(2026, 3, 16))
	gotA, err := f.bookingSvc.GetBooking(context.Background(), a.ID, guestA)
	require.NoError(t, err)
	assert.Equal(t, "completed", gotA.Status)

	_, err = f.bookingSvc.RespondToBooking(context.Background(), b.ID, prop.OwnerID(), "approved")
	require.NoError(t, err)
}
