package property

import (
	"time"

	"github.com/google/uuid"
	"github.com/staynest/service-booking/internal/domain"
	"github.com/staynest/service-booking/internal/domain/booking"
)

// Status represents the lifecycle state of a property listing.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Property is the listing the booking core consumes as its availability data
// source: the owner, the nightly rate, the publication status, and the
// explicitly blocked calendar dates. Listing content (photos, amenities,
// descriptions) is owned elsewhere.
type Property struct {
	id               uuid.UUID
	ownerID          uuid.UUID
	title            string
	nightlyRateCents int64
	status           Status
	blockedDates     []time.Time
	version          int64
	createdAt        time.Time
	updatedAt        time.Time
}

// NewProperty creates a new draft property listing.
func NewProperty(ownerID uuid.UUID, title string, nightlyRateCents int64) (*Property, error) {
	if ownerID == uuid.Nil {
		return nil, domain.NewValidationError("owner ID is required")
	}
	if title == "" {
		return nil, domain.NewValidationError("property title is required")
	}
	if nightlyRateCents <= 0 {
		return nil, domain.NewValidationError("nightly rate must be positive")
	}

	now := time.Now().UTC()
	return &Property{
		id:               uuid.New(),
		ownerID:          ownerID,
		title:            title,
		nightlyRateCents: nightlyRateCents,
		status:           StatusDraft,
		version:          1,
		createdAt:        now,
		updatedAt:        now,
	}, nil
}

// Reconstruct rebuilds a Property from persistence data (no validation).
func Reconstruct(
	id, ownerID uuid.UUID,
	title string,
	nightlyRateCents int64,
	status Status,
	blockedDates []time.Time,
	version int64,
	createdAt, updatedAt time.Time,
) *Property {
	return &Property{
		id:               id,
		ownerID:          ownerID,
		title:            title,
		nightlyRateCents: nightlyRateCents,
		status:           status,
		blockedDates:     blockedDates,
		version:          version,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}

// --- Getters ---

func (p *Property) ID() uuid.UUID           { return p.id }
func (p *Property) OwnerID() uuid.UUID      { return p.ownerID }
func (p *Property) Title() string           { return p.title }
func (p *Property) NightlyRateCents() int64 { return p.nightlyRateCents }
func (p *Property) Status() Status          { return p.status }
func (p *Property) Version() int64          { return p.version }
func (p *Property) CreatedAt() time.Time    { return p.createdAt }
func (p *Property) UpdatedAt() time.Time    { return p.updatedAt }

// BlockedDates returns the owner-blocked calendar dates.
func (p *Property) BlockedDates() []time.Time {
	dates := make([]time.Time, len(p.blockedDates))
	copy(dates, p.blockedDates)
	return dates
}

// --- Behavior ---

// IsPublished reports whether the listing accepts booking requests.
func (p *Property) IsPublished() bool {
	return p.status == StatusPublished
}

// IsOwnedBy checks if the property belongs to the given owner.
func (p *Property) IsOwnedBy(ownerID uuid.UUID) bool {
	return p.ownerID == ownerID
}

// BlocksAny reports whether any night of the stay falls on an owner-blocked date.
func (p *Property) BlocksAny(stay booking.DateRange) bool {
	for _, d := range p.blockedDates {
		if stay.Contains(d) {
			return true
		}
	}
	return false
}

// Publish makes the listing visible and bookable.
func (p *Property) Publish() {
	p.status = StatusPublished
	p.version++
	p.updatedAt = time.Now().UTC()
}

// SetBlockedDates replaces the owner-blocked date set, normalized to UTC days.
func (p *Property) SetBlockedDates(dates []time.Time) {
	normalized := make([]time.Time, len(dates))
	for i, d := range dates {
		normalized[i] = booking.TruncateToDay(d)
	}
	p.blockedDates = normalized
	p.version++
	p.updatedAt = time.Now().UTC()
}
