package availability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/staynest/service-booking/internal/domain/booking"
	"github.com/staynest/service-booking/internal/domain/property"
)

const blockedDatesCacheTTL = 5 * time.Minute

// Store is the availability read model: a derived view over the property's
// explicitly blocked dates and its pending/approved bookings. It is never
// authoritative on its own; every answer is computed from the booking and
// property stores.
//
// The display set may be served from a short-TTL redis cache (eventual
// consistency is acceptable for calendar UIs). The IsRangeFree write path
// never reads the cache.
type Store struct {
	bookings   booking.Repository
	properties property.Repository
	cache      *redis.Client
	logger     *zap.Logger
}

// NewStore creates an availability Store. The cache client may be nil, in
// which case every display query is computed from the repositories.
func NewStore(
	bookings booking.Repository,
	properties property.Repository,
	cache *redis.Client,
	logger *zap.Logger,
) *Store {
	return &Store{
		bookings:   bookings,
		properties: properties,
		cache:      cache,
		logger:     logger,
	}
}

// IsRangeFree reports whether the stay overlaps no pending or approved
// booking for the property and covers no owner-blocked date. Pending bookings
// block the slot so two competing requests for the same nights are never both
// accepted into pending.
func (s *Store) IsRangeFree(ctx context.Context, propertyID uuid.UUID, stay booking.DateRange) (bool, error) {
	prop, err := s.properties.FindByID(ctx, propertyID)
	if err != nil {
		return false, err
	}
	if prop.BlocksAny(stay) {
		return false, nil
	}

	holds, err := s.bookings.FindOverlapping(ctx, propertyID, stay, booking.HoldStatuses())
	if err != nil {
		return false, fmt.Errorf("failed to check overlapping holds: %w", err)
	}
	return len(holds) == 0, nil
}

// BlockedDatesForDisplay returns the union of the property's explicitly
// blocked dates and every night covered by a pending or approved booking,
// sorted and de-duplicated. Used by calendar UIs.
func (s *Store) BlockedDatesForDisplay(ctx context.Context, propertyID uuid.UUID) ([]time.Time, error) {
	if cached, ok := s.cacheGet(ctx, propertyID); ok {
		return cached, nil
	}

	prop, err := s.properties.FindByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	holds, err := s.bookings.FindHoldsByPropertyID(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load holds for property %s: %w", propertyID, err)
	}

	seen := make(map[time.Time]struct{})
	for _, d := range prop.BlockedDates() {
		seen[booking.TruncateToDay(d)] = struct{}{}
	}
	for _, bk := range holds {
		for _, d := range bk.Stay().Days() {
			seen[d] = struct{}{}
		}
	}

	dates := make([]time.Time, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	s.cacheSet(ctx, propertyID, dates)
	return dates, nil
}

// InvalidateDisplayCache drops the cached display set for the property. The
// booking engine calls this after every booking write.
func (s *Store) InvalidateDisplayCache(ctx context.Context, propertyID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, blockedDatesCacheKey(propertyID)).Err(); err != nil {
		s.logger.Warn("failed to invalidate blocked-dates cache",
			zap.String("property_id", propertyID.String()),
			zap.Error(err),
		)
	}
}

func (s *Store) cacheGet(ctx context.Context, propertyID uuid.UUID) ([]time.Time, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, blockedDatesCacheKey(propertyID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		s.logger.Warn("blocked-dates cache read failed",
			zap.String("property_id", propertyID.String()),
			zap.Error(err),
		)
		return nil, false
	}

	var encoded []string
	if err := json.Unmarshal([]byte(raw), &encoded); err != nil {
		return nil, false
	}
	dates := make([]time.Time, 0, len(encoded))
	for _, e := range encoded {
		d, err := time.ParseInLocation(time.DateOnly, e, time.UTC)
		if err != nil {
			return nil, false
		}
		dates = append(dates, d)
	}
	return dates, true
}

func (s *Store) cacheSet(ctx context.Context, propertyID uuid.UUID, dates []time.Time) {
	if s.cache == nil {
		return
	}
	encoded := make([]string, len(dates))
	for i, d := range dates {
		encoded[i] = d.Format(time.DateOnly)
	}
	payload, err := json.Marshal(encoded)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, blockedDatesCacheKey(propertyID), payload, blockedDatesCacheTTL).Err(); err != nil {
		s.logger.Warn("blocked-dates cache write failed",
			zap.String("property_id", propertyID.String()),
			zap.Error(err),
		)
	}
}

func blockedDatesCacheKey(propertyID uuid.UUID) string {
	return fmt.Sprintf("availability:blocked:%s", propertyID)
}
