package booking

import (
	"fmt"
	"time"

	"github.com/staynest/service-booking/internal/domain"
)

// DateRange is a half-open interval [CheckIn, CheckOut) of calendar days.
// Both bounds are normalized to UTC midnight; time-of-day never participates
// in availability decisions.
type DateRange struct {
	checkIn  time.Time
	checkOut time.Time
}

// NewDateRange creates a DateRange, normalizing both bounds to UTC midnight.
// The range must cover at least one night.
func NewDateRange(checkIn, checkOut time.Time) (DateRange, error) {
	in := TruncateToDay(checkIn)
	out := TruncateToDay(checkOut)
	if !in.Before(out) {
		return DateRange{}, domain.NewInvalidRangeError(fmt.Sprintf(
			"check-out (%s) must be after check-in (%s)",
			out.Format(time.DateOnly), in.Format(time.DateOnly),
		))
	}
	return DateRange{checkIn: in, checkOut: out}, nil
}

// ReconstructDateRange rebuilds a DateRange from persistence data (no validation).
func ReconstructDateRange(checkIn, checkOut time.Time) DateRange {
	return DateRange{checkIn: TruncateToDay(checkIn), checkOut: TruncateToDay(checkOut)}
}

// TruncateToDay strips the time-of-day component, keeping the UTC calendar date.
func TruncateToDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// CheckIn returns the first night of the stay.
func (r DateRange) CheckIn() time.Time { return r.checkIn }

// CheckOut returns the day after the last night of the stay.
func (r DateRange) CheckOut() time.Time { return r.checkOut }

// Nights returns the number of nights covered by the range.
func (r DateRange) Nights() int {
	return int(r.checkOut.Sub(r.checkIn).Hours() / 24)
}

// Overlaps reports whether two ranges share at least one night. Because both
// ranges are half-open, back-to-back stays (one checking out the day the
// other checks in) do not overlap.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.checkIn.Before(other.checkOut) && other.checkIn.Before(r.checkOut)
}

// Contains reports whether the given calendar day is one of the nights of the
// stay. The check-out day itself is not a night.
func (r DateRange) Contains(day time.Time) bool {
	d := TruncateToDay(day)
	return !d.Before(r.checkIn) && d.Before(r.checkOut)
}

// Days returns every night of the stay as a UTC-midnight date.
func (r DateRange) Days() []time.Time {
	days := make([]time.Time, 0, r.Nights())
	for d := r.checkIn; d.Before(r.checkOut); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// String returns the range in "2024-03-01 -> 2024-03-05" form.
func (r DateRange) String() string {
	return fmt.Sprintf("%s -> %s", r.checkIn.Format(time.DateOnly), r.checkOut.Format(time.DateOnly))
}
