package booking

import (
	"github.com/staynest/service-booking/internal/domain"
)

// PriceQuote is the deterministic price breakdown for a stay. All amounts are
// integer cents; accumulating nightly rates in floats is not acceptable for
// monetary values.
type PriceQuote struct {
	Nights           int   `json:"nights"`
	NightlyRateCents int64 `json:"nightly_rate_cents"`
	TotalCents       int64 `json:"total_cents"`
}

// QuotePrice computes nights × nightly rate for the given stay. The nightly
// rate is the property's rate at the moment of quoting; the resulting total is
// frozen onto the booking and never re-derived.
func QuotePrice(nightlyRateCents int64, stay DateRange) (PriceQuote, error) {
	if nightlyRateCents <= 0 {
		return PriceQuote{}, domain.NewValidationError("nightly rate must be positive")
	}
	nights := stay.Nights()
	if nights < 1 {
		return PriceQuote{}, domain.NewInvalidRangeError("stay must cover at least one night")
	}
	return PriceQuote{
		Nights:           nights,
		NightlyRateCents: nightlyRateCents,
		TotalCents:       int64(nights) * nightlyRateCents,
	}, nil
}
