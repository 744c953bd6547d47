package domain

import (
	"fmt"
	"math/big"
	"time"

	"flexsession/internal/data/entity"
)

// RushWindow is how close to its start a session is priced at the rush rate.
const RushWindow = 24 * time.Hour

var nanosPerHour = big.NewInt(int64(time.Hour))

// IsRush reports whether a session starting at start is a rush session
// when booked at now.
func IsRush(start, now time.Time) bool {
	return start.Sub(now) < RushWindow
}

// ValidateRates checks a rate profile before it is used for pricing.
func ValidateRates(rates entity.RateProfile) error {
	if rates.HourlyRate <= 0 {
		return fmt.Errorf("%w: hourly rate %d must be positive", ErrInvalidRate, rates.HourlyRate)
	}
	if rates.RushRate != nil && *rates.RushRate < rates.HourlyRate {
		return fmt.Errorf("%w: rush rate %d below hourly rate %d", ErrInvalidRate, *rates.RushRate, rates.HourlyRate)
	}
	return nil
}

// ComputePrice returns the session price in minor units: the effective
// hourly rate times the fractional duration, rounded half-up. The rush rate
// applies when the session starts less than RushWindow after now.
func ComputePrice(rates entity.RateProfile, start, end, now time.Time) (int64, error) {
	if !end.After(start) {
		return 0, ErrInvalidInterval
	}
	if err := ValidateRates(rates); err != nil {
		return 0, err
	}

	rate := rates.HourlyRate
	if rates.RushRate != nil && IsRush(start, now) {
		rate = *rates.RushRate
	}

	// rate * nanos / nanosPerHour, half-up, without float rounding drift
	num := new(big.Int).Mul(big.NewInt(rate), big.NewInt(int64(end.Sub(start))))
	quo, rem := new(big.Int).QuoRem(num, nanosPerHour, new(big.Int))
	if rem.Lsh(rem, 1).Cmp(nanosPerHour) >= 0 {
		quo.Add(quo, big.NewInt(1))
	}
	if !quo.IsInt64() {
		return 0, fmt.Errorf("%w: price overflows", ErrInvalidRate)
	}

	return quo.Int64(), nil
}
