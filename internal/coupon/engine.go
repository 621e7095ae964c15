// Package coupon manages discount codes that feed the pricing engine.
package coupon

import (
	"errors"
	"time"

	"github.com/noah-isme/backend-boka/internal/pricing"
)

var (
	// ErrNotEligible is returned when the coupon cannot be applied to the provided context.
	ErrNotEligible = errors.New("coupon not eligible")
	// ErrUsageLimitReached indicates the coupon has exhausted its usage quota.
	ErrUsageLimitReached = errors.New("coupon usage limit reached")
	// ErrInactive is returned when attempting to use a coupon outside its active window.
	ErrInactive = errors.New("coupon not active")
	// ErrExpired is returned when the coupon has already expired.
	ErrExpired = errors.New("coupon expired")
	// ErrMinimumTotalUnmet indicates the quote total did not meet the coupon requirement.
	ErrMinimumTotalUnmet = errors.New("coupon minimum total not met")
)

// Rule captures the runtime constraints of a coupon.
type Rule struct {
	Code          string
	Kind          string
	PercentValue  float64
	AmountMajor   float64
	MinTotalMinor int64
	UsageLimit    *int32
	UsedCount     int32
	ValidFrom     *time.Time
	ValidTo       *time.Time
	Active        bool
	ServiceIDs    []string
}

// Validate ensures the rule can be applied at the provided instant for the
// given service and pre-discount total.
func (r Rule) Validate(now time.Time, serviceID string, preDiscountMinor int64) error {
	if !r.Active {
		return ErrInactive
	}
	if r.ValidFrom != nil && now.Before(*r.ValidFrom) {
		return ErrInactive
	}
	if r.ValidTo != nil && now.After(*r.ValidTo) {
		return ErrExpired
	}
	if r.UsageLimit != nil && *r.UsageLimit >= 0 && r.UsedCount >= *r.UsageLimit {
		return ErrUsageLimitReached
	}
	if preDiscountMinor < r.MinTotalMinor {
		return ErrMinimumTotalUnmet
	}
	if len(r.ServiceIDs) > 0 {
		matched := false
		for _, id := range r.ServiceIDs {
			if id == serviceID {
				matched = true
				break
			}
		}
		if !matched {
			return ErrNotEligible
		}
	}
	return nil
}

// ToCoupon converts the rule into the shape the pricing engine consumes.
func (r Rule) ToCoupon() pricing.Coupon {
	if r.Kind == pricing.CouponPercent {
		return pricing.Coupon{Kind: pricing.CouponPercent, Magnitude: r.PercentValue}
	}
	return pricing.Coupon{Kind: pricing.CouponFixed, Magnitude: r.AmountMajor}
}
