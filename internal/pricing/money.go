package pricing

import "math"

// Money is an amount expressed in minor currency units (cents, öre).
type Money = int64

// minorPerMajor is the scale between major and minor units.
const minorPerMajor = 100

// ToMinor converts a non-negative major-unit amount to minor units,
// rounding half up. Callers convert each quote line exactly once; already
// converted amounts must never pass through here again.
func ToMinor(major float64) Money {
	if major <= 0 {
		if major < 0 {
			return -roundHalfUp(-major * minorPerMajor)
		}
		return 0
	}
	return roundHalfUp(major * minorPerMajor)
}

// roundHalfUp rounds a non-negative value to the nearest integer, ties away
// from zero.
func roundHalfUp(v float64) Money {
	return Money(math.Floor(v + 0.5))
}

// PercentOf applies a percentage to a minor-unit amount with a single
// half-up rounding step.
func PercentOf(amount Money, percent float64) Money {
	if amount == 0 || percent == 0 {
		return 0
	}
	v := float64(amount) * percent / 100
	if v < 0 {
		return -roundHalfUp(-v)
	}
	return roundHalfUp(v)
}

// ClampPercent limits a percentage magnitude to the [0, 100] range.
func ClampPercent(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
