// Package trading provides the numeric primitives shared by the sizer and
// the position monitor. All comparisons at decision points go through
// decimals so float drift can never flip a TP/SL check.
package trading

import (
	"math"

	"github.com/shopspring/decimal"

	"sigbridge/internal/signal"
)

// LotPrecision is the venue-wide volume precision, in decimal places.
const LotPrecision = 2

func dec(val float64) decimal.Decimal {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(val)
}

// RoundPrice rounds a price to the symbol's digit precision. Every price
// handed to the venue must pass through this; an un-rounded price is a
// protocol violation on the venue side.
func RoundPrice(price float64, digits int) float64 {
	if digits < 0 {
		digits = 0
	}
	f, _ := dec(price).Round(int32(digits)).Float64()
	return f
}

// RoundLots rounds a volume to the venue lot precision.
func RoundLots(lots float64) float64 {
	f, _ := dec(lots).Round(LotPrecision).Float64()
	return f
}

// HalfVolume returns half of a position volume at lot precision.
func HalfVolume(volume float64) float64 {
	half := dec(volume).Div(decimal.NewFromInt(2))
	f, _ := half.Round(LotPrecision).Float64()
	return f
}

// Point returns the minimal price increment for a symbol with the given
// digit precision (e.g. 5 digits -> 0.00001).
func Point(digits int) float64 {
	if digits <= 0 {
		return 1
	}
	return math.Pow10(-digits)
}

// TargetReached reports whether price has reached-or-passed target from the
// profitable side, minus a tolerance band. The band sits on the "not yet
// reached" side: the check fires at-or-slightly-before the literal level,
// never after overshooting it unnoticed.
func TargetReached(action signal.Action, price, target, tolerance float64) bool {
	if price <= 0 || target <= 0 {
		return false
	}
	p := dec(price)
	if action == signal.ActionSell {
		return p.Cmp(dec(target).Add(dec(tolerance))) <= 0
	}
	return p.Cmp(dec(target).Sub(dec(tolerance))) >= 0
}
