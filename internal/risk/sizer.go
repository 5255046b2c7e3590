package risk

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"sigbridge/internal/pkg/trading"
)

// ErrInvalidRisk is returned when the stop distance is zero. Division by a
// zero risk-per-unit is undefined, not "infinite size".
var ErrInvalidRisk = errors.New("stop distance is zero, unable to size risk")

// Sizer turns an entry/stop pair into a lot size under the policy table.
type Sizer struct {
	registry *Registry
	budget   decimal.Decimal
}

// NewSizer builds a sizer with a fixed per-trade risk budget in account
// currency.
func NewSizer(registry *Registry, riskBudget float64) (*Sizer, error) {
	if registry == nil {
		return nil, fmt.Errorf("sizer requires a policy registry")
	}
	if riskBudget <= 0 {
		return nil, fmt.Errorf("risk budget must be > 0, got %v", riskBudget)
	}
	return &Sizer{registry: registry, budget: decimal.NewFromFloat(riskBudget)}, nil
}

// Size computes the lot size for a trade. contractSize comes from the
// venue's symbol metadata. The risk-proportional formula is
//
//	lots = (budget / |entry - stop|) / contractSize
//
// Classes in flat mode replace the computed value with their fixed lot; the
// result is rounded to venue lot precision either way.
func (s *Sizer) Size(entry, stop float64, sym string, contractSize float64) (float64, error) {
	lots, _, err := s.SizeDetail(entry, stop, sym, contractSize)
	return lots, err
}

// SizeDetail is Size plus the class that decided the rule, for logging and
// notifications.
func (s *Sizer) SizeDetail(entry, stop float64, sym string, contractSize float64) (float64, Class, error) {
	class, policy := s.registry.Snapshot().PolicyFor(sym)

	distance := decimal.NewFromFloat(entry).Sub(decimal.NewFromFloat(stop)).Abs()
	if distance.IsZero() {
		return 0, class, fmt.Errorf("sizing %s: %w", sym, ErrInvalidRisk)
	}
	if contractSize <= 0 {
		return 0, class, fmt.Errorf("sizing %s: contract size %v is not usable", sym, contractSize)
	}

	lots := policy.Lot
	if policy.Mode != ModeFlat {
		raw := s.budget.Div(distance).Div(decimal.NewFromFloat(contractSize))
		lots, _ = raw.Float64()
	}
	return trading.RoundLots(lots), class, nil
}
