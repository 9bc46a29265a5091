package payments

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/truckbite/truckbite-backend/pkg/config"
)

// FeeSchedule computes the platform's cut of an order using exact decimal
// arithmetic. Rates arrive as percent strings from config so "6.5" never
// turns into a binary float on the way in.
type FeeSchedule struct {
	platformPct decimal.Decimal
	tipPct      decimal.Decimal
}

// NewFeeSchedule parses the configured percentages.
func NewFeeSchedule(cfg config.FeesConfig) (*FeeSchedule, error) {
	platformPct, err := decimal.NewFromString(cfg.PlatformPercent)
	if err != nil {
		return nil, fmt.Errorf("parsing platform fee percent %q: %w", cfg.PlatformPercent, err)
	}
	tipPct, err := decimal.NewFromString(cfg.TipPercent)
	if err != nil {
		return nil, fmt.Errorf("parsing tip fee percent %q: %w", cfg.TipPercent, err)
	}
	if platformPct.IsNegative() || tipPct.IsNegative() {
		return nil, fmt.Errorf("fee percentages must not be negative")
	}
	return &FeeSchedule{platformPct: platformPct, tipPct: tipPct}, nil
}

// PlatformFeeCents returns the fee charged on one payment: the platform
// percentage over the full charge (base + tip) plus the tip percentage over
// the tip alone, rounded half-up to whole cents. Tenants inside their trial
// window pay nothing.
func (f *FeeSchedule) PlatformFeeCents(baseCents, tipCents int, inTrial bool) int {
	if f == nil || inTrial {
		return 0
	}
	base := decimal.NewFromInt(int64(baseCents))
	tip := decimal.NewFromInt(int64(tipCents))
	hundred := decimal.NewFromInt(100)

	fee := f.platformPct.Mul(base.Add(tip)).Div(hundred).
		Add(f.tipPct.Mul(tip).Div(hundred))
	return int(fee.Round(0).IntPart())
}
