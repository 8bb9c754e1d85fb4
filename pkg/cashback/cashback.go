package cashback

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Tier grants Percentage cashback on order totals of at least MinAmount.
type Tier struct {
	MinAmount  decimal.Decimal `json:"min_amount"`
	Percentage decimal.Decimal `json:"percentage"`
}

// NextTier is the closest tier a total has not reached yet.
type NextTier struct {
	Tier
	AdditionalAmountNeeded decimal.Decimal `json:"additional_amount_needed"`
}

type Config struct {
	Enabled            bool            `json:"enabled"`
	BasePercentage     decimal.Decimal `json:"base_percentage"`
	MinimumOrderAmount decimal.Decimal `json:"minimum_order_amount"`
	TieredRates        []Tier          `json:"tiered_rates,omitempty"`
}

var ErrInvalidConfig = errors.New("invalid cashback config")

// Default returns the platform policy: 1% from 100, 1.5% from 1000, 2% from 5000, 2.5% from 10000.
func Default() Config {
	return Config{
		Enabled:            true,
		BasePercentage:     decimal.RequireFromString("1.0"),
		MinimumOrderAmount: decimal.NewFromInt(100),
		TieredRates: []Tier{
			{MinAmount: decimal.NewFromInt(100), Percentage: decimal.RequireFromString("1.0")},
			{MinAmount: decimal.NewFromInt(1000), Percentage: decimal.RequireFromString("1.5")},
			{MinAmount: decimal.NewFromInt(5000), Percentage: decimal.RequireFromString("2.0")},
			{MinAmount: decimal.NewFromInt(10000), Percentage: decimal.RequireFromString("2.5")},
		},
	}
}

// Validate rejects negative thresholds and percentages outside [0, 100].
func (c Config) Validate() error {
	if !validPercentage(c.BasePercentage) || c.MinimumOrderAmount.IsNegative() {
		return ErrInvalidConfig
	}
	for _, t := range c.TieredRates {
		if t.MinAmount.IsNegative() || !validPercentage(t.Percentage) {
			return ErrInvalidConfig
		}
	}
	return nil
}

func validPercentage(p decimal.Decimal) bool {
	return !p.IsNegative() && p.LessThanOrEqual(hundred)
}

// Calculate returns the cashback earned on orderTotal, rounded half-up to the cent.
// It is zero when the policy is disabled or the total is below the minimum.
func Calculate(orderTotal decimal.Decimal, cfg Config) decimal.Decimal {
	if !cfg.Enabled || orderTotal.LessThan(cfg.MinimumOrderAmount) {
		return decimal.Zero
	}
	pct := cfg.BasePercentage
	if t, ok := matchTier(orderTotal, cfg.TieredRates); ok {
		pct = t.Percentage
	}
	return orderTotal.Mul(pct).Div(hundred).Round(2)
}

// CurrentTier returns the tier applied to orderTotal, or nil when no cashback is earned.
// A total that qualifies but matches no configured tier gets the base rate at the minimum amount.
func CurrentTier(orderTotal decimal.Decimal, cfg Config) *Tier {
	if !cfg.Enabled || orderTotal.LessThan(cfg.MinimumOrderAmount) {
		return nil
	}
	if t, ok := matchTier(orderTotal, cfg.TieredRates); ok {
		return &t
	}
	return &Tier{MinAmount: cfg.MinimumOrderAmount, Percentage: cfg.BasePercentage}
}

// Next returns the lowest tier above orderTotal, or nil when the top tier is reached.
func Next(orderTotal decimal.Decimal, cfg Config) *NextTier {
	if !cfg.Enabled || len(cfg.TieredRates) == 0 {
		return nil
	}
	for _, t := range sortedTiers(cfg.TieredRates, false) {
		if orderTotal.LessThan(t.MinAmount) {
			return &NextTier{Tier: t, AdditionalAmountNeeded: t.MinAmount.Sub(orderTotal)}
		}
	}
	return nil
}

// matchTier picks the highest threshold not above total.
func matchTier(total decimal.Decimal, tiers []Tier) (Tier, bool) {
	for _, t := range sortedTiers(tiers, true) {
		if total.GreaterThanOrEqual(t.MinAmount) {
			return t, true
		}
	}
	return Tier{}, false
}

func sortedTiers(tiers []Tier, desc bool) []Tier {
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return out[i].MinAmount.GreaterThan(out[j].MinAmount)
		}
		return out[i].MinAmount.LessThan(out[j].MinAmount)
	})
	return out
}
