package cashback

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCalculateDefaultPolicy(t *testing.T) {
	cases := []struct {
		total string
		want  string
	}{
		{"50", "0"},
		{"99.99", "0"},
		{"100", "1.00"},
		{"999.99", "10.00"},
		{"1000", "15.00"},
		{"4999.99", "75.00"},
		{"5000", "100.00"},
		{"10000", "250.00"},
		{"123.45", "1.23"},
		{"150.50", "1.51"},
	}
	for _, tc := range cases {
		t.Run(tc.total, func(t *testing.T) {
			got := Calculate(d(tc.total), Default())
			assert.True(t, d(tc.want).Equal(got), "total %s: want %s got %s", tc.total, tc.want, got)
		})
	}
}

func TestCalculateDisabled(t *testing.T) {
	cfg := Default()
	cfg.Enabled = false
	assert.True(t, Calculate(d("5000"), cfg).IsZero())
}

func TestCalculateBaseRateWhenNoTierMatches(t *testing.T) {
	cfg := Config{
		Enabled:            true,
		BasePercentage:     d("3"),
		MinimumOrderAmount: d("10"),
		TieredRates:        []Tier{{MinAmount: d("500"), Percentage: d("5")}},
	}
	assert.True(t, d("3.00").Equal(Calculate(d("100"), cfg)))
	assert.True(t, d("25.00").Equal(Calculate(d("500"), cfg)))
}

func TestCalculateUnsortedTiers(t *testing.T) {
	cfg := Default()
	cfg.TieredRates = []Tier{cfg.TieredRates[3], cfg.TieredRates[0], cfg.TieredRates[2], cfg.TieredRates[1]}
	assert.True(t, d("15.00").Equal(Calculate(d("1000"), cfg)))
	assert.True(t, d("1.00").Equal(Calculate(d("100"), cfg)))
}

func TestCurrentTier(t *testing.T) {
	assert.Nil(t, CurrentTier(d("99"), Default()))

	tier := CurrentTier(d("2500"), Default())
	require.NotNil(t, tier)
	assert.True(t, d("1000").Equal(tier.MinAmount))
	assert.True(t, d("1.5").Equal(tier.Percentage))

	cfg := Default()
	cfg.TieredRates = nil
	tier = CurrentTier(d("150"), cfg)
	require.NotNil(t, tier)
	assert.True(t, d("100").Equal(tier.MinAmount))
	assert.True(t, d("1.0").Equal(tier.Percentage))
}

func TestNextTier(t *testing.T) {
	next := Next(d("600"), Default())
	require.NotNil(t, next)
	assert.True(t, d("1000").Equal(next.MinAmount))
	assert.True(t, d("400").Equal(next.AdditionalAmountNeeded))

	next = Next(d("50"), Default())
	require.NotNil(t, next)
	assert.True(t, d("100").Equal(next.MinAmount))

	assert.Nil(t, Next(d("10000"), Default()))

	cfg := Default()
	cfg.Enabled = false
	assert.Nil(t, Next(d("10"), cfg))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Default().Validate())

	cfg := Default()
	cfg.BasePercentage = d("101")
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = Default()
	cfg.TieredRates = append(cfg.TieredRates, Tier{MinAmount: d("-1"), Percentage: d("1")})
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}
