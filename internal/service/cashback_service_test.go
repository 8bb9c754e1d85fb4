package service

import (
	"context"
	"testing"

	"circuitrack/internal/domain"
	"circuitrack/internal/models"
	"circuitrack/pkg/cashback"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCashbackServiceFallsBackToDefault(t *testing.T) {
	f := newFixture(t)
	cfg := f.cashback.Active(context.Background())
	assert.True(t, cfg.Enabled)
	assert.Len(t, cfg.TieredRates, 4)
}

func TestCashbackServiceUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	flat := cashback.Config{Enabled: true, BasePercentage: dec("3"), MinimumOrderAmount: dec("10")}
	_, err := f.cashback.Update(ctx, flat, 7)
	require.NoError(t, err)
	active := f.cashback.Active(ctx)
	assert.True(t, active.BasePercentage.Equal(dec("3")))
	assert.Empty(t, active.TieredRates)

	bad := cashback.Config{Enabled: true, BasePercentage: dec("150")}
	_, err = f.cashback.Update(ctx, bad, 7)
	assert.ErrorIs(t, err, cashback.ErrInvalidConfig)
	assert.True(t, f.cashback.Active(ctx).BasePercentage.Equal(dec("3")))
}

func TestCashbackServiceIgnoresCorruptSetting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.db.Create(&models.SystemSetting{Key: domain.SettingCashbackConfig, Value: "{not json"}).Error)

	cfg := f.cashback.Active(ctx)
	assert.Len(t, cfg.TieredRates, 4)
}

func TestCashbackTiers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	info, err := f.cashback.Tiers(ctx, dec("1200"))
	require.NoError(t, err)
	requireDecimal(t, "18", info.Cashback)
	require.NotNil(t, info.Current)
	requireDecimal(t, "1.5", info.Current.Percentage)
	require.NotNil(t, info.Next)
	requireDecimal(t, "3800", info.Next.AdditionalAmountNeeded)

	_, err = f.cashback.Tiers(ctx, dec("-1"))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}
