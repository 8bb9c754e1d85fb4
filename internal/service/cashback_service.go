package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"circuitrack/internal/domain"
	"circuitrack/internal/repository"
	"circuitrack/pkg/cashback"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CashbackService resolves the active cashback policy. The policy lives in
// system_settings and falls back to the configured default.
type CashbackService struct {
	settings *repository.SettingRepository
	fallback cashback.Config
}

func NewCashbackService(settings *repository.SettingRepository, fallback cashback.Config) *CashbackService {
	return &CashbackService{settings: settings, fallback: fallback}
}

type TierInfo struct {
	OrderTotal decimal.Decimal    `json:"order_total"`
	Cashback   decimal.Decimal    `json:"cashback"`
	Current    *cashback.Tier     `json:"current_tier"`
	Next       *cashback.NextTier `json:"next_tier"`
}

// Active returns the stored policy, or the fallback when none is stored or
// the stored value cannot be used.
func (s *CashbackService) Active(ctx context.Context) cashback.Config {
	var cfg cashback.Config
	err := s.settings.GetJSON(ctx, domain.SettingCashbackConfig, &cfg)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[cashback] load stored policy: %v", err)
		}
		return s.fallback
	}
	if err := cfg.Validate(); err != nil {
		log.Printf("[cashback] stored policy rejected: %v", err)
		return s.fallback
	}
	return cfg
}

func (s *CashbackService) Update(ctx context.Context, cfg cashback.Config, adminID uint) (cashback.Config, error) {
	if err := cfg.Validate(); err != nil {
		return cashback.Config{}, err
	}
	if err := s.settings.SetJSON(ctx, domain.SettingCashbackConfig, cfg, &adminID); err != nil {
		return cashback.Config{}, fmt.Errorf("save cashback policy: %w", err)
	}
	return cfg, nil
}

func (s *CashbackService) Tiers(ctx context.Context, total decimal.Decimal) (*TierInfo, error) {
	if total.IsNegative() {
		return nil, ErrInvalidAmount
	}
	cfg := s.Active(ctx)
	return &TierInfo{
		OrderTotal: total,
		Cashback:   cashback.Calculate(total, cfg),
		Current:    cashback.CurrentTier(total, cfg),
		Next:       cashback.Next(total, cfg),
	}, nil
}
