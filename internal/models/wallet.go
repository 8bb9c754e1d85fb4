package models

import (
	"time"

	"circuitrack/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Wallet is the cached projection of a user's ledger. Balances are never negative.
type Wallet struct {
	ID              string          `gorm:"primaryKey;size:36" json:"id"`
	UserID          uint            `gorm:"uniqueIndex;not null" json:"user_id"`
	MainBalance     decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"main_balance"`
	CashbackBalance decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"cashback_balance"`
	PenaltyBalance  decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"penalty_balance"`
	Version         int64           `gorm:"not null;default:0" json:"-"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Wallet) TableName() string {
	return "wallets"
}

func (w *Wallet) BeforeCreate(_ *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}

// Balance returns the value of the named balance.
func (w *Wallet) Balance(bt domain.BalanceType) decimal.Decimal {
	switch bt {
	case domain.BalanceMain:
		return w.MainBalance
	case domain.BalanceCashback:
		return w.CashbackBalance
	case domain.BalancePenalty:
		return w.PenaltyBalance
	}
	return decimal.Zero
}

// SetBalance overwrites the named balance in memory.
func (w *Wallet) SetBalance(bt domain.BalanceType, v decimal.Decimal) {
	switch bt {
	case domain.BalanceMain:
		w.MainBalance = v
	case domain.BalanceCashback:
		w.CashbackBalance = v
	case domain.BalancePenalty:
		w.PenaltyBalance = v
	}
}
