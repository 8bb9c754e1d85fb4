package models

import (
	"time"

	"circuitrack/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WalletTransaction is an immutable ledger entry. Amount is signed: it equals the
// delta applied to BalanceType on the owning wallet.
type WalletTransaction struct {
	ID            string                 `gorm:"primaryKey;size:36" json:"id"`
	WalletID      string                 `gorm:"size:36;not null;index" json:"wallet_id"`
	Type          domain.TransactionType `gorm:"size:20;not null;index" json:"type"`
	Amount        decimal.Decimal        `gorm:"type:decimal(20,2);not null" json:"amount"`
	BalanceType   domain.BalanceType     `gorm:"size:20;not null" json:"balance_type"`
	ReferenceID   string                 `gorm:"size:64;index" json:"reference_id,omitempty"`
	ReferenceType domain.ReferenceType   `gorm:"size:20" json:"reference_type,omitempty"`
	CreatedAt     time.Time              `gorm:"index" json:"created_at"`

	Wallet Wallet `gorm:"foreignKey:WalletID" json:"-"`
}

func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}

func (t *WalletTransaction) BeforeCreate(_ *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
