package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Order struct {
	ID        string          `gorm:"primaryKey;size:36" json:"id"`
	UserID    uint            `gorm:"not null;index" json:"user_id"`
	CompanyID *string         `gorm:"size:64;index" json:"company_id,omitempty"`
	Status    string          `gorm:"size:20;not null;index" json:"status"` // pending | confirmed | shipped | delivered | cancelled
	Subtotal  decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"subtotal"`
	Currency  string          `gorm:"size:3;not null" json:"currency"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

func (o *Order) BeforeCreate(_ *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

type OrderItem struct {
	ID        string          `gorm:"primaryKey;size:36" json:"id"`
	OrderID   string          `gorm:"size:36;not null;index" json:"order_id"`
	ProductID string          `gorm:"size:64;not null;index" json:"product_id"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"unit_price"`
	CreatedAt time.Time       `json:"created_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

func (i *OrderItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
