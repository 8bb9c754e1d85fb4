package models

import (
	"time"
)

// Notification is an in-app message produced after wallet and settlement events.
type Notification struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	Type      string     `gorm:"size:50;not null;index" json:"type"`
	Title     string     `gorm:"size:255" json:"title"`
	Message   string     `gorm:"type:text" json:"message"`
	Data      string     `gorm:"type:text" json:"data,omitempty"` // JSON payload
	ReadAt    *time.Time `gorm:"index" json:"read_at"`
	CreatedAt time.Time  `json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) IsRead() bool { return n.ReadAt != nil }
