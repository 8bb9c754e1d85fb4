package models

import (
	"time"

	"circuitrack/internal/domain"

	"gorm.io/gorm"
)

type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Email        string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	FullName     string         `gorm:"size:128" json:"full_name"`
	PasswordHash string         `gorm:"size:255" json:"-"`
	Role         string         `gorm:"size:20;not null;index" json:"role"` // BUYER | VENDOR | ADMIN
	CompanyID    *string        `gorm:"size:64" json:"company_id,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	Wallet *Wallet `gorm:"foreignKey:UserID" json:"wallet,omitempty"`
}

func (u *User) IsAdmin() bool  { return u.Role == domain.RoleAdmin }
func (u *User) IsVendor() bool { return u.Role == domain.RoleVendor }
