package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AdminUser is an operator of the back office. Authorization checks resolve to this record.
type AdminUser struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey"`
	Username  string    `gorm:"not null"`
	FirstName string    `gorm:"not null"`
	LastName  string    `gorm:"not null"`
	Email     string    `gorm:"uniqueIndex;size:255;not null"`
	Password  string    `gorm:"not null" json:"-"` // Don't expose password hash
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (AdminUser) TableName() string { return "admin_users" }

func (u *AdminUser) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
