package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is a named bundle of grants, e.g. "Admins" or "Finance".
type Role struct {
	ID          uuid.UUID `gorm:"type:char(36);primaryKey"`
	Name        string    `gorm:"uniqueIndex;size:191;not null"`
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (r *Role) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (Role) TableName() string { return "admin_roles" }

// Action is a capability verb such as "can_read".
type Action struct {
	ID          uuid.UUID `gorm:"type:char(36);primaryKey"`
	Name        string    `gorm:"uniqueIndex;size:191;not null"`
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (a *Action) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (Action) TableName() string { return "admin_actions" }

// Entity names checked by the API surfaces and created by the seed.
const (
	EntityDashboard       = "/admin/dashboard"
	EntityDashboardUsers  = "/admin/dashboard/users"
	EntityUserResource    = "Ressource::User"
	EntityInvoiceResource = "Ressource::Invoice"
)

// Entity is a protected resource: a page path ("/admin/dashboard") or a resource tag ("Ressource::Invoice").
type Entity struct {
	ID          uuid.UUID `gorm:"type:char(36);primaryKey"`
	Name        string    `gorm:"uniqueIndex;size:191;not null"`
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (e *Entity) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

func (Entity) TableName() string { return "admin_entities" }
