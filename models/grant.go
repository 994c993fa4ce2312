package models

import "github.com/google/uuid"

// UserRole assigns a role to an admin user.
type UserRole struct {
	AdminUserID uuid.UUID `gorm:"type:char(36);primaryKey"`
	RoleID      uuid.UUID `gorm:"type:char(36);primaryKey"`

	AdminUser AdminUser `gorm:"foreignKey:AdminUserID;constraint:OnDelete:CASCADE" json:"-"`
	Role      Role      `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE" json:"-"`
}

func (UserRole) TableName() string { return "admin_users_roles" }

// RolePermission grants a role the right to perform an action on an entity.
type RolePermission struct {
	RoleID   uuid.UUID `gorm:"type:char(36);primaryKey"`
	ActionID uuid.UUID `gorm:"type:char(36);primaryKey"`
	EntityID uuid.UUID `gorm:"type:char(36);primaryKey"`

	Role   Role   `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE" json:"-"`
	Action Action `gorm:"foreignKey:ActionID;constraint:OnDelete:CASCADE" json:"-"`
	Entity Entity `gorm:"foreignKey:EntityID;constraint:OnDelete:CASCADE" json:"-"`
}

func (RolePermission) TableName() string { return "admin_roles_permissions_entities" }

// UserPermission grants a single admin user a right directly, bypassing roles.
type UserPermission struct {
	AdminUserID uuid.UUID `gorm:"type:char(36);primaryKey"`
	ActionID    uuid.UUID `gorm:"type:char(36);primaryKey"`
	EntityID    uuid.UUID `gorm:"type:char(36);primaryKey"`

	AdminUser AdminUser `gorm:"foreignKey:AdminUserID;constraint:OnDelete:CASCADE" json:"-"`
	Action    Action    `gorm:"foreignKey:ActionID;constraint:OnDelete:CASCADE" json:"-"`
	Entity    Entity    `gorm:"foreignKey:EntityID;constraint:OnDelete:CASCADE" json:"-"`
}

func (UserPermission) TableName() string { return "admin_users_permissions_entities" }

// All lists every model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&AdminUser{},
		&Role{},
		&Action{},
		&Entity{},
		&UserRole{},
		&RolePermission{},
		&UserPermission{},
	}
}
