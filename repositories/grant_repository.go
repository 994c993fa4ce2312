package repositories

import (
	"context"

	"ecom-admin/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GrantRepository inserts and deletes junction rows. Rows have no lifecycle beyond that;
// foreign keys reject rows that reference unknown users, roles, actions or entities.
type GrantRepository interface {
	AssignRole(ctx context.Context, grant models.UserRole) error
	RevokeRole(ctx context.Context, grant models.UserRole) error
	GrantRolePermission(ctx context.Context, grant models.RolePermission) error
	RevokeRolePermission(ctx context.Context, grant models.RolePermission) error
	GrantUserPermission(ctx context.Context, grant models.UserPermission) error
	RevokeUserPermission(ctx context.Context, grant models.UserPermission) error
}

type grantRepository struct {
	db *gorm.DB
}

func NewGrantRepository(db *gorm.DB) GrantRepository {
	return &grantRepository{db: db}
}

// insert is idempotent: an existing identical row is left untouched.
func (r *grantRepository) insert(ctx context.Context, row interface{}) error {
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row).Error
}

func (r *grantRepository) AssignRole(ctx context.Context, grant models.UserRole) error {
	return r.insert(ctx, &grant)
}

func (r *grantRepository) RevokeRole(ctx context.Context, grant models.UserRole) error {
	return r.db.WithContext(ctx).
		Where("admin_user_id = ? AND role_id = ?", grant.AdminUserID, grant.RoleID).
		Delete(&models.UserRole{}).Error
}

func (r *grantRepository) GrantRolePermission(ctx context.Context, grant models.RolePermission) error {
	return r.insert(ctx, &grant)
}

func (r *grantRepository) RevokeRolePermission(ctx context.Context, grant models.RolePermission) error {
	return r.db.WithContext(ctx).
		Where("role_id = ? AND action_id = ? AND entity_id = ?", grant.RoleID, grant.ActionID, grant.EntityID).
		Delete(&models.RolePermission{}).Error
}

func (r *grantRepository) GrantUserPermission(ctx context.Context, grant models.UserPermission) error {
	return r.insert(ctx, &grant)
}

func (r *grantRepository) RevokeUserPermission(ctx context.Context, grant models.UserPermission) error {
	return r.db.WithContext(ctx).
		Where("admin_user_id = ? AND action_id = ? AND entity_id = ?", grant.AdminUserID, grant.ActionID, grant.EntityID).
		Delete(&models.UserPermission{}).Error
}
