package repositories

import (
	"context"

	"ecom-admin/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DirectoryRepository reads the reference tables and grant junctions used by authorization.
// Every method is one filtered single-table query. Name lookups return gorm.ErrRecordNotFound
// when nothing matches.
type DirectoryRepository interface {
	FindActionByName(ctx context.Context, name string) (*models.Action, error)
	FindEntityByName(ctx context.Context, name string) (*models.Entity, error)
	FindRoleByName(ctx context.Context, name string) (*models.Role, error)
	FindUserRoles(ctx context.Context, userID uuid.UUID) ([]models.UserRole, error)
	CountRolePermissions(ctx context.Context, roleIDs []uuid.UUID, actionID, entityID uuid.UUID) (int64, error)
	CountUserPermissions(ctx context.Context, userID, actionID, entityID uuid.UUID) (int64, error)
}

type directoryRepository struct {
	db *gorm.DB
}

func NewDirectoryRepository(db *gorm.DB) DirectoryRepository {
	return &directoryRepository{db: db}
}

func (r *directoryRepository) FindActionByName(ctx context.Context, name string) (*models.Action, error) {
	var action models.Action
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&action).Error; err != nil {
		return nil, err
	}
	return &action, nil
}

func (r *directoryRepository) FindEntityByName(ctx context.Context, name string) (*models.Entity, error) {
	var entity models.Entity
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&entity).Error; err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r *directoryRepository) FindRoleByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *directoryRepository) FindUserRoles(ctx context.Context, userID uuid.UUID) ([]models.UserRole, error) {
	var roles []models.UserRole
	if err := r.db.WithContext(ctx).Where("admin_user_id = ?", userID).Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *directoryRepository) CountRolePermissions(ctx context.Context, roleIDs []uuid.UUID, actionID, entityID uuid.UUID) (int64, error) {
	if len(roleIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RolePermission{}).
		Where("role_id IN ? AND action_id = ? AND entity_id = ?", roleIDs, actionID, entityID).
		Count(&count).Error
	return count, err
}

func (r *directoryRepository) CountUserPermissions(ctx context.Context, userID, actionID, entityID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserPermission{}).
		Where("admin_user_id = ? AND action_id = ? AND entity_id = ?", userID, actionID, entityID).
		Count(&count).Error
	return count, err
}
