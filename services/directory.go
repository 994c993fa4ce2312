package services

import (
	"context"
	"errors"

	"ecom-admin/auth"
	"ecom-admin/models"
	"ecom-admin/repositories"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Directory resolves human-readable names to identifiers and fetches admin users and their
// role assignments. Not found and data access failures come back as distinct auth.Error kinds.
type Directory struct {
	repo  repositories.DirectoryRepository
	users repositories.AdminUserRepository
}

func NewDirectory(repo repositories.DirectoryRepository, users repositories.AdminUserRepository) *Directory {
	return &Directory{repo: repo, users: users}
}

func (d *Directory) FindActionIDByName(ctx context.Context, name string) (uuid.UUID, error) {
	action, err := d.repo.FindActionByName(ctx, name)
	if err != nil {
		return uuid.Nil, lookupError(err, auth.ResourceAction)
	}
	return action.ID, nil
}

func (d *Directory) FindEntityIDByName(ctx context.Context, name string) (uuid.UUID, error) {
	entity, err := d.repo.FindEntityByName(ctx, name)
	if err != nil {
		return uuid.Nil, lookupError(err, auth.ResourceEntity)
	}
	return entity.ID, nil
}

// FindUserRoles returns the role assignments of userID; an empty slice is not an error.
func (d *Directory) FindUserRoles(ctx context.Context, userID uuid.UUID) ([]models.UserRole, error) {
	roles, err := d.repo.FindUserRoles(ctx, userID)
	if err != nil {
		return nil, auth.DataAccess(err)
	}
	return roles, nil
}

func (d *Directory) FindUserByID(ctx context.Context, userID uuid.UUID) (*models.AdminUser, error) {
	user, err := d.users.FindByID(ctx, userID)
	if err != nil {
		return nil, lookupError(err, auth.ResourceUser)
	}
	return user, nil
}

func (d *Directory) FindUserByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	user, err := d.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, lookupError(err, auth.ResourceUser)
	}
	return user, nil
}

// HasRoleGrant reports whether any of roleIDs holds (actionID, entityID).
func (d *Directory) HasRoleGrant(ctx context.Context, roleIDs []uuid.UUID, actionID, entityID uuid.UUID) (bool, error) {
	count, err := d.repo.CountRolePermissions(ctx, roleIDs, actionID, entityID)
	if err != nil {
		return false, auth.DataAccess(err)
	}
	return count > 0, nil
}

// HasUserGrant reports whether userID holds (actionID, entityID) directly.
func (d *Directory) HasUserGrant(ctx context.Context, userID, actionID, entityID uuid.UUID) (bool, error) {
	count, err := d.repo.CountUserPermissions(ctx, userID, actionID, entityID)
	if err != nil {
		return false, auth.DataAccess(err)
	}
	return count > 0, nil
}

func lookupError(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return auth.NotFound(resource)
	}
	return auth.DataAccess(err)
}
