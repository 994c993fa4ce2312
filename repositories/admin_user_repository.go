package repositories

import (
	"context"

	"ecom-admin/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AdminUserFilter narrows FindAll. Zero fields are ignored.
type AdminUserFilter struct {
	ID        uuid.UUID
	Email     string
	Username  string
	FirstName string
	LastName  string
}

// AdminUserRepository defines AdminUser database operations
type AdminUserRepository interface {
	Create(ctx context.Context, user *models.AdminUser) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.AdminUser, error)
	FindByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	Update(ctx context.Context, user *models.AdminUser) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	FindAll(ctx context.Context, filter AdminUserFilter) ([]models.AdminUser, error)
}

type adminUserRepository struct {
	db *gorm.DB
}

func NewAdminUserRepository(db *gorm.DB) AdminUserRepository {
	return &adminUserRepository{db: db}
}

func (r *adminUserRepository) Create(ctx context.Context, user *models.AdminUser) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *adminUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.AdminUser, error) {
	var user models.AdminUser
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *adminUserRepository) FindByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	var user models.AdminUser
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *adminUserRepository) Update(ctx context.Context, user *models.AdminUser) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *adminUserRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.AdminUser{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *adminUserRepository) FindAll(ctx context.Context, filter AdminUserFilter) ([]models.AdminUser, error) {
	query := r.db.WithContext(ctx).Model(&models.AdminUser{})
	if filter.ID != uuid.Nil {
		query = query.Where("id = ?", filter.ID)
	}
	if filter.Email != "" {
		query = query.Where("email = ?", filter.Email)
	}
	if filter.Username != "" {
		query = query.Where("username = ?", filter.Username)
	}
	if filter.FirstName != "" {
		query = query.Where("first_name = ?", filter.FirstName)
	}
	if filter.LastName != "" {
		query = query.Where("last_name = ?", filter.LastName)
	}

	var users []models.AdminUser
	if err := query.Order("username").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
