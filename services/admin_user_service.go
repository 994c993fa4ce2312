package services

import (
	"context"
	"errors"
	"strings"

	"ecom-admin/auth"
	"ecom-admin/models"
	"ecom-admin/repositories"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AdminUserService interface {
	ListAdminUsers(ctx context.Context, filter repositories.AdminUserFilter) ([]models.AdminUser, error)
	GetAdminUser(ctx context.Context, id uuid.UUID) (*models.AdminUser, error)
	CreateAdminUser(ctx context.Context, input *CreateAdminUserInput) (*models.AdminUser, error)
	UpdateAdminUser(ctx context.Context, id uuid.UUID, input *UpdateAdminUserInput) (*models.AdminUser, error)
	DeleteAdminUser(ctx context.Context, id uuid.UUID) error
}

type CreateAdminUserInput struct {
	Username  string `json:"username" validate:"required"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"min=8"`
}

type UpdateAdminUserInput struct {
	Username  *string `json:"username,omitempty" validate:"omitnil,min=1"`
	FirstName *string `json:"first_name,omitempty" validate:"omitnil,min=1"`
	LastName  *string `json:"last_name,omitempty" validate:"omitnil,min=1"`
	Email     *string `json:"email,omitempty" validate:"omitnil,email"`
	Password  *string `json:"password,omitempty" validate:"omitnil,min=8"`
}

func (in CreateAdminUserInput) normalized() *CreateAdminUserInput {
	in.Username = strings.TrimSpace(in.Username)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = normalizeEmail(in.Email)
	return &in
}

func (in UpdateAdminUserInput) normalized() *UpdateAdminUserInput {
	in.Username = trimmed(in.Username)
	in.FirstName = trimmed(in.FirstName)
	in.LastName = trimmed(in.LastName)
	in.Email = normalizedEmail(in.Email)
	return &in
}

type adminUserService struct {
	repo repositories.AdminUserRepository
}

var _ AdminUserService = (*adminUserService)(nil)

func NewAdminUserService(repo repositories.AdminUserRepository) AdminUserService {
	return &adminUserService{repo: repo}
}

func (s *adminUserService) ListAdminUsers(ctx context.Context, filter repositories.AdminUserFilter) ([]models.AdminUser, error) {
	users, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, auth.DataAccess(err)
	}
	return users, nil
}

func (s *adminUserService) GetAdminUser(ctx context.Context, id uuid.UUID) (*models.AdminUser, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, auth.ResourceUser)
	}
	return user, nil
}

func (s *adminUserService) CreateAdminUser(ctx context.Context, input *CreateAdminUserInput) (*models.AdminUser, error) {
	input = input.normalized()
	if err := validateInput(ctx, input); err != nil {
		return nil, err
	}

	_, err := s.repo.FindByEmail(ctx, input.Email)
	if err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, auth.DataAccess(err)
	}

	hashedPassword, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := models.AdminUser{
		Username:  input.Username,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Password:  hashedPassword,
	}
	if err := s.repo.Create(ctx, &user); err != nil {
		return nil, writeError(err)
	}
	return &user, nil
}

func (s *adminUserService) UpdateAdminUser(ctx context.Context, id uuid.UUID, input *UpdateAdminUserInput) (*models.AdminUser, error) {
	input = input.normalized()
	if err := validateInput(ctx, input); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, auth.ResourceUser)
	}

	// --- Update Fields ---
	if input.Username != nil {
		user.Username = *input.Username
	}
	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}

	if input.Email != nil && *input.Email != user.Email {
		existing, err := s.repo.FindByEmail(ctx, *input.Email)
		if err == nil && existing.ID != user.ID {
			return nil, ErrEmailTaken
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.DataAccess(err)
		}
		user.Email = *input.Email
	}

	if input.Password != nil {
		hashedPassword, err := auth.HashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hashedPassword
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, writeError(err)
	}
	return user, nil
}

func (s *adminUserService) DeleteAdminUser(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return auth.DataAccess(err)
	}
	if !deleted {
		return auth.NotFound(auth.ResourceUser)
	}
	return nil
}
