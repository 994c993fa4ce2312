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

var (
	ErrEmailTaken   = errors.New("email already exists")
	ErrInvalidInput = errors.New("invalid input")
)

// The UserService interface defines storefront user operations
type UserService interface {
	CreateUser(ctx context.Context, input *CreateUserInput) (*models.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, input *UpdateUserInput) (*models.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
	ListUsers(ctx context.Context, page int, pageSize int) ([]models.User, int64, error)
}

// --- Structs for Input/Output ---
type CreateUserInput struct {
	Username string `json:"username" validate:"required" description:"Display name"`
	Email    string `json:"email" validate:"required,email" description:"Unique email address"`
	Password string `json:"password" validate:"min=8" description:"Plain text password, at least 8 characters"`
}

type UpdateUserInput struct {
	// Use pointer to distinguish between empty and not provided
	Username *string `json:"username,omitempty" validate:"omitnil,min=1"`
	Email    *string `json:"email,omitempty" validate:"omitnil,email"`
	Password *string `json:"password,omitempty" validate:"omitnil,min=8"`
}

// normalized returns a copy with whitespace trimmed and the email lowercased.
func (in CreateUserInput) normalized() *CreateUserInput {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)
	return &in
}

func (in UpdateUserInput) normalized() *UpdateUserInput {
	in.Username = trimmed(in.Username)
	in.Email = normalizedEmail(in.Email)
	return &in
}

type userService struct {
	repo repositories.UserRepository
}

var _ UserService = (*userService)(nil)

// NewUserService creates a new UserService instance
func NewUserService(repo repositories.UserRepository) UserService {
	return &userService{repo: repo}
}

// CreateUser handles public signup.
func (s *userService) CreateUser(ctx context.Context, input *CreateUserInput) (*models.User, error) {
	input = input.normalized()
	if err := validateInput(ctx, input); err != nil {
		return nil, err
	}

	// Check if email already exists
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

	user := models.User{
		Username: input.Username,
		Email:    input.Email,
		Password: hashedPassword,
	}
	if err := s.repo.Create(ctx, &user); err != nil {
		return nil, writeError(err)
	}
	return &user, nil
}

func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, auth.ResourceUser)
	}
	return user, nil
}

// UpdateUser applies the provided fields only.
func (s *userService) UpdateUser(ctx context.Context, id uuid.UUID, input *UpdateUserInput) (*models.User, error) {
	input = input.normalized()
	if err := validateInput(ctx, input); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, auth.ResourceUser)
	}

	if input.Username != nil {
		user.Username = *input.Username
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

func (s *userService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return auth.DataAccess(err)
	}
	if !deleted {
		return auth.NotFound(auth.ResourceUser)
	}
	return nil
}

func (s *userService) ListUsers(ctx context.Context, page int, pageSize int) ([]models.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	users, total, err := s.repo.FindAll(ctx, page, pageSize)
	if err != nil {
		return nil, 0, auth.DataAccess(err)
	}
	return users, total, nil
}
