package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/libreria-dev/libreria-backend/pkg/config"
	"github.com/libreria-dev/libreria-backend/pkg/db/models"
	pkgerrors "github.com/libreria-dev/libreria-backend/pkg/errors"
	"github.com/libreria-dev/libreria-backend/pkg/security"
)

// UpdateProfileDTO applies a partial profile update. Nil fields keep
// the current value.
type UpdateProfileDTO struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Phone     *string `json:"phone,omitempty"`
}

// ChangePasswordDTO carries the credential rotation payload.
type ChangePasswordDTO struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// Service exposes profile reads and updates for the logged-in user.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, dto UpdateProfileDTO) (*UserDTO, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, dto ChangePasswordDTO) error
}

type service struct {
	users       *Repository
	passwordCfg config.PasswordConfig
}

// NewService constructs a profile service with the provided repository.
func NewService(repo *Repository, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	return &service{users: repo, passwordCfg: passwordCfg}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, dto UpdateProfileDTO) (*UserDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if dto.FirstName != nil {
		if strings.TrimSpace(*dto.FirstName) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "first_name cannot be empty")
		}
		user.FirstName = strings.TrimSpace(*dto.FirstName)
	}
	if dto.LastName != nil {
		if strings.TrimSpace(*dto.LastName) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "last_name cannot be empty")
		}
		user.LastName = strings.TrimSpace(*dto.LastName)
	}
	if dto.Phone != nil {
		user.Phone = dto.Phone
	}
	if _, err := s.users.Update(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update profile")
	}
	return FromModel(user), nil
}

func (s *service) ChangePassword(ctx context.Context, userID uuid.UUID, dto ChangePasswordDTO) error {
	if len(dto.NewPassword) < 8 {
		return pkgerrors.New(pkgerrors.CodeValidation, "new password must be at least 8 characters")
	}
	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	valid, err := security.VerifyPassword(dto.CurrentPassword, user.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "current password is incorrect")
	}
	hash, err := security.HashPassword(dto.NewPassword, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	user.PasswordHash = hash
	if _, err := s.users.Update(ctx, user); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save password")
	}
	return nil
}

func (s *service) load(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return user, nil
}
