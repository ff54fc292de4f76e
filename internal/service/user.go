package service

import (
	"context"
	"errors"

	"github.com/titanaprilian/authguard/internal/apperr"
	"github.com/titanaprilian/authguard/internal/models"
	"github.com/titanaprilian/authguard/internal/repo"
	"github.com/titanaprilian/authguard/internal/util"
	pkg_hash "github.com/titanaprilian/authguard/pkg/hash"
)

// UserService is the admin-facing user CRUD. Session semantics stay in
// AuthService; this only has to keep role references valid and kill
// sessions when an account is deactivated.
type UserService struct {
	Repo *repo.GormRepo
}

func (s *UserService) List(ctx context.Context, page, size int) ([]models.User, int64, error) {
	offset, limit := util.Calculate(page, size)
	return s.Repo.ListUsers(ctx, offset, limit)
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	return s.Repo.FindUserByID(ctx, id)
}

func (s *UserService) Create(ctx context.Context, email, password string, roleID uint, isActive bool) (*models.User, error) {
	if _, err := s.Repo.FindRoleByID(ctx, roleID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrInvalidReference
		}
		return nil, err
	}

	pwHash, err := pkg_hash.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:        NormalizeEmail(email),
		PasswordHash: pwHash,
		IsActive:     isActive,
		RoleID:       roleID,
	}
	if err := s.Repo.CreateUser(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) Update(ctx context.Context, id uint, email *string, roleID *uint, isActive *bool) (*models.User, error) {
	user, err := s.Repo.FindUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if email != nil {
		user.Email = NormalizeEmail(*email)
	}
	if roleID != nil {
		if _, err := s.Repo.FindRoleByID(ctx, *roleID); err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return nil, apperr.ErrInvalidReference
			}
			return nil, err
		}
		user.RoleID = *roleID
	}

	deactivated := isActive != nil && user.IsActive && !*isActive
	if isActive != nil {
		user.IsActive = *isActive
	}

	if err := s.Repo.SaveUser(ctx, user); err != nil {
		return nil, err
	}

	// Deactivation also advances the epoch so in-flight access tokens die
	// immediately instead of at the next refresh.
	if deactivated {
		if err := s.Repo.BumpTokenVersion(ctx, id); err != nil {
			return nil, err
		}
		user.TokenVersion++
	}
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id uint) error {
	return s.Repo.DeleteUser(ctx, id)
}
