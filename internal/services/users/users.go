// Package services реализует управление учётными записями: создание пользователей менеджером
// и список пользователей в пределах видимости автора запроса.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/qa-activity-tracker/internal/lib/password"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/models"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/services/access"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/storage/repository"
)

// UserRepository описывает хранилище пользователей.
type UserRepository interface {
	CreateUser(ctx context.Context, u *models.User) error
	ListUsers(ctx context.Context, scope models.Scope) ([]models.User, error)
}

// UserService управляет пользователями.
type UserService struct {
	repo UserRepository
	log  *slog.Logger
}

// NewUserService создает новый экземпляр UserService.
func NewUserService(log *slog.Logger, repo UserRepository) *UserService {
	return &UserService{
		repo: repo,
		log:  log,
	}
}

// Create создает пользователя. Доступно только QA_MANAGER.
func (s *UserService) Create(ctx context.Context, requester models.Requester, req models.DummyUser) (models.UserInfo, error) {
	const op = "services.UserService.Create"

	if requester.Role != models.RoleManager {
		return models.UserInfo{}, &models.DomainError{
			Code:    models.CodeForbidden,
			Message: "Access denied. Insufficient permissions.",
		}
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		return models.UserInfo{}, err
	}
	hash, err := password.GetHash(req.Password)
	if errors.Is(err, password.ErrTooLong) {
		return models.UserInfo{}, models.NewValidationError("Password must be at most 72 characters long")
	}
	if err != nil {
		return models.UserInfo{}, fmt.Errorf("%s: %w", op, err)
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return models.UserInfo{}, &models.DomainError{
				Code:    models.CodeConflict,
				Message: "User with this email already exists",
				Err:     err,
			}
		}
		return models.UserInfo{}, fmt.Errorf("%s: %w", op, models.Wrap(models.ErrStorage, err))
	}

	s.log.Info("user created", "op", op, "user_id", user.ID, "role", user.Role, "created_by", requester.ID)
	return user.Info(), nil
}

// List возвращает пользователей, видимых автору запроса, отсортированных по имени.
func (s *UserService) List(ctx context.Context, requester models.Requester) ([]models.UserInfo, error) {
	const op = "services.UserService.List"

	scope, err := access.UserScope(requester.Role, requester.ID)
	if err != nil {
		return nil, err
	}
	users, err := s.repo.ListUsers(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, models.Wrap(models.ErrStorage, err))
	}

	result := make([]models.UserInfo, 0, len(users))
	for _, u := range users {
		result = append(result, u.Info())
	}
	return result, nil
}
