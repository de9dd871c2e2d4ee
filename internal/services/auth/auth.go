// Package services содержит логику бизнес-уровня для входа, проверки токенов и смены пароля.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/qa-activity-tracker/internal/lib/jwt"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/lib/password"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/models"
	"github.com/magabrotheeeer/qa-activity-tracker/internal/storage/repository"
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// GetUserByEmail возвращает пользователя по e-mail.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUser возвращает пользователя по ID.
	GetUser(ctx context.Context, id string) (*models.User, error)
	// UpdatePassword заменяет хэш пароля пользователя.
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// AuthService отвечает за вход, валидацию JWT и смену пароля.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
	cache    Cache
	cacheTTL time.Duration
	log      *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService. cache может быть nil,
// тогда каждый запрос читает пользователя из базы.
func NewAuthService(log *slog.Logger, users UserRepository, jwtMaker jwt.Maker, cache Cache, cacheTTL time.Duration) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
		cache:    cache,
		cacheTTL: cacheTTL,
		log:      log,
	}
}

// Login проверяет пароль пользователя и выдает JWT.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (*models.LoginResult, error) {
	const op = "services.AuthService.Login"

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		s.log.Info("login for unknown email", "op", op)
		return nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, models.Wrap(models.ErrStorage, err))
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		if !errors.Is(err, password.ErrMismatch) {
			s.log.Error("stored password hash is unusable", "op", op, "user_id", user.ID, sl.Err(err))
		}
		s.log.Info("invalid password", "op", op, "user_id", user.ID)
		return nil, models.ErrInvalidCredentials
	}

	token, err := s.jwtMaker.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.LoginResult{Token: token, User: user.Info()}, nil
}

// Authenticate проверяет токен и возвращает автора запроса.
// Роль и имя берутся из базы, поэтому токен удалённого пользователя отклоняется.
func (s *AuthService) Authenticate(ctx context.Context, token string) (models.Requester, error) {
	const op = "services.AuthService.Authenticate"

	claims, err := s.jwtMaker.ParseToken(token)
	if errors.Is(err, jwt.ErrExpired) {
		return models.Requester{}, models.NewAuthError("Token has expired")
	}
	if err != nil {
		return models.Requester{}, models.NewAuthError("Invalid token")
	}

	info, err := s.lookup(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.Requester{}, models.NewAuthError("User no longer exists")
	}
	if err != nil {
		return models.Requester{}, fmt.Errorf("%s: %w", op, models.Wrap(models.ErrStorage, err))
	}
	return models.Requester{
		ID:    info.ID,
		Email: info.Email,
		Name:  info.Name,
		Role:  info.Role,
	}, nil
}

// Me возвращает публичные данные пользователя id.
func (s *AuthService) Me(ctx context.Context, id string) (models.UserInfo, error) {
	const op = "services.AuthService.Me"

	user, err := s.users.GetUser(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return models.UserInfo{}, models.NewNotFoundError("User")
	}
	if err != nil {
		return models.UserInfo{}, fmt.Errorf("%s: %w", op, models.Wrap(models.ErrStorage, err))
	}
	return user.Info(), nil
}

// ChangePassword меняет пароль автора запроса после проверки текущего.
func (s *AuthService) ChangePassword(ctx context.Context, requester models.Requester, req models.ChangePassword) error {
	const op = "services.AuthService.ChangePassword"

	if len(req.NewPassword) < password.MinLength {
		return models.NewValidationError("New password must be at least 8 characters long")
	}
	if req.NewPassword == req.CurrentPassword {
		return models.NewValidationError("New password must be different from current password")
	}

	user, err := s.users.GetUser(ctx, requester.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.NewNotFoundError("User")
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, models.Wrap(models.ErrStorage, err))
	}
	if err := password.CompareHash(user.PasswordHash, req.CurrentPassword); err != nil {
		if !errors.Is(err, password.ErrMismatch) {
			return fmt.Errorf("%s: %w", op, err)
		}
		return models.NewAuthError("Current password is incorrect")
	}

	hash, err := password.GetHash(req.NewPassword)
	if errors.Is(err, password.ErrTooLong) {
		return models.NewValidationError("New password must be at most 72 characters long")
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("%s: %w", op, models.Wrap(models.ErrStorage, err))
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, userKey(user.ID)); err != nil {
			s.log.Warn("failed to invalidate user cache", "op", op, sl.Err(err))
		}
	}
	s.log.Info("password changed", "op", op, "user_id", user.ID)
	return nil
}

func (s *AuthService) lookup(ctx context.Context, id string) (models.UserInfo, error) {
	const op = "services.AuthService.lookup"

	var info models.UserInfo
	if s.cache != nil {
		found, err := s.cache.Get(ctx, userKey(id), &info)
		if err != nil {
			s.log.Warn("failed to read user from cache", "op", op, sl.Err(err))
		}
		if found {
			return info, nil
		}
	}

	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return models.UserInfo{}, err
	}
	info = user.Info()

	if s.cache != nil {
		if err := s.cache.Set(ctx, userKey(id), info, s.cacheTTL); err != nil {
			s.log.Warn("failed to cache user", "op", op, sl.Err(err))
		}
	}
	return info, nil
}

func userKey(id string) string {
	return "user:" + id
}
