package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"leave-system/internal/dto"
	"leave-system/internal/repositories"
	"leave-system/pkg/config"
	"leave-system/pkg/constants"
	apperrors "leave-system/pkg/errors"
	"leave-system/pkg/service"
	"leave-system/pkg/utils"
)

type AuthServiceInterface interface {
	Login(ctx context.Context, payload dto.LoginDTO) (*dto.AuthResponseDTO, error)
	Refresh(ctx context.Context, payload dto.RefreshTokenDTO) (*dto.AuthResponseDTO, error)
}

type AuthService struct {
	userRepo   repositories.UserRepositoryInterface
	cacheRepo  repositories.CacheRepositoryInterface
	jwtService service.JWTService
	logger     *zap.Logger
	cfg        config.AuthConfig
}

func NewAuthService(
	userRepo repositories.UserRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	jwtService service.JWTService,
	logger *zap.Logger,
	cfg config.AuthConfig,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		cacheRepo:  cacheRepo,
		jwtService: jwtService,
		logger:     logger,
		cfg:        cfg,
	}
}

func (s *AuthService) Login(ctx context.Context, payload dto.LoginDTO) (*dto.AuthResponseDTO, error) {
	email := strings.ToLower(strings.TrimSpace(payload.Email))
	logger := s.logger.With(zap.String("email", email))

	if s.isLocked(ctx, email) {
		logger.Warn("Вход заблокирован после неудачных попыток")
		return nil, apperrors.ErrTooManyAttempts
	}

	user, err := s.userRepo.FindByEmail(ctx, nil, email)
	if err != nil {
		if isNotFound(err) {
			s.handleFailedLoginAttempt(ctx, email)
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := utils.ComparePasswords(user.Password, payload.Password); err != nil {
		s.handleFailedLoginAttempt(ctx, email)
		logger.Warn("Неверный пароль")
		return nil, apperrors.ErrInvalidCredentials
	}
	s.resetLoginAttempts(ctx, email)

	access, refresh, err := s.jwtService.GenerateTokens(service.TokenSubject{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
	})
	if err != nil {
		logger.Error("Ошибка генерации токенов", zap.Error(err))
		return nil, err
	}

	logger.Info("Пользователь вошёл в систему", zap.Uint64("userID", user.ID))
	return &dto.AuthResponseDTO{AccessToken: access, RefreshToken: refresh, User: *ToUserDTO(user)}, nil
}

// Refresh выдаёт новую пару токенов по действующему refresh-токену.
// Роль берётся из базы, чтобы смена роли вступала в силу без повторного входа.
func (s *AuthService) Refresh(ctx context.Context, payload dto.RefreshTokenDTO) (*dto.AuthResponseDTO, error) {
	claims, err := s.jwtService.ValidateToken(payload.RefreshToken)
	if err != nil {
		return nil, err
	}
	if !claims.IsRefreshToken {
		return nil, apperrors.ErrTokenIsNotRefresh
	}

	user, err := s.userRepo.FindByEmail(ctx, nil, claims.Email)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, err
	}

	access, refresh, err := s.jwtService.GenerateTokens(service.TokenSubject{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
	})
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponseDTO{AccessToken: access, RefreshToken: refresh, User: *ToUserDTO(user)}, nil
}

func (s *AuthService) isLocked(ctx context.Context, email string) bool {
	_, err := s.cacheRepo.Get(ctx, fmt.Sprintf(constants.CacheKeyLockout, email))
	if err == nil {
		return true
	}
	if !errors.Is(err, repositories.ErrCacheMiss) {
		s.logger.Warn("Не удалось проверить блокировку входа", zap.Error(err))
	}
	return false
}

func (s *AuthService) handleFailedLoginAttempt(ctx context.Context, email string) {
	attemptsKey := fmt.Sprintf(constants.CacheKeyLoginAttempts, email)
	attempts, err := s.cacheRepo.Incr(ctx, attemptsKey)
	if err != nil {
		s.logger.Warn("Не удалось учесть неудачную попытку входа", zap.Error(err))
		return
	}
	if attempts == 1 {
		s.cacheRepo.Expire(ctx, attemptsKey, s.cfg.LockoutDuration)
	}
	if attempts >= int64(s.cfg.MaxLoginAttempts) {
		s.cacheRepo.Set(ctx, fmt.Sprintf(constants.CacheKeyLockout, email), "locked", s.cfg.LockoutDuration)
		s.cacheRepo.Del(ctx, attemptsKey)
	}
}

func (s *AuthService) resetLoginAttempts(ctx context.Context, email string) {
	s.cacheRepo.Del(ctx,
		fmt.Sprintf(constants.CacheKeyLoginAttempts, email),
		fmt.Sprintf(constants.CacheKeyLockout, email),
	)
}
