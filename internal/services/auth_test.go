package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"leave-system/internal/dto"
	"leave-system/internal/entities"
	"leave-system/pkg/config"
	"leave-system/pkg/constants"
	apperrors "leave-system/pkg/errors"
	"leave-system/pkg/service"
	"leave-system/pkg/utils"
)

func newAuthFixture(t *testing.T) (*AuthService, *fakeCache) {
	t.Helper()
	hash, err := utils.HashPassword("secret-pass")
	require.NoError(t, err)

	users := newFakeUserRepo(&entities.User{ID: 7, FirstName: "Фарход", LastName: "Юсупов", Email: "farhod@corp.tj", Password: hash, Role: constants.RoleUser})
	cache := newFakeCache()
	jwtService := service.NewJWTService("test-secret", time.Hour, 24*time.Hour)
	s := NewAuthService(users, cache, jwtService, zap.NewNop(), config.AuthConfig{MaxLoginAttempts: 3, LockoutDuration: time.Minute})
	return s, cache
}

func TestAuthLogin(t *testing.T) {
	t.Run("valid credentials issue tokens", func(t *testing.T) {
		s, _ := newAuthFixture(t)

		result, err := s.Login(context.Background(), dto.LoginDTO{Email: "Farhod@corp.tj", Password: "secret-pass"})
		require.NoError(t, err)
		assert.NotEmpty(t, result.AccessToken)
		assert.NotEmpty(t, result.RefreshToken)
		assert.Equal(t, "farhod@corp.tj", result.User.Email)
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		s, _ := newAuthFixture(t)

		_, err := s.Login(context.Background(), dto.LoginDTO{Email: "farhod@corp.tj", Password: "wrong-pass"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("unknown email looks like wrong password", func(t *testing.T) {
		s, _ := newAuthFixture(t)

		_, err := s.Login(context.Background(), dto.LoginDTO{Email: "nobody@corp.tj", Password: "secret-pass"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("too many failures lock the account", func(t *testing.T) {
		s, _ := newAuthFixture(t)
		ctx := context.Background()

		for i := 0; i < 3; i++ {
			_, err := s.Login(ctx, dto.LoginDTO{Email: "farhod@corp.tj", Password: "wrong-pass"})
			require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
		}
		_, err := s.Login(ctx, dto.LoginDTO{Email: "farhod@corp.tj", Password: "secret-pass"})
		assert.ErrorIs(t, err, apperrors.ErrTooManyAttempts)
	})

	t.Run("successful login clears failures", func(t *testing.T) {
		s, cache := newAuthFixture(t)
		ctx := context.Background()

		_, _ = s.Login(ctx, dto.LoginDTO{Email: "farhod@corp.tj", Password: "wrong-pass"})
		_, err := s.Login(ctx, dto.LoginDTO{Email: "farhod@corp.tj", Password: "secret-pass"})
		require.NoError(t, err)
		assert.Empty(t, cache.counts)
	})
}

func TestAuthRefresh(t *testing.T) {
	s, _ := newAuthFixture(t)
	ctx := context.Background()
	tokens, err := s.Login(ctx, dto.LoginDTO{Email: "farhod@corp.tj", Password: "secret-pass"})
	require.NoError(t, err)

	t.Run("refresh token yields a new pair", func(t *testing.T) {
		result, err := s.Refresh(ctx, dto.RefreshTokenDTO{RefreshToken: tokens.RefreshToken})
		require.NoError(t, err)
		assert.NotEmpty(t, result.AccessToken)
	})

	t.Run("access token is not accepted", func(t *testing.T) {
		_, err := s.Refresh(ctx, dto.RefreshTokenDTO{RefreshToken: tokens.AccessToken})
		assert.ErrorIs(t, err, apperrors.ErrTokenIsNotRefresh)
	})
}
