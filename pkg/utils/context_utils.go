// Файл: pkg/utils/context_utils.go

package utils

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"leave-system/pkg/contextkeys"
	apperrors "leave-system/pkg/errors"
)

// Actor - аутентифицированный пользователь, выполняющий запрос.
type Actor struct {
	ID    uint64
	Email string
	Role  string
}

func GetUserIDFromCtx(ctx context.Context) (uint64, error) {
	userID, ok := ctx.Value(contextkeys.UserIDKey).(uint64)
	if !ok || userID == 0 {
		return 0, apperrors.ErrUserIDNotFoundInContext
	}
	return userID, nil
}

func GetActorFromCtx(ctx context.Context) (Actor, error) {
	userID, err := GetUserIDFromCtx(ctx)
	if err != nil {
		return Actor{}, err
	}
	email, ok := ctx.Value(contextkeys.UserEmailKey).(string)
	if !ok || email == "" {
		return Actor{}, apperrors.ErrActorNotFoundInContext
	}
	role, _ := ctx.Value(contextkeys.UserRoleKey).(string)
	return Actor{ID: userID, Email: email, Role: role}, nil
}

func WithActor(ctx context.Context, actor Actor) context.Context {
	ctx = context.WithValue(ctx, contextkeys.UserIDKey, actor.ID)
	ctx = context.WithValue(ctx, contextkeys.UserEmailKey, actor.Email)
	return context.WithValue(ctx, contextkeys.UserRoleKey, actor.Role)
}

// Ctx возвращает контекст запроса с таймаутом.
func Ctx(c echo.Context, seconds int) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), time.Duration(seconds)*time.Second)
}
