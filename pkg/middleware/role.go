package middleware

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "leave-system/pkg/errors"
	"leave-system/pkg/utils"
)

// PathChecker решает, допускается ли роль к маршруту.
type PathChecker interface {
	AllowPath(role, method, path string) bool
}

// RequireRoleForPath пропускает запрос, только если роль актора подходит к префиксам пути
// (/admin/, /management/). Ставится после Auth.
func RequireRoleForPath(checker PathChecker, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, err := utils.GetActorFromCtx(c.Request().Context())
			if err != nil {
				return utils.ErrorResponse(c, err, logger)
			}

			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}

			if !checker.AllowPath(actor.Role, c.Request().Method, path) {
				logger.Warn("Доступ к маршруту запрещён",
					zap.Uint64("userID", actor.ID),
					zap.String("role", actor.Role),
					zap.String("path", path),
				)
				return utils.ErrorResponse(c, apperrors.ErrForbidden, logger)
			}
			return next(c)
		}
	}
}
