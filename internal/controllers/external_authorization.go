package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"leave-system/internal/dto"
	"leave-system/internal/services"
	"leave-system/pkg/utils"
)

type ExternalAuthorizationController struct {
	authorizationService services.ExternalAuthorizationServiceInterface
	logger               *zap.Logger
}

func NewExternalAuthorizationController(
	authorizationService services.ExternalAuthorizationServiceInterface,
	logger *zap.Logger,
) *ExternalAuthorizationController {
	return &ExternalAuthorizationController{authorizationService: authorizationService, logger: logger}
}

func (c *ExternalAuthorizationController) Create(ctx echo.Context) error {
	var payload dto.CreateExternalAuthorizationDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.authorizationService.Create(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Разрешение на выход создано", http.StatusCreated)
}

func (c *ExternalAuthorizationController) Treat(ctx echo.Context) error {
	payload, err := bindTreatByPath(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.authorizationService.Treat(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Решение по разрешению сохранено", http.StatusOK)
}

func (c *ExternalAuthorizationController) Update(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.UpdateExternalAuthorizationDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.authorizationService.Update(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Разрешение обновлено", http.StatusOK)
}

func (c *ExternalAuthorizationController) Delete(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.authorizationService.Delete(ctx.Request().Context(), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Разрешение удалено", http.StatusAccepted)
}

func (c *ExternalAuthorizationController) GetByID(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.authorizationService.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Разрешение найдено", http.StatusOK)
}

func (c *ExternalAuthorizationController) GetAll(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	res, total, err := c.authorizationService.GetAll(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Список разрешений получен", http.StatusOK, total)
}

func (c *ExternalAuthorizationController) GetByManagerEmail(ctx echo.Context) error {
	res, err := c.authorizationService.GetByManagerEmail(ctx.Request().Context(), ctx.Param("email"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Разрешения команд руководителя получены", http.StatusOK)
}

func (c *ExternalAuthorizationController) GetByUserEmail(ctx echo.Context) error {
	res, err := c.authorizationService.GetByUserEmail(ctx.Request().Context(), ctx.Param("email"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Разрешения сотрудника получены", http.StatusOK)
}
