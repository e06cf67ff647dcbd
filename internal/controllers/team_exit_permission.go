package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"leave-system/internal/dto"
	"leave-system/internal/services"
	"leave-system/pkg/utils"
)

type TeamExitPermissionController struct {
	permissionService services.TeamExitPermissionServiceInterface
	logger            *zap.Logger
}

func NewTeamExitPermissionController(
	permissionService services.TeamExitPermissionServiceInterface,
	logger *zap.Logger,
) *TeamExitPermissionController {
	return &TeamExitPermissionController{permissionService: permissionService, logger: logger}
}

func (c *TeamExitPermissionController) Create(ctx echo.Context) error {
	var payload dto.CreateTeamExitPermissionDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.permissionService.Create(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Разрешение на выход команды создано", http.StatusCreated)
}

func (c *TeamExitPermissionController) Treat(ctx echo.Context) error {
	payload, err := bindTreatByPath(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.permissionService.Treat(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Решение по разрешению команды сохранено", http.StatusOK)
}

func (c *TeamExitPermissionController) Update(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.UpdateTeamExitPermissionDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.permissionService.Update(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Разрешение команды обновлено", http.StatusOK)
}

func (c *TeamExitPermissionController) Delete(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.permissionService.Delete(ctx.Request().Context(), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Разрешение команды удалено", http.StatusAccepted)
}

func (c *TeamExitPermissionController) GetByID(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.permissionService.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Разрешение команды найдено", http.StatusOK)
}

func (c *TeamExitPermissionController) GetAll(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	res, total, err := c.permissionService.GetAll(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Список разрешений команд получен", http.StatusOK, total)
}

func (c *TeamExitPermissionController) GetByTeamName(ctx echo.Context) error {
	res, err := c.permissionService.GetByTeamName(ctx.Request().Context(), ctx.Param("teamName"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Разрешения команды получены", http.StatusOK)
}

func (c *TeamExitPermissionController) GetByManagerEmail(ctx echo.Context) error {
	res, err := c.permissionService.GetByManagerEmail(ctx.Request().Context(), ctx.Param("email"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Разрешения команд руководителя получены", http.StatusOK)
}

// GetForCurrentUser - разрешения команды, в которой состоит сам пользователь.
func (c *TeamExitPermissionController) GetForCurrentUser(ctx echo.Context) error {
	res, err := c.permissionService.GetForCurrentUser(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Разрешения вашей команды получены", http.StatusOK)
}
