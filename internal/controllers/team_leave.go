package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"leave-system/internal/dto"
	"leave-system/internal/services"
	"leave-system/pkg/utils"
)

type TeamLeaveController struct {
	teamLeaveService services.TeamLeaveServiceInterface
	logger           *zap.Logger
}

func NewTeamLeaveController(teamLeaveService services.TeamLeaveServiceInterface, logger *zap.Logger) *TeamLeaveController {
	return &TeamLeaveController{teamLeaveService: teamLeaveService, logger: logger}
}

func (c *TeamLeaveController) Create(ctx echo.Context) error {
	var payload dto.CreateTeamLeaveDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.teamLeaveService.Create(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Отпуск команды создан", http.StatusCreated)
}

func (c *TeamLeaveController) Treat(ctx echo.Context) error {
	payload, err := bindTreatByPath(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.teamLeaveService.Treat(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Решение по отпуску команды сохранено", http.StatusOK)
}

func (c *TeamLeaveController) Update(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.UpdateTeamLeaveDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.teamLeaveService.Update(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Отпуск команды обновлён", http.StatusOK)
}

func (c *TeamLeaveController) Delete(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.teamLeaveService.Delete(ctx.Request().Context(), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Отпуск команды удалён", http.StatusAccepted)
}

func (c *TeamLeaveController) GetByID(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.teamLeaveService.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Отпуск команды найден", http.StatusOK)
}

func (c *TeamLeaveController) GetAll(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	res, total, err := c.teamLeaveService.GetAll(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Список отпусков команд получен", http.StatusOK, total)
}

func (c *TeamLeaveController) GetByTeamID(ctx echo.Context) error {
	teamID, err := parseID(ctx, "teamId")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.teamLeaveService.GetByTeamID(ctx.Request().Context(), teamID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Отпуска команды получены", http.StatusOK)
}
