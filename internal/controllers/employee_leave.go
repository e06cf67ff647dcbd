package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"leave-system/internal/dto"
	"leave-system/internal/services"
	"leave-system/pkg/utils"
)

type EmployeeLeaveController struct {
	leaveService services.EmployeeLeaveServiceInterface
	logger       *zap.Logger
}

func NewEmployeeLeaveController(leaveService services.EmployeeLeaveServiceInterface, logger *zap.Logger) *EmployeeLeaveController {
	return &EmployeeLeaveController{leaveService: leaveService, logger: logger}
}

func (c *EmployeeLeaveController) Create(ctx echo.Context) error {
	var payload dto.CreateEmployeeLeaveDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.leaveService.Create(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Заявка на отсутствие создана", http.StatusCreated)
}

func (c *EmployeeLeaveController) Treat(ctx echo.Context) error {
	var payload dto.TreatRequestDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.leaveService.Treat(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Решение по заявке сохранено", http.StatusOK)
}

func (c *EmployeeLeaveController) Update(ctx echo.Context) error {
	return c.update(ctx, false)
}

func (c *EmployeeLeaveController) UpdateAsManagement(ctx echo.Context) error {
	return c.update(ctx, true)
}

func (c *EmployeeLeaveController) update(ctx echo.Context, managerial bool) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.UpdateEmployeeLeaveDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var res *dto.EmployeeLeaveDTO
	if managerial {
		res, err = c.leaveService.UpdateAsManagement(ctx.Request().Context(), id, payload)
	} else {
		res, err = c.leaveService.Update(ctx.Request().Context(), id, payload)
	}
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Заявка обновлена", http.StatusOK)
}

func (c *EmployeeLeaveController) Delete(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.leaveService.Delete(ctx.Request().Context(), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Заявка удалена", http.StatusAccepted)
}

func (c *EmployeeLeaveController) GetByID(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.leaveService.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Заявка найдена", http.StatusOK)
}

func (c *EmployeeLeaveController) GetAll(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	res, total, err := c.leaveService.GetAll(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Список заявок получен", http.StatusOK, total)
}

func (c *EmployeeLeaveController) GetByUserID(ctx echo.Context) error {
	userID, err := parseID(ctx, "userId")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.leaveService.GetByUserID(ctx.Request().Context(), userID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Заявки сотрудника получены", http.StatusOK)
}

func (c *EmployeeLeaveController) GetByManagerEmail(ctx echo.Context) error {
	res, err := c.leaveService.GetByManagerEmail(ctx.Request().Context(), ctx.Param("managerEmail"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Заявки команд руководителя получены", http.StatusOK)
}
