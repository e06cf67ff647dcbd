package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"leave-system/internal/dto"
	"leave-system/internal/services"
	"leave-system/pkg/utils"
)

type OrganizationalUnitController struct {
	unitService services.OrganizationalUnitServiceInterface
	logger      *zap.Logger
}

func NewOrganizationalUnitController(unitService services.OrganizationalUnitServiceInterface, logger *zap.Logger) *OrganizationalUnitController {
	return &OrganizationalUnitController{unitService: unitService, logger: logger}
}

func (c *OrganizationalUnitController) Create(ctx echo.Context) error {
	var payload dto.CreateOrganizationalUnitDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.unitService.Create(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Подразделение создано", http.StatusCreated)
}

func (c *OrganizationalUnitController) Update(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.UpdateOrganizationalUnitDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.unitService.Update(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Подразделение обновлено", http.StatusOK)
}

func (c *OrganizationalUnitController) DeleteByID(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.unitService.DeleteByID(ctx.Request().Context(), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Подразделение удалено", http.StatusAccepted)
}

func (c *OrganizationalUnitController) DeleteByName(ctx echo.Context) error {
	if err := c.unitService.DeleteByName(ctx.Request().Context(), ctx.Param("name")); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Подразделение удалено", http.StatusAccepted)
}

func (c *OrganizationalUnitController) GetByID(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.unitService.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Подразделение найдено", http.StatusOK)
}

func (c *OrganizationalUnitController) GetAll(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	res, total, err := c.unitService.GetAll(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Список подразделений получен", http.StatusOK, total)
}

func (c *OrganizationalUnitController) GetTeams(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.unitService.GetTeams(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Команды подразделения получены", http.StatusOK)
}

func (c *OrganizationalUnitController) AffectTeam(ctx echo.Context) error {
	var payload dto.UnitTeamDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.unitService.AffectTeam(ctx.Request().Context(), payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Команда добавлена в подразделение", http.StatusOK)
}

func (c *OrganizationalUnitController) RemoveTeam(ctx echo.Context) error {
	var payload dto.UnitTeamDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.unitService.RemoveTeam(ctx.Request().Context(), payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Команда исключена из подразделения", http.StatusOK)
}

func (c *OrganizationalUnitController) AffectManager(ctx echo.Context) error {
	var payload dto.UnitManagerDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.unitService.AffectManager(ctx.Request().Context(), payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Руководитель подразделения назначен", http.StatusOK)
}

func (c *OrganizationalUnitController) AffectMember(ctx echo.Context) error {
	var payload dto.UnitMemberDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.unitService.AffectMember(ctx.Request().Context(), payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Сотрудник добавлен в подразделение", http.StatusOK)
}

func (c *OrganizationalUnitController) RemoveMember(ctx echo.Context) error {
	var payload dto.UnitMemberDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.unitService.RemoveMember(ctx.Request().Context(), payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Сотрудник исключён из подразделения", http.StatusOK)
}
