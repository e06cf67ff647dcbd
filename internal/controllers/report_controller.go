package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"leave-system/internal/dto"
	"leave-system/internal/services"
	apperrors "leave-system/pkg/errors"
	"leave-system/pkg/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportController struct {
	reportService services.ReportServiceInterface
	logger        *zap.Logger
}

func NewReportController(reportService services.ReportServiceInterface, logger *zap.Logger) *ReportController {
	return &ReportController{reportService: reportService, logger: logger}
}

// GetLeaveReport отдаёт отчёт по отпускам в JSON либо файлом xlsx (?format=xlsx).
func (c *ReportController) GetLeaveReport(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	var filter dto.LeaveReportFilterDTO
	if err := (&echo.DefaultBinder{}).BindQueryParams(ctx, &filter); err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewHttpError(http.StatusBadRequest, "Неверные параметры отчёта", err, nil), c.logger)
	}
	filter.Format = strings.ToLower(filter.Format)
	if err := ctx.Validate(&filter); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	c.logger.Debug("Запрос отчёта по отпускам", zap.Any("filter", filter))

	if filter.Format == "xlsx" {
		content, err := c.reportService.ExportLeaveReport(reqCtx, filter)
		if err != nil {
			return utils.ErrorResponse(ctx, err, c.logger)
		}
		fileName := fmt.Sprintf("leave_report_%s.xlsx", time.Now().Format("2006-01-02"))
		ctx.Response().Header().Set("Content-Disposition", "attachment; filename="+fileName)
		return ctx.Blob(http.StatusOK, xlsxContentType, content)
	}

	page := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	items, total, err := c.reportService.GetLeaveReport(reqCtx, filter, page.Page, page.Limit)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, items, "Отчёт успешно сформирован", http.StatusOK, total)
}
