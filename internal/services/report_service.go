package services

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"leave-system/internal/dto"
	"leave-system/internal/entities"
	"leave-system/internal/repositories"
	"leave-system/pkg/constants"
	apperrors "leave-system/pkg/errors"
	"leave-system/pkg/utils"
)

const reportDateLayout = "2006-01-02"

// exportLimit - верхняя граница строк в выгрузке xlsx.
const exportLimit = 100000

type ReportServiceInterface interface {
	GetLeaveReport(ctx context.Context, filter dto.LeaveReportFilterDTO, page, perPage int) ([]dto.LeaveReportItemDTO, uint64, error)
	ExportLeaveReport(ctx context.Context, filter dto.LeaveReportFilterDTO) ([]byte, error)
}

type ReportService struct {
	reportRepo repositories.ReportRepositoryInterface
	logger     *zap.Logger
}

func NewReportService(reportRepo repositories.ReportRepositoryInterface, logger *zap.Logger) *ReportService {
	return &ReportService{reportRepo: reportRepo, logger: logger}
}

func (s *ReportService) GetLeaveReport(ctx context.Context, filter dto.LeaveReportFilterDTO, page, perPage int) ([]dto.LeaveReportItemDTO, uint64, error) {
	query, err := toReportFilter(filter)
	if err != nil {
		return nil, 0, err
	}
	query.Page = page
	query.PerPage = perPage

	rows, total, err := s.reportRepo.GetLeaveReport(ctx, query)
	if err != nil {
		s.logger.Error("Ошибка получения отчёта по отпускам", zap.Error(err))
		return nil, 0, err
	}

	items := make([]dto.LeaveReportItemDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, toReportItemDTO(row))
	}
	return items, total, nil
}

var reportHeaders = []string{
	"№", "Сотрудник", "Email", "Команда", "Тип отпуска", "Особый отпуск",
	"Половина дня", "Начало", "Окончание", "Дней", "Статус", "Причина", "Создана",
}

// ExportLeaveReport собирает отчёт в книгу xlsx.
func (s *ReportService) ExportLeaveReport(ctx context.Context, filter dto.LeaveReportFilterDTO) ([]byte, error) {
	query, err := toReportFilter(filter)
	if err != nil {
		return nil, err
	}
	query.Page = 1
	query.PerPage = exportLimit

	rows, _, err := s.reportRepo.GetLeaveReport(ctx, query)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Отчёт по отпускам"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(sheet, "A1", &reportHeaders); err != nil {
		return nil, err
	}
	style, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellStyle(sheet, "A1", "M1", style)

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := reportRowToSlice(i+1, row)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, err
		}
	}
	f.SetColWidth(sheet, "B", "D", 25)
	f.SetColWidth(sheet, "E", "F", 20)
	f.SetColWidth(sheet, "L", "L", 40)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		s.logger.Error("Ошибка формирования xlsx", zap.Error(err))
		return nil, err
	}
	s.logger.Info("Отчёт по отпускам выгружен", zap.Int("rows", len(rows)))
	return buf.Bytes(), nil
}

func toReportFilter(filter dto.LeaveReportFilterDTO) (repositories.LeaveReportFilter, error) {
	var query repositories.LeaveReportFilter
	if filter.From != "" {
		from, err := time.Parse(reportDateLayout, filter.From)
		if err != nil {
			return query, apperrors.NewInvalidInputError("неверный формат даты from: %s", filter.From)
		}
		query.DateFrom = &from
	}
	if filter.To != "" {
		to, err := time.Parse(reportDateLayout, filter.To)
		if err != nil {
			return query, apperrors.NewInvalidInputError("неверный формат даты to: %s", filter.To)
		}
		// Граница включительная: берём начало следующего дня.
		to = to.AddDate(0, 0, 1)
		query.DateTo = &to
	}
	if filter.Status != "" {
		status := constants.Status(strings.ToUpper(filter.Status))
		if !status.IsValid() {
			return query, apperrors.ErrInvalidStatus
		}
		query.Status = status
	}
	if filter.LeaveType != "" {
		query.LeaveType = constants.LeaveType(filter.LeaveType)
	}
	return query, nil
}

func toReportItemDTO(row entities.LeaveReportRow) dto.LeaveReportItemDTO {
	return dto.LeaveReportItemDTO{
		LeaveID:              row.LeaveID,
		UserEmail:            row.UserEmail,
		UserFullName:         row.UserFullName,
		TeamName:             utils.DerefString(row.TeamName),
		LeaveType:            string(row.LeaveType),
		ExceptionalLeaveType: string(row.ExceptionalLeaveType),
		TimeOfDay:            string(row.TimeOfDay),
		StartDate:            row.StartDate.Format(timeLayout),
		EndDate:              row.EndDate.Format(timeLayout),
		Status:               string(row.Status),
		Reason:               utils.DerefString(row.Reason),
		CreatedAt:            row.CreatedAt.Format(timeLayout),
	}
}

func reportRowToSlice(n int, row entities.LeaveReportRow) []interface{} {
	dateFmt := "02.01.2006"
	leave := entities.EmployeeLeave{LeaveType: row.LeaveType, StartDate: row.StartDate, EndDate: row.EndDate}
	return []interface{}{
		n, row.UserFullName, row.UserEmail, utils.DerefString(row.TeamName),
		string(row.LeaveType), string(row.ExceptionalLeaveType), string(row.TimeOfDay),
		row.StartDate.Format(dateFmt), row.EndDate.Format(dateFmt), utils.FormatDays(leave.DeductedDays()),
		string(row.Status), utils.DerefString(row.Reason), row.CreatedAt.Format(dateFmt + " 15:04"),
	}
}
