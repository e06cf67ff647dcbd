package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"leave-system/internal/dto"
	"leave-system/pkg/validation"
)

type mockReportService struct {
	mock.Mock
}

func (m *mockReportService) GetLeaveReport(_ context.Context, filter dto.LeaveReportFilterDTO, page, perPage int) ([]dto.LeaveReportItemDTO, uint64, error) {
	args := m.Called(filter.Status, page, perPage)
	return args.Get(0).([]dto.LeaveReportItemDTO), args.Get(1).(uint64), args.Error(2)
}

func (m *mockReportService) ExportLeaveReport(_ context.Context, filter dto.LeaveReportFilterDTO) ([]byte, error) {
	args := m.Called(filter.Status)
	return args.Get(0).([]byte), args.Error(1)
}

func reportRequest(ctrl *ReportController, target string) *httptest.ResponseRecorder {
	e := echo.New()
	e.Validator = validation.New()
	e.GET("/report", ctrl.GetLeaveReport)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestReportController_JSON(t *testing.T) {
	svc := new(mockReportService)
	svc.On("GetLeaveReport", "ACCEPTED", 1, 50).Return([]dto.LeaveReportItemDTO{{LeaveID: 3}}, uint64(1), nil)

	rec := reportRequest(NewReportController(svc, zap.NewNop()), "/report?status=ACCEPTED&limit=50")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"leave_id":3`)
	svc.AssertExpectations(t)
}

func TestReportController_XLSXAttachment(t *testing.T) {
	svc := new(mockReportService)
	svc.On("ExportLeaveReport", "").Return([]byte("xlsx-bytes"), nil)

	rec := reportRequest(NewReportController(svc, zap.NewNop()), "/report?format=XLSX")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment; filename=leave_report_")
	assert.Equal(t, "xlsx-bytes", rec.Body.String())
}

func TestReportController_RejectsBadDates(t *testing.T) {
	svc := new(mockReportService)

	rec := reportRequest(NewReportController(svc, zap.NewNop()), "/report?from=10.03.2026")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "GetLeaveReport", mock.Anything, mock.Anything, mock.Anything)
}
