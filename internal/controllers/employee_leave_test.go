package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"leave-system/internal/dto"
	"leave-system/internal/services"
	apperrors "leave-system/pkg/errors"
	"leave-system/pkg/types"
	"leave-system/pkg/validation"
)

type mockLeaveService struct {
	mock.Mock
	services.EmployeeLeaveServiceInterface
}

func (m *mockLeaveService) Create(_ context.Context, payload dto.CreateEmployeeLeaveDTO) (*dto.EmployeeLeaveDTO, error) {
	args := m.Called(payload.UserEmail)
	res, _ := args.Get(0).(*dto.EmployeeLeaveDTO)
	return res, args.Error(1)
}

func (m *mockLeaveService) Treat(_ context.Context, payload dto.TreatRequestDTO) (*dto.EmployeeLeaveDTO, error) {
	args := m.Called(payload.ID, payload.Status)
	res, _ := args.Get(0).(*dto.EmployeeLeaveDTO)
	return res, args.Error(1)
}

func (m *mockLeaveService) Delete(_ context.Context, id uint64) error {
	return m.Called(id).Error(0)
}

func (m *mockLeaveService) GetAll(_ context.Context, filter types.Filter) ([]dto.EmployeeLeaveDTO, uint64, error) {
	args := m.Called(filter.Limit, filter.Page)
	return args.Get(0).([]dto.EmployeeLeaveDTO), args.Get(1).(uint64), args.Error(2)
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Body    json.RawMessage `json:"body"`
}

func serve(t *testing.T, method, target, body string, register func(e *echo.Echo)) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	e := echo.New()
	e.Validator = validation.New()
	register(e)

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestEmployeeLeaveController_CreateReturns201(t *testing.T) {
	svc := new(mockLeaveService)
	svc.On("Create", "anna@example.com").Return(&dto.EmployeeLeaveDTO{ID: 5, Status: "PENDING"}, nil)
	ctrl := NewEmployeeLeaveController(svc, zap.NewNop())

	body := `{"user_email":"anna@example.com","leave_type":"PERSONAL_LEAVE","start_date":"2026-03-16T00:00:00Z","end_date":"2026-03-18T00:00:00Z"}`
	rec, env := serve(t, http.MethodPost, "/employee-leave/user/create", body, func(e *echo.Echo) {
		e.POST("/employee-leave/user/create", ctrl.Create)
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Status)
	var created dto.EmployeeLeaveDTO
	require.NoError(t, json.Unmarshal(env.Body, &created))
	assert.Equal(t, uint64(5), created.ID)
	svc.AssertExpectations(t)
}

func TestEmployeeLeaveController_CreateRejectsInvalidPayload(t *testing.T) {
	svc := new(mockLeaveService)
	ctrl := NewEmployeeLeaveController(svc, zap.NewNop())

	rec, env := serve(t, http.MethodPost, "/create", `{"user_email":"anna@example.com"}`, func(e *echo.Echo) {
		e.POST("/create", ctrl.Create)
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Status)
	svc.AssertNotCalled(t, "Create", mock.Anything)
}

func TestEmployeeLeaveController_TreatMapsDomainErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"нет прав", apperrors.ErrUnauthorizedAction, http.StatusForbidden},
		{"уже обработана", apperrors.ErrInvalidStateTransition, http.StatusConflict},
		{"нет заявки", apperrors.ErrNotFound, http.StatusNotFound},
		{"не хватает дней", apperrors.ErrInsufficientLeaveBalance, http.StatusUnprocessableEntity},
		{"неизвестный статус", apperrors.ErrInvalidStatus, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(mockLeaveService)
			svc.On("Treat", uint64(9), "ACCEPTED").Return(nil, tc.err)
			ctrl := NewEmployeeLeaveController(svc, zap.NewNop())

			rec, env := serve(t, http.MethodPost, "/treat", `{"id":9,"status":"ACCEPTED"}`, func(e *echo.Echo) {
				e.POST("/treat", ctrl.Treat)
			})

			assert.Equal(t, tc.code, rec.Code)
			assert.False(t, env.Status)
			assert.Equal(t, tc.err.Error(), env.Message)
		})
	}
}

func TestEmployeeLeaveController_TreatRejectsUnknownDecision(t *testing.T) {
	svc := new(mockLeaveService)
	ctrl := NewEmployeeLeaveController(svc, zap.NewNop())

	rec, env := serve(t, http.MethodPost, "/treat", `{"id":9,"status":"MAYBE"}`, func(e *echo.Echo) {
		e.POST("/treat", ctrl.Treat)
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Status)
	svc.AssertNotCalled(t, "Treat", mock.Anything, mock.Anything)
}

func TestEmployeeLeaveController_DeleteReturns202(t *testing.T) {
	svc := new(mockLeaveService)
	svc.On("Delete", uint64(12)).Return(nil)
	ctrl := NewEmployeeLeaveController(svc, zap.NewNop())

	rec, env := serve(t, http.MethodDelete, "/delete/12", "", func(e *echo.Echo) {
		e.DELETE("/delete/:id", ctrl.Delete)
	})

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.True(t, env.Status)
	svc.AssertExpectations(t)
}

func TestEmployeeLeaveController_GetAllWithPagination(t *testing.T) {
	svc := new(mockLeaveService)
	svc.On("GetAll", 2, 3).Return([]dto.EmployeeLeaveDTO{{ID: 1}, {ID: 2}}, uint64(7), nil)
	ctrl := NewEmployeeLeaveController(svc, zap.NewNop())

	rec, env := serve(t, http.MethodGet, "/all?withPagination=true&limit=2&page=3", "", func(e *echo.Echo) {
		e.GET("/all", ctrl.GetAll)
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		List       []dto.EmployeeLeaveDTO `json:"list"`
		Pagination types.Pagination       `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(env.Body, &body))
	assert.Len(t, body.List, 2)
	assert.Equal(t, uint64(7), body.Pagination.TotalCount)
	assert.Equal(t, 4, body.Pagination.TotalPages)
}
