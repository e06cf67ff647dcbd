package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"leave-system/internal/dto"
	"leave-system/internal/services"
)

type mockAuthorizationService struct {
	mock.Mock
	services.ExternalAuthorizationServiceInterface
}

func (m *mockAuthorizationService) Treat(_ context.Context, payload dto.TreatRequestDTO) (*dto.ExternalAuthorizationDTO, error) {
	args := m.Called(payload.ID, payload.Status)
	res, _ := args.Get(0).(*dto.ExternalAuthorizationDTO)
	return res, args.Error(1)
}

func TestExternalAuthorizationController_TreatUsesPathID(t *testing.T) {
	svc := new(mockAuthorizationService)
	svc.On("Treat", uint64(4), "accepted").Return(&dto.ExternalAuthorizationDTO{ID: 4, Status: "ACCEPTED"}, nil)
	ctrl := NewExternalAuthorizationController(svc, zap.NewNop())

	rec, env := serve(t, http.MethodPut, "/treat/4", `{"id":77,"status":"accepted"}`, func(e *echo.Echo) {
		e.PUT("/treat/:id", ctrl.Treat)
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Status)
	svc.AssertExpectations(t)
}

func TestExternalAuthorizationController_TreatValidation(t *testing.T) {
	cases := []struct {
		name   string
		target string
		body   string
	}{
		{"неизвестное решение", "/treat/4", `{"status":"LATER"}`},
		{"нет решения", "/treat/4", `{}`},
		{"неверный ID", "/treat/abc", `{"status":"ACCEPTED"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(mockAuthorizationService)
			ctrl := NewExternalAuthorizationController(svc, zap.NewNop())

			rec, env := serve(t, http.MethodPut, tc.target, tc.body, func(e *echo.Echo) {
				e.PUT("/treat/:id", ctrl.Treat)
			})

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.False(t, env.Status)
			svc.AssertNotCalled(t, "Treat", mock.Anything, mock.Anything)
		})
	}
}
