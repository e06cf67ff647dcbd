package controllers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"leave-system/internal/dto"
	apperrors "leave-system/pkg/errors"
)

func parseID(ctx echo.Context, name string) (uint64, error) {
	raw := ctx.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.NewHttpError(
			http.StatusBadRequest,
			"Неверный ID",
			err,
			map[string]interface{}{"param": raw},
		)
	}
	return id, nil
}

// bindAndValidate разбирает тело запроса (и параметры пути) в payload и прогоняет валидацию.
func bindAndValidate(ctx echo.Context, payload interface{}) error {
	if err := ctx.Bind(payload); err != nil {
		return apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат запроса", err, nil)
	}
	return ctx.Validate(payload)
}

// bindTreatByPath разбирает решение по заявке; ID из тела игнорируется.
func bindTreatByPath(ctx echo.Context) (dto.TreatRequestDTO, error) {
	var payload dto.TreatRequestDTO
	id, err := parseID(ctx, "id")
	if err != nil {
		return payload, err
	}
	if err := ctx.Bind(&payload); err != nil {
		return payload, apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат запроса", err, nil)
	}
	payload.ID = id
	return payload, ctx.Validate(&payload)
}
