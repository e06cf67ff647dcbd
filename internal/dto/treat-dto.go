package dto

// TreatRequestDTO - решение по заявке. На маршрутах с :id идентификатор берётся только из пути.
type TreatRequestDTO struct {
	ID     uint64 `json:"id" validate:"required"`
	Status string `json:"status" validate:"required,leave_status"`
}
