package dto

import (
	"time"

	"github.com/aarondl/null/v8"
)

type CreateEmployeeLeaveDTO struct {
	UserEmail            string     `json:"user_email" validate:"required,custom_email"`
	LeaveType            string     `json:"leave_type" validate:"required,leave_type"`
	ExceptionalLeaveType string     `json:"exceptional_leave_type" validate:"omitempty,exceptional_leave_type"`
	TimeOfDay            string     `json:"time_of_day" validate:"omitempty,time_of_day"`
	StartDate            *time.Time `json:"start_date" validate:"required"`
	EndDate              *time.Time `json:"end_date" validate:"required"`
	Reason               string     `json:"reason" validate:"omitempty,max=1000"`
}

// UpdateEmployeeLeaveDTO - частичное обновление: незаданное поле не меняется.
type UpdateEmployeeLeaveDTO struct {
	LeaveType            null.String `json:"leave_type" validate:"omitempty,leave_type"`
	ExceptionalLeaveType null.String `json:"exceptional_leave_type" validate:"omitempty,exceptional_leave_type"`
	TimeOfDay            null.String `json:"time_of_day" validate:"omitempty,time_of_day"`
	StartDate            null.Time   `json:"start_date"`
	EndDate              null.Time   `json:"end_date"`
	Reason               null.String `json:"reason" validate:"omitempty,max=1000"`
}

type EmployeeLeaveDTO struct {
	ID                   uint64  `json:"id"`
	UserID               uint64  `json:"user_id"`
	LeaveType            string  `json:"leave_type"`
	ExceptionalLeaveType string  `json:"exceptional_leave_type"`
	TimeOfDay            string  `json:"time_of_day"`
	StartDate            string  `json:"start_date"`
	EndDate              string  `json:"end_date"`
	Status               string  `json:"status"`
	Reason               *string `json:"reason,omitempty"`
	CreatedAt            string  `json:"created_at"`
}
