package dto

import (
	"time"

	"github.com/aarondl/null/v8"
)

type CreateExternalAuthorizationDTO struct {
	UserEmail     string     `json:"user_email" validate:"required,custom_email"`
	LeaveDuration string     `json:"leave_duration" validate:"required,leave_duration"`
	Date          *time.Time `json:"date" validate:"required"`
	Reason        string     `json:"reason" validate:"omitempty,max=1000"`
}

type UpdateExternalAuthorizationDTO struct {
	LeaveDuration null.String `json:"leave_duration" validate:"omitempty,leave_duration"`
	Date          null.Time   `json:"date"`
	Reason        null.String `json:"reason" validate:"omitempty,max=1000"`
}

type ExternalAuthorizationDTO struct {
	ID            uint64  `json:"id"`
	UserID        uint64  `json:"user_id"`
	LeaveDuration string  `json:"leave_duration"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	Status        string  `json:"status"`
	Reason        *string `json:"reason,omitempty"`
	CreatedAt     string  `json:"created_at"`
}
