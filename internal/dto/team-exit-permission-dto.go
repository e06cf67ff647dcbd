package dto

import (
	"time"

	"github.com/aarondl/null/v8"
)

type CreateTeamExitPermissionDTO struct {
	TeamName      string     `json:"team_name" validate:"required"`
	LeaveDuration string     `json:"leave_duration" validate:"required,leave_duration"`
	Date          *time.Time `json:"date" validate:"required"`
	Reason        string     `json:"reason" validate:"omitempty,max=1000"`
}

type UpdateTeamExitPermissionDTO struct {
	LeaveDuration null.String `json:"leave_duration" validate:"omitempty,leave_duration"`
	Date          null.Time   `json:"date"`
	Reason        null.String `json:"reason" validate:"omitempty,max=1000"`
}

type TeamExitPermissionDTO struct {
	ID            uint64  `json:"id"`
	TeamID        uint64  `json:"team_id"`
	LeaveDuration string  `json:"leave_duration"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	Status        string  `json:"status"`
	Reason        *string `json:"reason,omitempty"`
	CreatedAt     string  `json:"created_at"`
}
