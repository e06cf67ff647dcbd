package dto

import (
	"time"

	"github.com/aarondl/null/v8"
)

type CreateTeamLeaveDTO struct {
	TeamName  string     `json:"team_name" validate:"required"`
	StartDate *time.Time `json:"start_date" validate:"required"`
	EndDate   *time.Time `json:"end_date" validate:"required"`
	Reason    string     `json:"reason" validate:"omitempty,max=1000"`
}

type UpdateTeamLeaveDTO struct {
	StartDate null.Time   `json:"start_date"`
	EndDate   null.Time   `json:"end_date"`
	Reason    null.String `json:"reason" validate:"omitempty,max=1000"`
}

type TeamLeaveDTO struct {
	ID        uint64  `json:"id"`
	TeamID    uint64  `json:"team_id"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
	Status    string  `json:"status"`
	Reason    *string `json:"reason,omitempty"`
	CreatedAt string  `json:"created_at"`
}
