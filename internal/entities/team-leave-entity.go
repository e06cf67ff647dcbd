package entities

import (
	"time"

	"leave-system/pkg/constants"
)

type TeamLeave struct {
	ID        uint64           `json:"id"`
	TeamID    uint64           `json:"team_id"`
	StartDate time.Time        `json:"start_date"`
	EndDate   time.Time        `json:"end_date"`
	Status    constants.Status `json:"status"`
	Reason    *string          `json:"reason,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
