package entities

import (
	"time"

	"leave-system/pkg/constants"
)

type ExternalAuthorization struct {
	ID            uint64                  `json:"id"`
	UserID        uint64                  `json:"user_id"`
	LeaveDuration constants.LeaveDuration `json:"leave_duration"`
	StartDate     time.Time               `json:"start_date"`
	EndDate       time.Time               `json:"end_date"`
	Status        constants.Status        `json:"status"`
	Reason        *string                 `json:"reason,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
}
