package entities

import (
	"database/sql"
	"time"

	"leave-system/pkg/constants"
	"leave-system/pkg/types"
)

type User struct {
	ID                      uint64         `json:"id"`
	FirstName               string         `json:"first_name"`
	LastName                string         `json:"last_name"`
	Email                   string         `json:"email"`
	Phone                   *string        `json:"phone,omitempty"`
	Gender                  *string        `json:"gender,omitempty"`
	Password                string         `json:"-"`
	Role                    constants.Role `json:"role"`
	LeaveDays               float64        `json:"leave_days"`
	ExternalActivitiesLimit int            `json:"external_activities_limit"`
	OnLeave                 bool           `json:"on_leave"`
	ReturnDate              *time.Time     `json:"return_date,omitempty"`
	TeamID                  *uint64        `json:"team_id,omitempty"`
	OrganizationalUnitID    *uint64        `json:"organizational_unit_id,omitempty"`
	TelegramChatID          sql.NullInt64  `json:"-"`
	types.BaseEntity
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// CanManage - роль позволяет рассматривать чужие заявки.
func (u *User) CanManage() bool {
	return u.Role == constants.RoleAdmin || u.Role == constants.RoleManager
}
