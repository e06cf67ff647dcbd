package dto

import "github.com/aarondl/null/v8"

type CreateUserDTO struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,custom_email"`
	Phone     string `json:"phone" validate:"omitempty,max=30"`
	Gender    string `json:"gender" validate:"omitempty,oneof=MALE FEMALE"`
	Password  string `json:"password" validate:"required,min=6"`
	Role      string `json:"role" validate:"required,role"`
}

// UpdateUserDTO - частичное обновление карточки сотрудника по email.
type UpdateUserDTO struct {
	Email                   string       `json:"email" validate:"required,custom_email"`
	FirstName               null.String  `json:"first_name" validate:"omitempty,max=100"`
	LastName                null.String  `json:"last_name" validate:"omitempty,max=100"`
	Phone                   null.String  `json:"phone" validate:"omitempty,max=30"`
	Gender                  null.String  `json:"gender" validate:"omitempty,oneof=MALE FEMALE"`
	Role                    null.String  `json:"role" validate:"omitempty,role"`
	LeaveDays               null.Float64 `json:"leave_days" validate:"omitempty,gte=0"`
	ExternalActivitiesLimit null.Int     `json:"external_activities_limit" validate:"omitempty,gte=0"`
	TelegramChatID          null.Int64   `json:"telegram_chat_id"`
}

type ResetPasswordDTO struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

type AffectUserToTeamDTO struct {
	UserEmail string `json:"user_email" validate:"required,custom_email"`
	TeamName  string `json:"team_name" validate:"required"`
}

type RemoveUserFromTeamDTO struct {
	UserEmail string `json:"user_email" validate:"required,custom_email"`
}

type UserDTO struct {
	ID                      uint64  `json:"id"`
	FirstName               string  `json:"first_name"`
	LastName                string  `json:"last_name"`
	Email                   string  `json:"email"`
	Phone                   *string `json:"phone,omitempty"`
	Gender                  *string `json:"gender,omitempty"`
	Role                    string  `json:"role"`
	LeaveDays               float64 `json:"leave_days"`
	ExternalActivitiesLimit int     `json:"external_activities_limit"`
	OnLeave                 bool    `json:"on_leave"`
	ReturnDate              *string `json:"return_date,omitempty"`
	TeamID                  *uint64 `json:"team_id,omitempty"`
	OrganizationalUnitID    *uint64 `json:"organizational_unit_id,omitempty"`
	CreatedAt               string  `json:"created_at,omitempty"`
}

type ShortUserDTO struct {
	ID       uint64 `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}
