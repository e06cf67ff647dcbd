package dto

import "github.com/aarondl/null/v8"

type CreateOrganizationalUnitDTO struct {
	Name         string   `json:"name" validate:"required,max=150"`
	ManagerEmail string   `json:"manager_email" validate:"required,custom_email"`
	TeamNames    []string `json:"team_names"`
	MemberEmails []string `json:"member_emails" validate:"omitempty,dive,custom_email"`
}

type UpdateOrganizationalUnitDTO struct {
	Name         null.String `json:"name" validate:"omitempty,max=150"`
	ManagerEmail null.String `json:"manager_email" validate:"omitempty,custom_email"`
}

type UnitTeamDTO struct {
	UnitID   uint64 `json:"unit_id" validate:"required"`
	TeamName string `json:"team_name" validate:"required"`
}

type UnitMemberDTO struct {
	UnitID    uint64 `json:"unit_id" validate:"required"`
	UserEmail string `json:"user_email" validate:"required,custom_email"`
}

type UnitManagerDTO struct {
	UnitID       uint64 `json:"unit_id" validate:"required"`
	ManagerEmail string `json:"manager_email" validate:"required,custom_email"`
}

type OrganizationalUnitDTO struct {
	ID        uint64         `json:"id"`
	Name      string         `json:"name"`
	ManagerID *uint64        `json:"manager_id,omitempty"`
	Members   []ShortUserDTO `json:"members,omitempty"`
	CreatedAt string         `json:"created_at"`
}
