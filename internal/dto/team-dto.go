package dto

import "github.com/aarondl/null/v8"

type CreateTeamDTO struct {
	Name              string   `json:"name" validate:"required,max=150"`
	Description       string   `json:"description" validate:"omitempty,max=1000"`
	OrgUnitName       string   `json:"org_unit_name" validate:"required"`
	TeamLeadEmail     string   `json:"team_lead_email" validate:"required,custom_email"`
	MinimumAttendance *int     `json:"minimum_attendance" validate:"omitempty,gte=0"`
	MemberEmails      []string `json:"member_emails" validate:"omitempty,dive,custom_email"`
}

type UpdateTeamDTO struct {
	Name              null.String `json:"name" validate:"omitempty,max=150"`
	Description       null.String `json:"description" validate:"omitempty,max=1000"`
	MinimumAttendance null.Int    `json:"minimum_attendance" validate:"omitempty,gte=0"`
	TeamLeadEmail     null.String `json:"team_lead_email" validate:"omitempty,custom_email"`
}

type TeamDTO struct {
	ID                   uint64         `json:"id"`
	Name                 string         `json:"name"`
	Description          *string        `json:"description,omitempty"`
	MinimumAttendance    int            `json:"minimum_attendance"`
	ManagerID            *uint64        `json:"manager_id,omitempty"`
	OrganizationalUnitID *uint64        `json:"organizational_unit_id,omitempty"`
	Members              []ShortUserDTO `json:"members,omitempty"`
	CreatedAt            string         `json:"created_at"`
}
