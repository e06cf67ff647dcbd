package entities

import "time"

type Team struct {
	ID                   uint64    `json:"id"`
	Name                 string    `json:"name"`
	Description          *string   `json:"description,omitempty"`
	MinimumAttendance    int       `json:"minimum_attendance"`
	ManagerID            *uint64   `json:"manager_id,omitempty"`
	OrganizationalUnitID *uint64   `json:"organizational_unit_id,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
}

// IsManagedBy - пользователь является руководителем команды.
func (t *Team) IsManagedBy(userID uint64) bool {
	return t.ManagerID != nil && *t.ManagerID == userID
}
