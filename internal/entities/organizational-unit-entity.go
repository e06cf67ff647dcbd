package entities

import "time"

type OrganizationalUnit struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	ManagerID *uint64   `json:"manager_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
