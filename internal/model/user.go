package model

import "time"

type Role string

const (
	RoleParent Role = "parent"
	RoleChild  Role = "child"
)

type User struct {
	ID            int64     `json:"id"`
	FamilyID      int64     `json:"family_id"`
	Name          string    `json:"name"`
	Email         string    `json:"email,omitempty"`
	Role          Role      `json:"role"`
	PointsBalance int       `json:"points_balance"`
	IsActive      bool      `json:"is_active"`
	HasPIN        bool      `json:"has_pin"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
