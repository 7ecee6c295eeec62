package model

import "time"

type ChoreStatus string

const (
	ChoreStatusPending   ChoreStatus = "pending"
	ChoreStatusCompleted ChoreStatus = "completed"
	ChoreStatusVerified  ChoreStatus = "verified"
	ChoreStatusRejected  ChoreStatus = "rejected"
)

type Category struct {
	ID        int64     `json:"id"`
	FamilyID  int64     `json:"family_id"`
	Name      string    `json:"name"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Chore struct {
	ID                int64       `json:"id"`
	FamilyID          int64       `json:"family_id"`
	Title             string      `json:"title"`
	Description       string      `json:"description"`
	CategoryID        *int64      `json:"category_id"`
	PointValue        int         `json:"point_value"`
	Status            ChoreStatus `json:"status"`
	IsBonus           bool        `json:"is_bonus"`
	AssignedTo        *int64      `json:"assigned_to"`
	DueDate           *time.Time  `json:"due_date"`
	ClaimedAt         *time.Time  `json:"claimed_at"`
	CompletedAt       *time.Time  `json:"completed_at"`
	PhotoURL          string      `json:"photo_url"`
	CompletionNotes   string      `json:"completion_notes"`
	VerifiedAt        *time.Time  `json:"verified_at"`
	VerifiedBy        *int64      `json:"verified_by"`
	VerificationNotes string      `json:"verification_notes"`
	CreatedBy         int64       `json:"created_by"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// Assigned reports whether the chore has a current assignee. Unassigned
// chores are claimable by any child in the family.
func (c *Chore) Assigned() bool {
	return c.AssignedTo != nil
}

// AssignedToUser reports whether userID is the chore's current assignee.
func (c *Chore) AssignedToUser(userID int64) bool {
	return c.AssignedTo != nil && *c.AssignedTo == userID
}
