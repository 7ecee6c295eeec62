package model

import "time"

// ActivityEntry is an immutable audit record written in the same
// transaction as the state change it describes.
type ActivityEntry struct {
	ID         int64          `json:"id"`
	FamilyID   int64          `json:"family_id"`
	UserID     *int64         `json:"user_id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   int64          `json:"entity_id"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
