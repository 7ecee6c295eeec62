package model

import "time"

type Reward struct {
	ID          int64     `json:"id"`
	FamilyID    int64     `json:"family_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	PointCost   int       `json:"point_cost"`
	// QuantityAvailable is nil for unlimited rewards.
	QuantityAvailable *int      `json:"quantity_available"`
	Active            bool      `json:"active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type RedemptionStatus string

const (
	RedemptionStatusPending   RedemptionStatus = "pending"
	RedemptionStatusApproved  RedemptionStatus = "approved"
	RedemptionStatusRejected  RedemptionStatus = "rejected"
	RedemptionStatusFulfilled RedemptionStatus = "fulfilled"
)

type Redemption struct {
	ID       int64 `json:"id"`
	FamilyID int64 `json:"family_id"`
	ChildID  int64 `json:"child_id"`
	RewardID *int64 `json:"reward_id"`
	// PointsSpent snapshots the reward's point cost at request time.
	// Later cost changes do not affect pending redemptions.
	PointsSpent int              `json:"points_spent"`
	Status      RedemptionStatus `json:"status"`
	Notes       string           `json:"notes"`
	ReviewNotes string           `json:"review_notes"`
	RequestedAt time.Time        `json:"requested_at"`
	ReviewedAt  *time.Time       `json:"reviewed_at"`
	ReviewedBy  *int64           `json:"reviewed_by"`
	FulfilledAt *time.Time       `json:"fulfilled_at"`
}

type PointBalance struct {
	UserID      int64  `json:"user_id"`
	UserName    string `json:"user_name"`
	TotalEarned int    `json:"total_earned"`
	TotalSpent  int    `json:"total_spent"`
	Balance     int    `json:"balance"`
}
