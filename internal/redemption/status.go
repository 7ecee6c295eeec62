// Package redemption holds the reward redemption lifecycle rules,
// mirroring the chore package: one guard, called inside the write
// transaction against the freshly-read row.
package redemption

import (
	"github.com/rlanders/choreward/internal/model"
	"github.com/rlanders/choreward/internal/points"
)

type Action string

const (
	ActionReview  Action = "review"
	ActionFulfill Action = "fulfill"
)

// Guard decides whether the actor's role may perform action on the
// redemption in its current status. Request has no prior state and is
// guarded directly by the store's precondition checks.
func Guard(r *model.Redemption, action Action, role model.Role) error {
	if role != model.RoleParent {
		return points.ErrForbidden
	}

	switch action {
	case ActionReview:
		if r.Status != model.RedemptionStatusPending {
			return points.ErrInvalidTransition
		}
	case ActionFulfill:
		if r.Status != model.RedemptionStatusApproved {
			return points.ErrInvalidTransition
		}
	default:
		return points.ErrForbidden
	}
	return nil
}
