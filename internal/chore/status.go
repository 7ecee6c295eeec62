// Package chore holds the chore lifecycle rules: which actions are legal
// from which status, and which role and identity may trigger them. All
// precondition checks funnel through Guard so call sites cannot drift.
package chore

import (
	"github.com/rlanders/choreward/internal/model"
	"github.com/rlanders/choreward/internal/points"
)

type Action string

const (
	ActionClaim    Action = "claim"
	ActionComplete Action = "complete"
	ActionAddPhoto Action = "add_photo"
	ActionVerify   Action = "verify"
	ActionReset    Action = "reset"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
)

// actionRoles maps each action to the role allowed to perform it.
var actionRoles = map[Action]model.Role{
	ActionClaim:    model.RoleChild,
	ActionComplete: model.RoleChild,
	ActionAddPhoto: model.RoleChild,
	ActionVerify:   model.RoleParent,
	ActionReset:    model.RoleParent,
	ActionUpdate:   model.RoleParent,
	ActionDelete:   model.RoleParent,
}

// fromStatuses maps each action to the statuses it is legal from.
var fromStatuses = map[Action][]model.ChoreStatus{
	ActionClaim:    {model.ChoreStatusPending},
	ActionComplete: {model.ChoreStatusPending, model.ChoreStatusRejected},
	ActionAddPhoto: {model.ChoreStatusCompleted, model.ChoreStatusRejected},
	ActionVerify:   {model.ChoreStatusCompleted},
	ActionReset:    {model.ChoreStatusRejected},
	ActionUpdate:   {model.ChoreStatusPending, model.ChoreStatusCompleted, model.ChoreStatusRejected},
	ActionDelete:   {model.ChoreStatusPending, model.ChoreStatusCompleted, model.ChoreStatusRejected},
}

// Guard decides whether actorID (with the given role) may perform action
// on the chore as currently persisted. It returns one of the points
// package errors; nil means the transition is legal.
//
// Stores call Guard inside the write transaction, after re-reading the
// row, so a passing check and the resulting mutation are atomic.
func Guard(c *model.Chore, action Action, actorID int64, role model.Role) error {
	if want, ok := actionRoles[action]; !ok || role != want {
		return points.ErrForbidden
	}

	// Verified chores are permanently immutable: their points have
	// already been irreversibly awarded.
	if c.Status == model.ChoreStatusVerified {
		return points.ErrChoreFinalized
	}

	switch action {
	case ActionClaim:
		if c.Assigned() {
			return points.ErrInvalidTransition
		}
	case ActionComplete, ActionAddPhoto:
		if !c.AssignedToUser(actorID) {
			return points.ErrForbidden
		}
	}

	for _, s := range fromStatuses[action] {
		if c.Status == s {
			return nil
		}
	}
	return points.ErrInvalidTransition
}
