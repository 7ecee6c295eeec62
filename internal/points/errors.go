// Package points defines the domain errors shared by the chore and
// redemption lifecycles. Handlers match these with errors.Is to pick an
// HTTP status; stores return them from precondition checks before or
// inside a transaction, never after a partial write.
package points

import "errors"

var (
	// ErrNotFound covers entities that are absent or outside the
	// actor's family scope. The two cases are deliberately
	// indistinguishable to callers.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the actor's role or identity does not permit
	// the action.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidTransition means the action is not legal from the
	// entity's current status.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInsufficientPoints means a debit would exceed the child's
	// current balance.
	ErrInsufficientPoints = errors.New("insufficient points")

	// ErrOutOfStock means the reward's remaining quantity is zero.
	ErrOutOfStock = errors.New("reward out of stock")

	// ErrChoreFinalized means the chore is verified and permanently
	// immutable; its points have already been awarded.
	ErrChoreFinalized = errors.New("chore is verified and cannot be modified")
)
