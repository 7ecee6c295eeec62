package store

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/rlanders/choreward/internal/model"
)

// The ledger has one invariant worth hammering: every balance is exactly
// the sum of the adjustments applied to it, no matter the order or sign.
func TestBalanceIsSumOfAdjustments(t *testing.T) {
	f := newFixture(t)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("balance equals sum of deltas", prop.ForAll(
		func(deltas []int) bool {
			child := f.addChild(t, "prop-child")
			sum := 0
			for _, d := range deltas {
				f.credit(t, child.ID, d)
				sum += d
			}
			return f.balance(t, child.ID) == sum
		},
		gen.SliceOf(gen.IntRange(-500, 500)),
	))

	properties.TestingRun(t)
}

// Request followed by rejection is a round trip: the child's balance and
// the reward's stock end exactly where they started.
func TestRequestRejectRoundTrip(t *testing.T) {
	f := newFixture(t)
	rs := NewRewardStore(f.db)
	rds := NewRedemptionStore(f.db)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30

	properties := gopter.NewProperties(parameters)

	properties.Property("reject restores balance and stock", prop.ForAll(
		func(cost, headroom, stock int) bool {
			child := f.addChild(t, "prop-child")
			start := cost + headroom
			f.credit(t, child.ID, start)

			reward, err := rs.Create(f.family, "prop-reward", "", cost, intPtr(stock), true)
			if err != nil {
				return false
			}
			r, err := rds.Request(f.family, child.ID, model.RoleChild, reward.ID, "")
			if err != nil {
				return false
			}
			if _, err := rds.Review(f.family, r.ID, f.parent.ID, model.RoleParent, false, ""); err != nil {
				return false
			}

			reward, err = rs.GetByID(f.family, reward.ID)
			if err != nil || reward.QuantityAvailable == nil {
				return false
			}
			return f.balance(t, child.ID) == start && *reward.QuantityAvailable == stock
		},
		gen.IntRange(1, 200),
		gen.IntRange(0, 100),
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t)
}
