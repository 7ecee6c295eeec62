package store

import (
	"errors"
	"sync"
	"testing"

	"github.com/rlanders/choreward/internal/model"
	"github.com/rlanders/choreward/internal/points"
)

func TestChoreLifecycleApprove(t *testing.T) {
	f := newFixture(t)
	cs := NewChoreStore(f.db)

	c, err := cs.Create(f.family, f.parent.ID, ChoreParams{
		Title:      "Dishes",
		PointValue: 10,
		AssignedTo: &f.child.ID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Status != model.ChoreStatusPending {
		t.Fatalf("status = %s, want pending", c.Status)
	}
	if c.ClaimedAt != nil {
		t.Error("direct assignment should not set claimed_at")
	}

	c, err = cs.Complete(f.family, c.ID, f.child.ID, model.RoleChild, "photo.jpg", "done")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if c.Status != model.ChoreStatusCompleted {
		t.Fatalf("status = %s, want completed", c.Status)
	}
	if c.CompletedAt == nil {
		t.Error("completed_at should be set")
	}

	c, err = cs.Verify(f.family, c.ID, f.parent.ID, model.RoleParent, true, "nice work", 0)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if c.Status != model.ChoreStatusVerified {
		t.Fatalf("status = %s, want verified", c.Status)
	}
	if c.VerifiedBy == nil || *c.VerifiedBy != f.parent.ID {
		t.Error("verified_by should record the reviewing parent")
	}
	if got := f.balance(t, f.child.ID); got != 10 {
		t.Errorf("balance = %d, want 10", got)
	}
}

func TestVerifyCannotDoubleAward(t *testing.T) {
	f := newFixture(t)
	cs := NewChoreStore(f.db)

	c, _ := cs.Create(f.family, f.parent.ID, ChoreParams{Title: "Trash", PointValue: 5, AssignedTo: &f.child.ID})
	cs.Complete(f.family, c.ID, f.child.ID, model.RoleChild, "", "")
	if _, err := cs.Verify(f.family, c.ID, f.parent.ID, model.RoleParent, true, "", 0); err != nil {
		t.Fatalf("verify: %v", err)
	}

	if _, err := cs.Verify(f.family, c.ID, f.parent.ID, model.RoleParent, true, "", 0); !errors.Is(err, points.ErrChoreFinalized) {
		t.Fatalf("second verify = %v, want ErrChoreFinalized", err)
	}
	if got := f.balance(t, f.child.ID); got != 5 {
		t.Errorf("balance = %d, want 5 (single award)", got)
	}
}

func TestClaimExclusivity(t *testing.T) {
	f := newFixture(t)
	other := f.addChild(t, "Riley")
	cs := NewChoreStore(f.db)

	c, err := cs.Create(f.family, f.parent.ID, ChoreParams{Title: "Bonus: weed garden", PointValue: 20, IsBonus: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := cs.Claim(f.family, c.ID, f.child.ID, model.RoleChild); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if _, err := cs.Claim(f.family, c.ID, other.ID, model.RoleChild); !errors.Is(err, points.ErrInvalidTransition) {
		t.Fatalf("second claim = %v, want ErrInvalidTransition", err)
	}

	got, _ := cs.GetByID(f.family, c.ID)
	if got.AssignedTo == nil || *got.AssignedTo != f.child.ID {
		t.Error("chore should stay with the first claimer")
	}
	if got.ClaimedAt == nil {
		t.Error("claimed_at should be set")
	}
}

func TestClaimConcurrent(t *testing.T) {
	f := newFixture(t)
	cs := NewChoreStore(f.db)

	children := []*model.User{f.child, f.addChild(t, "Riley"), f.addChild(t, "Jo"), f.addChild(t, "Sam")}
	c, err := cs.Create(f.family, f.parent.ID, ChoreParams{Title: "Bonus: wash car", PointValue: 15, IsBonus: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var wg sync.WaitGroup
	wins := make(chan int64, len(children))
	for _, ch := range children {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			if _, err := cs.Claim(f.family, c.ID, id, model.RoleChild); err == nil {
				wins <- id
			}
		}(ch.ID)
	}
	wg.Wait()
	close(wins)

	var winners []int64
	for id := range wins {
		winners = append(winners, id)
	}
	if len(winners) != 1 {
		t.Fatalf("winners = %d, want exactly 1", len(winners))
	}

	got, _ := cs.GetByID(f.family, c.ID)
	if got.AssignedTo == nil || *got.AssignedTo != winners[0] {
		t.Error("assignee should match the winning claimer")
	}
}

func TestVerifyRejectWithPenalty(t *testing.T) {
	f := newFixture(t)
	cs := NewChoreStore(f.db)
	f.credit(t, f.child.ID, 30)

	c, _ := cs.Create(f.family, f.parent.ID, ChoreParams{Title: "Vacuum", PointValue: 10, AssignedTo: &f.child.ID})
	cs.Complete(f.family, c.ID, f.child.ID, model.RoleChild, "", "")

	c, err := cs.Verify(f.family, c.ID, f.parent.ID, model.RoleParent, false, "half done", 5)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if c.Status != model.ChoreStatusRejected {
		t.Fatalf("status = %s, want rejected", c.Status)
	}
	if c.CompletedAt != nil {
		t.Error("rejection should clear completed_at")
	}
	if c.VerificationNotes != "half done" {
		t.Errorf("verification_notes = %q", c.VerificationNotes)
	}
	if got := f.balance(t, f.child.ID); got != 25 {
		t.Errorf("balance = %d, want 25", got)
	}
}

func TestVerifyPenaltyExceedsBalance(t *testing.T) {
	f := newFixture(t)
	cs := NewChoreStore(f.db)
	f.credit(t, f.child.ID, 3)

	c, _ := cs.Create(f.family, f.parent.ID, ChoreParams{Title: "Mop", PointValue: 10, AssignedTo: &f.child.ID})
	cs.Complete(f.family, c.ID, f.child.ID, model.RoleChild, "", "")

	_, err := cs.Verify(f.family, c.ID, f.parent.ID, model.RoleParent, false, "", 5)
	if !errors.Is(err, points.ErrInsufficientPoints) {
		t.Fatalf("verify = %v, want ErrInsufficientPoints", err)
	}

	// The refused rejection must leave everything untouched.
	got, _ := cs.GetByID(f.family, c.ID)
	if got.Status != model.ChoreStatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	if b := f.balance(t, f.child.ID); b != 3 {
		t.Errorf("balance = %d, want 3", b)
	}
}

func TestCompleteResubmission(t *testing.T) {
	f := newFixture(t)
	cs := NewChoreStore(f.db)

	c, _ := cs.Create(f.family, f.parent.ID, ChoreParams{Title: "Fold laundry", PointValue: 8, AssignedTo: &f.child.ID})
	cs.Complete(f.family, c.ID, f.child.ID, model.RoleChild, "", "")
	c, err := cs.Verify(f.family, c.ID, f.parent.ID, model.RoleParent, false, "wrinkled", 0)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}

	c, err = cs.Complete(f.family, c.ID, f.child.ID, model.RoleChild, "retry.jpg", "redone")
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if c.Status != model.ChoreStatusCompleted {
		t.Fatalf("status = %s, want completed", c.Status)
	}
	if c.VerifiedAt != nil || c.VerifiedBy != nil {
		t.Error("resubmission should clear the previous verification decision")
	}

	var action string
	err = f.db.QueryRow(
		`SELECT action FROM activity_log WHERE entity_type = 'chore' AND entity_id = ? ORDER BY id DESC LIMIT 1`,
		c.ID,
	).Scan(&action)
	if err != nil {
		t.Fatalf("read activity: %v", err)
	}
	if action != "chore.resubmitted" {
		t.Errorf("activity action = %q, want chore.resubmitted", action)
	}
}

func TestReset(t *testing.T) {
	f := newFixture(t)
	cs := NewChoreStore(f.db)

	c, _ := cs.Create(f.family, f.parent.ID, ChoreParams{Title: "Rake leaves", PointValue: 10, AssignedTo: &f.child.ID})
	cs.Complete(f.family, c.ID, f.child.ID, model.RoleChild, "pile.jpg", "all raked")
	cs.Verify(f.family, c.ID, f.parent.ID, model.RoleParent, false, "missed the back", 0)

	c, err := cs.Reset(f.family, c.ID, f.parent.ID, model.RoleParent)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if c.Status != model.ChoreStatusPending {
		t.Fatalf("status = %s, want pending", c.Status)
	}
	if c.CompletedAt != nil || c.VerifiedAt != nil || c.VerifiedBy != nil {
		t.Error("reset should wipe the completion attempt")
	}
	if c.PhotoURL != "" || c.CompletionNotes != "" || c.VerificationNotes != "" {
		t.Error("reset should clear photo and notes")
	}
}

func TestVerifiedChoreIsImmutable(t *testing.T) {
	f := newFixture(t)
	cs := NewChoreStore(f.db)

	c, _ := cs.Create(f.family, f.parent.ID, ChoreParams{Title: "Sweep", PointValue: 5, AssignedTo: &f.child.ID})
	cs.Complete(f.family, c.ID, f.child.ID, model.RoleChild, "", "")
	cs.Verify(f.family, c.ID, f.parent.ID, model.RoleParent, true, "", 0)

	if _, err := cs.Update(f.family, c.ID, f.parent.ID, model.RoleParent, ChoreParams{Title: "Sweep again", PointValue: 5}); !errors.Is(err, points.ErrChoreFinalized) {
		t.Errorf("update = %v, want ErrChoreFinalized", err)
	}
	if err := cs.Delete(f.family, c.ID, f.parent.ID, model.RoleParent); !errors.Is(err, points.ErrChoreFinalized) {
		t.Errorf("delete = %v, want ErrChoreFinalized", err)
	}
	if _, err := cs.Reset(f.family, c.ID, f.parent.ID, model.RoleParent); !errors.Is(err, points.ErrChoreFinalized) {
		t.Errorf("reset = %v, want ErrChoreFinalized", err)
	}
}

func TestBulkDeleteSkipsVerified(t *testing.T) {
	f := newFixture(t)
	cs := NewChoreStore(f.db)

	keep, _ := cs.Create(f.family, f.parent.ID, ChoreParams{Title: "Verified one", PointValue: 5, AssignedTo: &f.child.ID})
	cs.Complete(f.family, keep.ID, f.child.ID, model.RoleChild, "", "")
	cs.Verify(f.family, keep.ID, f.parent.ID, model.RoleParent, true, "", 0)

	a, _ := cs.Create(f.family, f.parent.ID, ChoreParams{Title: "Pending one", PointValue: 5})
	b, _ := cs.Create(f.family, f.parent.ID, ChoreParams{Title: "Pending two", PointValue: 5})

	deleted, err := cs.BulkDelete(f.family, []int64{keep.ID, a.ID, b.ID, 9999}, f.parent.ID, model.RoleParent)
	if err != nil {
		t.Fatalf("bulk delete: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}

	if got, _ := cs.GetByID(f.family, keep.ID); got == nil {
		t.Error("verified chore should survive bulk delete")
	}
	if got, _ := cs.GetByID(f.family, a.ID); got != nil {
		t.Error("pending chore should be deleted")
	}

	if _, err := cs.BulkDelete(f.family, []int64{a.ID}, f.child.ID, model.RoleChild); !errors.Is(err, points.ErrForbidden) {
		t.Errorf("child bulk delete = %v, want ErrForbidden", err)
	}
}

func TestVerificationQueueOrder(t *testing.T) {
	f := newFixture(t)
	cs := NewChoreStore(f.db)

	first, _ := cs.Create(f.family, f.parent.ID, ChoreParams{Title: "First done", PointValue: 5, AssignedTo: &f.child.ID})
	second, _ := cs.Create(f.family, f.parent.ID, ChoreParams{Title: "Second done", PointValue: 5, AssignedTo: &f.child.ID})

	if _, err := cs.Complete(f.family, first.ID, f.child.ID, model.RoleChild, "", ""); err != nil {
		t.Fatalf("complete first: %v", err)
	}
	if _, err := cs.Complete(f.family, second.ID, f.child.ID, model.RoleChild, "", ""); err != nil {
		t.Fatalf("complete second: %v", err)
	}

	queue, err := cs.VerificationQueue(f.family)
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	if len(queue) != 2 {
		t.Fatalf("queue length = %d, want 2", len(queue))
	}
	if queue[0].ID != first.ID {
		t.Error("oldest completion should be reviewed first")
	}
}

func TestChoreFamilyScoping(t *testing.T) {
	f := newFixture(t)
	cs := NewChoreStore(f.db)

	otherParent, err := NewUserStore(f.db).RegisterParent("Other Family", "Max", "max@example.com", "not-a-real-hash")
	if err != nil {
		t.Fatalf("register other family: %v", err)
	}

	c, _ := cs.Create(f.family, f.parent.ID, ChoreParams{Title: "Ours", PointValue: 5})

	if got, _ := cs.GetByID(otherParent.FamilyID, c.ID); got != nil {
		t.Error("chore should be invisible outside its family")
	}
	if _, err := cs.Update(otherParent.FamilyID, c.ID, otherParent.ID, model.RoleParent, ChoreParams{Title: "Theirs", PointValue: 5}); !errors.Is(err, points.ErrNotFound) {
		t.Errorf("cross-family update = %v, want ErrNotFound", err)
	}
}

func TestCreateValidatesReferences(t *testing.T) {
	f := newFixture(t)
	cs := NewChoreStore(f.db)

	// Assignee must be a child.
	if _, err := cs.Create(f.family, f.parent.ID, ChoreParams{Title: "X", PointValue: 5, AssignedTo: &f.parent.ID}); !errors.Is(err, points.ErrInvalidTransition) {
		t.Errorf("assign to parent = %v, want ErrInvalidTransition", err)
	}

	// A deactivated child cannot receive new chores.
	riley := f.addChild(t, "Riley")
	if err := NewUserStore(f.db).Deactivate(f.family, riley.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := cs.Create(f.family, f.parent.ID, ChoreParams{Title: "X", PointValue: 5, AssignedTo: &riley.ID}); !errors.Is(err, points.ErrNotFound) {
		t.Errorf("assign to inactive = %v, want ErrNotFound", err)
	}

	// Category must belong to the family.
	if _, err := cs.Create(f.family, f.parent.ID, ChoreParams{Title: "X", PointValue: 5, CategoryID: int64Ptr(9999)}); !errors.Is(err, points.ErrNotFound) {
		t.Errorf("bad category = %v, want ErrNotFound", err)
	}
}

func TestListFilters(t *testing.T) {
	f := newFixture(t)
	cs := NewChoreStore(f.db)

	assigned, _ := cs.Create(f.family, f.parent.ID, ChoreParams{Title: "Assigned", PointValue: 5, AssignedTo: &f.child.ID})
	board, _ := cs.Create(f.family, f.parent.ID, ChoreParams{Title: "Board", PointValue: 5, IsBonus: true})

	mine, err := cs.List(f.family, ListOptions{AssignedTo: &f.child.ID})
	if err != nil {
		t.Fatalf("list assigned: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != assigned.ID {
		t.Errorf("assigned filter returned %d chores", len(mine))
	}

	claimable, err := cs.List(f.family, ListOptions{Claimable: true})
	if err != nil {
		t.Fatalf("list claimable: %v", err)
	}
	if len(claimable) != 1 || claimable[0].ID != board.ID {
		t.Errorf("claimable filter returned %d chores", len(claimable))
	}

	cs.Complete(f.family, assigned.ID, f.child.ID, model.RoleChild, "", "")
	completed, err := cs.List(f.family, ListOptions{Status: model.ChoreStatusCompleted})
	if err != nil {
		t.Fatalf("list completed: %v", err)
	}
	if len(completed) != 1 || completed[0].ID != assigned.ID {
		t.Errorf("status filter returned %d chores", len(completed))
	}
}
