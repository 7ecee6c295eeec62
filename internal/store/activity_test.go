package store

import (
	"testing"

	"github.com/rlanders/choreward/internal/model"
)

func TestActivityNewestFirst(t *testing.T) {
	f := newFixture(t)
	cs := NewChoreStore(f.db)
	as := NewActivityStore(f.db)

	c, _ := cs.Create(f.family, f.parent.ID, ChoreParams{Title: "Dishes", PointValue: 5, AssignedTo: &f.child.ID})
	cs.Complete(f.family, c.ID, f.child.ID, model.RoleChild, "", "")

	entries, err := as.ListByFamily(f.family, 50)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	// family.registered, chore.created, chore.completed
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	if entries[0].Action != "chore.completed" {
		t.Errorf("newest = %q, want chore.completed", entries[0].Action)
	}
	if entries[0].Details["title"] != "Dishes" {
		t.Errorf("details = %v", entries[0].Details)
	}
	if entries[len(entries)-1].Action != "family.registered" {
		t.Errorf("oldest = %q, want family.registered", entries[len(entries)-1].Action)
	}
}

func TestActivityLimit(t *testing.T) {
	f := newFixture(t)
	cs := NewChoreStore(f.db)
	as := NewActivityStore(f.db)

	for i := 0; i < 5; i++ {
		cs.Create(f.family, f.parent.ID, ChoreParams{Title: "chore", PointValue: 1})
	}

	entries, err := as.ListByFamily(f.family, 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("entries = %d, want 3", len(entries))
	}
}
