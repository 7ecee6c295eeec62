package store

import (
	"testing"

	"github.com/rlanders/choreward/internal/model"
)

func TestRegisterParent(t *testing.T) {
	f := newFixture(t)

	if f.parent.Role != model.RoleParent {
		t.Errorf("role = %s, want parent", f.parent.Role)
	}
	if f.parent.FamilyID == 0 {
		t.Error("registration should create a family")
	}
	if f.parent.PointsBalance != 0 {
		t.Errorf("balance = %d, want 0", f.parent.PointsBalance)
	}
	if !f.parent.IsActive {
		t.Error("new parent should be active")
	}

	var action string
	err := f.db.QueryRow(
		`SELECT action FROM activity_log WHERE family_id = ? ORDER BY id ASC LIMIT 1`,
		f.parent.FamilyID,
	).Scan(&action)
	if err != nil {
		t.Fatalf("read activity: %v", err)
	}
	if action != "family.registered" {
		t.Errorf("first activity = %q, want family.registered", action)
	}
}

func TestGetByEmail(t *testing.T) {
	f := newFixture(t)
	us := NewUserStore(f.db)

	u, err := us.GetByEmail("pat@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if u == nil || u.ID != f.parent.ID {
		t.Error("should find the registered parent")
	}

	if u, _ := us.GetByEmail("nobody@example.com"); u != nil {
		t.Error("unknown email should yield nil")
	}
}

func TestUserUpdateAndDeactivate(t *testing.T) {
	f := newFixture(t)
	us := NewUserStore(f.db)

	u, err := us.Update(f.family, f.child.ID, "Casey Jr", "cj@example.com")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if u.Name != "Casey Jr" {
		t.Errorf("name = %q", u.Name)
	}

	if err := us.Deactivate(f.family, f.child.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	u, _ = us.GetByID(f.family, f.child.ID)
	if u == nil {
		t.Fatal("deactivated user should still be readable")
	}
	if u.IsActive {
		t.Error("user should be inactive")
	}
	if u.PointsBalance != f.child.PointsBalance {
		t.Error("deactivation must not touch the balance")
	}
}

func TestPINLifecycle(t *testing.T) {
	f := newFixture(t)
	us := NewUserStore(f.db)

	if err := us.SetPIN(f.family, f.child.ID, "hash-of-1234"); err != nil {
		t.Fatalf("set pin: %v", err)
	}
	hash, err := us.PINHash(f.family, f.child.ID)
	if err != nil {
		t.Fatalf("pin hash: %v", err)
	}
	if hash != "hash-of-1234" {
		t.Errorf("hash = %q", hash)
	}

	u, _ := us.GetByID(f.family, f.child.ID)
	if !u.HasPIN {
		t.Error("HasPIN should be true after SetPIN")
	}

	if err := us.ClearPIN(f.family, f.child.ID); err != nil {
		t.Fatalf("clear pin: %v", err)
	}
	if hash, _ := us.PINHash(f.family, f.child.ID); hash != "" {
		t.Error("cleared PIN should have no hash")
	}
}

func TestListScopedToFamily(t *testing.T) {
	f := newFixture(t)
	us := NewUserStore(f.db)

	other, err := us.RegisterParent("Others", "Max", "max@example.com", "not-a-real-hash")
	if err != nil {
		t.Fatalf("register other: %v", err)
	}

	users, err := us.List(f.family)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("list = %d users, want 2", len(users))
	}
	for _, u := range users {
		if u.ID == other.ID {
			t.Error("list leaked a user from another family")
		}
	}
}
