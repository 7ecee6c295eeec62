package store

import (
	"database/sql"
	"testing"

	"github.com/rlanders/choreward/internal/database"
	"github.com/rlanders/choreward/internal/model"
)

// fixture is a migrated in-memory database seeded with one family, one
// parent, and one child.
type fixture struct {
	db     *sql.DB
	family int64
	parent *model.User
	child  *model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	// An in-memory database exists per connection; keep the pool at one
	// so every query sees the migrated schema.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	users := NewUserStore(db)
	parent, err := users.RegisterParent("Test Family", "Pat", "pat@example.com", "not-a-real-hash")
	if err != nil {
		t.Fatalf("register parent: %v", err)
	}
	child, err := users.Create(parent.FamilyID, "Casey", "casey@example.com", model.RoleChild, "")
	if err != nil {
		t.Fatalf("create child: %v", err)
	}

	return &fixture{db: db, family: parent.FamilyID, parent: parent, child: child}
}

// addChild seeds another active child in the fixture family.
func (f *fixture) addChild(t *testing.T, name string) *model.User {
	t.Helper()
	u, err := NewUserStore(f.db).Create(f.family, name, "", model.RoleChild, "")
	if err != nil {
		t.Fatalf("create child %s: %v", name, err)
	}
	return u
}

// credit adjusts a user's balance directly, standing in for verified
// chores when a test only needs points to exist.
func (f *fixture) credit(t *testing.T, userID int64, delta int) {
	t.Helper()
	tx, err := f.db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := adjustBalanceTx(tx, userID, delta); err != nil {
		tx.Rollback()
		t.Fatalf("adjust balance: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
}

func (f *fixture) balance(t *testing.T, userID int64) int {
	t.Helper()
	var b int
	if err := f.db.QueryRow(`SELECT points_balance FROM users WHERE id = ?`, userID).Scan(&b); err != nil {
		t.Fatalf("read balance: %v", err)
	}
	return b
}

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }
