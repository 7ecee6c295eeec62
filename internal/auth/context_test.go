package auth

import (
	"context"
	"testing"

	"github.com/rlanders/choreward/internal/model"
)

func TestContextRoundTrip(t *testing.T) {
	ac := AuthContext{UserID: 3, FamilyID: 7, Role: model.RoleParent, SessionID: 11}
	ctx := WithAuth(context.Background(), ac)

	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("FromContext should find the auth context")
	}
	if got != ac {
		t.Errorf("got %+v, want %+v", got, ac)
	}

	if FamilyID(ctx) != 7 || UserID(ctx) != 3 {
		t.Error("accessors should read the stored identity")
	}
	if !IsParent(ctx) {
		t.Error("IsParent should be true for parent role")
	}
}

func TestEmptyContext(t *testing.T) {
	ctx := context.Background()

	if _, ok := FromContext(ctx); ok {
		t.Error("FromContext on an empty context should report absence")
	}
	if FamilyID(ctx) != 0 || UserID(ctx) != 0 || Role(ctx) != "" {
		t.Error("accessors should zero out on an empty context")
	}
	if IsParent(ctx) {
		t.Error("IsParent should be false on an empty context")
	}
}

func TestChildIsNotParent(t *testing.T) {
	ctx := WithAuth(context.Background(), AuthContext{UserID: 4, FamilyID: 7, Role: model.RoleChild})
	if IsParent(ctx) {
		t.Error("IsParent should be false for child role")
	}
}
