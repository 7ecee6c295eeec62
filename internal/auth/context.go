package auth

import (
	"context"

	"github.com/rlanders/choreward/internal/model"
)

type contextKey struct{}

// AuthContext carries the authenticated actor's identity and family
// scope. Every store query is scoped by FamilyID; the core trusts these
// values once the middleware has populated them.
type AuthContext struct {
	UserID    int64
	FamilyID  int64
	Role      model.Role
	SessionID int64
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func FamilyID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.FamilyID
}

func UserID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.UserID
}

func Role(ctx context.Context) model.Role {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.Role
}

func IsParent(ctx context.Context) bool {
	return Role(ctx) == model.RoleParent
}
