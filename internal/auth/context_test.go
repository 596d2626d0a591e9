package auth

import (
	"context"
	"testing"
)

func TestRequireRole(t *testing.T) {
	analyst := ContextWithUser(context.Background(), User{Name: "amy", Role: RoleAnalyst})
	viewer := ContextWithUser(context.Background(), User{Name: "vic", Role: RoleViewer})

	if err := RequireRole(analyst, RoleAnalyst, RoleAdmin); err != nil {
		t.Fatalf("analyst should pass: %v", err)
	}
	if err := RequireRole(viewer, RoleAnalyst, RoleAdmin); err == nil {
		t.Fatalf("viewer should be rejected")
	}
	if err := RequireRole(context.Background(), RoleAnalyst); err == nil {
		t.Fatalf("anonymous should be rejected")
	}
}

func TestUserFromContext(t *testing.T) {
	if _, ok := UserFromContext(context.Background()); ok {
		t.Fatalf("empty context should carry no user")
	}

	ctx := ContextWithUser(context.Background(), User{Name: "amy", Role: RoleAdmin})
	user, ok := UserFromContext(ctx)
	if !ok || user.Name != "amy" || user.Role != RoleAdmin {
		t.Fatalf("unexpected user: %+v, %v", user, ok)
	}

	// A user without a name is treated as absent.
	if _, ok := UserFromContext(ContextWithUser(context.Background(), User{Role: RoleAdmin})); ok {
		t.Fatalf("nameless user should not resolve")
	}
}
