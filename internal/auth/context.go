package auth

import (
	"context"
	"fmt"
)

// Known roles, in ascending privilege order.
const (
	RoleViewer  = "viewer"
	RoleAnalyst = "analyst"
	RoleAdmin   = "admin"
)

// User is the authenticated identity attached to a request. Credential
// verification happens upstream; this package only carries the result.
type User struct {
	Name string
	Role string
}

type contextKey string

const userKey contextKey = "user"

// ContextWithUser returns a new context that carries the authenticated user.
func ContextWithUser(ctx context.Context, user User) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext retrieves the authenticated user from the context, if any.
func UserFromContext(ctx context.Context) (User, bool) {
	if ctx == nil {
		return User{}, false
	}
	value := ctx.Value(userKey)
	if value == nil {
		return User{}, false
	}
	user, ok := value.(User)
	if !ok || user.Name == "" {
		return User{}, false
	}
	return user, true
}

// RequireRole ensures the request carries a user holding one of the given
// roles. Pages gate access with this before invoking the reconciler.
func RequireRole(ctx context.Context, roles ...string) error {
	user, ok := UserFromContext(ctx)
	if !ok {
		return fmt.Errorf("authentication required")
	}
	for _, role := range roles {
		if user.Role == role {
			return nil
		}
	}
	return fmt.Errorf("role %q is not permitted to perform this action", user.Role)
}
