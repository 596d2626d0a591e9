package middleware

import (
	"context"
	"net/http"

	"github.com/intelboard/api/internal/auth"

	"github.com/google/uuid"
)

const sessionCookieName = "dashboard_session"

type sessionContextKey string

const sessionIDKey sessionContextKey = "sessionID"

// SessionMiddleware attaches a stable session identifier to each request,
// issuing a cookie on first contact. Staged upload state is keyed by this
// identifier for the lifetime of the process.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sessionID string
		if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
			if _, parseErr := uuid.Parse(cookie.Value); parseErr == nil {
				sessionID = cookie.Value
			}
		}
		if sessionID == "" {
			sessionID = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookieName,
				Value:    sessionID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), sessionIDKey, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionIDFromContext retrieves the request's session identifier.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(sessionIDKey).(string)
	return id, ok && id != ""
}

// UserMiddleware lifts the identity the authentication proxy asserts via
// headers into the request context. The service itself never verifies
// credentials.
func UserMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.Header.Get("X-User")
		role := r.Header.Get("X-User-Role")
		if name != "" {
			if role == "" {
				role = auth.RoleViewer
			}
			ctx := auth.ContextWithUser(r.Context(), auth.User{Name: name, Role: role})
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}
