package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/intelboard/api/internal/auth"

	"github.com/google/uuid"
)

func TestSessionMiddlewareIssuesCookie(t *testing.T) {
	var captured string
	handler := SessionMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := SessionIDFromContext(r.Context())
		if !ok {
			t.Fatalf("session id missing from context")
		}
		captured = id
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if _, err := uuid.Parse(captured); err != nil {
		t.Fatalf("session id is not a uuid: %q", captured)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "dashboard_session" || cookies[0].Value != captured {
		t.Fatalf("unexpected cookies: %v", cookies)
	}
	if !cookies[0].HttpOnly {
		t.Fatalf("session cookie must be http-only")
	}
}

func TestSessionMiddlewareReusesValidCookie(t *testing.T) {
	existing := uuid.NewString()

	var captured string
	handler := SessionMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		captured, _ = SessionIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "dashboard_session", Value: existing})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if captured != existing {
		t.Fatalf("session id not reused: got %q, want %q", captured, existing)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatalf("no new cookie should be issued for a valid session")
	}
}

func TestSessionMiddlewareRejectsMalformedCookie(t *testing.T) {
	var captured string
	handler := SessionMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		captured, _ = SessionIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "dashboard_session", Value: "not-a-uuid"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if captured == "not-a-uuid" || captured == "" {
		t.Fatalf("malformed cookie should be replaced, got %q", captured)
	}
}

func TestUserMiddlewareLiftsHeaders(t *testing.T) {
	var user auth.User
	var found bool
	handler := UserMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		user, found = auth.UserFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User", "alice")
	req.Header.Set("X-User-Role", auth.RoleAnalyst)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !found || user.Name != "alice" || user.Role != auth.RoleAnalyst {
		t.Fatalf("unexpected user: %+v, %v", user, found)
	}
}

func TestUserMiddlewareDefaultsRoleToViewer(t *testing.T) {
	var user auth.User
	handler := UserMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		user, _ = auth.UserFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User", "bob")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if user.Role != auth.RoleViewer {
		t.Fatalf("expected viewer default, got %q", user.Role)
	}
}

func TestUserMiddlewareAnonymous(t *testing.T) {
	var found bool
	handler := UserMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		_, found = auth.UserFromContext(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if found {
		t.Fatalf("anonymous request should carry no user")
	}
}
