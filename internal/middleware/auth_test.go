package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/apodboard/backend/internal/models"
	"github.com/apodboard/backend/internal/services"
	"github.com/apodboard/backend/internal/storage"
)

type stubAuthorizer struct {
	access models.Access
	err    error
	admin  []bool
}

func (s *stubAuthorizer) Authorize(ctx context.Context, email string, requireAdmin bool) (models.Access, error) {
	s.admin = append(s.admin, requireAdmin)
	return s.access, s.err
}

func newTokens(t *testing.T) *services.TokenService {
	t.Helper()
	tokens, err := services.NewTokenService("middleware-secret", time.Hour)
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	return tokens
}

func withSession(t *testing.T, tokens *services.TokenService, r *http.Request) *http.Request {
	t.Helper()
	token, _, err := tokens.Issue(3, "a@b.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	return r
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp models.Envelope
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.Error
}

func TestRequireAuth(t *testing.T) {
	tokens := newTokens(t)
	var seen *services.Claims
	h := RequireAuth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetClaims(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/protected", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without cookie, got %d", rr.Code)
	}
	if msg := decodeError(t, rr); msg != "Invalid Token" {
		t.Fatalf("unexpected error %q", msg)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "garbage"})
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, withSession(t, tokens, httptest.NewRequest(http.MethodGet, "/protected", nil)))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if seen == nil || seen.ID != 3 || seen.Email != "a@b.com" {
		t.Fatalf("unexpected claims %+v", seen)
	}
}

func TestOptionalAuth(t *testing.T) {
	tokens := newTokens(t)
	var seen *services.Claims
	calls := 0
	h := OptionalAuth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		seen = GetClaims(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "garbage"})
	h.ServeHTTP(httptest.NewRecorder(), req)
	if calls != 1 || seen != nil {
		t.Fatalf("expected anonymous pass-through, calls=%d claims=%+v", calls, seen)
	}

	h.ServeHTTP(httptest.NewRecorder(), withSession(t, tokens, httptest.NewRequest(http.MethodGet, "/", nil)))
	if calls != 2 || seen == nil {
		t.Fatalf("expected claims on second call")
	}
}

func TestGuards(t *testing.T) {
	tokens := newTokens(t)
	cases := []struct {
		name   string
		admin  bool
		err    error
		status int
	}{
		{"active ok", false, nil, http.StatusOK},
		{"admin ok", true, nil, http.StatusOK},
		{"banned", false, services.ErrBanned, http.StatusForbidden},
		{"not admin", true, services.ErrForbidden, http.StatusForbidden},
		{"unknown user", false, services.ErrUserNotFound, http.StatusUnauthorized},
		{"store down", false, storage.ErrUnavailable, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			authz := &stubAuthorizer{access: models.Access{UserID: 3, Admin: tc.admin}, err: tc.err}
			guardFn := RequireActive(authz)
			if tc.admin {
				guardFn = RequireAdmin(authz)
			}
			var access models.Access
			h := RequireAuth(tokens)(guardFn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				access, _ = GetAccess(r.Context())
			})))

			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, withSession(t, tokens, httptest.NewRequest(http.MethodPost, "/votes", nil)))
			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rr.Code)
			}
			if len(authz.admin) != 1 || authz.admin[0] != tc.admin {
				t.Fatalf("unexpected requireAdmin flags %v", authz.admin)
			}
			if tc.err == nil && access.UserID != 3 {
				t.Fatalf("expected access in context, got %+v", access)
			}
			if tc.err == services.ErrBanned {
				if msg := decodeError(t, rr); msg != "Your account has been banned" {
					t.Fatalf("unexpected error %q", msg)
				}
			}
		})
	}
}

func TestSessionCookies(t *testing.T) {
	rr := httptest.NewRecorder()
	SetSessionCookie(rr, "tok", 8*time.Hour, true)
	ClearSessionCookie(rr, true)

	cookies := rr.Result().Cookies()
	if len(cookies) != 2 {
		t.Fatalf("expected 2 cookies, got %d", len(cookies))
	}
	set, cleared := cookies[0], cookies[1]
	if set.Name != SessionCookie || set.Value != "tok" || !set.HttpOnly || !set.Secure || set.MaxAge != 8*3600 {
		t.Fatalf("unexpected session cookie %+v", set)
	}
	if cleared.Value != "" || cleared.MaxAge >= 0 {
		t.Fatalf("expected an expired cookie, got %+v", cleared)
	}
}
