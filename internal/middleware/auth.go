package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/apodboard/backend/internal/models"
	"github.com/apodboard/backend/internal/services"
	"github.com/apodboard/backend/internal/storage"
)

// SessionCookie carries the signed session token.
const SessionCookie = "jwt"

type contextKey string

const (
	ClaimsKey contextKey = "claims"
	AccessKey contextKey = "access"
)

type TokenVerifier interface {
	Verify(token string) (*services.Claims, error)
}

type Authorizer interface {
	Authorize(ctx context.Context, email string, requireAdmin bool) (models.Access, error)
}

func claimsFromCookie(r *http.Request, verifier TokenVerifier) (*services.Claims, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return nil, services.ErrInvalidToken
	}
	return verifier.Verify(cookie.Value)
}

// RequireAuth rejects requests without a valid session cookie.
func RequireAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := claimsFromCookie(r, verifier)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, models.Fail("Invalid Token"))
				return
			}
			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches claims when a valid session cookie is present and
// otherwise lets the request through anonymously.
func OptionalAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := claimsFromCookie(r, verifier)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireActive rejects banned users. It must run after RequireAuth.
func RequireActive(authz Authorizer) func(http.Handler) http.Handler {
	return guard(authz, false)
}

// RequireAdmin rejects banned users and users without admin rights.
// It must run after RequireAuth.
func RequireAdmin(authz Authorizer) func(http.Handler) http.Handler {
	return guard(authz, true)
}

func guard(authz Authorizer, requireAdmin bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaims(r.Context())
			if claims == nil {
				writeJSON(w, http.StatusUnauthorized, models.Fail("Invalid Token"))
				return
			}

			access, err := authz.Authorize(r.Context(), claims.Email, requireAdmin)
			if err != nil {
				status, msg := guardError(err)
				if status >= http.StatusInternalServerError {
					log.Printf("[auth] access check failed for %s: %v", claims.Email, err)
				}
				writeJSON(w, status, models.Fail(msg))
				return
			}

			ctx := context.WithValue(r.Context(), AccessKey, access)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func guardError(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrBanned):
		return http.StatusForbidden, "Your account has been banned"
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, "Administrator access required"
	case errors.Is(err, services.ErrUserNotFound):
		return http.StatusUnauthorized, "Your account does not exist!"
	case errors.Is(err, storage.ErrUnavailable):
		return http.StatusServiceUnavailable, err.Error()
	default:
		return http.StatusInternalServerError, "Something terrible happened"
	}
}

// GetClaims returns the session claims, or nil for anonymous requests.
func GetClaims(ctx context.Context) *services.Claims {
	claims, ok := ctx.Value(ClaimsKey).(*services.Claims)
	if !ok {
		return nil
	}
	return claims
}

// GetAccess returns the access resolved by RequireActive or RequireAdmin.
func GetAccess(ctx context.Context) (models.Access, bool) {
	access, ok := ctx.Value(AccessKey).(models.Access)
	return access, ok
}

func SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
