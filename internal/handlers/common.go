package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/apodboard/backend/internal/models"
	"github.com/apodboard/backend/internal/services"
	"github.com/apodboard/backend/internal/storage"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// statusFor maps service and storage errors to a status code and client message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, storage.ErrUnavailable):
		return http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, services.ErrMissingCredentials):
		return http.StatusUnauthorized, "Your credentials were missing or otherwise incorrect"
	case errors.Is(err, services.ErrUserNotFound):
		return http.StatusUnauthorized, "Your account does not exist!"
	case errors.Is(err, services.ErrUserAlreadyExists):
		return http.StatusUnauthorized, "There is already an account with that email address in the system"
	case errors.Is(err, services.ErrInvalidToken):
		return http.StatusUnauthorized, "Invalid Token"
	case errors.Is(err, services.ErrInvalidPassword):
		return http.StatusUnauthorized, "Invalid Password"
	case errors.Is(err, services.ErrInvalidDateRange):
		return http.StatusBadRequest, "You used a value outside the legal date-range for NASA"
	case errors.Is(err, services.ErrNASA):
		return http.StatusInternalServerError, "Something terrible happened with NASA"
	case errors.Is(err, services.ErrBanned):
		return http.StatusForbidden, "Your account has been banned"
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, "You are not allowed to do that"
	case errors.Is(err, services.ErrPostNotFound):
		return http.StatusNotFound, "Post not found"
	case errors.Is(err, services.ErrVoteNotFound):
		return http.StatusNotFound, "Vote not found"
	case errors.Is(err, services.ErrAlreadyVoted):
		return http.StatusConflict, "You already voted for this post"
	case errors.Is(err, services.ErrPostExists):
		return http.StatusConflict, "A post for that query already exists"
	default:
		return http.StatusInternalServerError, "Something terrible happened"
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[%s %s] %v", r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, models.Fail(msg))
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusFound)
}

func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func formInt(r *http.Request, key string) (int64, error) {
	raw := strings.TrimSpace(r.FormValue(key))
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}
